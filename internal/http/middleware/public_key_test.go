package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublicKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		header string
		want   int
	}{
		{"disabled", "", "", http.StatusOK},
		{"matching key", "pk_site", "Bearer pk_site", http.StatusOK},
		{"wrong key", "pk_site", "Bearer pk_other", http.StatusUnauthorized},
		{"missing header", "pk_site", "", http.StatusUnauthorized},
		{"not bearer", "pk_site", "Basic pk_site", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/contact/demo", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			PublicKey(tt.key)(okHandler(nil)).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
