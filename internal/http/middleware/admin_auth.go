package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dgs-intellisol/nexuscrux-website/internal/auth"
	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

// OperatorAuth enforces an HS256 operator token carrying at least the required
// role. Revoked token ids are rejected when a revocation store is configured.
func OperatorAuth(secret string, revocations auth.RevocationStore, required auth.Role, logger *logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeAuthError(w, http.StatusUnauthorized, "Operator auth disabled")
				return
			}
			tokenString, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}
			claims, err := auth.ParseOperatorToken(tokenString, secret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			if revocations != nil {
				revoked, err := revocations.IsRevoked(r.Context(), claims.ID)
				if err != nil {
					logger.Error("revocation check failed", "error", err, "subject", claims.Subject)
					writeAuthError(w, http.StatusServiceUnavailable, "Token revocation check unavailable")
					return
				}
				if revoked {
					writeAuthError(w, http.StatusUnauthorized, "Token revoked")
					return
				}
			}
			if !claims.Role.Allows(required) {
				writeAuthError(w, http.StatusForbidden, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
