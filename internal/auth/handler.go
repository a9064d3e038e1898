package auth

import (
	"encoding/json"
	"net/http"

	"github.com/dgs-intellisol/nexuscrux-website/pkg/logging"
)

// RevokeHandler serves POST /auth/revoke. It revokes the caller's own token.
func RevokeHandler(store RevocationStore, logger *logging.Logger) http.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": "Token revocation is not configured"})
			return
		}
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Unauthorized"})
			return
		}
		if err := store.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			logger.Error("failed to revoke token", "error", err, "subject", claims.Subject)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to revoke token"})
			return
		}
		logger.Info("operator token revoked", "subject", claims.Subject, "jti", claims.ID)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Token revoked"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
