package middleware

import (
	"net/http"

	"github.com/devstudio/site-api/internal/domain"
)

// RequireRole admits callers whose role ranks at least minRole.
// It must run after Auth.
func RequireRole(minRole domain.Role, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	need := string(minRole)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok {
				writeErr(w, r, domain.ErrTokenMissing())
				return
			}

			if !domain.IsValidRole(role) || !domain.IsValidRole(need) {
				writeErr(w, r, domain.ErrForbidden())
				return
			}

			if domain.RoleRank(role) < domain.RoleRank(need) {
				writeErr(w, r, domain.ErrInsufficientRole(need))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
