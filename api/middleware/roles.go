package middleware

import (
	"net/http"

	"github.com/nerdacademy/nerdacademy-backend/api/responses"
	"github.com/nerdacademy/nerdacademy-backend/internal/access"
	"github.com/nerdacademy/nerdacademy-backend/pkg/enums"
	"github.com/nerdacademy/nerdacademy-backend/pkg/logger"
)

// RequireRole rejects callers whose role is not in roles. It must run after Auth.
func RequireRole(logg *logger.Logger, roles ...enums.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := access.RequireRole(PrincipalFromContext(r.Context()), roles...); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
