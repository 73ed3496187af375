package middleware

import (
	"net/http"

	"obra-control-backend/pkg/authz"
	"obra-control-backend/pkg/utils"
)

// RequireAction applies the coarse role gate for action. It assumes the
// authentication gate already ran.
func RequireAction(action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := RequireUser(r.Context())
			if err != nil {
				utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
				return
			}

			if !authz.Allows(user.Rol, action) {
				utils.WriteError(w, http.StatusForbidden, "No tienes permisos para esta acción")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
