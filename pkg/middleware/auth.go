package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"obra-control-backend/pkg/models"
	"obra-control-backend/pkg/utils"
)

// ContextKey is the type of keys stored in the request context.
type ContextKey string

const (
	UserContextKey ContextKey = "user"
)

// UserResolver is the single store lookup the authentication gate performs
// per request.
type UserResolver interface {
	GetActiveUser(id int) (*models.AuthUser, error)
}

// Auth is the authentication gate: it verifies the bearer token and resolves
// it to an active user on every request, so deactivation takes effect on the
// next call. Expiry is signalled apart from generic invalidity because the
// client reacts differently (re-login vs refresh).
func Auth(jwtService *utils.JWTService, store UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				utils.WriteError(w, http.StatusUnauthorized, "Token de acceso requerido")
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					utils.WriteError(w, http.StatusUnauthorized, "Token expirado")
					return
				}
				utils.WriteError(w, http.StatusForbidden, "Token inválido")
				return
			}

			// Soft-deleted users are nonexistent for auth purposes.
			user, err := store.GetActiveUser(claims.UserID)
			if err != nil {
				if utils.IsNotFound(err) {
					utils.WriteError(w, http.StatusUnauthorized, "Usuario no válido")
					return
				}
				utils.WriteAppError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the identity the authentication gate attached.
func GetUserFromContext(ctx context.Context) (*models.AuthUser, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.AuthUser)
	return user, ok
}

// RequireUser returns the authenticated identity or an error when the gate
// did not run.
func RequireUser(ctx context.Context) (*models.AuthUser, error) {
	user, ok := GetUserFromContext(ctx)
	if !ok || user == nil {
		return nil, errors.New("user not authenticated")
	}
	return user, nil
}
