package middleware

import (
	"net/http"
	"runtime/debug"

	"obra-control-backend/pkg/logger"
	"obra-control-backend/pkg/utils"
)

// Recovery turns panics into 500 responses. The stack goes to the log, the
// client only ever sees the generic message.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().
						Interface("panic", rec).
						Bytes("stack", debug.Stack()).
						Str("path", r.URL.Path).
						Msg("panic recovered")

					utils.WriteError(w, http.StatusInternalServerError, "Error interno del servidor")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
