package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aanand-mishra/players-api/internal/utils/response"
)

// Recovery turns a panic in a handler into a 500 JSON error and logs the
// stack.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						slog.Any("error", err),
						slog.String("stack", string(debug.Stack())),
						slog.String("request_id", RequestIDFrom(r.Context())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)

					_ = response.WriteJSON(w, http.StatusInternalServerError,
						response.GeneralError(errors.New("internal server error")))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
