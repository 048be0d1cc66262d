// Package router assembles the HTTP handler tree: the player routes, the
// health probe and the middleware applied to all of them.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/players-api/internal/http/handlers/player"
	"github.com/aanand-mishra/players-api/internal/http/middleware"
	"github.com/aanand-mishra/players-api/internal/utils/response"
)

// New returns the application's root handler.
//
// Every request passes through, in order:
//
//	RequestID → Logging → Recovery → ServeMux
//
// Recovery sits inside Logging so a request that panicked is still
// logged, with the 500 that Recovery wrote.
func New(svc player.Service, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	player.Routes(mux, svc)
	mux.HandleFunc("GET /health", Health())

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recovery(logger),
	)
}

// Health handles GET /health. It always answers {"status":"ok"} while the
// process is serving requests.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = response.WriteJSON(w, http.StatusOK, response.OK())
	}
}
