package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
// stream serves GET /ws and may be nil.
func MountRoutes(r chi.Router, h *Handlers, stream http.HandlerFunc) {
	r.Get("/health", h.HealthCheck)
	if stream != nil {
		r.Get("/ws", stream)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"version": h.Version})
		})

		r.Get("/status", h.Status)
		r.Get("/tools", h.ListTools)

		limited := r
		if h.RateLimit != nil {
			limited = r.With(h.RateLimit)
		}
		limited.Post("/ask", h.Ask)
		limited.Post("/tools/{name}", h.InvokeTool)
	})
}
