package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the bridge's HTTP surface around the Slack event handler.
func NewRouter(events http.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Metrics first so every response is counted, including recovered panics.
	r.Use(Metrics)
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusNotFound, "Not found")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeText(w, http.StatusOK, "ok!")
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Method(http.MethodPost, "/slack/events", events)

	return r
}
