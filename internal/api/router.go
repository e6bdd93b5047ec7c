package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parley-dev/parley/internal/interactions"
)

// Options tune the router's edge behavior.
type Options struct {
	APIKey    string
	Backend   string
	RateRPS   float64
	RateBurst int
}

// NewRouter creates the chi router with all routes and middleware.
func NewRouter(store *interactions.Store, opts Options, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	interactionH := NewInteractionHandler(store)
	healthH := NewHealthHandler(interactionH, opts.Backend)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(opts.APIKey))
		r.Use(RateLimit(opts.RateRPS, opts.RateBurst))

		r.Route("/interactions", func(r chi.Router) {
			r.Get("/", interactionH.List)
			r.Delete("/", interactionH.ClearAll)
			r.Post("/ask_user", interactionH.SaveAskUser)
			r.Post("/plan_review", interactionH.SavePlanReview)
			r.Get("/pending", interactionH.ListPending)
			r.Get("/completed", interactionH.ListCompleted)
			r.Get("/stats", interactionH.Stats)
			r.Post("/delete", interactionH.DeleteMany)
			r.Get("/{id}", interactionH.Get)
			r.Patch("/{id}", interactionH.Update)
			r.Delete("/{id}", interactionH.Delete)
			r.Post("/{id}/respond", interactionH.Respond)
			r.Post("/{id}/resolve", interactionH.Resolve)
		})
	})

	return r
}
