package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/health"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/middleware"
)

// RouterConfig carries the dependencies the router wires together.
type RouterConfig struct {
	Handler *SearchHandler
	Health  *health.Handler
	Logger  *slog.Logger
	CORS    middleware.CORSConfig
}

// NewRouter builds the HTTP routing tree with the standard middleware
// stack.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics("search"))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", cfg.Health.LivenessHandler())
	r.Get("/readyz", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/search", func(r chi.Router) {
			r.Get("/recipes", cfg.Handler.SearchRecipes)
			r.Post("/pantry", cfg.Handler.PantrySearch)
			r.Get("/ingredients/suggest", cfg.Handler.SuggestIngredients)
			r.Post("/reindex", cfg.Handler.Reindex)
		})
		r.Post("/suggestions", cfg.Handler.Suggestions)
	})

	return r
}
