package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/actuallystonmai/order-recommender/internal/handler"
	"github.com/actuallystonmai/order-recommender/internal/logging"
)

type Options struct {
	Timeout time.Duration

	// Per-IP limit on recommendation routes. Zero disables it.
	RateLimitReqs   int
	RateLimitWindow time.Duration
}

func Setup(h *handler.Handler, opts Options) http.Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.Timeout))

	r.Get("/", h.Index)
	r.Get("/health", healthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if opts.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitReqs, opts.RateLimitWindow))
		}
		r.Post("/recommend", h.Recommend)
		r.Get("/api/employees/{employeeID}/recommendations", h.GetRecommendations)
		r.Get("/api/recommendations/batch", h.GetBatchRecommendations)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
