package app

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/backend-fundraise/internal/catalog"
	"github.com/noah-isme/backend-fundraise/internal/checkout"
	"github.com/noah-isme/backend-fundraise/internal/common"
	"github.com/noah-isme/backend-fundraise/internal/events"
	"github.com/noah-isme/backend-fundraise/internal/goal"
	"github.com/noah-isme/backend-fundraise/internal/obs"
	"github.com/noah-isme/backend-fundraise/internal/order"
	"github.com/noah-isme/backend-fundraise/internal/ratelimit"
)

// NewRouter mounts the API on a chi router.
func NewRouter(d *Dependencies) http.Handler {
	cfg := d.Config

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{
		Catalog: d.Catalog,
		Volumes: func(ctx context.Context) (map[string]int64, error) {
			snap, err := d.Ledger.Snapshot(ctx)
			if err != nil {
				return nil, err
			}
			return snap.Volumes, nil
		},
	})
	checkoutHandler := &checkout.Handler{Service: d.Checkout}
	orderHandler := &order.Handler{Service: d.Orders}
	goalHandler := &goal.Handler{Service: d.Goal}
	eventsHandler := &events.Handler{Journal: d.Journal}

	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL}
	limit := ratelimit.Handler{
		Limiter: d.Limiter,
		OnError: func(err error) { d.Logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(cfg.MetricsBuckets)
		r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(cfg.MetricsNamespace, buckets, d.Registry)}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg.CORSAllowedOrigins),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"X-RateLimit-Remaining", "Retry-After", "Idempotent-Replayed"},
		MaxAge:         300,
	}))
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(cfg.MaxBodyBytes))
	}

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))
	}
	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(middleware.SetHeader("Cache-Control", "no-store"))

		v.Get("/catalog", catalogHandler.List)
		v.Get("/catalog/{id}", catalogHandler.Get)
		v.Get("/totals", goalHandler.Totals)
		v.Get("/goal", goalHandler.Get)
		v.Get("/orders", orderHandler.List)
		v.Get("/orders/{id}", orderHandler.Get)
		v.Get("/events", eventsHandler.Recent)
		v.Post("/checkout/quote", checkoutHandler.Quote)

		v.Group(func(w chi.Router) {
			w.Use(limit.Middleware)
			w.Use(idem.Middleware)
			w.Post("/checkout", checkoutHandler.Checkout)
			w.Post("/orders", orderHandler.Create)
			w.Put("/goal", goalHandler.Put)
		})
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
