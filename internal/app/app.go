// Package app builds the fundraising API from configuration: stores,
// recorders, event fan-out, services and the HTTP router.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-fundraise/internal/catalog"
	"github.com/noah-isme/backend-fundraise/internal/checkout"
	"github.com/noah-isme/backend-fundraise/internal/config"
	"github.com/noah-isme/backend-fundraise/internal/events"
	"github.com/noah-isme/backend-fundraise/internal/goal"
	"github.com/noah-isme/backend-fundraise/internal/health"
	"github.com/noah-isme/backend-fundraise/internal/ledger"
	"github.com/noah-isme/backend-fundraise/internal/lock"
	"github.com/noah-isme/backend-fundraise/internal/migrate"
	"github.com/noah-isme/backend-fundraise/internal/obs"
	"github.com/noah-isme/backend-fundraise/internal/order"
	"github.com/noah-isme/backend-fundraise/internal/ratelimit"
	"github.com/noah-isme/backend-fundraise/internal/repo"
	"github.com/noah-isme/backend-fundraise/internal/resilience"
)

// Dependencies enumerates the services shared by the HTTP layer.
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Registry *prometheus.Registry

	Catalog  *catalog.Catalog
	Ledger   ledger.Store
	Redis    *redis.Client
	Journal  *events.Journal
	Bus      *events.Bus
	Limiter  ratelimit.Limiter
	Health   *health.Handler
	Orders   *order.Service
	Checkout *checkout.Service
	Goal     *goal.Service

	closers []func() error
}

// Build wires every dependency described by cfg. Call Close when done.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (deps *Dependencies, err error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	deps = &Dependencies{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Health:   &health.Handler{},
	}
	defer func() {
		if err != nil {
			_ = deps.Close()
			deps = nil
		}
	}()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if deps.Catalog, err = loadCatalog(cfg, logger); err != nil {
		return nil, err
	}

	if cfg.RedisURL != "" {
		if err = deps.connectRedis(ctx); err != nil {
			return nil, err
		}
	}
	if deps.Ledger, err = deps.buildLedger(ctx); err != nil {
		return nil, err
	}

	deps.Journal = events.NewJournal(cfg.EventJournal)
	deps.Bus = &events.Bus{
		Store:     deps.Journal,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: obs.Component(logger, "events")}},
	}
	if cfg.AMQPURL != "" {
		conn, err := events.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("connect amqp: %w", err)
		}
		deps.closers = append(deps.closers, conn.Close)
		deps.Bus.Notifiers = append(deps.Bus.Notifiers, conn.Notifier(cfg.AMQPExchange))
	}

	switch {
	case cfg.RateLimitMax <= 0:
	case deps.Redis != nil:
		deps.Limiter = ratelimit.Sliding{
			Client: deps.Redis,
			Prefix: "ratelimit:",
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		}
	default:
		deps.Limiter = ratelimit.NewMemory(cfg.RateLimitWindow, cfg.RateLimitMax)
	}

	var metrics *obs.DomainMetrics
	if cfg.MetricsEnabled {
		metrics = obs.NewDomainMetrics(cfg.MetricsNamespace, deps.Registry)
	}

	recorder, err := deps.buildRecorder(ctx)
	if err != nil {
		return nil, err
	}

	consolidator := &ledger.Consolidator{Catalog: deps.Catalog, Store: deps.Ledger}
	deps.Orders = &order.Service{
		Consolidator: consolidator,
		Log:          order.NewLog(),
		Recorder:     recorder,
		RecorderName: cfg.Recorder,
		Events:       deps.Bus,
		Metrics:      metrics,
		Logger:       obs.Component(logger, "orders"),
	}
	deps.Checkout = &checkout.Service{
		Consolidator: consolidator,
		Events:       deps.Bus,
		Metrics:      metrics,
		Logger:       obs.Component(logger, "checkout"),
	}
	deps.Goal = &goal.Service{
		Catalog: deps.Catalog,
		Store:   deps.Ledger,
		Tracker: goal.NewTracker(cfg.FundingGoal),
		Events:  deps.Bus,
		Metrics: metrics,
		Logger:  obs.Component(logger, "goal"),
	}
	deps.Health.Probes = append(deps.Health.Probes, health.Probe{
		Name:  "ledger",
		Check: func(ctx context.Context) error { _, err := deps.Ledger.Snapshot(ctx); return err },
	})
	return deps, nil
}

func loadCatalog(cfg *config.Config, logger zerolog.Logger) (*catalog.Catalog, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if cfg.CatalogPath == "" {
		cat = catalog.Default()
	} else if cat, err = catalog.LoadFile(cfg.CatalogPath); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	for _, w := range cat.Warnings() {
		logger.Warn().Str("product", w.ProductID).Msg(w.Message)
	}
	return cat, nil
}

func (d *Dependencies) connectRedis(ctx context.Context) error {
	opts, err := redis.ParseURL(d.Config.RedisURL)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	d.closers = append(d.closers, client.Close)
	if err := redisotel.InstrumentTracing(client); err != nil {
		d.Logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if d.Config.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			d.Logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	d.Redis = client
	d.Health.Probes = append(d.Health.Probes, health.Probe{
		Name:  "redis",
		Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
	})
	return nil
}

func (d *Dependencies) buildLedger(ctx context.Context) (ledger.Store, error) {
	if d.Config.LedgerStore != config.LedgerRedis {
		return ledger.NewMemoryStore(d.Catalog.IDs()), nil
	}
	store := &ledger.RedisStore{
		Client: d.Redis,
		Key:    d.Config.LedgerKey,
		Locker: lock.Locker{
			R:   d.Redis,
			TTL: d.Config.LockTTL,
			OnLost: func(key string, err error) {
				d.Logger.Warn().Err(err).Str("lock", key).Msg("ledger lock expired before release")
			},
		},
	}
	if err := store.Init(ctx, d.Catalog.IDs()); err != nil {
		return nil, err
	}
	return store, nil
}

func (d *Dependencies) buildRecorder(ctx context.Context) (order.Recorder, error) {
	cfg := d.Config
	switch cfg.Recorder {
	case config.RecorderPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse database config: %w", err)
		}
		poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = "fundraise-api"
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		d.closers = append(d.closers, func() error { pool.Close(); return nil })
		if err := migrate.Postgres(ctx, pool); err != nil {
			return nil, err
		}
		store := &repo.PostgresOrders{Pool: pool}
		d.Health.Probes = append(d.Health.Probes, health.Probe{Name: "postgres", Check: store.Ping})
		return store, nil
	case config.RecorderSQLite:
		store, err := repo.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, store.Close)
		d.Health.Probes = append(d.Health.Probes, health.Probe{Name: "sqlite", Check: store.Ping})
		return store, nil
	case config.RecorderHTTP:
		breaker := resilience.NewBreaker(cfg.BreakerMinRequests, cfg.BreakerFailureRatio, cfg.BreakerOpenFor).
			WithTarget("recorder").
			WithLogger(obs.Component(d.Logger, "recorder"))
		if cfg.MetricsEnabled {
			breaker = breaker.WithMetrics(resilience.NewBreakerMetrics(cfg.MetricsNamespace, d.Registry))
		}
		return order.NewHTTPRecorder(cfg.RecorderURL, cfg.RecorderWait, breaker), nil
	default:
		return order.NopRecorder{}, nil
	}
}

// Close releases connections in reverse order of creation.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// Handler builds the HTTP handler for deps.
func (d *Dependencies) Handler() http.Handler {
	return NewRouter(d)
}
