package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/showtime-inventory-bench/internal/config"
	"github.com/iliyamo/showtime-inventory-bench/internal/database"
	"github.com/iliyamo/showtime-inventory-bench/internal/handler"
	"github.com/iliyamo/showtime-inventory-bench/internal/logging"
	"github.com/iliyamo/showtime-inventory-bench/internal/metrics"
	"github.com/iliyamo/showtime-inventory-bench/internal/middleware"
	"github.com/iliyamo/showtime-inventory-bench/internal/queue"
	"github.com/iliyamo/showtime-inventory-bench/internal/repository"
	"github.com/iliyamo/showtime-inventory-bench/internal/router"
	"github.com/iliyamo/showtime-inventory-bench/internal/service"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.FromEnv())
	log := logging.Component("server")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Redis is optional: without it the slice cache and rate limiter pass through
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		log.Warn().Msg("redis unavailable; slice cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}
	cache := middleware.NewSliceCache(config.LoadCacheConfig(), rdb, logging.Component("cache"))
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logging.Component("ratelimit"))

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	runs := repository.NewRunRepo(db)
	if runs.Enabled() {
		defer db.Close()
		if err := runs.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("benchmark_runs schema")
		}
	}

	deps := service.Deps{
		Repo:     repository.NewDatasetRepo(),
		Cache:    cache,
		Metrics:  m,
		Log:      logging.Component("service"),
		MaxItems: cfg.MaxItemsPerDataset,
	}
	if runs.Enabled() {
		deps.Runs = runs
	}
	if cfg.EventsEnabled {
		deps.Events = queue.NewPublisher(cfg.AMQPURL, logging.Component("publisher"))
	}
	svc := service.NewInventoryService(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ConsumerEnabled {
		consumer := &queue.Consumer{URL: cfg.AMQPURL, Dir: cfg.EventLogDir, Log: logging.Component("consumer")}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("dataset consumer stopped")
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logging.Component("http"), m))
	router.RegisterRoutes(e, router.Deps{
		Datasets:  handler.NewDatasetHandler(svc),
		Bulk:      handler.NewBulkHandler(svc),
		Runs:      handler.NewRunsHandler(runs),
		Auth:      handler.NewAuthHandler(cfg),
		JWTSecret: cfg.JWTSecret,
		Cache:     cache.Middleware(),
		RateLimit: limiter,
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})
	if !cfg.AuthEnabled() {
		log.Warn().Msg("JWT_SECRET empty; dataset mutations are unauthenticated")
	}

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Bool("mysql", runs.Enabled()).Bool("events", cfg.EventsEnabled).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// explicit registry teardown: drops cached slices and emits destroyed events
	ids := svc.ClearDatasets(shutdownCtx)
	log.Info().Int("datasets", len(ids)).Msg("registry released")
}
