package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"veritel/internal/admin"
	"veritel/internal/audit"
	"veritel/internal/auth"
	authhandler "veritel/internal/auth/handler"
	"veritel/internal/platform/config"
	"veritel/internal/platform/httpserver"
	"veritel/internal/platform/logger"
	"veritel/internal/platform/middleware"
	platformredis "veritel/internal/platform/redis"
	"veritel/internal/ratelimit"
	"veritel/internal/registry"
	"veritel/internal/report"
	reporthandler "veritel/internal/report/handler"
	"veritel/internal/store"
	"veritel/internal/verify"
	verifyhandler "veritel/internal/verify/handler"
	"veritel/internal/verify/metrics"
)

// main wires dependencies and owns process lifecycle. Business logic lives
// in the internal services.
func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence: Postgres when configured, in-memory otherwise so the
	// service can run standalone in development.
	var (
		st     store.Store
		pg     *store.Postgres
		health []healthCheck
	)
	if cfg.DatabaseURL != "" {
		var err error
		pg, err = store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pg.Close()
		if err := store.Migrate(pg.Pool()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		st = pg
		health = append(health, healthCheck{"postgres", pg.Health})
		log.Info("postgres connected")
	} else {
		st = store.NewMemory()
		log.Warn("no database configured, using in-memory store")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	var (
		revocations auth.RevocationList
		limiter     ratelimit.Store
	)
	if redisClient != nil {
		defer redisClient.Close()
		revocations = auth.NewRedisRevocationList(redisClient.Client)
		limiter = ratelimit.NewRedisStore(redisClient.Client)
		health = append(health, healthCheck{"redis", redisClient.Health})
		log.Info("redis connected")
	} else {
		revocations = auth.NewMemoryRevocationList()
		limiter = ratelimit.NewMemoryStore()
		log.Warn("no redis configured, using in-memory revocation list and rate limiter")
	}

	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return fmt.Errorf("connecting to kafka: %w", err)
		}
		log.Info("kafka audit publisher ready", "topic", cfg.AuditTopic)
	} else {
		publisher = audit.NewMemoryPublisher()
		log.Warn("no kafka brokers configured, audit events stay in memory")
	}
	defer publisher.Close()

	var registryClient registry.Client
	if cfg.Registry.BaseURL == "mock" {
		registryClient = &registry.MockClient{Records: registry.DevFixtures()}
		log.Warn("registry URL set to mock, serving built-in fixtures")
	} else {
		registryClient = registry.NewHTTPClient(cfg.Registry.BaseURL, cfg.Registry.APIKey, cfg.Registry.Timeout)
	}

	verifySvc, err := verify.New(st, registryClient, cfg.DefaultRegion,
		verify.WithLogger(log),
		verify.WithMetrics(metrics.New()),
		verify.WithAuditPublisher(publisher),
		verify.WithFreshnessWindow(cfg.FreshnessWindow),
	)
	if err != nil {
		return fmt.Errorf("building verify service: %w", err)
	}

	reportSvc, err := report.New(st, cfg.DefaultRegion,
		report.WithLogger(log),
		report.WithAuditPublisher(publisher),
	)
	if err != nil {
		return fmt.Errorf("building report service: %w", err)
	}

	tokens := auth.NewTokenService(cfg.JWTSigningKey, "veritel", "veritel-admin")
	authSvc := auth.NewService(tokens, revocations, cfg.AdminLogin, cfg.AdminPasswordHash,
		auth.WithLogger(log),
		auth.WithAuditPublisher(publisher),
	)

	adminSvc := admin.NewService(st, cfg.DefaultRegion,
		admin.WithLogger(log),
		admin.WithAuditPublisher(publisher),
	)

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.ClientMetadata)
	router.Use(middleware.RequestTime)

	router.Group(func(r chi.Router) {
		r.Use(ratelimit.Middleware(limiter, cfg.RateLimit, cfg.RateLimitWindow, log))
		verifyhandler.New(verifySvc, log).Register(r)
		reporthandler.New(reportSvc, log).Register(r)
	})
	authhandler.New(authSvc, log).Register(router)

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(authSvc))
		admin.NewHandler(adminSvc, log).Register(r)
	})

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/readyz", readyHandler(health))

	apiServer := httpserver.New(cfg.Addr, router)

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())
	metricsServer := httpserver.New(cfg.MetricsAddr, metricsRouter)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("veritel listening", "addr", cfg.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("metrics listening", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

type healthCheck struct {
	name  string
	check func(context.Context) error
}

func readyHandler(checks []healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, hc := range checks {
			if err := hc.check(ctx); err != nil {
				slog.WarnContext(ctx, "readiness check failed", "dependency", hc.name, "error", err)
				http.Error(w, hc.name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
