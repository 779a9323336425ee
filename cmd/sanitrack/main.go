package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sanitrack/sanitrack/pkg/api"
	"github.com/sanitrack/sanitrack/pkg/auth"
	"github.com/sanitrack/sanitrack/pkg/config"
	"github.com/sanitrack/sanitrack/pkg/middleware"
	"github.com/sanitrack/sanitrack/pkg/observability"
	"github.com/sanitrack/sanitrack/pkg/service"
	"github.com/sanitrack/sanitrack/pkg/storage"
	"github.com/sanitrack/sanitrack/pkg/storage/surreal"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(observability.ParseLevel(cfg.Observability.LogLevel))
	logger := observability.NewDynamicLogger(logLevel, cfg.Observability.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	// Hot reload of the overlay file retargets the log level without a
	// restart; everything else applies on the next start.
	if path := os.Getenv("SANITRACK_CONFIG_FILE"); path != "" {
		err := config.Watch(ctx, path, logger, func(updated *config.Config) {
			logLevel.Set(observability.ParseLevel(updated.Observability.LogLevel))
		})
		if err != nil {
			logger.Warn("config watch unavailable", slog.Any("error", err))
		}
	}

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize OpenTelemetry", slog.Any("error", err))
		os.Exit(1)
	}

	store, redisClient, err := buildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}

	blobs, err := storage.NewBlobStore(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize blob storage", slog.Any("error", err))
		os.Exit(1)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}
	health := observability.NewHealthChecker(store, redisClient, blobs, cfg.Observability.OTelServiceVersion)

	server := api.NewServer(api.Dependencies{
		Logger:        logger,
		Authenticator: middleware.NewAuthenticator(tokens, store.Users(), logger),
		Auth:          service.NewAuthService(store, tokens),
		Users:         service.NewUserService(store),
		Villages:      service.NewVillageService(store),
		Facilities:    service.NewFacilityService(store, blobs),
		Inspections:   service.NewInspectionService(store),
		Issues:        service.NewIssueService(store),
		Reports:       service.NewReportService(store),
		Dashboard:     service.NewDashboardService(store),
		Metrics:       metrics,
		Health:        health,
		CORSOrigins:   cfg.Server.CORSOrigins,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
	})

	var handler http.Handler = server
	if cfg.Observability.OTelEnabled {
		handler = otelhttp.NewHandler(server, "sanitrack-api")
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Probes and metrics listen on their own port so they stay reachable
	// when the API port is saturated.
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, health)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(healthServer.Shutdown)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return store.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	go func() {
		logger.Info("health server listening", slog.String("addr", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	go func() {
		logger.Info("API server listening",
			slog.String("addr", httpServer.Addr),
			slog.String("storage", cfg.Storage.Type),
			slog.Bool("cache", cfg.Storage.CacheEnabled),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("API server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		logger.Error("shutdown finished with errors", slog.Any("error", err))
		os.Exit(1)
	}
}

// buildStore picks the configured backend and wraps it with the cache
// decorator when enabled.
func buildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, *redis.Client, error) {
	var store storage.Store
	switch cfg.Storage.Type {
	case "surreal":
		s, err := surreal.New(ctx, cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		store = s
	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		store = storage.NewMemoryStore()
	}

	if !cfg.Storage.CacheEnabled {
		return store, nil, nil
	}

	redisClient, err := storage.NewRedisClient(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewCachedStore(store, redisClient, cfg.Storage), redisClient, nil
}
