package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/brokeradda/portal/internal/gateway"
	"github.com/brokeradda/portal/internal/gateway/middleware"
	"github.com/brokeradda/portal/internal/modules/auth"
	"github.com/brokeradda/portal/internal/modules/notification"
	"github.com/brokeradda/portal/internal/shared/clock"
	"github.com/brokeradda/portal/internal/shared/infrastructure/config"
	"github.com/brokeradda/portal/internal/shared/infrastructure/database"
	"github.com/brokeradda/portal/internal/shared/infrastructure/logger"
	"github.com/brokeradda/portal/internal/shared/utils"
	"github.com/brokeradda/portal/pkg/migration"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine; the environment wins either way
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Environment: cfg.Server.Environment,
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	server := gateway.NewServer(cfg.Server.Port, a.handler, log)
	return server.Start(ctx)
}

// app is the wired service: storage connections, modules and routes.
type app struct {
	handler      http.Handler
	notification *notification.Module
	auth         *auth.Module
	db           *sqlx.DB
	rdb          *redis.Client
	log          *zap.Logger
}

func newApp(cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{log: log}

	switch cfg.Storage.Driver {
	case auth.DriverRedis:
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.rdb = rdb
		log.Info("redis connected", zap.String("addr", cfg.Redis.Addr()))
	case auth.DriverPostgres:
		if err := migration.AutoMigrate(cfg.Database.URL(), cfg.Storage.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		db, err := database.NewPostgresDB(cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		log.Info("database connected", zap.String("host", cfg.Database.Host))
	}

	sessions, err := auth.NewSessionStore(cfg.Storage, a.db, a.rdb)
	if err != nil {
		a.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	validator := utils.NewValidator()
	realClock := clock.Real()

	a.notification = notification.NewModule(cfg.Notification, realClock, reg, validator, log)
	a.auth = auth.NewModule(&cfg, auth.Dependencies{
		Sessions: sessions,
		Toasts:   a.notification.Store(),
		Clock:    realClock,
		Registry: reg,
		Validate: validator,
		Logger:   log,
	})

	a.handler = gateway.SetupRoutes(gateway.RouterConfig{
		AuthHandler:    a.auth.HTTPHandler(),
		ToastHandler:   a.notification.HTTPHandler(),
		ClientIdentity: middleware.NewClientIdentity(cfg.Storage.SessionTTL, cfg.Server.Environment == "production"),
		Metrics:        middleware.NewHTTPMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		HealthCheck:    a.healthCheck,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	log.Info("portal configured",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("backend", cfg.Backend.BaseURL),
	)
	return a, nil
}

func (a *app) healthCheck(ctx context.Context) error {
	var errs []error
	if a.rdb != nil {
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close stops the modules and releases storage connections.
func (a *app) Close() {
	if a.auth != nil {
		a.auth.Shutdown()
	}
	if a.notification != nil {
		a.notification.Shutdown()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("failed to close database", zap.Error(err))
		}
	}
}
