// Command service runs the mentormind lesson API.
package main

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mentormind/mentormind-backend/internal/adapters/http"
	"github.com/mentormind/mentormind-backend/internal/adapters/http/handlers"
	"github.com/mentormind/mentormind-backend/internal/adapters/http/middleware"
	"github.com/mentormind/mentormind-backend/internal/adapters/postgres"
	"github.com/mentormind/mentormind-backend/internal/app"
	"github.com/mentormind/mentormind-backend/internal/platform/config"
	"github.com/mentormind/mentormind-backend/internal/platform/database"
	"github.com/mentormind/mentormind-backend/internal/platform/logging"
	"github.com/mentormind/mentormind-backend/internal/platform/telemetry"
	"github.com/mentormind/mentormind-backend/internal/ports"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Teardown runs in
// reverse: HTTP drain, then the pool, then the telemetry flush.
func run(ctx context.Context) error {
	profile := cmp.Or(os.Getenv("APP_ENVIRONMENT"), "local")

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("profile", profile),
	)

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("starting telemetry: %w", err)
	}

	defer func() {
		// ctx is already cancelled here.
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("flushing telemetry", slog.Any("error", err))
		}
	}()

	db, err := openDatabase(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		database.NewPoolCollector(db, prometheus.Labels{"service": cfg.App.Name}),
	)

	checks := ports.NewHealthRegistry()
	if err := checks.Register(db); err != nil {
		return fmt.Errorf("registering health check: %w", err)
	}

	lessons := app.NewLessonService(app.LessonServiceConfig{
		Repository: postgres.NewLessonRepository(db),
		Scope:      db.Session,
		Logger:     logger,
	})

	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:        logger,
		AppConfig:     &cfg.App,
		HealthHandler: handlers.NewHealthHandler(checks, handlers.NewBuildInfo(Version, Commit, BuildTime), metrics),
		LessonHandler: handlers.NewLessonHandler(lessons),
		DBSession:     middleware.DBSession(db),
		Timeout:       cfg.Server.RequestTimeout,
	})

	select {
	case err := <-server.Start():
		return err
	case <-ctx.Done():
		logger.Info("shutdown requested", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	}

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(drainCtx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	file := cfg.Log.File

	return logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    file.Enabled,
			Path:       file.Path,
			MaxSizeMB:  file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAgeDays: file.MaxAgeDays,
			Compress:   file.Compress,
		},
	})
}

// openDatabase builds the pool and the handle that binds connection state to
// request contexts. Only min_conns connections are dialled up front.
func openDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) (*database.Database, error) {
	dsn, err := database.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	pool, err := database.NewPool(ctx, dsn, database.PoolConfig{
		MaxConns:          cfg.MaxConns,
		MinConns:          cfg.MinConns,
		MaxConnLifetime:   cfg.MaxConnLifetime,
		MaxConnIdleTime:   cfg.MaxConnIdleTime,
		HealthCheckPeriod: cfg.HealthCheckPeriod,
		ConnectTimeout:    cfg.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening pool: %w", err)
	}

	logger.Info("database configured",
		slog.Any("database", dsn),
		slog.Int("max_conns", int(cfg.MaxConns)),
		slog.Bool("auto_connect", cfg.AutoConnect),
	)

	return database.New(database.Config{Pool: pool, AutoConnect: cfg.AutoConnect, Logger: logger}), nil
}
