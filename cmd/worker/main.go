package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/venues/internal/app"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/venues/pkg/config"
	"github.com/felixgeelhaar/venues/pkg/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{AppEnv: "development"}
	}

	logger := observability.NewLogger(observability.ConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat))
	logger.Info("starting venues worker", "broker", cfg.EventBroker)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	conn, err := app.OpenDatabase(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("connected to database", "driver", conn.Driver())

	if conn.Driver() == database.DriverSQLite {
		if _, err := migrations.Apply(ctx, conn, conn.Driver(), logger); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	outboxRepo := outbox.NewSQLRepository(conn)

	// Create event publisher
	publisher, err := app.NewEventPublisher(cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to connect to event broker", "error", err)
			os.Exit(1)
		}
		logger.Warn("event broker not available, using noop publisher", "error", err)
		publisher = eventbus.NewNoopPublisher(logger)
	}
	defer publisher.Close()
	logger.Info("event publisher initialized")

	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	processor := outbox.NewProcessor(outboxRepo, publisher, processorConfig, logger)

	logger.Info("starting outbox processor",
		"poll_interval", processorConfig.PollInterval,
		"batch_size", processorConfig.BatchSize,
		"max_retries", processorConfig.MaxRetries,
	)
	if err := processor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewInMemoryMetrics()
	health := observability.NewHealthRegistry()
	health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	health.Register("broker", observability.BrokerHealthChecker(app.BrokerCheck(publisher)))

	go every(ctx, cfg.OutboxCleanupInterval, func() {
		deleted, err := outboxRepo.DeleteOld(ctx, cfg.OutboxRetentionDays)
		if err != nil {
			logger.Error("outbox cleanup failed", "error", err)
			return
		}
		if deleted > 0 {
			logger.Info("outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
		}
	})

	go every(ctx, cfg.OutboxStatsInterval, func() {
		stats := processor.GetStats()
		app.LogOutboxStats(logger, stats)
		if err := app.ReportOutboxStats(ctx, outboxRepo, stats, metrics); err != nil {
			logger.Warn("failed to report outbox stats", "error", err)
		}
	})

	if cfg.WorkerHealthAddr != "" {
		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           healthMux(processor, health, metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	// Wait for shutdown
	<-ctx.Done()
	logger.Info("shutting down worker")

	processor.Stop()
	logger.Info("worker stopped")
}

func healthMux(processor *outbox.Processor, health *observability.HealthRegistry, metrics *observability.InMemoryMetrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := processor.GetStats()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		overall := health.GetOverallHealth(checkCtx)
		status := http.StatusOK
		if overall.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, overall)
	})

	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	})
	return mux
}

// every runs fn on each tick of interval until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
