package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/venues/pkg/observability"
)

// ReportOutboxStats publishes the relay counters and the pending backlog as gauges.
func ReportOutboxStats(ctx context.Context, repo outbox.Repository, stats outbox.Stats, metrics observability.Metrics) error {
	metrics.Gauge(observability.MetricOutboxPublished, float64(stats.PublishedCount))
	metrics.Gauge(observability.MetricOutboxFailed, float64(stats.FailedCount))
	metrics.Gauge(observability.MetricOutboxDead, float64(stats.DeadCount))
	metrics.Gauge(observability.MetricOutboxLag, stats.LagSeconds)

	pending, err := repo.CountPending(ctx)
	if err != nil {
		return fmt.Errorf("count pending outbox messages: %w", err)
	}
	metrics.Gauge(observability.MetricOutboxPending, float64(pending))
	return nil
}

// LogOutboxStats writes the relay counters as one log record.
func LogOutboxStats(logger *slog.Logger, stats outbox.Stats) {
	logger.Info("outbox stats",
		"running", stats.IsRunning,
		"published", stats.PublishedCount,
		"failed", stats.FailedCount,
		"dead", stats.DeadCount,
		"lag_seconds", stats.LagSeconds,
		"oldest_message_at", stats.OldestMessageAt,
		"last_processed_at", stats.LastProcessedAt,
		"last_error_at", stats.LastErrorAt,
		"last_error", stats.LastError,
	)
}
