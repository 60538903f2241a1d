package app_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalApp "github.com/felixgeelhaar/venues/internal/app"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/venues/internal/venues/application/commands"
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/felixgeelhaar/venues/pkg/config"
	"github.com/felixgeelhaar/venues/pkg/observability"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:           "test",
		DatabaseDriver:   "sqlite",
		SQLitePath:       filepath.Join(t.TempDir(), "venues.db"),
		EventBroker:      config.BrokerInProcess,
		OutboxBatchSize:  10,
		OutboxMaxRetries: 3,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newContainer(t *testing.T, cfg *config.Config) *internalApp.Container {
	t.Helper()
	c, err := internalApp.NewContainer(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewContainer_LocalSQLite(t *testing.T) {
	c := newContainer(t, testConfig(t))

	assert.Equal(t, database.DriverSQLite, c.DBDriver)
	assert.Nil(t, c.RedisClient)
	assert.IsType(t, &eventbus.InProcessBus{}, c.EventPublisher)
	assert.NotNil(t, c.CreateVenueHandler)
	assert.NotNil(t, c.UpdateVenueHandler)
	assert.NotNil(t, c.RemoveVenueHandler)
	assert.NotNil(t, c.ListVenuesHandler)
	assert.NotNil(t, c.GetVenueHandler)

	health := c.Health.GetOverallHealth(context.Background())
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
	assert.Contains(t, health.Checks, "database")
}

func TestContainer_WritesAreRelayed(t *testing.T) {
	c := newContainer(t, testConfig(t))
	ctx := context.Background()

	venue, err := c.CreateVenueHandler.Handle(ctx, commands.CreateVenueCommand{Name: "Grand Ballroom"})
	require.NoError(t, err)
	_, err = c.UpdateVenueHandler.Handle(ctx, commands.UpdateVenueCommand{
		ID:        venue.ID(),
		EntityTag: venue.EntityTag(),
		Name:      "Renamed Ballroom",
	})
	require.NoError(t, err)

	require.NoError(t, internalApp.ReportOutboxStats(ctx, c.OutboxRepo, c.OutboxProcessor.GetStats(), c.Metrics))
	assert.Equal(t, float64(2), c.Metrics.GetGauge(observability.MetricOutboxPending))

	require.NoError(t, c.OutboxProcessor.ProcessOnce(ctx))

	stats := c.OutboxProcessor.GetStats()
	assert.Equal(t, uint64(2), stats.PublishedCount)
	require.NoError(t, internalApp.ReportOutboxStats(ctx, c.OutboxRepo, stats, c.Metrics))
	assert.Equal(t, float64(0), c.Metrics.GetGauge(observability.MetricOutboxPending))
	assert.Equal(t, float64(2), c.Metrics.GetGauge(observability.MetricOutboxPublished))

	got, err := c.GetVenueHandler.Handle(ctx, queries.GetVenueQuery{ID: venue.ID()})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Ballroom", got.Name)
}

func TestContainer_ReopenKeepsData(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := internalApp.NewContainer(ctx, cfg, quietLogger())
	require.NoError(t, err)
	_, err = first.CreateVenueHandler.Handle(ctx, commands.CreateVenueCommand{Name: "Grand Ballroom"})
	require.NoError(t, err)
	first.Close()

	second := newContainer(t, cfg)
	venues, err := second.ListVenuesHandler.Handle(ctx, queries.ListVenuesQuery{})
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "Grand Ballroom", venues[0].Name)
}

func TestNewContainer_UnknownBroker(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventBroker = "carrier-pigeon"

	_, err := internalApp.NewContainer(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "unsupported event broker")

	cfg.AppEnv = "development"
	c := newContainer(t, cfg)
	assert.IsType(t, &eventbus.NoopPublisher{}, c.EventPublisher)
}

func TestNewContainer_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "oracle"

	_, err := internalApp.NewContainer(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "unsupported database driver")
}
