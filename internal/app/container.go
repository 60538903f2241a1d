// Package app wires the venues service together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	sharedApplication "github.com/felixgeelhaar/venues/internal/shared/application"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/venues/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/venues/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/venues/internal/venues/application/commands"
	"github.com/felixgeelhaar/venues/internal/venues/application/queries"
	"github.com/felixgeelhaar/venues/internal/venues/application/subscribers"
	"github.com/felixgeelhaar/venues/internal/venues/domain"
	"github.com/felixgeelhaar/venues/internal/venues/infrastructure/cache"
	"github.com/felixgeelhaar/venues/internal/venues/infrastructure/persistence"
	"github.com/felixgeelhaar/venues/pkg/config"
	"github.com/felixgeelhaar/venues/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// VenueCache serves reads and drops entries after writes.
type VenueCache interface {
	queries.VenueCache
	commands.VenueCacheInvalidator
}

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DB       database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	VenueRepo  domain.Repository
	OutboxRepo outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	VenueCache VenueCache

	// Events
	EventPublisher  eventbus.Publisher
	OutboxProcessor *outbox.Processor

	// Observability
	Health  *observability.HealthRegistry
	Metrics *observability.InMemoryMetrics

	// Venue Command Handlers
	CreateVenueHandler *commands.CreateVenueHandler
	UpdateVenueHandler *commands.UpdateVenueHandler
	RemoveVenueHandler *commands.RemoveVenueHandler

	// Venue Query Handlers
	ListVenuesHandler *queries.ListVenuesHandler
	GetVenueHandler   *queries.GetVenueHandler
}

// NewContainer connects to the configured stores and builds every handler.
// SQLite databases are migrated on open; PostgreSQL expects `venues migrate`.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Health:  observability.NewHealthRegistry(),
		Metrics: observability.NewInMemoryMetrics(),
	}

	conn, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.DB = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", observability.DatabaseHealthChecker(conn.Ping))
	logger.Info("connected to database", "driver", c.DBDriver)

	if c.DBDriver == database.DriverSQLite {
		applied, err := migrations.Apply(ctx, conn, c.DBDriver, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		if len(applied) > 0 {
			logger.Info("applied migrations", "versions", applied)
		}
	}

	c.VenueCache = c.connectCache(ctx)

	publisher, err := NewEventPublisher(cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			c.Close()
			return nil, err
		}
		logger.Warn("event broker not available, using noop publisher", "error", err)
		publisher = eventbus.NewNoopPublisher(logger)
	}
	c.EventPublisher = publisher
	c.Health.Register("broker", observability.BrokerHealthChecker(BrokerCheck(publisher)))

	if bus, ok := publisher.(*eventbus.InProcessBus); ok {
		bus.RegisterConsumer(subscribers.NewEventLogger(logger))
	}

	c.VenueRepo = persistence.NewVenueRepository(conn)
	c.OutboxRepo = outbox.NewSQLRepository(conn)
	c.UnitOfWork = database.NewUnitOfWork(conn)

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, outbox.ProcessorConfig{
		PollInterval:     cfg.OutboxPollInterval,
		BatchSize:        cfg.OutboxBatchSize,
		MaxRetries:       cfg.OutboxMaxRetries,
		RetryBackoffBase: outbox.DefaultProcessorConfig().RetryBackoffBase,
		RetryBackoffMax:  outbox.DefaultProcessorConfig().RetryBackoffMax,
	}, logger)

	// Create venue command handlers
	c.CreateVenueHandler = commands.NewCreateVenueHandler(c.VenueRepo, c.OutboxRepo, c.UnitOfWork)
	c.UpdateVenueHandler = commands.NewUpdateVenueHandler(c.VenueRepo, c.OutboxRepo, c.UnitOfWork, c.VenueCache)
	c.RemoveVenueHandler = commands.NewRemoveVenueHandler(c.VenueRepo, c.OutboxRepo, c.UnitOfWork, c.VenueCache)

	// Create venue query handlers
	c.ListVenuesHandler = queries.NewListVenuesHandler(c.VenueRepo)
	c.GetVenueHandler = queries.NewGetVenueHandler(c.VenueRepo, c.VenueCache)

	return c, nil
}

// OpenDatabase opens the connection selected by the configuration.
func OpenDatabase(ctx context.Context, cfg *config.Config) (database.Connection, error) {
	driver, err := database.ParseDriver(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	if driver == "" {
		driver = database.DetectDriver(cfg.DatabaseURL)
	}

	if driver == database.DriverSQLite && cfg.SQLitePath != "" && cfg.SQLitePath != ":memory:" {
		if err := database.EnsureDirectory(cfg.SQLitePath); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     driver,
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// connectCache uses Redis when configured and reachable, else an in-process cache.
func (c *Container) connectCache(ctx context.Context) VenueCache {
	ttl := c.Config.VenueCacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if c.Config.RedisURL == "" {
		return cache.NewMemoryVenueCache(ttl)
	}

	client, err := cache.Connect(ctx, c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("Redis not available, venue cache will use in-memory fallback", "error", err)
		return cache.NewMemoryVenueCache(ttl)
	}

	c.RedisClient = client
	c.Health.Register("cache", observability.CacheHealthChecker(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}))
	c.Logger.Info("connected to Redis")
	return cache.NewRedisVenueCache(client, ttl, c.Logger)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
