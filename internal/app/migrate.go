package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/venues/pkg/config"
	_ "github.com/lib/pq" // Register the "postgres" database/sql driver
)

// Migrate applies pending schema migrations and returns the applied versions.
// PostgreSQL is migrated over database/sql with lib/pq.
func Migrate(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]string, error) {
	driver, err := database.ParseDriver(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	if driver == "" {
		driver = database.DetectDriver(cfg.DatabaseURL)
	}

	if driver == database.DriverPostgres {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return migrations.Apply(ctx, database.NewSQLExecutor(db, database.DriverPostgres), driver, logger)
	}

	conn, err := OpenDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return migrations.Apply(ctx, conn, conn.Driver(), logger)
}
