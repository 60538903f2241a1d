// Package migrations embeds the schema for each supported database driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
)`

// Migration is a single embedded up script.
type Migration struct {
	Version string
	SQL     string
}

// Load returns the up migrations for driver in version order.
func Load(driver database.Driver) ([]Migration, error) {
	if !driver.IsValid() {
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}

	dir := driver.String()
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		body, err := fs.ReadFile(files, dir+"/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		migrations = append(migrations, Migration{
			Version: strings.TrimSuffix(name, ".up.sql"),
			SQL:     string(body),
		})
	}
	return migrations, nil
}

// Apply runs every pending migration for driver and returns the versions applied.
func Apply(ctx context.Context, exec database.Executor, driver database.Driver, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	migrations, err := Load(driver)
	if err != nil {
		return nil, err
	}

	if _, err := exec.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	applied, err := appliedVersions(ctx, exec)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if _, err := exec.Exec(ctx, m.SQL); err != nil {
			return ran, fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}
		if _, err := exec.Exec(ctx,
			`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			m.Version, time.Now().UTC().Format(database.TimeLayout),
		); err != nil {
			return ran, fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		logger.Info("migration applied", "version", m.Version, "driver", driver)
		ran = append(ran, m.Version)
	}
	return ran, nil
}

func appliedVersions(ctx context.Context, exec database.Executor) (map[string]bool, error) {
	rows, err := exec.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
