package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/database"
)

func openMemory(t *testing.T) database.Connection {
	t.Helper()
	conn, err := NewConnection(context.Background(), database.Config{SQLitePath: MemoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestNewConnection_File(t *testing.T) {
	ctx := context.Background()

	cfg := database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "nested", "venues.db"),
	}

	conn, err := NewConnection(ctx, cfg)
	require.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, conn.Ping(ctx))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
}

func TestDataSourceName(t *testing.T) {
	pragmas := "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	assert.Equal(t, "venues.db?"+pragmas, dataSourceName("venues.db"))
	assert.Equal(t, "file:venues.db?mode=rwc&"+pragmas, dataSourceName("file:venues.db?mode=rwc"))
}

func TestConnection_RollbackAfterCommit(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.NoError(t, tx.Rollback(ctx))
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	_, err := conn.Exec(ctx, `CREATE TABLE test (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	result, err := conn.Exec(ctx, `INSERT INTO test (id, name) VALUES (?, ?)`, "1", "Alice")
	require.NoError(t, err)
	rowsAffected, err := result.RowsAffected()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), rowsAffected)

	_, err = conn.Exec(ctx, `INSERT INTO test (id, name) VALUES (?, ?)`, "2", "Bob")
	require.NoError(t, err)

	rows, err := conn.Query(ctx, `SELECT id, name FROM test ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var id, name string
		require.NoError(t, rows.Scan(&id, &name))
		names = append(names, name)
	}
	assert.NoError(t, rows.Err())
	assert.Equal(t, []string{"Alice", "Bob"}, names)
}

func TestConnection_TimeRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	_, err := conn.Exec(ctx, `CREATE TABLE stamps (id INTEGER PRIMARY KEY, at TEXT NOT NULL)`)
	require.NoError(t, err)

	at := time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.FixedZone("CET", 3600))
	_, err = conn.Exec(ctx, `INSERT INTO stamps (id, at) VALUES (?, ?)`, 1, at)
	require.NoError(t, err)

	var raw string
	require.NoError(t, conn.QueryRow(ctx, `SELECT at FROM stamps WHERE id = ?`, 1).Scan(&raw))
	assert.Equal(t, "2024-03-01T11:30:45.123456Z", raw)

	var ts database.Timestamp
	require.NoError(t, conn.QueryRow(ctx, `SELECT at FROM stamps WHERE id = ?`, 1).Scan(&ts))
	assert.True(t, database.StorageTime(at).Equal(ts.Time))
}

func TestConnection_Transaction(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	_, err := conn.Exec(ctx, `CREATE TABLE test (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, `INSERT INTO test (id, name) VALUES (?, ?)`, "1", "Alice")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	tx2, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	_, err = tx2.Exec(ctx, `INSERT INTO test (id, name) VALUES (?, ?)`, "2", "Bob")
	require.NoError(t, err)
	require.NoError(t, tx2.Rollback(ctx))

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM test`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestConnection_UniqueViolation(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	_, err := conn.Exec(ctx, `CREATE TABLE test (id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, `INSERT INTO test (id, name) VALUES (?, ?)`, "1", "Alice")
	require.NoError(t, err)

	_, err = conn.Exec(ctx, `INSERT INTO test (id, name) VALUES (?, ?)`, "2", "Alice")
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}
