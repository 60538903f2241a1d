package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/venues/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/venues/pkg/clock"
	"github.com/google/uuid"
)

const selectColumns = `id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
	payload, metadata, created_at, published_at, retry_count, last_error, next_retry_at,
	dead_lettered_at, dead_letter_reason`

const insertMessage = `INSERT INTO outbox (event_id, aggregate_type, aggregate_id, event_type,
	routing_key, payload, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

// SQLRepository implements Repository on any database.Connection.
// Writes join the unit of work carried by the context, if any.
type SQLRepository struct {
	conn database.Connection
}

// NewSQLRepository creates a new outbox repository.
func NewSQLRepository(conn database.Connection) *SQLRepository {
	return &SQLRepository{conn: conn}
}

func (r *SQLRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

// Save stores a new outbox message.
func (r *SQLRepository) Save(ctx context.Context, msg *Message) error {
	return r.insert(ctx, r.executor(ctx), msg)
}

// SaveBatch stores multiple outbox messages atomically.
func (r *SQLRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if tx, ok := database.TransactionFromContext(ctx); ok {
		for _, msg := range msgs {
			if err := r.insert(ctx, tx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin outbox batch: %w", err)
	}
	for _, msg := range msgs {
		if err := r.insert(ctx, tx, msg); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *SQLRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	var metadata sql.NullString
	if len(msg.Metadata) > 0 {
		metadata = sql.NullString{String: string(msg.Metadata), Valid: true}
	}

	err := exec.QueryRow(ctx, insertMessage,
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.EventType,
		msg.RoutingKey,
		string(msg.Payload),
		metadata,
		database.StorageTime(msg.CreatedAt),
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("insert outbox message %s: %w", msg.EventID, err)
	}
	return nil
}

// GetUnpublished retrieves messages that are due for (re)publishing, oldest first.
// Messages queued behind an earlier message of the same aggregate that is
// waiting for a retry are left out, so each venue's events keep their order.
func (r *SQLRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	now := database.StorageTime(clock.Now(ctx))
	return r.query(ctx, `SELECT `+selectColumns+` FROM outbox o
		WHERE o.published_at IS NULL AND o.dead_lettered_at IS NULL
		  AND (o.next_retry_at IS NULL OR o.next_retry_at <= ?)
		  AND NOT EXISTS (
		    SELECT 1 FROM outbox earlier
		    WHERE earlier.aggregate_type = o.aggregate_type
		      AND earlier.aggregate_id = o.aggregate_id
		      AND earlier.id < o.id
		      AND earlier.published_at IS NULL AND earlier.dead_lettered_at IS NULL
		      AND earlier.next_retry_at > ?)
		ORDER BY o.created_at, o.id
		LIMIT ?`, now, now, limit)
}

// GetFailed retrieves failed messages eligible for retry.
func (r *SQLRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM outbox
		WHERE published_at IS NULL AND dead_lettered_at IS NULL
		  AND retry_count > 0 AND retry_count < ?
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?`, maxRetries, database.StorageTime(clock.Now(ctx)), limit)
}

// MarkPublished marks a message as successfully published.
func (r *SQLRepository) MarkPublished(ctx context.Context, id int64) error {
	return r.exec(ctx, `UPDATE outbox SET published_at = ?, next_retry_at = NULL WHERE id = ?`,
		database.StorageTime(clock.Now(ctx)), id)
}

// MarkFailed records a publish failure and schedules the next attempt.
func (r *SQLRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	return r.exec(ctx, `UPDATE outbox
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?`, errMsg, database.StorageTime(nextRetryAt), id)
}

// MarkDead marks a message as dead-lettered.
func (r *SQLRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	return r.exec(ctx, `UPDATE outbox
		SET retry_count = retry_count + 1, last_error = ?, dead_lettered_at = ?, dead_letter_reason = ?,
		    next_retry_at = NULL
		WHERE id = ?`, reason, database.StorageTime(clock.Now(ctx)), reason, id)
}

// DeleteOld removes published messages older than the retention period.
func (r *SQLRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := clock.Now(ctx).AddDate(0, 0, -olderThanDays)
	result, err := r.executor(ctx).Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`,
		database.StorageTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old outbox messages: %w", err)
	}
	return result.RowsAffected()
}

// CountPending returns the number of messages not yet published or dead-lettered.
func (r *SQLRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.executor(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL AND dead_lettered_at IS NULL`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox messages: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) error {
	if _, err := r.executor(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update outbox: %w", err)
	}
	return nil
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) ([]*Message, error) {
	rows, err := r.executor(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return msgs, nil
}

func scanMessage(row database.Row) (*Message, error) {
	var (
		msg              Message
		eventID          string
		aggregateID      string
		payload          string
		metadata         sql.NullString
		createdAt        database.Timestamp
		publishedAt      database.NullTimestamp
		nextRetryAt      database.NullTimestamp
		deadLetteredAt   database.NullTimestamp
		lastError        sql.NullString
		deadLetterReason sql.NullString
	)

	err := row.Scan(
		&msg.ID, &eventID, &msg.AggregateType, &aggregateID, &msg.EventType, &msg.RoutingKey,
		&payload, &metadata, &createdAt, &publishedAt, &msg.RetryCount, &lastError, &nextRetryAt,
		&deadLetteredAt, &deadLetterReason,
	)
	if err != nil {
		return nil, fmt.Errorf("scan outbox message: %w", err)
	}

	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("parse event id %q: %w", eventID, err)
	}
	if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, fmt.Errorf("parse aggregate id %q: %w", aggregateID, err)
	}

	msg.Payload = json.RawMessage(payload)
	if metadata.Valid {
		msg.Metadata = json.RawMessage(metadata.String)
	}
	msg.CreatedAt = createdAt.Time
	msg.PublishedAt = publishedAt.Ptr()
	msg.NextRetryAt = nextRetryAt.Ptr()
	msg.DeadLetteredAt = deadLetteredAt.Ptr()
	if lastError.Valid {
		msg.LastError = &lastError.String
	}
	if deadLetterReason.Valid {
		msg.DeadLetterReason = &deadLetterReason.String
	}
	return &msg, nil
}
