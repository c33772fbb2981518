package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
)

// PostgresRepository stores messages in PostgreSQL.
type PostgresRepository struct {
	conn database.Connection
}

// NewPostgresRepository creates the repository.
func NewPostgresRepository(conn database.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// SaveBatch implements Repository.
func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	for _, m := range msgs {
		err := exec.QueryRow(ctx, `
			INSERT INTO outbox_messages
				(event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, metadata, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			m.EventID, m.AggregateType, m.AggregateID, m.EventType, m.RoutingKey,
			[]byte(m.Payload), []byte(m.Metadata), m.CreatedAt,
		).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("insert outbox message %s: %w", m.EventID, err)
		}
	}
	return nil
}

// GetUnpublished implements Repository.
func (r *PostgresRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, metadata,
		       created_at, published_at, retry_count, last_error, next_retry_at, dead_lettered_at, dead_letter_reason
		FROM outbox_messages
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= $1)
		ORDER BY id
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		var m Message
		var payload, metadata []byte
		if err := rows.Scan(&m.ID, &m.EventID, &m.AggregateType, &m.AggregateID, &m.EventType, &m.RoutingKey,
			&payload, &metadata, &m.CreatedAt, &m.PublishedAt, &m.RetryCount, &m.LastError,
			&m.NextRetryAt, &m.DeadLetteredAt, &m.DeadLetterReason); err != nil {
			return nil, err
		}
		m.Payload, m.Metadata = payload, metadata
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// MarkPublished implements Repository.
func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`UPDATE outbox_messages SET published_at = $2 WHERE id = $1`, id, at)
	return err
}

// MarkFailed implements Repository.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3
		WHERE id = $1`, id, errMsg, nextRetryAt)
	return err
}

// MarkDead implements Repository.
func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, dead_lettered_at = $2, dead_letter_reason = $3
		WHERE id = $1`, id, at, reason)
	return err
}

// DeleteOld implements Repository.
func (r *PostgresRepository) DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error) {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM outbox_messages WHERE published_at IS NOT NULL AND published_at < $1`, publishedBefore)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountPending implements Repository.
func (r *PostgresRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox_messages WHERE published_at IS NULL AND dead_lettered_at IS NULL`).Scan(&n)
	return n, err
}
