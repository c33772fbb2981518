package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database/sqlite"
)

// SQLiteRepository stores messages in the local database.
type SQLiteRepository struct {
	conn database.Connection
}

// NewSQLiteRepository creates the repository.
func NewSQLiteRepository(conn database.Connection) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

const sqliteColumns = `id, event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, metadata,
	created_at, published_at, retry_count, last_error, next_retry_at, dead_lettered_at, dead_letter_reason`

// SaveBatch implements Repository.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	for _, m := range msgs {
		var id int64
		err := exec.QueryRow(ctx, `
			INSERT INTO outbox_messages
				(event_id, aggregate_type, aggregate_id, event_type, routing_key, payload, metadata, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			m.EventID.String(), m.AggregateType, m.AggregateID.String(), m.EventType, m.RoutingKey,
			string(m.Payload), string(m.Metadata), sqlite.FormatTime(m.CreatedAt),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert outbox message %s: %w", m.EventID, err)
		}
		m.ID = id
	}
	return nil
}

// GetUnpublished implements Repository.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT `+sqliteColumns+`
		FROM outbox_messages
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY id
		LIMIT ?`, sqlite.FormatTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		m, err := scanSQLiteMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MarkPublished implements Repository.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`UPDATE outbox_messages SET published_at = ? WHERE id = ?`, sqlite.FormatTime(at), id)
	return err
}

// MarkFailed implements Repository.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, last_error = ?, next_retry_at = ?
		WHERE id = ?`, errMsg, sqlite.FormatTime(nextRetryAt), id)
	return err
}

// MarkDead implements Repository.
func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE outbox_messages
		SET retry_count = retry_count + 1, dead_lettered_at = ?, dead_letter_reason = ?
		WHERE id = ?`, sqlite.FormatTime(at), reason, id)
	return err
}

// DeleteOld implements Repository.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, publishedBefore time.Time) (int64, error) {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM outbox_messages WHERE published_at IS NOT NULL AND published_at < ?`,
		sqlite.FormatTime(publishedBefore))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountPending implements Repository.
func (r *SQLiteRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox_messages WHERE published_at IS NULL AND dead_lettered_at IS NULL`).Scan(&n)
	return n, err
}

func scanSQLiteMessage(row database.Row) (*Message, error) {
	var (
		m                                        Message
		eventID, aggregateID, payload, metadata  string
		createdAt                                string
		publishedAt, nextRetryAt, deadLetteredAt sql.NullString
	)
	err := row.Scan(&m.ID, &eventID, &m.AggregateType, &aggregateID, &m.EventType, &m.RoutingKey,
		&payload, &metadata, &createdAt, &publishedAt, &m.RetryCount, &m.LastError,
		&nextRetryAt, &deadLetteredAt, &m.DeadLetterReason)
	if err != nil {
		return nil, err
	}
	if m.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, err
	}
	if m.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, err
	}
	m.Payload = []byte(payload)
	m.Metadata = []byte(metadata)
	if m.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if m.PublishedAt, err = sqlite.ParseNullTime(publishedAt); err != nil {
		return nil, err
	}
	if m.NextRetryAt, err = sqlite.ParseNullTime(nextRetryAt); err != nil {
		return nil, err
	}
	if m.DeadLetteredAt, err = sqlite.ParseNullTime(deadLetteredAt); err != nil {
		return nil, err
	}
	return &m, nil
}
