// Package persistence stores student preferences in SQL or Redis.
package persistence

import (
	"context"

	"github.com/google/uuid"

	sharedDomain "github.com/fsgregorio/driverapp-sub000/internal/shared/domain"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database/sqlite"
)

// SQLStore keeps preferences in the student_preferences table of either
// driver.
type SQLStore struct {
	conn  database.Connection
	clock sharedDomain.Clock
}

// NewSQLStore creates a SQLStore.
func NewSQLStore(conn database.Connection, clock sharedDomain.Clock) *SQLStore {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &SQLStore{conn: conn, clock: clock}
}

func (s *SQLStore) q(query string) string {
	return s.conn.Driver().Rebind(query)
}

// student and timestamps are TEXT in SQLite and native types in PostgreSQL.
func (s *SQLStore) student(id uuid.UUID) any {
	if s.conn.Driver() == database.DriverSQLite {
		return id.String()
	}
	return id
}

func (s *SQLStore) now() any {
	now := s.clock.Now()
	if s.conn.Driver() == database.DriverSQLite {
		return sqlite.FormatTime(now)
	}
	return now
}

// Get returns the value stored under key.
func (s *SQLStore) Get(ctx context.Context, studentID uuid.UUID, key string) (string, bool, error) {
	var value string
	err := database.ExecutorFromContext(ctx, s.conn).QueryRow(ctx,
		s.q(`SELECT pref_value FROM student_preferences WHERE student_id = ? AND pref_key = ?`),
		s.student(studentID), key,
	).Scan(&value)
	if database.IsNoRows(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts the value.
func (s *SQLStore) Set(ctx context.Context, studentID uuid.UUID, key, value string) error {
	_, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx, s.q(`
		INSERT INTO student_preferences (student_id, pref_key, pref_value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (student_id, pref_key) DO UPDATE
		SET pref_value = excluded.pref_value, updated_at = excluded.updated_at`),
		s.student(studentID), key, value, s.now(),
	)
	return err
}

// Delete removes key.
func (s *SQLStore) Delete(ctx context.Context, studentID uuid.UUID, key string) error {
	_, err := database.ExecutorFromContext(ctx, s.conn).Exec(ctx,
		s.q(`DELETE FROM student_preferences WHERE student_id = ? AND pref_key = ?`),
		s.student(studentID), key,
	)
	return err
}

// All returns every key of the student.
func (s *SQLStore) All(ctx context.Context, studentID uuid.UUID) (map[string]string, error) {
	rows, err := database.ExecutorFromContext(ctx, s.conn).Query(ctx,
		s.q(`SELECT pref_key, pref_value FROM student_preferences WHERE student_id = ?`),
		s.student(studentID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}
