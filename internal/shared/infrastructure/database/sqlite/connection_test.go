package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
)

func TestOpen_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "bookings.db")

	conn, err := database.Open(ctx, database.Config{SQLitePath: path})
	require.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, conn.Ping(ctx))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
	assert.FileExists(t, path)
}

func TestConnection_ExecAndQuery(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	_, err := conn.Exec(ctx, `CREATE TABLE lessons (id TEXT PRIMARY KEY, kind TEXT)`)
	require.NoError(t, err)

	res, err := conn.Exec(ctx, `INSERT INTO lessons (id, kind) VALUES (?, ?)`, "1", "parking")
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var kind string
	require.NoError(t, conn.QueryRow(ctx, `SELECT kind FROM lessons WHERE id = ?`, "1").Scan(&kind))
	assert.Equal(t, "parking", kind)

	err = conn.QueryRow(ctx, `SELECT kind FROM lessons WHERE id = ?`, "missing").Scan(&kind)
	assert.True(t, database.IsNoRows(err))
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)
	uow := database.NewUnitOfWork(conn)

	_, err := conn.Exec(ctx, `CREATE TABLE lessons (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	_, err = database.ExecutorFromContext(txCtx, conn).Exec(txCtx, `INSERT INTO lessons (id) VALUES ('a')`)
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))

	txCtx, err = uow.Begin(ctx)
	require.NoError(t, err)
	nested, err := uow.Begin(txCtx)
	require.NoError(t, err)
	_, err = database.ExecutorFromContext(nested, conn).Exec(nested, `INSERT INTO lessons (id) VALUES ('b')`)
	require.NoError(t, err)
	require.NoError(t, uow.Commit(nested))
	require.NoError(t, uow.Commit(txCtx))

	var ids []string
	rows, err := conn.Query(ctx, `SELECT id FROM lessons`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"b"}, ids)

	assert.ErrorIs(t, uow.Commit(ctx), database.ErrNoTransaction)
}

func openMemory(t *testing.T) *Connection {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	conn := Wrap(db)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
