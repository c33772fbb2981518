// Package sqlite provides the local-mode database.Connection backed by modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
)

const pragmas = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

func init() {
	database.Register(database.DriverSQLite, NewConnection)
}

// Connection implements database.Connection over *sql.DB.
type Connection struct {
	database.SQLExecutor
	db *sql.DB
}

// NewConnection opens the SQLite file at cfg.SQLitePath, creating its directory.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	if err := database.EnsureDirectory(path); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return Wrap(db), nil
}

// Wrap adapts an already opened *sql.DB. SQLite allows a single writer, so
// the pool is pinned to one connection; this also keeps ":memory:" databases
// alive across calls.
func Wrap(db *sql.DB) *Connection {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return &Connection{SQLExecutor: database.NewSQLExecutor(db), db: db}
}

// DB returns the underlying *sql.DB.
func (c *Connection) DB() *sql.DB { return c.db }

// Driver returns database.DriverSQLite.
func (c *Connection) Driver() database.Driver { return database.DriverSQLite }

// Close closes the database.
func (c *Connection) Close() error { return c.db.Close() }

// Ping checks the database is reachable.
func (c *Connection) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

// BeginTx starts a transaction.
func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &transaction{SQLExecutor: database.NewSQLExecutor(tx), tx: tx}, nil
}

type transaction struct {
	database.SQLExecutor
	tx *sql.Tx
}

func (t *transaction) Commit(context.Context) error   { return t.tx.Commit() }
func (t *transaction) Rollback(context.Context) error { return t.tx.Rollback() }
