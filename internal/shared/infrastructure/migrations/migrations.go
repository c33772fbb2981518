// Package migrations applies the embedded schema with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/fsgregorio/driverapp-sub000/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var embedded embed.FS

// Up applies all pending migrations for the connection's driver and returns
// the resulting schema version.
func Up(ctx context.Context, conn database.Connection) (int64, error) {
	switch c := conn.(type) {
	case interface{ DB() *sql.DB }:
		return UpSQLite(ctx, c.DB())
	case interface{ Pool() *pgxpool.Pool }:
		return UpPostgres(ctx, c.Pool())
	default:
		return 0, fmt.Errorf("migrations: unsupported connection %T", conn)
	}
}

// UpSQLite migrates a SQLite database.
func UpSQLite(ctx context.Context, db *sql.DB) (int64, error) {
	return run(ctx, goose.DialectSQLite3, db, "sqlite")
}

// UpPostgres migrates a PostgreSQL database through a database/sql view of the pool.
func UpPostgres(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return run(ctx, goose.DialectPostgres, db, "postgres")
}

func run(ctx context.Context, dialect goose.Dialect, db *sql.DB, dir string) (int64, error) {
	fsys, err := fs.Sub(embedded, dir)
	if err != nil {
		return 0, fmt.Errorf("migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("migrations: create provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return 0, fmt.Errorf("migrations: apply: %w", err)
	}
	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrations: read version: %w", err)
	}
	return version, nil
}
