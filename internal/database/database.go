// Package database centralises sqlx connection helpers for the SQL record
// store.  Three drivers are linked in: go-sql-driver/mysql ("mysql"),
// jackc/pgx ("pgx"), and modernc.org/sqlite ("sqlite").
//
// Public entry points:
//
//	Open(driver, dsn)                  – conservative pool sizes.
//	OpenWithOptions(driver, dsn, opts) – fine-grained control.
//
// Both helpers Ping the database before returning so callers can fail fast
// during bootstrap.  Callers should Close() the returned *sqlx.DB when no
// longer needed.
package database

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultOptions are 15 open, 5 idle, and a 30-minute connection lifetime.
var DefaultOptions = Options{MaxOpenConns: 15, MaxIdleConns: 5, ConnMaxLifetime: 30 * time.Minute}

// Drivers lists the accepted driver names.
var Drivers = []string{"mysql", "pgx", "sqlite"}

// Open returns a pinged *sqlx.DB using DefaultOptions.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, driver, dsn, DefaultOptions)
}

// OpenWithOptions returns a pinged *sqlx.DB.  In-memory sqlite is pinned to
// one connection because every new connection opens a fresh database.
func OpenWithOptions(ctx context.Context, driver, dsn string, opts Options) (*sqlx.DB, error) {
	if !known(driver) {
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", driver, err)
	}

	if driver == "sqlite" && (dsn == ":memory:" || dsn == "file::memory:") {
		opts.MaxOpenConns, opts.MaxIdleConns, opts.ConnMaxLifetime = 1, 1, 0
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", driver, err)
	}
	return db, nil
}

func known(driver string) bool {
	for _, d := range Drivers {
		if d == driver {
			return true
		}
	}
	return false
}
