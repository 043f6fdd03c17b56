// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package database is the append-only interaction store. Interactions are
// keyed by a salted user hash; raw identifiers never reach the database.
//
// Two SQL engines are supported through database/sql: DuckDB for production
// deployments and pure-Go SQLite for embedded use and tests. Both share one
// schema and "?" placeholders.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/wayfinder/internal/config"
	"github.com/tomtom215/wayfinder/internal/models"
)

// Supported drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// MemoryPath opens a throwaway store.
const MemoryPath = ":memory:"

const defaultQueryTimeout = 30 * time.Second

// DB wraps the SQL connection and provides interaction store operations.
type DB struct {
	conn   *sql.DB
	cfg    *config.DatabaseConfig
	hasher *Hasher
	logger zerolog.Logger

	// now is injectable so tests control interaction timestamps.
	now func() time.Time
}

// New opens the store described by cfg and creates the schema.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func New(cfg *config.DatabaseConfig, hasher *Hasher, logger zerolog.Logger) (*DB, error) {
	if hasher == nil {
		return nil, fmt.Errorf("user hasher is required")
	}

	if cfg.Path != MemoryPath {
		// 0750 per gosec G301
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	driver, connStr, err := connectionString(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:   conn,
		cfg:    cfg,
		hasher: hasher,
		logger: logger.With().Str("component", "database").Str("driver", driver).Logger(),
		now:    time.Now,
	}
	db.configureConnectionPool(driver)

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db.logger.Info().Str("path", cfg.Path).Msg("Interaction store ready")
	return db, nil
}

// connectionString maps the configured driver to a database/sql driver name
// and DSN.
func connectionString(cfg *config.DatabaseConfig) (driver, dsn string, err error) {
	switch cfg.Driver {
	case "", DriverDuckDB:
		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		path := cfg.Path
		if path == MemoryPath {
			path = ""
		}
		dsn = fmt.Sprintf("%s?threads=%d", path, threads)
		if cfg.MaxMemory != "" {
			dsn += "&max_memory=" + cfg.MaxMemory
		}
		return DriverDuckDB, dsn, nil
	case DriverSQLite:
		if cfg.Path == MemoryPath {
			return DriverSQLite, MemoryPath, nil
		}
		return DriverSQLite, fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.Path), nil
	default:
		return "", "", models.ConfigError("open database", "unsupported driver %q", cfg.Driver)
	}
}

// configureConnectionPool sets connection pool parameters.
func (db *DB) configureConnectionPool(driver string) {
	// Each connection to an in-memory SQLite database is a separate database.
	if driver == DriverSQLite && db.cfg.Path == MemoryPath {
		db.conn.SetMaxOpenConns(1)
		db.conn.SetMaxIdleConns(1)
		db.conn.SetConnMaxLifetime(0)
		return
	}
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Hasher returns the user identifier hasher.
func (db *DB) Hasher() *Hasher {
	return db.hasher
}

// HashUser returns the stored hash for a raw user identifier.
func (db *DB) HashUser(identifier string) string {
	return db.hasher.Hash(identifier)
}

// ensureContext applies the configured query timeout when ctx has no deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := db.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	if ctx == nil {
		return context.WithTimeout(context.Background(), timeout)
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}
	return ctx, func() {}
}
