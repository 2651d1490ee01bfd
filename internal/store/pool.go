// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package store owns the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Pool is the subset of *pgxpool.Pool used by repositories. pgxmock's
// PgxPoolIface satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Pool = (*pgxpool.Pool)(nil)

// ConnectOptions tunes Connect.
type ConnectOptions struct {
	// Attempts is the number of pings before giving up.
	Attempts uint64
	// Backoff is the initial delay between pings. It doubles per attempt.
	Backoff time.Duration
	Logger  *slog.Logger
}

// DefaultConnectOptions retries for roughly half a minute.
func DefaultConnectOptions() ConnectOptions {
	return ConnectOptions{Attempts: 6, Backoff: 500 * time.Millisecond, Logger: slog.Default()}
}

// Connect opens a pool for databaseURL and waits until the server answers a
// ping.
func Connect(ctx context.Context, databaseURL string, opts ConnectOptions) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, oops.Code("STORE_CONFIG_INVALID").Errorf("database URL is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("STORE_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(opts.Attempts, retry.NewExponential(opts.Backoff))
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			opts.Logger.WarnContext(ctx, "database not ready",
				"attempt", attempt,
				"host", cfg.ConnConfig.Host,
				"error", err.Error())
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping").
			With("attempts", attempt).
			Wrap(err)
	}

	opts.Logger.InfoContext(ctx, "database connected", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return pool, nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
