// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package main

import (
	"context"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	authmemory "github.com/Szuhaydv/mapex-backend/internal/auth/memory"
	authpostgres "github.com/Szuhaydv/mapex-backend/internal/auth/postgres"
	authredis "github.com/Szuhaydv/mapex-backend/internal/auth/redis"
	"github.com/Szuhaydv/mapex-backend/internal/config"
	"github.com/Szuhaydv/mapex-backend/internal/maps"
	mapsmemory "github.com/Szuhaydv/mapex-backend/internal/maps/memory"
	mapspostgres "github.com/Szuhaydv/mapex-backend/internal/maps/postgres"
	"github.com/Szuhaydv/mapex-backend/internal/observability"
	"github.com/Szuhaydv/mapex-backend/internal/store"
)

const readinessTimeout = 2 * time.Second

// backend is the set of repositories selected by the configuration.
type backend struct {
	credentials auth.CredentialRepository
	sessions    auth.SessionRepository
	maps        maps.Repository
	ready       observability.ReadinessChecker
	closers     []func()
}

// Close releases every connection in reverse order of opening.
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// openBackend builds the repositories for cfg.SessionStore. Credentials and
// maps live in PostgreSQL unless everything runs in memory.
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backend, error) {
	if cfg.SessionStore == config.StoreMemory {
		logger.Warn("using in-memory stores; data is lost on restart")
		return &backend{
			credentials: authmemory.NewCredentialRepository(),
			sessions:    authmemory.NewSessionRepository(),
			maps:        mapsmemory.NewRepository(),
			ready:       func(context.Context) bool { return true },
		}, nil
	}

	connectOpts := store.DefaultConnectOptions()
	connectOpts.Logger = logger
	pool, err := store.Connect(ctx, cfg.DatabaseURL, connectOpts)
	if err != nil {
		return nil, oops.Code("BACKEND_OPEN_FAILED").With("store", "postgres").Wrap(err)
	}
	b := &backend{
		credentials: authpostgres.NewCredentialRepository(pool),
		maps:        mapspostgres.NewRepository(pool),
		closers:     []func(){pool.Close},
	}

	if cfg.AutoMigrate {
		if err := migrateUp(cfg.DatabaseURL, logger); err != nil {
			b.Close()
			return nil, err
		}
	}

	checks := []func(ctx context.Context) error{pool.Ping}

	switch cfg.SessionStore {
	case config.StoreRedis:
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("failed to close redis client", "error", err)
			}
		})
		b.sessions = authredis.NewSessionRepository(rdb)
		checks = append(checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info("redis session store connected", "addr", rdb.Options().Addr)
	default:
		b.sessions = authpostgres.NewSessionRepository(pool)
	}

	b.ready = func(ctx context.Context) bool {
		ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
		defer cancel()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "error", err.Error())
				return false
			}
		}
		return true
	}
	return b, nil
}

func openRedis(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, oops.Code("BACKEND_OPEN_FAILED").With("store", "redis").With("operation", "parse redis url").Wrap(err)
	}
	rdb := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close() //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("BACKEND_OPEN_FAILED").With("store", "redis").With("addr", opts.Addr).Wrap(err)
	}
	return rdb, nil
}

func migrateUp(databaseURL string, logger *slog.Logger) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").Wrap(err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Warn("failed to close migrator", "error", closeErr)
		}
	}()

	if err := migrator.Up(); err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").Wrap(err)
	}
	version, _, err := migrator.Version()
	if err != nil {
		return oops.Code("AUTO_MIGRATE_FAILED").Wrap(err)
	}
	logger.Info("schema migrated", "version", version)
	return nil
}
