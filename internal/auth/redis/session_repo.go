// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package redis implements auth.SessionRepository on Redis. Each session is
// a JSON value whose key expires with the session.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
)

// KeyPrefix namespaces session keys.
const KeyPrefix = "mapex:session:"

// Client is the subset of *goredis.Client used by SessionRepository.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	SetArgs(ctx context.Context, key string, value any, a goredis.SetArgs) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

var _ Client = (*goredis.Client)(nil)

// SessionRepository implements auth.SessionRepository using Redis.
type SessionRepository struct {
	rdb Client
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(rdb Client) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

type record struct {
	ID        string    `json:"id"`
	Identity  string    `json:"identity"`
	TokenHash string    `json:"token_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionKey(tokenHash string) string {
	return KeyPrefix + tokenHash
}

// Create stores a session. The key expires at session.ExpiresAt.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	payload, err := json.Marshal(record{
		ID:        session.ID.String(),
		Identity:  session.Identity,
		TokenHash: session.TokenHash,
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	})
	if err != nil {
		return oops.Code("SESSION_ENCODE_FAILED").Wrap(err)
	}

	err = r.rdb.SetArgs(ctx, sessionKey(session.TokenHash), payload, goredis.SetArgs{
		Mode:     "NX",
		ExpireAt: session.ExpiresAt,
	}).Err()
	if errors.Is(err, goredis.Nil) {
		return oops.Code("SESSION_DUPLICATE").
			With("session_id", session.ID.String()).
			Wrap(auth.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "set session").
			With("identity", session.Identity).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	data, err := r.rdb.Get(ctx, sessionKey(tokenHash)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session").
			Wrap(err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, oops.Code("SESSION_DECODE_FAILED").Wrap(err)
	}
	id, err := ulid.Parse(rec.ID)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").With("id", rec.ID).Wrap(err)
	}
	return &auth.Session{
		ID:        id,
		Identity:  rec.Identity,
		TokenHash: rec.TokenHash,
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// DeleteByTokenHash removes a session if present.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if err := r.rdb.Del(ctx, sessionKey(tokenHash)).Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts session keys at their expiry.
func (r *SessionRepository) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
