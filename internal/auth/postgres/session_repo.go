// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	"github.com/Szuhaydv/mapex-backend/internal/store"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool store.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool store.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, identity, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		session.ID.String(),
		session.Identity,
		session.TokenHash,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if store.IsUniqueViolation(err) {
		return oops.Code("SESSION_DUPLICATE").
			With("session_id", session.ID.String()).
			Wrap(auth.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			With("identity", session.Identity).
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	var (
		idStr   string
		session auth.Session
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, identity, token_hash, created_at, expires_at
		FROM sessions
		WHERE token_hash = $1
	`, tokenHash).Scan(&idStr, &session.Identity, &session.TokenHash, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	session.ID, err = ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("operation", "parse session id").
			With("id", idStr).
			Wrap(err)
	}
	return &session, nil
}

// DeleteByTokenHash removes a session. No rows deleted is not an error.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before the given time.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
