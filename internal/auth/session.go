// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32             // 32 bytes = 64 hex chars
	SessionLifetime   = 24 * time.Hour // fixed, never extended
)

// SessionState is the authentication state of a request.
type SessionState int

// Session states.
const (
	StateAnonymous SessionState = iota
	StateAuthenticating
	StateAuthenticated
	StateExpired
	StateLoggedOut
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Session is a server-side record created by a successful login.
// Clients hold only the plaintext token; the record is keyed by its hash.
type Session struct {
	ID        ulid.ULID
	Identity  string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewSession creates a validated Session that expires SessionLifetime after now.
func NewSession(identity, tokenHash string, now time.Time) (*Session, error) {
	if identity == "" {
		return nil, oops.Code("SESSION_INVALID_IDENTITY").Errorf("identity cannot be empty")
	}
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if now.IsZero() {
		return nil, oops.Code("SESSION_INVALID_TIME").Errorf("creation time cannot be zero")
	}

	return &Session{
		ID:        ulid.Make(),
		Identity:  identity,
		TokenHash: tokenHash,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionLifetime),
	}, nil
}

// IsExpiredAt returns true if the session is expired at t.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// StateAt returns StateAuthenticated or StateExpired for time t.
func (s *Session) StateAt(t time.Time) SessionState {
	if s.IsExpiredAt(t) {
		return StateExpired
	}
	return StateAuthenticated
}

// GenerateSessionToken creates a secure random token and its hash.
// The plaintext token is sent to the client; the hash is stored.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionTokenBytes).
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	return token, HashSessionToken(token), nil
}

// HashSessionToken computes the SHA256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	// Returns ErrNotFound if no session exists.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// DeleteByTokenHash removes a session. Deleting an absent session
	// is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteExpired removes sessions that expired before the given time and
	// returns the number removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
