// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package memory provides in-process implementations of the auth
// repositories for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
)

// CredentialRepository implements auth.CredentialRepository in memory.
type CredentialRepository struct {
	mu          sync.RWMutex
	credentials map[string]auth.Credential
}

// NewCredentialRepository creates an empty CredentialRepository.
func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{credentials: make(map[string]auth.Credential)}
}

// Create stores a new credential, rejecting a taken identity.
func (r *CredentialRepository) Create(ctx context.Context, credential *auth.Credential) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "create credential").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.credentials[credential.Identity]; exists {
		return oops.Code("CREDENTIAL_DUPLICATE").
			With("identity", credential.Identity).
			Wrap(auth.ErrDuplicate)
	}
	r.credentials[credential.Identity] = cloneCredential(*credential)
	return nil
}

// GetByIdentity retrieves a credential by exact identity.
func (r *CredentialRepository) GetByIdentity(ctx context.Context, identity string) (*auth.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get credential").Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	credential, ok := r.credentials[identity]
	if !ok {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").
			With("identity", identity).
			Wrap(auth.ErrNotFound)
	}
	c := cloneCredential(credential)
	return &c, nil
}

// Delete removes a credential. Sessions referencing it stop resolving.
func (r *CredentialRepository) Delete(_ context.Context, identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.credentials, identity)
}

// Len returns the number of stored credentials.
func (r *CredentialRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.credentials)
}

func cloneCredential(c auth.Credential) auth.Credential {
	c.Hash = append([]byte(nil), c.Hash...)
	c.Salt = append([]byte(nil), c.Salt...)
	return c
}

// SessionRepository implements auth.SessionRepository in memory.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]auth.Session
}

// NewSessionRepository creates an empty SessionRepository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]auth.Session)}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "create session").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.TokenHash]; exists {
		return oops.Code("SESSION_DUPLICATE").
			With("session_id", session.ID.String()).
			Wrap(auth.ErrDuplicate)
	}
	r.sessions[session.TokenHash] = *session
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get session").Wrap(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[tokenHash]
	if !ok {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	return &session, nil
}

// DeleteByTokenHash removes a session if present.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "delete session").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, tokenHash)
	return nil
}

// DeleteExpired removes sessions that expired before the given time.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, oops.With("operation", "delete expired sessions").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for hash, session := range r.sessions {
		if session.ExpiresAt.Before(before) {
			delete(r.sessions, hash)
			n++
		}
	}
	return n, nil
}

// Put stores session as-is, replacing any record with the same token hash.
// Tests use it to plant sessions with arbitrary timestamps.
func (r *SessionRepository) Put(session auth.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.TokenHash] = session
}

// Len returns the number of stored sessions.
func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Compile-time interface checks.
var (
	_ auth.CredentialRepository = (*CredentialRepository)(nil)
	_ auth.SessionRepository    = (*SessionRepository)(nil)
)
