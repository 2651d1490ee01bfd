// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	"github.com/Szuhaydv/mapex-backend/internal/store"
)

// CredentialRepository implements auth.CredentialRepository using PostgreSQL.
type CredentialRepository struct {
	pool store.Pool
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(pool store.Pool) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

// Create inserts a credential. The primary key on identity makes the
// uniqueness check atomic.
func (r *CredentialRepository) Create(ctx context.Context, credential *auth.Credential) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO credentials (identity, hash, salt, created_at)
		VALUES ($1, $2, $3, $4)
	`, credential.Identity, credential.Hash, credential.Salt, credential.CreatedAt)
	if store.IsUniqueViolation(err) {
		return oops.Code("CREDENTIAL_DUPLICATE").
			With("identity", credential.Identity).
			Wrap(auth.ErrDuplicate)
	}
	if err != nil {
		return oops.Code("CREDENTIAL_CREATE_FAILED").
			With("operation", "insert credential").
			With("identity", credential.Identity).
			Wrap(err)
	}
	return nil
}

// GetByIdentity retrieves a credential by exact identity.
func (r *CredentialRepository) GetByIdentity(ctx context.Context, identity string) (*auth.Credential, error) {
	var c auth.Credential
	err := r.pool.QueryRow(ctx, `
		SELECT identity, hash, salt, created_at
		FROM credentials
		WHERE identity = $1
	`, identity).Scan(&c.Identity, &c.Hash, &c.Salt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("CREDENTIAL_NOT_FOUND").
			With("identity", identity).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("CREDENTIAL_GET_FAILED").
			With("operation", "get credential by identity").
			Wrap(err)
	}
	return &c, nil
}

// Compile-time interface check.
var _ auth.CredentialRepository = (*CredentialRepository)(nil)
