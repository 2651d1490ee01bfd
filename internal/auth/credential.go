// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package auth

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/oops"
)

// Identity and password constraints.
const (
	MaxIdentityLength = 64
	MaxPasswordLength = 1024
)

// Credential binds an identity to a salted password hash.
// Credentials are immutable once created.
type Credential struct {
	Identity  string
	Hash      []byte
	Salt      []byte
	CreatedAt time.Time
}

// NewCredential creates a validated Credential.
func NewCredential(identity string, hash, salt []byte, createdAt time.Time) (*Credential, error) {
	if err := ValidateIdentity(identity); err != nil {
		return nil, err
	}
	if len(hash) == 0 {
		return nil, oops.Code("CREDENTIAL_INVALID_HASH").Errorf("hash cannot be empty")
	}
	if len(salt) == 0 {
		return nil, oops.Code("CREDENTIAL_INVALID_SALT").Errorf("salt cannot be empty")
	}
	return &Credential{
		Identity:  identity,
		Hash:      hash,
		Salt:      salt,
		CreatedAt: createdAt,
	}, nil
}

// ValidateIdentity checks an identity handle. Identities are compared
// exactly; no case folding or trimming is applied.
func ValidateIdentity(identity string) error {
	if identity == "" {
		return oops.Code(CodeInvalidInput).With("field", "username").Wrapf(ErrInvalidInput, "username cannot be empty")
	}
	if utf8.RuneCountInString(identity) > MaxIdentityLength {
		return oops.Code(CodeInvalidInput).
			With("field", "username").
			With("max", MaxIdentityLength).
			Wrapf(ErrInvalidInput, "username must be at most %d characters", MaxIdentityLength)
	}
	if strings.TrimSpace(identity) != identity {
		return oops.Code(CodeInvalidInput).
			With("field", "username").
			Wrapf(ErrInvalidInput, "username cannot start or end with whitespace")
	}
	return nil
}

// ValidatePassword checks a plaintext password before it is hashed.
func ValidatePassword(plaintext string) error {
	if plaintext == "" {
		return oops.Code(CodeInvalidInput).With("field", "password").Wrapf(ErrInvalidInput, "password cannot be empty")
	}
	if len(plaintext) > MaxPasswordLength {
		return oops.Code(CodeInvalidInput).
			With("field", "password").
			With("max", MaxPasswordLength).
			Wrapf(ErrInvalidInput, "password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// CredentialRepository manages credential persistence.
type CredentialRepository interface {
	// Create stores a new credential. Returns ErrDuplicate if the identity
	// is already taken; implementations must enforce this atomically.
	Create(ctx context.Context, credential *Credential) error

	// GetByIdentity retrieves a credential by exact identity.
	// Returns ErrNotFound if no credential exists.
	GetByIdentity(ctx context.Context, identity string) (*Credential, error)
}
