// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Repository-level sentinels. Store implementations wrap these so the
// Authenticator can tell a definitive answer from an infrastructure failure.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a write violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate")
)

// Authentication outcomes returned by the Authenticator.
var (
	ErrNoSuchUser       = errors.New("no such user")
	ErrBadCredentials   = errors.New("bad credentials")
	ErrDuplicateUser    = errors.New("user already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrSessionMissing   = errors.New("session missing")
	ErrSessionExpired   = errors.New("session expired")
	ErrInvalidInput     = errors.New("invalid input")

	// ErrWriteUnconfirmed accompanies ErrStoreUnavailable when a write
	// failed in a way that may still have been applied.
	ErrWriteUnconfirmed = errors.New("write unconfirmed")
)

// Error codes attached to the outcomes above.
const (
	CodeNoSuchUser       = "AUTH_NO_SUCH_USER"
	CodeBadCredentials   = "AUTH_BAD_CREDENTIALS"
	CodeDuplicateUser    = "AUTH_DUPLICATE_USER"
	CodeStoreUnavailable = "AUTH_STORE_UNAVAILABLE"
	CodeSessionMissing   = "SESSION_MISSING"
	CodeSessionExpired   = "SESSION_EXPIRED"
	CodeInvalidInput     = "AUTH_INVALID_INPUT"
)

// IsCredentialError reports whether err is a login failure caused by the
// supplied credentials. Callers must present both cases identically.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrNoSuchUser) || errors.Is(err, ErrBadCredentials)
}

// IsUnauthenticated reports whether err means the request carries no usable
// session.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrSessionMissing) || errors.Is(err, ErrSessionExpired)
}

// IsRetryable reports whether err is a transient store failure that is safe
// to repeat. Unconfirmed writes are not: the first attempt may have landed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) && !errors.Is(err, ErrWriteUnconfirmed)
}

// storeUnavailable reports an infrastructure failure from a repository call.
// The cause is kept as context so the error code stays AUTH_STORE_UNAVAILABLE.
func storeUnavailable(operation string, err error) error {
	return oops.Code(CodeStoreUnavailable).
		With("operation", operation).
		With("cause", err.Error()).
		Wrap(ErrStoreUnavailable)
}

// storeWriteUnconfirmed reports a failed write that may have been applied.
// It still matches ErrStoreUnavailable but is not retryable.
func storeWriteUnconfirmed(operation string, err error) error {
	return oops.Code(CodeStoreUnavailable).
		With("operation", operation).
		With("cause", err.Error()).
		Wrap(errors.Join(ErrStoreUnavailable, ErrWriteUnconfirmed))
}
