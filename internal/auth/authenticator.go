// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// DefaultStoreTimeout bounds every individual store access.
const DefaultStoreTimeout = 3 * time.Second

// Authenticator registers credentials, logs identities in, and resolves
// session tokens back to identities.
type Authenticator struct {
	credentials  CredentialRepository
	sessions     SessionRepository
	hasher       PasswordHasher
	logger       *slog.Logger
	now          func() time.Time
	storeTimeout time.Duration
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithLogger sets the logger used for authentication events.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Authenticator) { a.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// WithStoreTimeout overrides DefaultStoreTimeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(a *Authenticator) { a.storeTimeout = d }
}

// NewAuthenticator creates an Authenticator over the given stores.
func NewAuthenticator(credentials CredentialRepository, sessions SessionRepository, hasher PasswordHasher, opts ...Option) (*Authenticator, error) {
	if credentials == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("credentials repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("password hasher is required")
	}

	a := &Authenticator{
		credentials:  credentials,
		sessions:     sessions,
		hasher:       hasher,
		logger:       slog.Default(),
		now:          time.Now,
		storeTimeout: DefaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	if a.now == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("clock is required")
	}
	if a.storeTimeout <= 0 {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").
			With("store_timeout", a.storeTimeout).
			Errorf("store timeout must be positive")
	}
	return a, nil
}

// dummySalt and dummyHash are verified against when the identity does not
// exist so both login failure paths run the full KDF. The all-zero hash
// cannot be produced by any password in practice.
var (
	dummySalt = make([]byte, SaltLength)
	dummyHash = make([]byte, KeyLength)
)

// Register creates a credential for identity. It does not log the user in.
func (a *Authenticator) Register(ctx context.Context, identity, plaintext string) error {
	if err := ValidateIdentity(identity); err != nil {
		return err
	}
	if err := ValidatePassword(plaintext); err != nil {
		return err
	}

	_, err := a.getCredential(ctx, identity)
	switch {
	case err == nil:
		a.logger.InfoContext(ctx, "registration rejected",
			"operation", "register",
			"identity", identity,
			"reason", "duplicate_user")
		return oops.Code(CodeDuplicateUser).With("identity", identity).Wrap(ErrDuplicateUser)
	case !errors.Is(err, ErrNotFound):
		return a.storeFailure(ctx, "get credential", err)
	}

	hash, salt := a.hasher.Derive(plaintext)
	credential, err := NewCredential(identity, hash, salt, a.now())
	if err != nil {
		return oops.Code("AUTH_REGISTER_FAILED").With("operation", "build credential").Wrap(err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()
	if err := a.credentials.Create(storeCtx, credential); err != nil {
		// The pre-check above races with concurrent registrations; the
		// store's uniqueness constraint is authoritative.
		if errors.Is(err, ErrDuplicate) {
			a.logger.InfoContext(ctx, "registration rejected",
				"operation", "register",
				"identity", identity,
				"reason", "duplicate_user_constraint")
			return oops.Code(CodeDuplicateUser).With("identity", identity).Wrap(ErrDuplicateUser)
		}
		return a.storeWriteFailure(ctx, "create credential", err)
	}

	a.logger.InfoContext(ctx, "identity registered", "identity", identity)
	return nil
}

// Login verifies the credential for identity and opens a new session.
// Returns the session and the plaintext token for the client.
func (a *Authenticator) Login(ctx context.Context, identity, plaintext string) (*Session, string, error) {
	a.logger.DebugContext(ctx, "login attempt",
		"identity", identity,
		"state", StateAuthenticating.String())

	credential, lookupErr := a.getCredential(ctx, identity)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return nil, "", a.storeFailure(ctx, "get credential", lookupErr)
	}

	hash, salt := dummyHash, dummySalt
	if lookupErr == nil {
		hash, salt = credential.Hash, credential.Salt
	}

	// Always verify so unknown and known identities cost the same.
	valid := a.hasher.Verify(plaintext, hash, salt)

	if lookupErr != nil {
		a.logger.InfoContext(ctx, "login failed",
			"operation", "login",
			"identity", identity,
			"reason", "no_such_user",
			"state", StateAnonymous.String())
		return nil, "", oops.Code(CodeNoSuchUser).With("identity", identity).Wrap(ErrNoSuchUser)
	}
	if !valid {
		a.logger.InfoContext(ctx, "login failed",
			"operation", "login",
			"identity", identity,
			"reason", "bad_credentials",
			"state", StateAnonymous.String())
		return nil, "", oops.Code(CodeBadCredentials).With("identity", identity).Wrap(ErrBadCredentials)
	}

	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(identity, tokenHash, a.now())
	if err != nil {
		return nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()
	if err := a.sessions.Create(storeCtx, session); err != nil {
		return nil, "", a.storeWriteFailure(ctx, "create session", err)
	}

	a.logger.InfoContext(ctx, "login succeeded",
		"identity", identity,
		"session_id", session.ID.String(),
		"expires_at", session.ExpiresAt,
		"state", StateAuthenticated.String())
	return session, token, nil
}

// Resolve returns the unexpired session bound to token. It never extends
// the session's expiry.
func (a *Authenticator) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code(CodeSessionMissing).Wrap(ErrSessionMissing)
	}
	tokenHash := HashSessionToken(token)

	storeCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	session, err := a.sessions.GetByTokenHash(storeCtx, tokenHash)
	cancel()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeSessionMissing).Wrap(ErrSessionMissing)
		}
		return nil, a.storeFailure(ctx, "get session", err)
	}

	if state := session.StateAt(a.now()); state == StateExpired {
		a.logger.InfoContext(ctx, "session expired",
			"session_id", session.ID.String(),
			"identity", session.Identity,
			"state", state.String())
		a.purge(ctx, session)
		return nil, oops.Code(CodeSessionExpired).
			With("session_id", session.ID.String()).
			With("expired_at", session.ExpiresAt).
			Wrap(ErrSessionExpired)
	}

	// The session stores only a reference to the identity; confirm it still
	// resolves to a credential.
	if _, err := a.getCredential(ctx, session.Identity); err != nil {
		if errors.Is(err, ErrNotFound) {
			a.logger.WarnContext(ctx, "session references unknown identity",
				"session_id", session.ID.String(),
				"identity", session.Identity)
			return nil, oops.Code(CodeSessionMissing).
				With("session_id", session.ID.String()).
				Wrap(ErrSessionMissing)
		}
		return nil, a.storeFailure(ctx, "get credential", err)
	}

	return session, nil
}

// Logout deletes the session bound to token. Logging out an absent or
// already deleted session succeeds.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	storeCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()
	err := a.sessions.DeleteByTokenHash(storeCtx, HashSessionToken(token))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return a.storeFailure(ctx, "delete session", err)
	}
	a.logger.InfoContext(ctx, "logged out", "state", StateLoggedOut.String())
	return nil
}

// PruneExpired deletes every session that has expired and returns the count.
func (a *Authenticator) PruneExpired(ctx context.Context) (int64, error) {
	storeCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()
	n, err := a.sessions.DeleteExpired(storeCtx, a.now())
	if err != nil {
		return 0, a.storeFailure(ctx, "delete expired sessions", err)
	}
	return n, nil
}

func (a *Authenticator) getCredential(ctx context.Context, identity string) (*Credential, error) {
	storeCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()
	//nolint:wrapcheck // callers classify the repository error
	return a.credentials.GetByIdentity(storeCtx, identity)
}

// purge removes an expired session. Failure only delays cleanup.
func (a *Authenticator) purge(ctx context.Context, session *Session) {
	storeCtx, cancel := context.WithTimeout(ctx, a.storeTimeout)
	defer cancel()
	err := a.sessions.DeleteByTokenHash(storeCtx, session.TokenHash)
	if err != nil && !errors.Is(err, ErrNotFound) {
		a.logger.WarnContext(ctx, "best-effort purge of expired session failed",
			"operation", "purge_expired_session",
			"session_id", session.ID.String(),
			"error", err.Error())
	}
}

func (a *Authenticator) storeFailure(ctx context.Context, operation string, err error) error {
	a.logger.ErrorContext(ctx, "session store unavailable",
		"operation", operation,
		"error", err.Error())
	return storeUnavailable(operation, err)
}

func (a *Authenticator) storeWriteFailure(ctx context.Context, operation string, err error) error {
	a.logger.ErrorContext(ctx, "session store unavailable",
		"operation", operation,
		"write_unconfirmed", true,
		"error", err.Error())
	return storeWriteUnconfirmed(operation, err)
}
