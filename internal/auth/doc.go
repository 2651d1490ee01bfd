// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package auth provides credential hashing and session-based authentication
// for Mapex.
//
// # Domain Types
//
// Domain types should be created using their constructors:
//   - NewCredential - validates the identity and requires a hash and salt
//   - NewSession - binds a token hash to an identity for SessionLifetime
//
// Repository implementations receive pre-validated types from these
// constructors.
//
// # Authenticator
//
// Authenticator coordinates the flow:
//   - Register - derive a salted hash and store a new credential
//   - Login - verify a credential and open a session
//   - Resolve - map a session token back to its session
//   - Logout - delete a session
//
// Errors wrap the sentinels in errors.go. Use IsCredentialError,
// IsUnauthenticated and IsRetryable to classify them; never expose the
// difference between ErrNoSuchUser and ErrBadCredentials to clients.
package auth
