// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Stored credentials carry only hash and salt, so these
// must not change once credentials exist.
const (
	DefaultIterations = 210_000 // OWASP recommendation for HMAC-SHA512
	SaltLength        = 32      // salt length in bytes
	KeyLength         = 64      // derived key length in bytes
)

// PasswordHasher derives and verifies salted password hashes.
type PasswordHasher interface {
	// Derive returns a one-way hash of plaintext under a freshly generated salt.
	Derive(plaintext string) (hash, salt []byte)

	// Verify reports whether plaintext hashes to hash under salt.
	// A mismatch is a normal outcome, not an error.
	Verify(plaintext string, hash, salt []byte) bool
}

// PBKDF2Hasher implements PasswordHasher using PBKDF2-HMAC-SHA512.
type PBKDF2Hasher struct {
	iterations int
}

// NewPBKDF2Hasher creates a PBKDF2Hasher with DefaultIterations.
func NewPBKDF2Hasher() *PBKDF2Hasher {
	return &PBKDF2Hasher{iterations: DefaultIterations}
}

// NewPBKDF2HasherWithIterations creates a PBKDF2Hasher with a custom work
// factor. Values below 1 fall back to DefaultIterations.
func NewPBKDF2HasherWithIterations(iterations int) *PBKDF2Hasher {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &PBKDF2Hasher{iterations: iterations}
}

// Iterations returns the work factor used by this hasher.
func (h *PBKDF2Hasher) Iterations() int {
	return h.iterations
}

// Derive generates a random salt and computes the PBKDF2 key for plaintext.
func (h *PBKDF2Hasher) Derive(plaintext string) (hash, salt []byte) {
	salt = make([]byte, SaltLength)
	// crypto/rand.Read never returns an error; it crashes the program if the
	// system source fails.
	_, _ = rand.Read(salt)

	return h.key(plaintext, salt), salt
}

// Verify recomputes the key for plaintext and compares it in constant time.
func (h *PBKDF2Hasher) Verify(plaintext string, hash, salt []byte) bool {
	if len(hash) != KeyLength || len(salt) == 0 {
		return false
	}
	computed := h.key(plaintext, salt)
	return subtle.ConstantTimeCompare(computed, hash) == 1
}

func (h *PBKDF2Hasher) key(plaintext string, salt []byte) []byte {
	return pbkdf2.Key([]byte(plaintext), salt, h.iterations, KeyLength, sha512.New)
}

// Compile-time interface check.
var _ PasswordHasher = (*PBKDF2Hasher)(nil)
