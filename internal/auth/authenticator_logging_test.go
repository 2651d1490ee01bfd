// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package auth_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	"github.com/Szuhaydv/mapex-backend/internal/auth/memory"
	"github.com/Szuhaydv/mapex-backend/internal/auth/mocks"
)

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func findLog(entries []map[string]any, msg string) map[string]any {
	for _, e := range entries {
		if e["msg"] == msg {
			return e
		}
	}
	return nil
}

func TestAuthenticator_LogsStoreFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	creds := mocks.NewMockCredentialRepository(t)
	sessions := mocks.NewMockSessionRepository(t)
	a, err := auth.NewAuthenticator(creds, sessions, auth.NewPBKDF2HasherWithIterations(testIterations), auth.WithLogger(logger))
	require.NoError(t, err)

	creds.On("GetByIdentity", mock.Anything, "alice").Return(nil, errors.New("connection refused"))

	_, _, err = a.Login(context.Background(), "alice", "pw")
	require.Error(t, err)

	entry := findLog(decodeLogLines(t, &buf), "session store unavailable")
	require.NotNil(t, entry)
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "get credential", entry["operation"])
	assert.Contains(t, entry["error"], "connection refused")
}

func TestAuthenticator_LogsFailedLoginWithoutPassword(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	a, err := auth.NewAuthenticator(
		memory.NewCredentialRepository(),
		memory.NewSessionRepository(),
		auth.NewPBKDF2HasherWithIterations(testIterations),
		auth.WithLogger(logger),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Register(ctx, "alice", "s3cret-value"))
	_, _, err = a.Login(ctx, "alice", "wrong-value")
	require.Error(t, err)

	assert.NotContains(t, buf.String(), "s3cret-value")
	assert.NotContains(t, buf.String(), "wrong-value")

	entry := findLog(decodeLogLines(t, &buf), "login failed")
	require.NotNil(t, entry)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "bad_credentials", entry["reason"])
	assert.Equal(t, "alice", entry["identity"])
	assert.Equal(t, auth.StateAnonymous.String(), entry["state"])
}

func TestAuthenticator_LogsSessionStates(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sessions := memory.NewSessionRepository()

	a, err := auth.NewAuthenticator(
		memory.NewCredentialRepository(),
		sessions,
		auth.NewPBKDF2HasherWithIterations(testIterations),
		auth.WithLogger(logger),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Register(ctx, "alice", "correct"))
	_, token, err := a.Login(ctx, "alice", "correct")
	require.NoError(t, err)
	require.NoError(t, a.Logout(ctx, token))

	token, tokenHash, err := auth.GenerateSessionToken()
	require.NoError(t, err)
	stale, err := auth.NewSession("alice", tokenHash, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	sessions.Put(*stale)
	_, err = a.Resolve(ctx, token)
	require.ErrorIs(t, err, auth.ErrSessionExpired)

	entries := decodeLogLines(t, &buf)
	for msg, state := range map[string]auth.SessionState{
		"login attempt":   auth.StateAuthenticating,
		"login succeeded": auth.StateAuthenticated,
		"logged out":      auth.StateLoggedOut,
		"session expired": auth.StateExpired,
	} {
		entry := findLog(entries, msg)
		require.NotNil(t, entry, "missing %q", msg)
		assert.Equal(t, state.String(), entry["state"], msg)
	}
}

func TestAuthenticator_LogsPurgeFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	creds := mocks.NewMockCredentialRepository(t)
	sessions := mocks.NewMockSessionRepository(t)
	a, err := auth.NewAuthenticator(creds, sessions, auth.NewPBKDF2HasherWithIterations(testIterations), auth.WithLogger(logger))
	require.NoError(t, err)

	token, tokenHash, err := auth.GenerateSessionToken()
	require.NoError(t, err)
	expired := &auth.Session{Identity: "alice", TokenHash: tokenHash}
	sessions.On("GetByTokenHash", mock.Anything, tokenHash).Return(expired, nil)
	sessions.On("DeleteByTokenHash", mock.Anything, tokenHash).Return(errors.New("timeout"))

	_, err = a.Resolve(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrSessionExpired, "purge failure does not change the outcome")

	entry := findLog(decodeLogLines(t, &buf), "best-effort purge of expired session failed")
	require.NotNil(t, entry)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "purge_expired_session", entry["operation"])
}
