// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate", "sessions"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "separate value",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "with equals",
			args:     []string{"--config=/etc/mapex.yaml", "--help"},
			wantFlag: "/etc/mapex.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""

			cmd := NewRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestServeCmd_RegistersConfigFlags(t *testing.T) {
	cmd := NewServeCmd()

	for _, name := range []string{
		"http-addr", "metrics-addr", "log-format", "allowed-origins", "cookie-domain",
		"cookie-secure", "session-store", "store-timeout", "database-url", "redis-url", "auto-migrate",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %q", name)
	}
}

func TestServeCmd_InvalidConfigFails(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MAPEX_SESSION_STORE", "")

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"serve", "--env-file", t.TempDir() + "/missing.env", "--session-store", "cassandra"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session_store")
}
