// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Szuhaydv/mapex-backend/internal/config"
	"github.com/Szuhaydv/mapex-backend/internal/xdg"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

// NewRootCmd creates the root command for the Mapex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapex",
		Short: "Mapex - maps and landmarks backend",
		Long: `Mapex serves user-authored maps with embedded landmarks behind
credential-based session authentication.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML, default $XDG_CONFIG_HOME/mapex/config.yaml)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded into the environment if present")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSessionsCmd())

	return cmd
}

// loadConfig reads the configuration for a command whose flags were
// registered with config.RegisterFlags or a subset of it. Without --config
// the XDG config file is used when present.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configFile
	if path == "" {
		found, err := xdg.FindConfigFile()
		if err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").Wrap(err)
		}
		path = found
	}
	//nolint:wrapcheck // config errors carry their own codes
	return config.Load(cmd.Flags(), config.Options{ConfigFile: path, EnvFile: envFile})
}
