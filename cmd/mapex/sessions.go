// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	"github.com/Szuhaydv/mapex-backend/internal/config"
	"github.com/Szuhaydv/mapex-backend/internal/logging"
)

// NewSessionsCmd creates the sessions command.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain stored sessions",
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete expired sessions",
		Long: `Delete every session whose expiry has passed. Expired sessions are
already rejected at request time; pruning only reclaims storage. Redis
expires sessions on its own, so pruning there removes nothing.`,
		Args: cobra.NoArgs,
		RunE: runPrune,
	}
	config.RegisterFlags(prune.Flags())
	cmd.AddCommand(prune)

	return cmd
}

func runPrune(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err //nolint:wrapcheck // coded by config
	}
	logger := logging.Setup("mapex", version, cfg.LogFormat, cmd.ErrOrStderr())

	b, err := openBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	authenticator, err := auth.NewAuthenticator(b.credentials, b.sessions, auth.NewPBKDF2Hasher(),
		auth.WithLogger(logger),
		auth.WithStoreTimeout(cfg.StoreTimeout))
	if err != nil {
		return oops.Code("PRUNE_FAILED").Wrap(err)
	}

	n, err := authenticator.PruneExpired(cmd.Context())
	if err != nil {
		return oops.Code("PRUNE_FAILED").Wrap(err)
	}
	cmd.Printf("Pruned %d expired session(s)\n", n)
	return nil
}
