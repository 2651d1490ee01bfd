// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package xdg resolves the XDG Base Directory locations Mapex reads from.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "mapex"

// ConfigFileName is the file looked up inside ConfigDir.
const ConfigFileName = "config.yaml"

// ConfigDir returns the Mapex config directory.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() (string, error) {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appName), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		return "", oops.Code("XDG_NO_HOME").Errorf("neither XDG_CONFIG_HOME nor HOME is set")
	}
	return filepath.Join(home, ".config", appName), nil
}

// FindConfigFile returns the default config file path if one exists.
// An empty path with a nil error means there is no default file.
func FindConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		//nolint:nilerr // no home directory means no default file
		return "", nil
	}
	path := filepath.Join(dir, ConfigFileName)
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", nil
	case err != nil:
		return "", oops.Code("XDG_STAT_FAILED").With("path", path).Wrap(err)
	case info.IsDir():
		return "", oops.Code("XDG_NOT_A_FILE").With("path", path).Errorf("%s is a directory", path)
	}
	return path, nil
}
