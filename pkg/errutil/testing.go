// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode asserts that err is a coded error carrying code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err, "expected an error coded %s", code)
	_, ok := oops.AsOops(err)
	require.True(t, ok, "expected an error coded %s, got uncoded %T: %v", code, err, err)
	assert.Equal(t, code, Code(err), "wrong code on %v", err)
}

// AssertErrorCodeIs asserts both the code and the sentinel of err, the pair
// every domain error in this module carries.
func AssertErrorCodeIs(t *testing.T, err error, code string, sentinel error) {
	t.Helper()
	AssertErrorCode(t, err, code)
	assert.True(t, errors.Is(err, sentinel), "error coded %s does not wrap %q: %v", code, sentinel, err)
}

// AssertErrorContext asserts that err carries key=value in its context.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected a coded error with %s in its context, got %T: %v", key, err, err)
	ctx := oopsErr.Context()
	require.Contains(t, ctx, key, "context of %v", err)
	assert.Equal(t, value, ctx[key], "context value %s", key)
}
