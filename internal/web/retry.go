// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package web

import (
	"context"

	"github.com/sethvargo/go-retry"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
)

// withRetry runs fn, retrying with exponential backoff while it fails with a
// transient store error. Other errors are returned immediately.
func (h *Handler) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	if h.retryAttempts == 0 {
		return fn(ctx)
	}

	backoff := retry.WithMaxRetries(h.retryAttempts, retry.NewExponential(h.retryBackoff))
	//nolint:wrapcheck // fn errors are classified by the caller
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if auth.IsRetryable(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
