// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	"github.com/Szuhaydv/mapex-backend/internal/logging"
	"github.com/Szuhaydv/mapex-backend/internal/observability"
	"github.com/Szuhaydv/mapex-backend/pkg/errutil"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// Context keys set by RequireAuthenticated.
const (
	identityKey = "mapex.identity"
	sessionKey  = "mapex.session"
)

// requestID accepts a caller supplied request id or mints one, echoes it in
// the response, and attaches it to the request context for logging.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		h.metrics.RecordHTTPRequest(c.Request.Method, route, status)
		h.logger.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP())
	}
}

// RequireAuthenticated rejects requests without a live session. On success
// the identity is available through Identity.
func (h *Handler) RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)

		var session *auth.Session
		err := h.withRetry(c.Request.Context(), func(ctx context.Context) error {
			var err error
			session, err = h.auth.Resolve(ctx, token)
			return err //nolint:wrapcheck // classified below
		})
		switch {
		case err == nil:
			h.metrics.RecordAuthAttempt("resolve", observability.OutcomeSuccess)
			c.Set(identityKey, session.Identity)
			c.Set(sessionKey, session)
			c.Next()
		case auth.IsUnauthenticated(err):
			h.metrics.RecordAuthAttempt("resolve", observability.OutcomeRejected)
			if token != "" {
				h.clearSessionCookie(c)
			}
			h.logger.DebugContext(c.Request.Context(), "request not authenticated",
				"route", c.FullPath(),
				"code", errutil.Code(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": MsgNotAuthorized})
		default:
			h.abortError(c, "resolve", "session resolution failed", err)
		}
	}
}

// Identity returns the authenticated identity stored by RequireAuthenticated.
func Identity(c *gin.Context) string {
	return c.GetString(identityKey)
}

// Session returns the session stored by RequireAuthenticated, or nil.
func Session(c *gin.Context) *auth.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := v.(*auth.Session)
	return session
}

// abortError answers 503 for transient store failures and 500 otherwise.
// An empty operation skips the auth metric.
func (h *Handler) abortError(c *gin.Context, operation, msg string, err error) {
	ctx := c.Request.Context()
	if errors.Is(err, auth.ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		if operation != "" {
			h.metrics.RecordAuthAttempt(operation, observability.OutcomeUnavailable)
		}
		h.logger.WarnContext(ctx, msg, errutil.Attrs(err)...)
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": MsgUnavailable})
		return
	}
	if operation != "" {
		h.metrics.RecordAuthAttempt(operation, observability.OutcomeError)
	}
	errutil.LogErrorContext(ctx, h.logger, msg, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": MsgInternal})
}
