// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	"github.com/Szuhaydv/mapex-backend/internal/observability"
)

// Client-facing messages.
const (
	MsgLoginSucceeded    = "Successful login!"
	MsgRegistered        = "Successful registration!"
	MsgLoggedOut         = "Successful logout"
	MsgInvalidLogin      = "Invalid username or password"
	MsgUserExists        = "User already exists"
	MsgNotAuthorized     = "You are not authorized"
	MsgInvalidBody       = "Invalid request body"
	MsgUnavailable       = "Service temporarily unavailable"
	MsgInternal          = "Internal server error"
	MsgTitleRequired     = "Give a title to the map!"
	MsgInvalidMap        = "Invalid map"
	MsgMapNotFound       = "Map not found!"
	MsgMapUpdated        = "Map updated successfully!"
	MsgMapDeleted        = "Map deleted successfully!"
	msgInvalidUsername   = "Invalid username"
	msgInvalidPassword   = "Invalid password"
	msgInvalidCredential = "Invalid username or password format"
)

// credentialsRequest accepts JSON and form encoded bodies.
type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidBody})
		return
	}

	err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		h.metrics.RecordAuthAttempt("register", observability.OutcomeSuccess)
		c.JSON(http.StatusOK, gin.H{"message": MsgRegistered})
	case errors.Is(err, auth.ErrDuplicateUser):
		h.metrics.RecordAuthAttempt("register", observability.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgUserExists})
	case errors.Is(err, auth.ErrInvalidInput):
		h.metrics.RecordAuthAttempt("register", observability.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"message": invalidInputMessage(err)})
	default:
		h.abortError(c, "register", "registration failed", err)
	}
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": MsgInvalidBody})
		return
	}

	var (
		session *auth.Session
		token   string
	)
	err := h.withRetry(c.Request.Context(), func(ctx context.Context) error {
		var err error
		session, token, err = h.auth.Login(ctx, req.Username, req.Password)
		return err //nolint:wrapcheck // classified below
	})
	switch {
	case err == nil:
		h.metrics.RecordAuthAttempt("login", observability.OutcomeSuccess)
		h.setSessionCookie(c, token)
		h.logger.DebugContext(c.Request.Context(), "session cookie issued",
			"session_id", session.ID.String())
		c.JSON(http.StatusOK, gin.H{"message": MsgLoginSucceeded})
	case auth.IsCredentialError(err):
		// Unknown user and wrong password must look identical to the client.
		h.metrics.RecordAuthAttempt("login", observability.OutcomeRejected)
		c.JSON(http.StatusUnauthorized, gin.H{"message": MsgInvalidLogin})
	default:
		h.abortError(c, "login", "login failed", err)
	}
}

func (h *Handler) logout(c *gin.Context) {
	token := sessionToken(c)
	err := h.withRetry(c.Request.Context(), func(ctx context.Context) error {
		return h.auth.Logout(ctx, token) //nolint:wrapcheck // logged below
	})
	if err != nil {
		h.metrics.RecordAuthAttempt("logout", observability.OutcomeError)
		h.logger.WarnContext(c.Request.Context(), "logout could not delete session",
			"error", err.Error())
	} else {
		h.metrics.RecordAuthAttempt("logout", observability.OutcomeSuccess)
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": MsgLoggedOut})
}

func invalidInputMessage(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return msgInvalidCredential
	}
	switch oopsErr.Context()["field"] {
	case "username":
		return msgInvalidUsername
	case "password":
		return msgInvalidPassword
	default:
		return msgInvalidCredential
	}
}
