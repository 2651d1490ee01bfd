// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "mapex.sid"

// CookieConfig holds the session cookie attributes.
type CookieConfig struct {
	Domain string
	Secure bool
}

// sameSite returns None for secure cookies so cross-site frontends can send
// them. Browsers drop SameSite=None cookies without Secure, so plain HTTP
// falls back to Lax.
func (cfg CookieConfig) sameSite() http.SameSite {
	if cfg.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   int(auth.SessionLifetime.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.sameSite(),
	})
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.sameSite(),
	})
}

func sessionToken(c *gin.Context) string {
	token, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return token
}
