// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package web serves the Mapex HTTP API with gin.
//
// Routes:
//   - POST /register, POST /login, GET /logout
//   - GET /api/topthree, GET /api/explore (public)
//   - GET|POST /api/mymaps, GET|PUT|DELETE /api/mymaps/:id (session required)
//
// Sessions travel in the SessionCookie cookie. RequireAuthenticated resolves
// the cookie on every protected request and stores the identity in the gin
// context.
package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	"github.com/Szuhaydv/mapex-backend/internal/maps"
	"github.com/Szuhaydv/mapex-backend/internal/observability"
)

// Authenticator is the session authentication used by the handlers.
type Authenticator interface {
	Register(ctx context.Context, identity, plaintext string) error
	Login(ctx context.Context, identity, plaintext string) (*auth.Session, string, error)
	Resolve(ctx context.Context, token string) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
}

// MapService is the map storage used by the handlers.
type MapService interface {
	Create(ctx context.Context, author string, in maps.Input) (*maps.Map, error)
	ListByAuthor(ctx context.Context, author string) ([]*maps.Map, error)
	Get(ctx context.Context, viewer string, id ulid.ULID) (*maps.Map, error)
	Update(ctx context.Context, author string, id ulid.ULID, in maps.Input) (*maps.Map, error)
	Delete(ctx context.Context, author string, id ulid.ULID) error
	Explore(ctx context.Context) ([]*maps.Map, error)
	TopThree(ctx context.Context) ([]*maps.Map, error)
}

var (
	_ Authenticator = (*auth.Authenticator)(nil)
	_ MapService    = (*maps.Service)(nil)
)

// Retry defaults for transient store failures.
const (
	DefaultRetryAttempts = 2
	DefaultRetryBackoff  = 50 * time.Millisecond
)

// Handler holds the dependencies of the HTTP API.
type Handler struct {
	auth          Authenticator
	maps          MapService
	logger        *slog.Logger
	metrics       *observability.Metrics
	cookie        CookieConfig
	origins       []string
	retryAttempts uint64
	retryBackoff  time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// WithMetrics records auth attempts and requests into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithCookie sets the session cookie attributes.
func WithCookie(cfg CookieConfig) Option {
	return func(h *Handler) { h.cookie = cfg }
}

// WithAllowedOrigins enables credentialed CORS for the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) { h.origins = origins }
}

// WithRetry sets how often a transient store failure is retried and the
// initial backoff between attempts. Zero attempts disables retrying.
func WithRetry(attempts uint64, backoff time.Duration) Option {
	return func(h *Handler) {
		h.retryAttempts = attempts
		h.retryBackoff = backoff
	}
}

// NewHandler creates the API handler.
func NewHandler(authenticator Authenticator, mapService MapService, opts ...Option) (*Handler, error) {
	if authenticator == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("authenticator is required")
	}
	if mapService == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("map service is required")
	}

	h := &Handler{
		auth:          authenticator,
		maps:          mapService,
		logger:        slog.Default(),
		cookie:        CookieConfig{Secure: true},
		retryAttempts: DefaultRetryAttempts,
		retryBackoff:  DefaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(h)
	}

	if h.logger == nil {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	if h.retryAttempts > 0 && h.retryBackoff <= 0 {
		return nil, oops.Code("WEB_INVALID_DEPENDENCY").
			With("retry_backoff", h.retryBackoff).
			Errorf("retry backoff must be positive")
	}
	if len(h.origins) > 0 {
		if err := corsConfig(h.origins).Validate(); err != nil {
			return nil, oops.Code("WEB_INVALID_ORIGINS").With("origins", h.origins).Wrap(err)
		}
	}
	h.logger = h.logger.With("component", "web")
	return h, nil
}

// Router builds the gin engine serving every route.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.CustomRecoveryWithWriter(io.Discard, h.recover),
		requestID(),
		h.accessLog(),
	)
	if len(h.origins) > 0 {
		r.Use(cors.New(corsConfig(h.origins)))
	}

	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.GET("/logout", h.logout)

	api := r.Group("/api")
	api.GET("/topthree", h.topThree)
	api.GET("/explore", h.explore)

	mine := api.Group("/mymaps", h.RequireAuthenticated())
	mine.GET("", h.listMine)
	mine.POST("", h.createMap)
	mine.GET("/:id", h.getMap)
	mine.PUT("/:id", h.updateMap)
	mine.DELETE("/:id", h.deleteMap)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func (h *Handler) recover(c *gin.Context, recovered any) {
	h.logger.ErrorContext(c.Request.Context(), "panic recovered",
		"panic", recovered,
		"method", c.Request.Method,
		"route", c.FullPath())
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": MsgInternal})
}
