// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	authmemory "github.com/Szuhaydv/mapex-backend/internal/auth/memory"
	"github.com/Szuhaydv/mapex-backend/internal/maps"
	mapsmemory "github.com/Szuhaydv/mapex-backend/internal/maps/memory"
	"github.com/Szuhaydv/mapex-backend/internal/observability"
	"github.com/Szuhaydv/mapex-backend/internal/web"
)

const testIterations = 1000

type env struct {
	credentials *authmemory.CredentialRepository
	sessions    *authmemory.SessionRepository
	mapRepo     *mapsmemory.Repository
	metrics     *observability.Metrics
	logs        *bytes.Buffer
	router      *gin.Engine
}

func newEnv(t *testing.T, opts ...web.Option) *env {
	t.Helper()
	e := &env{
		credentials: authmemory.NewCredentialRepository(),
		sessions:    authmemory.NewSessionRepository(),
		mapRepo:     mapsmemory.NewRepository(),
		metrics:     observability.NewMetrics(prometheus.NewRegistry()),
		logs:        &bytes.Buffer{},
	}
	logger := slog.New(slog.NewJSONHandler(e.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	authenticator, err := auth.NewAuthenticator(e.credentials, e.sessions,
		auth.NewPBKDF2HasherWithIterations(testIterations), auth.WithLogger(logger))
	require.NoError(t, err)
	mapService, err := maps.NewService(e.mapRepo, maps.WithLogger(logger))
	require.NoError(t, err)

	e.router = newRouter(t, authenticator, mapService, logger, e.metrics, opts...)
	return e
}

func newMapService(t *testing.T) *maps.Service {
	t.Helper()
	svc, err := maps.NewService(mapsmemory.NewRepository(), maps.WithLogger(discardLogger()))
	require.NoError(t, err)
	return svc
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(t *testing.T, a web.Authenticator, m web.MapService, logger *slog.Logger, metrics *observability.Metrics, opts ...web.Option) *gin.Engine {
	t.Helper()
	base := []web.Option{
		web.WithLogger(logger),
		web.WithMetrics(metrics),
		web.WithCookie(web.CookieConfig{Secure: true}),
		web.WithRetry(2, time.Millisecond),
	}
	h, err := web.NewHandler(a, m, append(base, opts...)...)
	require.NoError(t, err)
	return h.Router()
}

type request struct {
	method  string
	path    string
	body    any
	cookie  *http.Cookie
	headers map[string]string
}

func (e *env) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()
	return serve(t, e.router, r)
}

func serve(t *testing.T, router http.Handler, r request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func credentials(username, password string) map[string]string {
	return map[string]string{"username": username, "password": password}
}

// login registers username and returns the session cookie.
func (e *env) login(t *testing.T, username string) *http.Cookie {
	t.Helper()
	rec := e.do(t, request{method: http.MethodPost, path: "/register", body: credentials(username, "hunter2")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, request{method: http.MethodPost, path: "/login", body: credentials(username, "hunter2")})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	return cookie
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == web.SessionCookie {
			return c
		}
	}
	return nil
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Message
}
