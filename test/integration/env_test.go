// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/gomega" //nolint:revive // gomega convention
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	authpostgres "github.com/Szuhaydv/mapex-backend/internal/auth/postgres"
	authredis "github.com/Szuhaydv/mapex-backend/internal/auth/redis"
	"github.com/Szuhaydv/mapex-backend/internal/maps"
	mapspostgres "github.com/Szuhaydv/mapex-backend/internal/maps/postgres"
	"github.com/Szuhaydv/mapex-backend/internal/store"
	"github.com/Szuhaydv/mapex-backend/internal/web"
)

// infra holds the containers shared by the suite.
type infra struct {
	postgres *postgres.PostgresContainer
	redis    testcontainers.Container
	pool     *pgxpool.Pool
	rdb      *goredis.Client
}

func startInfra(ctx context.Context) *infra {
	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("mapex_e2e"),
		postgres.WithUsername("mapex"),
		postgres.WithPassword("mapex"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	migrator, err := store.NewMigrator(connStr)
	Expect(err).NotTo(HaveOccurred())
	Expect(migrator.Up()).To(Succeed())
	Expect(migrator.Close()).To(Succeed())

	pool, err := store.Connect(ctx, connStr, store.DefaultConnectOptions())
	Expect(err).NotTo(HaveOccurred())

	rc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	Expect(err).NotTo(HaveOccurred())
	endpoint, err := rc.Endpoint(ctx, "")
	Expect(err).NotTo(HaveOccurred())
	opts, err := goredis.ParseURL(fmt.Sprintf("redis://%s/0", endpoint))
	Expect(err).NotTo(HaveOccurred())

	return &infra{postgres: pg, redis: rc, pool: pool, rdb: goredis.NewClient(opts)}
}

func (i *infra) stop(ctx context.Context) {
	if i == nil {
		return
	}
	_ = i.rdb.Close()
	i.pool.Close()
	_ = i.redis.Terminate(ctx)
	_ = i.postgres.Terminate(ctx)
}

func (i *infra) truncate(ctx context.Context) {
	_, err := i.pool.Exec(ctx, `TRUNCATE credentials, sessions, maps`)
	Expect(err).NotTo(HaveOccurred())
	Expect(i.rdb.FlushDB(ctx).Err()).To(Succeed())
}

// api is one running HTTP server over the shared infrastructure.
type api struct {
	server *httptest.Server
}

func (i *infra) newAPI(sessions auth.SessionRepository) *api {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	authenticator, err := auth.NewAuthenticator(
		authpostgres.NewCredentialRepository(i.pool),
		sessions,
		auth.NewPBKDF2HasherWithIterations(1000),
		auth.WithLogger(logger),
	)
	Expect(err).NotTo(HaveOccurred())
	mapService, err := maps.NewService(mapspostgres.NewRepository(i.pool), maps.WithLogger(logger))
	Expect(err).NotTo(HaveOccurred())

	handler, err := web.NewHandler(authenticator, mapService,
		web.WithLogger(logger),
		web.WithCookie(web.CookieConfig{Secure: false}),
	)
	Expect(err).NotTo(HaveOccurred())
	return &api{server: httptest.NewServer(handler.Router())}
}

func (i *infra) postgresSessions() auth.SessionRepository {
	return authpostgres.NewSessionRepository(i.pool)
}

func (i *infra) redisSessions() auth.SessionRepository {
	return authredis.NewSessionRepository(i.rdb)
}

// client is a browser-like client with its own cookie jar.
type client struct {
	http *http.Client
	base string
}

func (a *api) newClient() *client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &client{http: &http.Client{Jar: jar, Timeout: 10 * time.Second}, base: a.server.URL}
}

type response struct {
	status int
	body   map[string]any
	raw    string
}

func (c *client) do(method, path string, body any) response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequest(method, c.base+path, reader) //nolint:noctx // test client
	Expect(err).NotTo(HaveOccurred())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	out := response{status: resp.StatusCode, raw: string(raw)}
	_ = json.Unmarshal(raw, &out.body) //nolint:errcheck // some bodies are not objects
	return out
}

func (c *client) sessionToken() string {
	base, err := url.Parse(c.base)
	Expect(err).NotTo(HaveOccurred())
	for _, cookie := range c.http.Jar.Cookies(base) {
		if cookie.Name == web.SessionCookie {
			return cookie.Value
		}
	}
	return ""
}

func credentials(username, password string) map[string]string {
	return map[string]string{"username": username, "password": password}
}
