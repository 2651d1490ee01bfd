// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

//go:build integration

package integration

import (
	"context"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/Szuhaydv/mapex-backend/internal/auth"
	"github.com/Szuhaydv/mapex-backend/internal/web"
)

var (
	ctx   context.Context
	stack *infra
)

var _ = BeforeSuite(func() {
	ctx = context.Background()
	stack = startInfra(ctx)
})

var _ = AfterSuite(func() {
	stack.stop(ctx)
})

// sessionBackends runs the shared API specs once per session store.
var sessionBackends = []struct {
	name     string
	sessions func() auth.SessionRepository
}{
	{"postgres", func() auth.SessionRepository { return stack.postgresSessions() }},
	{"redis", func() auth.SessionRepository { return stack.redisSessions() }},
}

var _ = Describe("Mapex API", func() {
	for _, backend := range sessionBackends {
		sessions := backend.sessions
		Context("with "+backend.name+" sessions", func() {
			var server *api

			BeforeEach(func() {
				stack.truncate(ctx)
				server = stack.newAPI(sessions())
				DeferCleanup(server.server.Close)
			})

			Describe("registration and login", func() {
				It("registers, logs in, and sets a session cookie", func() {
					alice := server.newClient()

					resp := alice.do(http.MethodPost, "/register", credentials("alice", "s3cret"))
					Expect(resp.status).To(Equal(http.StatusOK))
					Expect(resp.body).To(HaveKeyWithValue("message", web.MsgRegistered))
					Expect(alice.sessionToken()).To(BeEmpty(), "registration does not log in")

					resp = alice.do(http.MethodPost, "/login", credentials("alice", "s3cret"))
					Expect(resp.status).To(Equal(http.StatusOK))
					Expect(resp.body).To(HaveKeyWithValue("message", web.MsgLoginSucceeded))
					Expect(alice.sessionToken()).To(HaveLen(2 * auth.SessionTokenBytes))
				})

				It("rejects a duplicate identity", func() {
					c := server.newClient()
					Expect(c.do(http.MethodPost, "/register", credentials("alice", "one")).status).To(Equal(http.StatusOK))

					resp := c.do(http.MethodPost, "/register", credentials("alice", "two"))
					Expect(resp.status).To(Equal(http.StatusBadRequest))
					Expect(resp.body).To(HaveKeyWithValue("message", web.MsgUserExists))
				})

				It("treats identities as case sensitive", func() {
					c := server.newClient()
					Expect(c.do(http.MethodPost, "/register", credentials("alice", "s3cret")).status).To(Equal(http.StatusOK))
					Expect(c.do(http.MethodPost, "/register", credentials("Alice", "other")).status).To(Equal(http.StatusOK))

					resp := c.do(http.MethodPost, "/login", credentials("ALICE", "s3cret"))
					Expect(resp.status).To(Equal(http.StatusUnauthorized))
				})

				It("answers unknown users and wrong passwords identically", func() {
					c := server.newClient()
					Expect(c.do(http.MethodPost, "/register", credentials("alice", "s3cret")).status).To(Equal(http.StatusOK))

					unknown := c.do(http.MethodPost, "/login", credentials("bob", "s3cret"))
					wrong := c.do(http.MethodPost, "/login", credentials("alice", "nope"))

					Expect(unknown.status).To(Equal(http.StatusUnauthorized))
					Expect(wrong.status).To(Equal(unknown.status))
					Expect(wrong.raw).To(Equal(unknown.raw))
					Expect(c.sessionToken()).To(BeEmpty())
				})
			})

			Describe("sessions", func() {
				var alice *client

				BeforeEach(func() {
					alice = server.newClient()
					Expect(alice.do(http.MethodPost, "/register", credentials("alice", "s3cret")).status).To(Equal(http.StatusOK))
					Expect(alice.do(http.MethodPost, "/login", credentials("alice", "s3cret")).status).To(Equal(http.StatusOK))
				})

				It("rejects protected routes without a session", func() {
					resp := server.newClient().do(http.MethodGet, "/api/mymaps", nil)
					Expect(resp.status).To(Equal(http.StatusUnauthorized))
					Expect(resp.body).To(HaveKeyWithValue("message", web.MsgNotAuthorized))
				})

				It("ends the session on logout", func() {
					token := alice.sessionToken()

					resp := alice.do(http.MethodGet, "/logout", nil)
					Expect(resp.status).To(Equal(http.StatusOK))
					Expect(resp.body).To(HaveKeyWithValue("message", web.MsgLoggedOut))
					Expect(alice.sessionToken()).To(BeEmpty())

					_, err := sessions().GetByTokenHash(ctx, auth.HashSessionToken(token))
					Expect(err).To(MatchError(auth.ErrNotFound))
					Expect(alice.do(http.MethodGet, "/api/mymaps", nil).status).To(Equal(http.StatusUnauthorized))
				})

				It("keeps sessions independent across logins", func() {
					other := server.newClient()
					Expect(other.do(http.MethodPost, "/login", credentials("alice", "s3cret")).status).To(Equal(http.StatusOK))
					Expect(other.sessionToken()).NotTo(Equal(alice.sessionToken()))

					Expect(other.do(http.MethodGet, "/logout", nil).status).To(Equal(http.StatusOK))
					Expect(alice.do(http.MethodGet, "/api/mymaps", nil).status).To(Equal(http.StatusOK))
				})
			})

			Describe("maps", func() {
				var alice, bob *client

				BeforeEach(func() {
					alice = server.newClient()
					bob = server.newClient()
					for user, c := range map[string]*client{"alice": alice, "bob": bob} {
						Expect(c.do(http.MethodPost, "/register", credentials(user, "pw-"+user)).status).To(Equal(http.StatusOK))
						Expect(c.do(http.MethodPost, "/login", credentials(user, "pw-"+user)).status).To(Equal(http.StatusOK))
					}
				})

				createMap := func(c *client, title string) string {
					resp := c.do(http.MethodPost, "/api/mymaps", map[string]any{
						"title": title,
						"tags":  []string{"travel"},
						"landmarks": []map[string]any{
							{"title": "Start", "longitude": 19.04, "latitude": 47.5},
						},
					})
					Expect(resp.status).To(Equal(http.StatusCreated))
					id, ok := resp.body["_id"].(string)
					Expect(ok).To(BeTrue(), "response carries _id")
					return id
				}

				It("creates, lists, updates, and deletes a map", func() {
					id := createMap(alice, "Budapest")

					resp := alice.do(http.MethodGet, "/api/mymaps", nil)
					Expect(resp.status).To(Equal(http.StatusOK))
					Expect(resp.body).To(HaveKeyWithValue("count", BeNumerically("==", 1)))

					resp = alice.do(http.MethodPut, "/api/mymaps/"+id, map[string]any{
						"title":        "Budapest 2",
						"publicStatus": true,
					})
					Expect(resp.status).To(Equal(http.StatusOK))
					Expect(resp.body).To(HaveKeyWithValue("message", web.MsgMapUpdated))

					resp = alice.do(http.MethodGet, "/api/mymaps/"+id, nil)
					Expect(resp.status).To(Equal(http.StatusOK))
					Expect(resp.body).To(HaveKeyWithValue("title", "Budapest 2"))
					Expect(resp.body).To(HaveKeyWithValue("author", "alice"))

					resp = alice.do(http.MethodDelete, "/api/mymaps/"+id, nil)
					Expect(resp.status).To(Equal(http.StatusOK))
					Expect(resp.body).To(HaveKeyWithValue("message", web.MsgMapDeleted))

					Expect(alice.do(http.MethodGet, "/api/mymaps/"+id, nil).status).To(Equal(http.StatusNotFound))
				})

				It("keeps private maps away from other users", func() {
					id := createMap(alice, "Secret")

					Expect(bob.do(http.MethodGet, "/api/mymaps/"+id, nil).status).To(Equal(http.StatusNotFound))
					Expect(bob.do(http.MethodPut, "/api/mymaps/"+id, map[string]any{"title": "Mine"}).status).To(Equal(http.StatusNotFound))
					Expect(bob.do(http.MethodDelete, "/api/mymaps/"+id, nil).status).To(Equal(http.StatusNotFound))

					resp := bob.do(http.MethodGet, "/api/mymaps", nil)
					Expect(resp.body).To(HaveKeyWithValue("count", BeNumerically("==", 0)))
				})

				It("publishes maps to explore once made public", func() {
					id := createMap(alice, "Open")
					Expect(server.newClient().do(http.MethodGet, "/api/explore", nil).body).
						To(HaveKeyWithValue("count", BeNumerically("==", 0)))

					Expect(alice.do(http.MethodPut, "/api/mymaps/"+id, map[string]any{
						"title":        "Open",
						"publicStatus": true,
					}).status).To(Equal(http.StatusOK))

					anonymous := server.newClient()
					resp := anonymous.do(http.MethodGet, "/api/explore", nil)
					Expect(resp.status).To(Equal(http.StatusOK))
					Expect(resp.body).To(HaveKeyWithValue("count", BeNumerically("==", 1)))

					resp = anonymous.do(http.MethodGet, "/api/topthree", nil)
					Expect(resp.status).To(Equal(http.StatusOK))
					Expect(resp.body).To(HaveKeyWithValue("count", BeNumerically("==", 1)))
				})

				It("requires a title", func() {
					resp := alice.do(http.MethodPost, "/api/mymaps", map[string]any{"tags": []string{"x"}})
					Expect(resp.status).To(Equal(http.StatusBadRequest))
					Expect(resp.body).To(HaveKeyWithValue("message", web.MsgTitleRequired))
				})
			})
		})
	}

	Describe("session expiry", func() {
		var server *api

		BeforeEach(func() {
			stack.truncate(ctx)
			server = stack.newAPI(stack.postgresSessions())
			DeferCleanup(server.server.Close)
		})

		It("rejects and purges an expired session", func() {
			alice := server.newClient()
			Expect(alice.do(http.MethodPost, "/register", credentials("alice", "s3cret")).status).To(Equal(http.StatusOK))
			Expect(alice.do(http.MethodPost, "/login", credentials("alice", "s3cret")).status).To(Equal(http.StatusOK))
			tokenHash := auth.HashSessionToken(alice.sessionToken())

			_, err := stack.pool.Exec(ctx,
				`UPDATE sessions SET expires_at = $1 WHERE token_hash = $2`,
				time.Now().Add(-time.Minute), tokenHash)
			Expect(err).NotTo(HaveOccurred())

			resp := alice.do(http.MethodGet, "/api/mymaps", nil)
			Expect(resp.status).To(Equal(http.StatusUnauthorized))

			var count int
			Expect(stack.pool.QueryRow(ctx,
				`SELECT count(*) FROM sessions WHERE token_hash = $1`, tokenHash).Scan(&count)).To(Succeed())
			Expect(count).To(BeZero())
		})
	})
})
