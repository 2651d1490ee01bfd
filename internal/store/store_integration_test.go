// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

//go:build integration

package store_test

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/Szuhaydv/mapex-backend/internal/store"
)

var _ = Describe("PostgreSQL store", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		migrator  *store.Migrator
		pool      *pgxpool.Pool
	)

	BeforeAll(func() {
		ctx = context.Background()
		container, connStr = startPostgres(ctx, "mapex_test")

		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())

		pool, err = store.Connect(ctx, connStr, store.DefaultConnectOptions())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if migrator != nil {
			Expect(migrator.Close()).To(Succeed())
		}
		if container != nil {
			Expect(container.Terminate(ctx)).To(Succeed())
		}
	})

	It("starts at version zero", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())
	})

	It("applies every migration", func() {
		Expect(migrator.Up()).To(Succeed())

		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(3)))
		Expect(dirty).To(BeFalse())

		pending, err := migrator.Pending()
		Expect(err).NotTo(HaveOccurred())
		Expect(pending).To(BeEmpty())
	})

	It("enforces unique identities", func() {
		_, err := pool.Exec(ctx, `INSERT INTO credentials (identity, hash, salt) VALUES ('alice', 'h', 's')`)
		Expect(err).NotTo(HaveOccurred())

		_, err = pool.Exec(ctx, `INSERT INTO credentials (identity, hash, salt) VALUES ('alice', 'h2', 's2')`)
		Expect(err).To(HaveOccurred())
		Expect(store.IsUniqueViolation(err)).To(BeTrue())
	})

	It("steps back and forward one migration", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))

		Expect(migrator.Steps(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(3)))
	})

	It("rolls everything back", func() {
		Expect(migrator.Down()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
	})
})
