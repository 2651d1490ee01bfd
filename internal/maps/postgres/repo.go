// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package postgres implements maps.Repository on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Szuhaydv/mapex-backend/internal/maps"
	"github.com/Szuhaydv/mapex-backend/internal/store"
)

const selectColumns = `id, title, author, cover_image, tags, public_status, number_of_likes,
		landmarks, marker_color, subscription, created_at, updated_at`

// Repository implements maps.Repository using PostgreSQL.
type Repository struct {
	pool store.Pool
}

// NewRepository creates a new Repository.
func NewRepository(pool store.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts m.
func (r *Repository) Create(ctx context.Context, m *maps.Map) error {
	landmarks, tags, err := encodeLists(m)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO maps (id, title, author, cover_image, tags, public_status, number_of_likes,
			landmarks, marker_color, subscription, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		m.ID.String(), m.Title, m.Author, m.CoverImage, tags, m.PublicStatus, m.NumberOfLikes,
		landmarks, m.MarkerColor, m.Subscription, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return oops.Code("MAP_CREATE_FAILED").
			With("operation", "insert map").
			With("map_id", m.ID.String()).
			Wrap(err)
	}
	return nil
}

// Get returns the map with id.
func (r *Repository) Get(ctx context.Context, id ulid.ULID) (*maps.Map, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM maps WHERE id = $1`, id.String())
	m, err := scanMap(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MAP_NOT_FOUND").With("map_id", id.String()).Wrap(maps.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MAP_GET_FAILED").
			With("operation", "get map").
			With("map_id", id.String()).
			Wrap(err)
	}
	return m, nil
}

// ListByAuthor returns author's maps, oldest first.
func (r *Repository) ListByAuthor(ctx context.Context, author string) ([]*maps.Map, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM maps WHERE author = $1 ORDER BY id`, author)
	if err != nil {
		return nil, oops.Code("MAP_LIST_FAILED").With("operation", "list maps by author").Wrap(err)
	}
	return collect(rows)
}

// ListPublic returns public maps by likes descending.
func (r *Repository) ListPublic(ctx context.Context, limit int) ([]*maps.Map, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.pool.Query(ctx, `SELECT `+selectColumns+` FROM maps
			WHERE public_status ORDER BY number_of_likes DESC, id LIMIT $1`, limit)
	} else {
		rows, err = r.pool.Query(ctx, `SELECT `+selectColumns+` FROM maps
			WHERE public_status ORDER BY number_of_likes DESC, id`)
	}
	if err != nil {
		return nil, oops.Code("MAP_LIST_FAILED").With("operation", "list public maps").Wrap(err)
	}
	return collect(rows)
}

// Update replaces a map owned by m.Author.
func (r *Repository) Update(ctx context.Context, m *maps.Map) error {
	landmarks, tags, err := encodeLists(m)
	if err != nil {
		return err
	}
	result, err := r.pool.Exec(ctx, `
		UPDATE maps SET title = $3, cover_image = $4, tags = $5, public_status = $6,
			landmarks = $7, marker_color = $8, updated_at = $9
		WHERE id = $1 AND author = $2
	`,
		m.ID.String(), m.Author, m.Title, m.CoverImage, tags, m.PublicStatus,
		landmarks, m.MarkerColor, m.UpdatedAt,
	)
	if err != nil {
		return oops.Code("MAP_UPDATE_FAILED").
			With("operation", "update map").
			With("map_id", m.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("MAP_NOT_FOUND").With("map_id", m.ID.String()).Wrap(maps.ErrNotFound)
	}
	return nil
}

// Delete removes a map owned by author.
func (r *Repository) Delete(ctx context.Context, id ulid.ULID, author string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM maps WHERE id = $1 AND author = $2`, id.String(), author)
	if err != nil {
		return oops.Code("MAP_DELETE_FAILED").
			With("operation", "delete map").
			With("map_id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("MAP_NOT_FOUND").With("map_id", id.String()).Wrap(maps.ErrNotFound)
	}
	return nil
}

// encodeLists prepares the list columns, which are NOT NULL.
func encodeLists(m *maps.Map) (landmarks []byte, tags []string, err error) {
	list := m.Landmarks
	if list == nil {
		list = []maps.Landmark{}
	}
	landmarks, err = json.Marshal(list)
	if err != nil {
		return nil, nil, oops.Code("MAP_ENCODE_FAILED").With("map_id", m.ID.String()).Wrap(err)
	}
	tags = m.Tags
	if tags == nil {
		tags = []string{}
	}
	return landmarks, tags, nil
}

func collect(rows pgx.Rows) ([]*maps.Map, error) {
	defer rows.Close()
	list := []*maps.Map{}
	for rows.Next() {
		m, err := scanMap(rows)
		if err != nil {
			return nil, oops.Code("MAP_SCAN_FAILED").With("operation", "scan map row").Wrap(err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("MAP_ROWS_ERROR").With("operation", "iterate map rows").Wrap(err)
	}
	return list, nil
}

// scanMap scans one row. pgx.ErrNoRows is returned unchanged.
func scanMap(row pgx.Row) (*maps.Map, error) {
	var (
		m         maps.Map
		idStr     string
		landmarks []byte
	)
	err := row.Scan(&idStr, &m.Title, &m.Author, &m.CoverImage, &m.Tags, &m.PublicStatus, &m.NumberOfLikes,
		&landmarks, &m.MarkerColor, &m.Subscription, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}
	if m.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("MAP_INVALID_ID").With("id", idStr).Wrap(err)
	}
	if err := json.Unmarshal(landmarks, &m.Landmarks); err != nil {
		return nil, oops.Code("MAP_DECODE_FAILED").With("map_id", idStr).Wrap(err)
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.Landmarks == nil {
		m.Landmarks = []maps.Landmark{}
	}
	return &m, nil
}

var _ maps.Repository = (*Repository)(nil)
