// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package memory provides an in-process maps.Repository.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/Szuhaydv/mapex-backend/internal/maps"
)

// Repository implements maps.Repository in memory.
type Repository struct {
	mu   sync.RWMutex
	maps map[ulid.ULID]maps.Map
}

// NewRepository creates an empty Repository.
func NewRepository() *Repository {
	return &Repository{maps: make(map[ulid.ULID]maps.Map)}
}

// Create stores m.
func (r *Repository) Create(ctx context.Context, m *maps.Map) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "create map").Wrap(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.maps[m.ID]; exists {
		return oops.Code("MAP_DUPLICATE").With("map_id", m.ID.String()).Errorf("map already exists")
	}
	r.maps[m.ID] = clone(*m)
	return nil
}

// Get returns the map with id.
func (r *Repository) Get(ctx context.Context, id ulid.ULID) (*maps.Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "get map").Wrap(err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.maps[id]
	if !ok {
		return nil, oops.Code("MAP_NOT_FOUND").With("map_id", id.String()).Wrap(maps.ErrNotFound)
	}
	c := clone(m)
	return &c, nil
}

// ListByAuthor returns author's maps, oldest first.
func (r *Repository) ListByAuthor(ctx context.Context, author string) ([]*maps.Map, error) {
	return r.list(ctx, func(m maps.Map) bool { return m.Author == author }, func(a, b *maps.Map) int {
		return a.ID.Compare(b.ID)
	}, 0)
}

// ListPublic returns public maps by likes descending.
func (r *Repository) ListPublic(ctx context.Context, limit int) ([]*maps.Map, error) {
	return r.list(ctx, func(m maps.Map) bool { return m.PublicStatus }, func(a, b *maps.Map) int {
		if a.NumberOfLikes != b.NumberOfLikes {
			return b.NumberOfLikes - a.NumberOfLikes
		}
		return a.ID.Compare(b.ID)
	}, limit)
}

func (r *Repository) list(ctx context.Context, keep func(maps.Map) bool, cmp func(a, b *maps.Map) int, limit int) ([]*maps.Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, oops.With("operation", "list maps").Wrap(err)
	}
	r.mu.RLock()
	out := make([]*maps.Map, 0, len(r.maps))
	for _, m := range r.maps {
		if keep(m) {
			c := clone(m)
			out = append(out, &c)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(out, cmp)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Update replaces a map owned by m.Author.
func (r *Repository) Update(ctx context.Context, m *maps.Map) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "update map").Wrap(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.maps[m.ID]
	if !ok || current.Author != m.Author {
		return oops.Code("MAP_NOT_FOUND").With("map_id", m.ID.String()).Wrap(maps.ErrNotFound)
	}
	r.maps[m.ID] = clone(*m)
	return nil
}

// Delete removes a map owned by author.
func (r *Repository) Delete(ctx context.Context, id ulid.ULID, author string) error {
	if err := ctx.Err(); err != nil {
		return oops.With("operation", "delete map").Wrap(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.maps[id]
	if !ok || current.Author != author {
		return oops.Code("MAP_NOT_FOUND").With("map_id", id.String()).Wrap(maps.ErrNotFound)
	}
	delete(r.maps, id)
	return nil
}

// SetLikes overwrites a map's like count.
func (r *Repository) SetLikes(id ulid.ULID, likes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.maps[id]; ok {
		m.NumberOfLikes = likes
		r.maps[id] = m
	}
}

func clone(m maps.Map) maps.Map {
	m.Tags = slices.Clone(m.Tags)
	m.Landmarks = slices.Clone(m.Landmarks)
	return m
}

var _ maps.Repository = (*Repository)(nil)
