// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

package maps

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Service applies ownership and visibility rules on top of a Repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(repo Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, oops.Code("MAP_INVALID_DEPENDENCY").Errorf("map repository is required")
	}
	s := &Service{repo: repo, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("MAP_INVALID_DEPENDENCY").Errorf("logger is required")
	}
	return s, nil
}

// Create stores a new private map owned by author.
func (s *Service) Create(ctx context.Context, author string, in Input) (*Map, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	m := &Map{
		ID:            ulid.Make(),
		Title:         in.Title,
		Author:        author,
		CoverImage:    in.CoverImage,
		Tags:          nonNil(in.Tags),
		PublicStatus:  false,
		NumberOfLikes: 0,
		Landmarks:     nonNil(in.Landmarks),
		MarkerColor:   in.markerColor(),
		Subscription:  SubscriptionBasic,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, oops.With("operation", "create map").Wrap(err)
	}
	s.logger.InfoContext(ctx, "map created", "map_id", m.ID.String(), "author", author)
	return m, nil
}

// ListByAuthor returns every map owned by author.
func (s *Service) ListByAuthor(ctx context.Context, author string) ([]*Map, error) {
	list, err := s.repo.ListByAuthor(ctx, author)
	if err != nil {
		return nil, oops.With("operation", "list maps by author").Wrap(err)
	}
	return list, nil
}

// Get returns the map if viewer owns it or it is public.
func (s *Service) Get(ctx context.Context, viewer string, id ulid.ULID) (*Map, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, oops.With("operation", "get map").With("map_id", id.String()).Wrap(err)
	}
	if m.Author != viewer && !m.PublicStatus {
		return nil, oops.Code("MAP_NOT_FOUND").With("map_id", id.String()).Wrap(ErrNotFound)
	}
	return m, nil
}

// Update replaces the client-writable fields of a map owned by author.
func (s *Service) Update(ctx context.Context, author string, id ulid.ULID, in Input) (*Map, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, oops.With("operation", "update map").With("map_id", id.String()).Wrap(err)
	}
	if current.Author != author {
		return nil, oops.Code("MAP_NOT_FOUND").With("map_id", id.String()).Wrap(ErrNotFound)
	}

	updated := *current
	updated.Title = in.Title
	updated.CoverImage = in.CoverImage
	updated.Tags = nonNil(in.Tags)
	updated.PublicStatus = in.PublicStatus
	updated.Landmarks = nonNil(in.Landmarks)
	updated.MarkerColor = in.markerColor()
	updated.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, oops.With("operation", "update map").With("map_id", id.String()).Wrap(err)
	}
	s.logger.InfoContext(ctx, "map updated", "map_id", id.String(), "author", author)
	return &updated, nil
}

// Delete removes a map owned by author.
func (s *Service) Delete(ctx context.Context, author string, id ulid.ULID) error {
	if err := s.repo.Delete(ctx, id, author); err != nil {
		return oops.With("operation", "delete map").With("map_id", id.String()).Wrap(err)
	}
	s.logger.InfoContext(ctx, "map deleted", "map_id", id.String(), "author", author)
	return nil
}

// Explore returns every public map, most liked first.
func (s *Service) Explore(ctx context.Context) ([]*Map, error) {
	list, err := s.repo.ListPublic(ctx, 0)
	if err != nil {
		return nil, oops.With("operation", "explore maps").Wrap(err)
	}
	return list, nil
}

// TopThree returns the three most liked public maps.
func (s *Service) TopThree(ctx context.Context) ([]*Map, error) {
	list, err := s.repo.ListPublic(ctx, TopCount)
	if err != nil {
		return nil, oops.With("operation", "top maps").Wrap(err)
	}
	return list, nil
}

// ParseID parses a map identifier. Malformed identifiers are reported as
// ErrNotFound since no map can carry them.
func ParseID(raw string) (ulid.ULID, error) {
	id, err := ulid.ParseStrict(raw)
	if err != nil {
		return ulid.ULID{}, oops.Code("MAP_NOT_FOUND").With("map_id", raw).Wrap(errors.Join(ErrNotFound, err))
	}
	return id, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
