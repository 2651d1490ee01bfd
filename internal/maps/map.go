// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Mapex Contributors

// Package maps manages user-authored maps and their landmarks.
package maps

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Field limits.
const (
	MaxTitleLength         = 24
	MaxLandmarkTitleLength = 20
	TopCount               = 3
)

// SubscriptionBasic is assigned to every new map.
const SubscriptionBasic = "basic"

var (
	// ErrNotFound is returned when a map does not exist or is not visible to
	// the caller.
	ErrNotFound = errors.New("map not found")

	// ErrTitleRequired is returned when a map has no title.
	ErrTitleRequired = errors.New("title required")

	// ErrInvalid is returned for any other validation failure.
	ErrInvalid = errors.New("invalid map")
)

// Landmark is a titled point on a map.
type Landmark struct {
	Title     string  `json:"title"`
	Icon      string  `json:"icon,omitempty"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Map is a user-authored collection of landmarks.
type Map struct {
	ID            ulid.ULID  `json:"_id"`
	Title         string     `json:"title"`
	Author        string     `json:"author"`
	CoverImage    string     `json:"coverImage"`
	Tags          []string   `json:"tags"`
	PublicStatus  bool       `json:"publicStatus"`
	NumberOfLikes int        `json:"numberOfLikes"`
	Landmarks     []Landmark `json:"landmarks"`
	MarkerColor   string     `json:"markerColor"`
	Subscription  string     `json:"subscription"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Input carries the client-writable fields of a map.
type Input struct {
	Title        string     `json:"title"`
	CoverImage   string     `json:"coverImage"`
	Tags         []string   `json:"tags"`
	PublicStatus bool       `json:"publicStatus"`
	Landmarks    []Landmark `json:"landmarks"`
	MarkerColor  string     `json:"markerColor"`
	// Color is accepted as an alias for MarkerColor.
	Color string `json:"color"`
}

func (in Input) markerColor() string {
	if in.MarkerColor != "" {
		return in.MarkerColor
	}
	return in.Color
}

// Validate checks title and landmark constraints.
func (in Input) Validate() error {
	if in.Title == "" {
		return oops.Code("MAP_TITLE_REQUIRED").With("field", "title").Wrap(ErrTitleRequired)
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLength {
		return oops.Code("MAP_INVALID").
			With("field", "title").
			Wrapf(ErrInvalid, "title must be at most %d characters", MaxTitleLength)
	}
	for i, l := range in.Landmarks {
		if l.Title == "" {
			return oops.Code("MAP_INVALID").
				With("field", "landmarks").
				With("index", i).
				Wrapf(ErrInvalid, "landmark %d needs a title", i)
		}
		if utf8.RuneCountInString(l.Title) > MaxLandmarkTitleLength {
			return oops.Code("MAP_INVALID").
				With("field", "landmarks").
				With("index", i).
				Wrapf(ErrInvalid, "landmark title must be at most %d characters", MaxLandmarkTitleLength)
		}
	}
	return nil
}

// Repository persists maps. Update and Delete match on both ID and Author
// and return ErrNotFound when nothing matched.
type Repository interface {
	Create(ctx context.Context, m *Map) error
	Get(ctx context.Context, id ulid.ULID) (*Map, error)
	ListByAuthor(ctx context.Context, author string) ([]*Map, error)
	// ListPublic returns public maps by likes descending. limit <= 0 means
	// no limit.
	ListPublic(ctx context.Context, limit int) ([]*Map, error)
	Update(ctx context.Context, m *Map) error
	Delete(ctx context.Context, id ulid.ULID, author string) error
}
