// Package storage persists competitions. Store is the port the update
// orchestrator depends on; DB implements it over SQLite.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/palmares-dance/palmares/pkg/competition"
)

// Model is anything the store can persist.
type Model interface {
	ModelKind() string
	ModelID() string
}

// Criteria filters listings. Zero values are ignored.
type Criteria struct {
	Provider string
	// Place matches a literal substring, case-insensitively.
	Place string
	Since time.Time
	Until time.Time
}

// Store is the persistence port. Listings are sorted by date, most recent
// first. A size <= 0 means no limit. Fields project the returned models;
// empty means every field.
type Store interface {
	Find(ctx context.Context, kind string, criteria Criteria, fields []string, offset, size int) ([]*competition.Competition, error)
	// FindByID returns nil without error when no model has this id.
	FindByID(ctx context.Context, kind, id string, fields []string) (*competition.Competition, error)
	// Save inserts or replaces the model with the same id.
	Save(ctx context.Context, m Model) (Model, error)
	Remove(ctx context.Context, m Model) error
	RemoveAll(ctx context.Context, kind string) error
}

// UnsupportedModelError is returned for model kinds the store does not know.
type UnsupportedModelError struct {
	Kind string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model %q", e.Kind)
}
