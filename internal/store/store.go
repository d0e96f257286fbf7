// Package store persists service records behind a backend-neutral interface.
// SQLite serves local runs, Postgres shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/mountisa-community/directory-cli/internal/model"
)

// ErrNotFound is returned by Get and the update operations when no record
// matches the given id.
var ErrNotFound = eris.New("store: service not found")

// ListFilter narrows ListServices. Zero values mean no constraint.
type ListFilter struct {
	Category        model.CategoryTag `json:"category,omitempty"`
	Suburb          string            `json:"suburb,omitempty"`
	DataSource      string            `json:"data_source,omitempty"`
	Search          string            `json:"search,omitempty"`
	IncludeInactive bool              `json:"include_inactive,omitempty"`
	Limit           int               `json:"limit,omitempty"`
	Offset          int               `json:"offset,omitempty"`
}

// Counts summarizes the directory for status reporting.
type Counts struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	BySource map[string]int `json:"by_source"`
}

// Store is the persistence interface for the directory.
type Store interface {
	// ListActive returns every active record. The upsert gateway matches
	// candidates against this set.
	ListActive(ctx context.Context) ([]model.ServiceRecord, error)

	ListServices(ctx context.Context, filter ListFilter) ([]model.ServiceRecord, error)
	GetService(ctx context.Context, id string) (*model.ServiceRecord, error)
	InsertService(ctx context.Context, rec *model.ServiceRecord) error
	UpdateService(ctx context.Context, rec *model.ServiceRecord) error
	DeactivateService(ctx context.Context, id string) error
	CountServices(ctx context.Context) (*Counts, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
