// Package source defines discovery adapters for upstream directories and the
// registry that names them.
package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/mountisa-community/directory-cli/internal/model"
)

// Source discovers raw service records from one upstream directory.
type Source interface {
	// Name is the source identifier used for credibility scoring and
	// provenance. Stable across runs.
	Name() string
	// Discover returns every raw record the source currently lists.
	Discover(ctx context.Context) ([]model.RawRecord, error)
}

// Registry maps source names to their implementations.
type Registry struct {
	sources map[string]Source
	order   []string // insertion order for deterministic iteration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source. Re-registering a name replaces the previous entry.
func (r *Registry) Register(s Source) {
	name := s.Name()
	if _, exists := r.sources[name]; !exists {
		r.order = append(r.order, name)
	}
	r.sources[name] = s
}

// Get returns a source by name.
func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, eris.Errorf("source: unknown source %q", name)
	}
	return s, nil
}

// Select returns the named sources, or all of them when names is empty,
// in registration order.
func (r *Registry) Select(names []string) ([]Source, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	result := make([]Source, 0, len(names))
	for _, name := range names {
		s, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, nil
}

// All returns every source in registration order.
func (r *Registry) All() []Source {
	result := make([]Source, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.sources[name])
	}
	return result
}

// Names returns the registered source names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
