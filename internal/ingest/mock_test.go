package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/mountisa-community/directory-cli/internal/model"
	"github.com/mountisa-community/directory-cli/internal/store"
)

// memStore is an in-memory store.Store with failure injection for gateway
// and pipeline tests.
type memStore struct {
	mu      sync.Mutex
	records map[string]*model.ServiceRecord
	nextID  int

	// failInserts makes the next N InsertService calls fail with a
	// natural-key conflict error.
	failInserts int
	// failErr, when set, is returned by every operation.
	failErr error

	inserts   int
	updates   int
	listCalls int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*model.ServiceRecord{}}
}

func (m *memStore) ListActive(ctx context.Context) ([]model.ServiceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.failErr != nil {
		return nil, m.failErr
	}
	var recs []model.ServiceRecord
	for _, r := range m.records {
		if r.IsActive {
			recs = append(recs, *r)
		}
	}
	return recs, nil
}

func (m *memStore) ListServices(ctx context.Context, filter store.ListFilter) ([]model.ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var recs []model.ServiceRecord
	for _, r := range m.records {
		if !filter.IncludeInactive && !r.IsActive {
			continue
		}
		recs = append(recs, *r)
	}
	return recs, nil
}

func (m *memStore) GetService(ctx context.Context, id string) (*model.ServiceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) InsertService(ctx context.Context, rec *model.ServiceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if m.failInserts > 0 {
		m.failInserts--
		return eris.New("UNIQUE constraint failed: services.name, services.address")
	}
	for _, r := range m.records {
		if strings.EqualFold(r.Name, rec.Name) && r.Address == rec.Address {
			return eris.New("UNIQUE constraint failed: services.name, services.address")
		}
	}
	if rec.ID == "" {
		m.nextID++
		rec.ID = fmt.Sprintf("svc-%d", m.nextID)
	}
	cp := *rec
	m.records[rec.ID] = &cp
	m.inserts++
	return nil
}

func (m *memStore) UpdateService(ctx context.Context, rec *model.ServiceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	if _, ok := m.records[rec.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *rec
	m.records[rec.ID] = &cp
	m.updates++
	return nil
}

func (m *memStore) DeactivateService(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return store.ErrNotFound
	}
	r.IsActive = false
	return nil
}

func (m *memStore) CountServices(ctx context.Context) (*store.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &store.Counts{BySource: map[string]int{}}
	for _, r := range m.records {
		c.Total++
		if r.IsActive {
			c.Active++
		}
		c.BySource[r.DataSource]++
	}
	return c, nil
}

func (m *memStore) Migrate(ctx context.Context) error { return nil }
func (m *memStore) Close() error                      { return nil }

// seed installs a record directly, bypassing the gateway.
func (m *memStore) seed(rec model.ServiceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.ID == "" {
		m.nextID++
		rec.ID = fmt.Sprintf("svc-%d", m.nextID)
	}
	m.records[rec.ID] = &rec
}
