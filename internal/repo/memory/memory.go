package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/repo"
)

var _ repo.AccountStore = (*Store)(nil)
var _ repo.EndpointStore = (*Store)(nil)
var _ repo.HistoryStore = (*Store)(nil)

// Store keeps everything in maps; used in tests and when DATABASE_URL
// is empty.
type Store struct {
	mu        sync.RWMutex
	accounts  map[domain.AccountID]*domain.Account
	endpoints map[domain.EndpointID]*domain.Endpoint
	history   []*domain.HistoryEntry
	nextHist  int64
}

func New() *Store {
	return &Store{
		accounts:  make(map[domain.AccountID]*domain.Account),
		endpoints: make(map[domain.EndpointID]*domain.Endpoint),
		history:   make([]*domain.HistoryEntry, 0, 128),
	}
}

func makeID() string {
	return time.Now().UTC().Format("20060102T150405.000000000")
}

// ---- seeding (management is external; tests need a way in) ----

func (m *Store) AddAccount(ctx context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = domain.AccountID(makeID())
	}
	cp := *a
	cp.Endpoints = nil
	m.accounts[a.ID] = &cp
	for i := range a.Endpoints {
		e := a.Endpoints[i]
		e.AccountID = a.ID
		m.addEndpointLocked(&e)
	}
	return nil
}

func (m *Store) AddEndpoint(ctx context.Context, e *domain.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addEndpointLocked(e)
	return nil
}

func (m *Store) addEndpointLocked(e *domain.Endpoint) {
	if e.ID == "" {
		e.ID = domain.EndpointID(makeID())
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	cp := *e
	m.endpoints[e.ID] = &cp
}

// ---- AccountStore ----

func (m *Store) ListWithEndpoints(ctx context.Context, f repo.CreditFilter) ([]domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Account
	for _, a := range m.accounts {
		switch f.Op {
		case repo.CreditBelow:
			if a.Credit >= f.Threshold {
				continue
			}
		case repo.CreditAtLeast:
			if a.Credit < f.Threshold {
				continue
			}
		}
		eps := m.endpointsOfLocked(a.ID)
		if len(eps) == 0 {
			continue
		}
		cp := *a
		cp.Endpoints = eps
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) endpointsOfLocked(id domain.AccountID) []domain.Endpoint {
	var eps []domain.Endpoint
	for _, e := range m.endpoints {
		if e.AccountID == id {
			eps = append(eps, *e)
		}
	}
	sort.Slice(eps, func(i, j int) bool {
		if eps[i].CreatedAt.Equal(eps[j].CreatedAt) {
			return eps[i].ID < eps[j].ID
		}
		return eps[i].CreatedAt.Before(eps[j].CreatedAt)
	})
	return eps
}

func (m *Store) Get(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	cp.Endpoints = m.endpointsOfLocked(id)
	return &cp, nil
}

func (m *Store) UpdateCredit(ctx context.Context, id domain.AccountID, newBalance int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.Credit = newBalance
	return nil
}

// ---- EndpointStore ----

func (m *Store) ListActive(ctx context.Context) ([]domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Endpoint, 0, len(m.endpoints))
	for _, e := range m.endpoints {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Store) UpdateStats(ctx context.Context, id domain.EndpointID, successCount int64, lastProbedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.endpoints[id]
	if !ok {
		return repo.ErrNotFound
	}
	e.SuccessCount = successCount
	t := lastProbedAt
	e.LastProbedAt = &t
	return nil
}

// ---- HistoryStore ----

func (m *Store) List(ctx context.Context, id domain.EndpointID) ([]domain.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.HistoryEntry
	for _, h := range m.history {
		if h.EndpointID == id {
			out = append(out, *h)
		}
	}
	// history slice is append-only, so insertion order is creation order
	return out, nil
}

func (m *Store) Delete(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.history[:0]
	for _, h := range m.history {
		if !drop[h.ID] {
			kept = append(kept, h)
		}
	}
	m.history = kept
	return nil
}

func (m *Store) Insert(ctx context.Context, id domain.EndpointID, latencyMS float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextHist++
	m.history = append(m.history, &domain.HistoryEntry{
		ID:         m.nextHist,
		EndpointID: id,
		LatencyMS:  latencyMS,
		CreatedAt:  at,
	})
	return nil
}
