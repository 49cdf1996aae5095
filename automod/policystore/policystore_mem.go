package policystore

import (
	"context"
	"sync"

	"github.com/parlorchat/guardian/automod/auditlog"
)

type MemStore struct {
	mu      sync.Mutex
	tenants map[string]*tenantState
}

type tenantState struct {
	policy TenantPolicy
	recent []auditlog.Event
}

func NewMemStore() *MemStore {
	return &MemStore{
		tenants: make(map[string]*tenantState),
	}
}

func (s *MemStore) state(tenantID string) *tenantState {
	st, ok := s.tenants[tenantID]
	if !ok {
		st = &tenantState{policy: Default()}
		s.tenants[tenantID] = st
	}
	return st
}

func (s *MemStore) Get(ctx context.Context, tenantID string) TenantPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(tenantID).policy.Clone()
}

func (s *MemStore) Update(ctx context.Context, tenantID string, mutate func(*TenantPolicy)) (TenantPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(tenantID)
	p := st.policy.Clone()
	mutate(&p)
	p.Validate()
	st.policy = p
	return p.Clone(), nil
}

func (s *MemStore) AppendRecent(ctx context.Context, tenantID string, ev auditlog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(tenantID)
	st.recent = append(st.recent, ev)
	if len(st.recent) > RecentMax {
		st.recent = st.recent[len(st.recent)-RecentMax:]
	}
	return nil
}

func (s *MemStore) Recent(ctx context.Context, tenantID string) ([]auditlog.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(tenantID)
	out := make([]auditlog.Event, len(st.recent))
	copy(out, st.recent)
	return out, nil
}
