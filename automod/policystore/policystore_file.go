package policystore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/parlorchat/guardian/automod/auditlog"
	"github.com/parlorchat/guardian/automod/safejson"
)

// FileStore persists the whole tenant map to a single JSON file, rewritten on
// every mutation. In-memory state is authoritative: a failed write is logged
// and the next successful write catches the file up.
//
// The mutex gives single-writer-at-a-time semantics; the message-processing
// path and administrative update paths may call in concurrently.
type FileStore struct {
	Path   string
	Logger *slog.Logger

	mu      sync.Mutex
	tenants map[string]*tenantState
}

// on-disk shape: {"<tenant-id>": {<policy fields>, "messages": [...]}}
type tenantFileRecord struct {
	TenantPolicy
	Messages []auditlog.Event `json:"messages,omitempty"`
}

func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FileStore{
		Path:    path,
		Logger:  logger,
		tenants: make(map[string]*tenantState),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads and migrates the persisted store. Corruption is recovered
// locally: unreadable or wrong-shaped data resets to an empty tenant map
// rather than guessing tenant semantics.
func (s *FileStore) load() error {
	raw, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading policy store: %w", err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		s.Logger.Warn("policy store corrupt, resetting to empty tenant map", "path", s.Path, "err", err)
		return nil
	}

	// Migration guard: a flat automod config (top-level keys are policy field
	// names instead of tenant IDs) means schema drift. Reset rather than
	// guess tenant semantics. This discards the flat data; log loudly.
	for key := range top {
		if policyFieldNames[key] {
			s.Logger.Error("policy store has flat (non-tenant) schema, resetting to empty tenant map",
				"path", s.Path, "key", key)
			return nil
		}
	}

	for tenantID, rec := range top {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			s.Logger.Warn("tenant policy corrupt, substituting defaults", "tenant", tenantID, "err", err)
			s.tenants[tenantID] = &tenantState{policy: Default()}
			continue
		}
		st := &tenantState{policy: policyFromRaw(obj)}
		if msgs, ok := obj["messages"]; ok {
			st.recent = decodeRecent(msgs)
		}
		s.tenants[tenantID] = st
	}
	return nil
}

func decodeRecent(v any) []auditlog.Event {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var events []auditlog.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil
	}
	if len(events) > RecentMax {
		events = events[len(events)-RecentMax:]
	}
	return events
}

// persist rewrites the whole store through the sanitizer. Callers hold s.mu.
func (s *FileStore) persist() error {
	out := make(map[string]tenantFileRecord, len(s.tenants))
	for tenantID, st := range s.tenants {
		out[tenantID] = tenantFileRecord{
			TenantPolicy: st.policy,
			Messages:     st.recent,
		}
	}
	raw, err := safejson.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding policy store: %w", err)
	}
	if err := os.WriteFile(s.Path, raw, 0644); err != nil {
		return fmt.Errorf("writing policy store: %w", err)
	}
	return nil
}

func (s *FileStore) state(tenantID string) *tenantState {
	st, ok := s.tenants[tenantID]
	if !ok {
		st = &tenantState{policy: Default()}
		s.tenants[tenantID] = st
	}
	return st
}

func (s *FileStore) Get(ctx context.Context, tenantID string) TenantPolicy {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.tenants[tenantID]
	st := s.state(tenantID)
	if !existed {
		// materialize the default durably on first reference
		if err := s.persist(); err != nil {
			s.Logger.Warn("persisting new tenant policy failed, memory remains authoritative",
				"tenant", tenantID, "err", err)
		}
	}
	return st.policy.Clone()
}

func (s *FileStore) Update(ctx context.Context, tenantID string, mutate func(*TenantPolicy)) (TenantPolicy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(tenantID)
	p := st.policy.Clone()
	mutate(&p)
	p.Validate()
	st.policy = p
	if err := s.persist(); err != nil {
		s.Logger.Warn("persisting policy update failed, memory remains authoritative",
			"tenant", tenantID, "err", err)
		return p.Clone(), err
	}
	return p.Clone(), nil
}

func (s *FileStore) AppendRecent(ctx context.Context, tenantID string, ev auditlog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(tenantID)
	st.recent = append(st.recent, ev)
	if len(st.recent) > RecentMax {
		st.recent = st.recent[len(st.recent)-RecentMax:]
	}
	if err := s.persist(); err != nil {
		// mirror writes are best-effort on the message path
		s.Logger.Warn("persisting recent activity failed", "tenant", tenantID, "err", err)
	}
	return nil
}

func (s *FileStore) Recent(ctx context.Context, tenantID string) ([]auditlog.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state(tenantID)
	out := make([]auditlog.Event, len(st.recent))
	copy(out, st.recent)
	return out, nil
}
