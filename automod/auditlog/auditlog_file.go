package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/parlorchat/guardian/automod/safejson"
)

// FileStore keeps one JSON array of events per tenant under Dir. Each append
// rewrites the whole file; acceptable at the capped log size.
type FileStore struct {
	Dir       string
	MaxEvents int
	Logger    *slog.Logger

	mu sync.Mutex
}

func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating audit log dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		Dir:       dir,
		MaxEvents: DefaultMaxEvents,
		Logger:    logger,
	}, nil
}

func (s *FileStore) path(tenantID string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s.json", tenantID))
}

// Tenant IDs become filenames; one carrying a path separator or dot-segment
// could escape Dir entirely.
func validTenantID(tenantID string) bool {
	if tenantID == "" || tenantID == "." || tenantID == ".." {
		return false
	}
	return !strings.ContainsAny(tenantID, `/\`)
}

// load reads the tenant's log, tolerating missing, corrupt, or legacy-shaped
// files. A log that can't be parsed is treated as empty; the next append
// rewrites it in the expected shape.
func (s *FileStore) load(tenantID string) []Event {
	raw, err := os.ReadFile(s.path(tenantID))
	if err != nil {
		if !os.IsNotExist(err) {
			s.Logger.Warn("unreadable audit log, treating as empty", "tenant", tenantID, "err", err)
		}
		return nil
	}

	var events []Event
	if err := json.Unmarshal(raw, &events); err == nil {
		return events
	}

	// legacy shape: {"messages": [...]}
	var wrapped struct {
		Messages []Event `json:"messages"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Messages != nil {
		return wrapped.Messages
	}

	s.Logger.Warn("corrupt audit log, treating as empty", "tenant", tenantID)
	return nil
}

func (s *FileStore) Append(ctx context.Context, tenantID string, ev Event) error {
	if !validTenantID(tenantID) {
		return fmt.Errorf("audit log: invalid tenant id %q", tenantID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	events := evict(append(s.load(tenantID), ev), s.MaxEvents)
	raw, err := safejson.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding audit log: %w", err)
	}
	if err := os.WriteFile(s.path(tenantID), raw, 0644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

func (s *FileStore) Tail(ctx context.Context, tenantID string, n int) ([]Event, error) {
	if !validTenantID(tenantID) {
		return nil, fmt.Errorf("audit log: invalid tenant id %q", tenantID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return tail(s.load(tenantID), n), nil
}
