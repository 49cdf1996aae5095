// Package tempban manages durable, restart-safe delayed reversal of
// temporary bans.
//
// Records are persisted before any in-memory timer is armed, so a crash
// between ban and expiry still allows recovery. On startup, Load re-arms a
// timer for every persisted record; records whose expiry already passed fire
// immediately instead of being lost.
package tempban

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/parlorchat/guardian/automod/safejson"
	"github.com/parlorchat/guardian/platform"
)

// Record is one pending unban. unban_time is unix seconds.
type Record struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	UnbanTime int64  `json:"unban_time"`
	Reason    string `json:"reason,omitempty"`
}

func recordKey(tenantID, userID string) string {
	return tenantID + "/" + userID
}

type Scheduler struct {
	Path   string
	Client platform.Client
	Logger *slog.Logger

	mu      sync.Mutex
	records map[string]Record
	timers  map[string]*time.Timer
	closed  bool
}

func NewScheduler(path string, client platform.Client, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		Path:    path,
		Client:  client,
		Logger:  logger,
		records: make(map[string]Record),
		timers:  make(map[string]*time.Timer),
	}
}

// Load reads persisted records and re-arms a timer for each. Elapsed records
// are clamped to fire immediately. Corrupt state resets to empty with a
// warning; tempbans are enforcement state, not an availability hazard.
func (s *Scheduler) Load(ctx context.Context) error {
	raw, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading tempban store: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		s.Logger.Warn("tempban store corrupt, resetting to empty", "path", s.Path, "err", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if rec.TenantID == "" || rec.UserID == "" {
			continue
		}
		key := recordKey(rec.TenantID, rec.UserID)
		s.records[key] = rec
		s.armLocked(key, rec)
	}
	s.Logger.Info("tempban records restored", "count", len(s.records))
	return nil
}

// Schedule persists the record first, then arms the timer. Scheduling again
// for the same (tenant, user) replaces the previous expiry.
func (s *Scheduler) Schedule(ctx context.Context, tenantID, userID string, unbanAt time.Time, reason string) error {
	if tenantID == "" || userID == "" {
		return fmt.Errorf("tempban: tenant and user required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(tenantID, userID)
	rec := Record{
		TenantID:  tenantID,
		UserID:    userID,
		UnbanTime: unbanAt.Unix(),
		Reason:    reason,
	}
	prev, existed := s.records[key]
	s.records[key] = rec
	if err := s.persistLocked(); err != nil {
		// a record we can't persist must not exist only in memory
		if existed {
			s.records[key] = prev
		} else {
			delete(s.records, key)
		}
		return fmt.Errorf("persisting tempban: %w", err)
	}
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.armLocked(key, rec)
	return nil
}

// Cancel removes the timer and the persisted record. Removal is atomic with
// respect to the firing check: a record that fires concurrently with its
// cancellation is reversed at most once.
func (s *Scheduler) Cancel(ctx context.Context, tenantID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(tenantID, userID)
	if _, ok := s.records[key]; !ok {
		return platform.ErrNotFound
	}
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
	delete(s.records, key)
	if err := s.persistLocked(); err != nil {
		s.Logger.Warn("persisting tempban cancellation failed, memory remains authoritative", "err", err)
	}
	return nil
}

// Pending returns a snapshot of outstanding records.
func (s *Scheduler) Pending(ctx context.Context) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}

// Shutdown stops all timers without touching persisted records; they will be
// re-armed by Load on the next start.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// armLocked arms the expiry timer. Callers hold s.mu.
func (s *Scheduler) armLocked(key string, rec Record) {
	if s.closed {
		return
	}
	delay := time.Until(time.Unix(rec.UnbanTime, 0))
	if delay < 0 {
		delay = 0
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.fire(key)
	})
}

// fire claims the record under the lock before reversing, so a concurrent
// Cancel cannot race it in to a double reversal. The record is removed
// whether or not the reversal succeeds; a failed unban is logged for manual
// moderator intervention, not retried.
func (s *Scheduler) fire(key string) {
	s.mu.Lock()
	rec, ok := s.records[key]
	if !ok || s.closed {
		s.mu.Unlock()
		return
	}
	// A reschedule may have replaced the record while this call waited on the
	// lock. A record that is not yet due belongs to the newer timer; reversing
	// it here would undo the replacement ban.
	if time.Now().Before(time.Unix(rec.UnbanTime, 0)) {
		s.mu.Unlock()
		return
	}
	delete(s.records, key)
	delete(s.timers, key)
	if err := s.persistLocked(); err != nil {
		s.Logger.Warn("persisting tempban removal failed", "err", err)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Client.UnbanMember(ctx, rec.TenantID, rec.UserID); err != nil {
		s.Logger.Warn("tempban reversal failed, needs manual unban",
			"tenant", rec.TenantID, "user", rec.UserID, "err", err)
		return
	}
	s.Logger.Info("tempban expired, user unbanned", "tenant", rec.TenantID, "user", rec.UserID)
}

// persistLocked rewrites the whole record file through the sanitizer.
// Callers hold s.mu.
func (s *Scheduler) persistLocked() error {
	records := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	raw, err := safejson.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tempban store: %w", err)
	}
	if err := os.WriteFile(s.Path, raw, 0644); err != nil {
		return fmt.Errorf("writing tempban store: %w", err)
	}
	return nil
}
