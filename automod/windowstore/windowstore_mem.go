package windowstore

import (
	"context"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemStore shards windows by (tenant, user) key; there is no global lock, a
// user's window only contends with that user's own messages.
type MemStore struct {
	windows *xsync.MapOf[string, *userWindow]
}

type userWindow struct {
	mu    sync.Mutex
	times []time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		windows: xsync.NewMapOf[string, *userWindow](),
	}
}

func (s *MemStore) RecordAndCheck(ctx context.Context, tenantID, userID string, now time.Time, threshold int, window time.Duration) (bool, error) {
	w, _ := s.windows.LoadOrStore(windowKey(tenantID, userID), &userWindow{})

	w.mu.Lock()
	defer w.mu.Unlock()

	w.times = append(w.times, now)
	kept := w.times[:0]
	for _, ts := range w.times {
		if now.Sub(ts) <= window {
			kept = append(kept, ts)
		}
	}
	w.times = kept
	return len(w.times) > threshold, nil
}
