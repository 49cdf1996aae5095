// Package windowstore tracks per-user sliding windows of recent message
// timestamps for spam detection.
//
// Window state is rate-limiting state, not moderation history: the in-memory
// backend is process-lifetime only and rebuilt from scratch on restart. The
// redis backend is for deployments that want windows shared across restarts.
package windowstore

import (
	"context"
	"time"
)

type Store interface {
	// RecordAndCheck appends now to the (tenant, user) window, drops
	// timestamps older than the window, and reports whether the remaining
	// count exceeds threshold.
	//
	// The comparison is strictly greater-than: the threshold-th message
	// inside the window is still allowed, the (threshold+1)-th is spam. This
	// off-by-one is intended behavior, not a bug.
	RecordAndCheck(ctx context.Context, tenantID, userID string, now time.Time, threshold int, window time.Duration) (bool, error)
}

func windowKey(tenantID, userID string) string {
	return tenantID + "/" + userID
}
