// Package auditlog is an append-only, size-bounded, per-tenant log of message
// and moderation events.
//
// Appends are best-effort: a failed write is logged by the caller and never
// fails message processing. Reads of a corrupt or unrecognizable log file
// behave as if the log were empty; the file is normalized back to the
// expected shape on the next append.
package auditlog

import (
	"context"
	"time"
)

// Hard cap on retained events per tenant. Oldest entries are evicted first.
const DefaultMaxEvents = 1000

// Event outcome values.
const (
	EventSent    = "sent"
	EventBlocked = "blocked"
)

// A single message or moderation event. Immutable once appended.
type Event struct {
	Channel         string    `json:"channel"`
	ChannelID       string    `json:"channel_id,omitempty"`
	Author          string    `json:"author"`
	AuthorID        string    `json:"author_id,omitempty"`
	Content         string    `json:"content"`
	Timestamp       time.Time `json:"timestamp"`
	Event           string    `json:"event"`
	Reason          string    `json:"reason,omitempty"`
	BlockedWords    []string  `json:"blocked_words,omitempty"`
	MatchedPatterns []string  `json:"matched_patterns,omitempty"`
}

type Store interface {
	Append(ctx context.Context, tenantID string, ev Event) error
	// Tail returns up to n most recent events, oldest first.
	Tail(ctx context.Context, tenantID string, n int) ([]Event, error)
}

func evict(events []Event, max int) []Event {
	if max <= 0 || len(events) <= max {
		return events
	}
	return events[len(events)-max:]
}

func tail(events []Event, n int) []Event {
	if n < 0 {
		n = 0
	}
	if n > len(events) {
		n = len(events)
	}
	out := make([]Event, n)
	copy(out, events[len(events)-n:])
	return out
}
