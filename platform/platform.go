// Package platform defines the chat-platform client surface the moderation
// core calls in to.
//
// All calls are fallible remote operations. The core does not retry; rate
// limits and transient failures are the platform client's (or a higher
// layer's) problem.
package platform

import (
	"context"
	"errors"
	"time"
)

var (
	// The platform rejected the call for missing permissions. Enforcement
	// degrades gracefully on this; it is never fatal.
	ErrPermissionDenied = errors.New("platform: permission denied")
	// The subject (message, member, channel) no longer exists.
	ErrNotFound = errors.New("platform: not found")
)

// MessageRef identifies one message well enough to act on it.
type MessageRef struct {
	TenantID  string
	ChannelID string
	MessageID string
}

type Client interface {
	DeleteMessage(ctx context.Context, ref MessageRef) error
	// MuteMember applies a timed mute ending at until.
	MuteMember(ctx context.Context, tenantID, userID string, until time.Time) error
	BanMember(ctx context.Context, tenantID, userID string) error
	UnbanMember(ctx context.Context, tenantID, userID string) error
}
