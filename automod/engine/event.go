package engine

import (
	"time"

	"github.com/parlorchat/guardian/platform"
)

// MessageEvent is one inbound chat message as delivered by the platform
// gateway. Field content is platform-controlled and untrusted.
type MessageEvent struct {
	TenantID    string    `json:"tenant_id"`
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name,omitempty"`
	MessageID   string    `json:"message_id"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name,omitempty"`
	AuthorIsBot bool      `json:"author_is_bot,omitempty"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
}

func (m MessageEvent) Ref() platform.MessageRef {
	return platform.MessageRef{
		TenantID:  m.TenantID,
		ChannelID: m.ChannelID,
		MessageID: m.MessageID,
	}
}
