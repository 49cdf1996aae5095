package engine

import (
	"context"
	"log/slog"

	"github.com/parlorchat/guardian/automod/policystore"
)

// MessageContext is the primary interface exposed to rules.
type MessageContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// Any errors encountered while processing methods on this struct get rolled up in this nullable field
	Err error
	// slog logger handle, with event-specific structured fields pre-populated
	Logger *slog.Logger

	Policy  policystore.TenantPolicy
	Message MessageEvent

	engine  *Engine
	effects *Effects
}

func NewMessageContext(ctx context.Context, eng *Engine, policy policystore.TenantPolicy, msg MessageEvent) MessageContext {
	logger := eng.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return MessageContext{
		Ctx:     ctx,
		Logger:  logger.With("tenant", msg.TenantID, "author", msg.AuthorID, "message", msg.MessageID),
		Policy:  policy,
		Message: msg,
		engine:  eng,
		effects: &Effects{},
	}
}

// update effects (indirect) ======

func (c *MessageContext) Block(reason string) {
	c.effects.Block(reason)
}

func (c *MessageContext) AddMatchedKeyword(kw string) {
	c.effects.AddMatchedKeyword(kw)
}

func (c *MessageContext) AddMatchedPattern(pattern string) {
	c.effects.AddMatchedPattern(pattern)
}

// Blocked reports whether an earlier rule already blocked this message.
func (c *MessageContext) Blocked() bool {
	return c.effects.Blocked
}
