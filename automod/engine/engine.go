// Package engine is the runtime for executing moderation rules against
// inbound messages, enforcing verdicts, and recording the outcome.
//
// Pipeline per message: spam check, then (if clean) content rules, then
// enforcement, then audit logging. Logging is always reached; platform API
// failures are warnings, never fatal to message processing.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/parlorchat/guardian/automod/auditlog"
	"github.com/parlorchat/guardian/automod/policystore"
	"github.com/parlorchat/guardian/automod/tempban"
	"github.com/parlorchat/guardian/automod/windowstore"
	"github.com/parlorchat/guardian/platform"
)

// Mute duration applied to spammers, instead of the tenant-configured
// timeout. Spam gets the longer fixed cooldown.
var SpamCooldown = 5 * time.Minute

// number of recently-seen message IDs remembered for dedupe
const seenCacheSize = 4096

type Engine struct {
	Logger   *slog.Logger
	Rules    RuleSet
	Policies policystore.Store
	Windows  windowstore.Store
	Audit    auditlog.Store
	Client   platform.Client
	// optional: enables scheduled reversal of temporary bans
	Tempbans *tempban.Scheduler

	seenOnce sync.Once
	seen     *lru.Cache[string, struct{}]
}

// ProcessMessage runs one inbound message through the full pipeline. Messages
// for a single tenant are expected to arrive in order from a single
// goroutine; stores tolerate concurrent administrative access.
func (eng *Engine) ProcessMessage(ctx context.Context, msg MessageEvent) error {
	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			eng.Logger.Error("automod event execution exception", "err", r, "tenant", msg.TenantID, "message", msg.MessageID)
		}
	}()
	start := time.Now()
	defer func() {
		messageProcessDuration.Observe(time.Since(start).Seconds())
	}()

	if msg.MessageID != "" && !eng.firstSeen(msg.TenantID+"/"+msg.MessageID) {
		return nil
	}

	policy := eng.Policies.Get(ctx, msg.TenantID)
	if !policy.AutomodEnabled {
		return nil
	}

	now := msg.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	spam, err := eng.Windows.RecordAndCheck(ctx, msg.TenantID, msg.AuthorID, now,
		policy.SpamThreshold, time.Duration(policy.SpamTimeWindow)*time.Second)
	if err != nil {
		// a broken detector must not block the stream
		eng.Logger.Warn("spam detector failed, treating message as clean", "tenant", msg.TenantID, "err", err)
		spam = false
	}
	if spam {
		// spam short-circuits content classification entirely
		verdict := Verdict{Blocked: true, Reason: ReasonSpam}
		outcome := eng.enforce(ctx, msg, policy, verdict)
		eng.logVerdict(ctx, msg, verdict, outcome)
		messageProcessCount.WithLabelValues("spam").Inc()
		return nil
	}

	c := NewMessageContext(ctx, eng, policy, msg)
	if err := eng.Rules.CallMessageRules(&c); err != nil {
		messageErrorCount.Inc()
		return err
	}
	verdict := c.effects.Verdict()
	outcome := eng.enforce(ctx, msg, policy, verdict)
	eng.logVerdict(ctx, msg, verdict, outcome)
	eng.canonicalLogLine(&c, verdict, outcome)
	messageProcessCount.WithLabelValues("content").Inc()
	return c.Err
}

// Classify runs only the content rules, with no enforcement or logging.
// Deterministic: the same policy and text always yield the same verdict.
func (eng *Engine) Classify(ctx context.Context, policy policystore.TenantPolicy, msg MessageEvent) (Verdict, error) {
	c := NewMessageContext(ctx, eng, policy, msg)
	if err := eng.Rules.CallMessageRules(&c); err != nil {
		return Verdict{}, err
	}
	return c.effects.Verdict(), c.Err
}

// firstSeen reports whether this is the first sighting of the key, and
// records it. The platform can redeliver events; processing is idempotent
// per message ID.
func (eng *Engine) firstSeen(key string) bool {
	eng.seenOnce.Do(func() {
		// error only possible with a non-positive size
		eng.seen, _ = lru.New[string, struct{}](seenCacheSize)
	})
	_, dupe := eng.seen.Get(key)
	if dupe {
		return false
	}
	eng.seen.Add(key, struct{}{})
	return true
}

func (eng *Engine) canonicalLogLine(c *MessageContext, verdict Verdict, outcome Outcome) {
	c.Logger.Info("automod-message",
		"blocked", verdict.Blocked,
		"reason", verdict.Reason,
		"keywords", verdict.MatchedKeywords,
		"patterns", verdict.MatchedPatterns,
		"outcome", outcome,
	)
}

func (eng *Engine) logVerdict(ctx context.Context, msg MessageEvent, verdict Verdict, outcome Outcome) {
	ev := auditlog.Event{
		Channel:         msg.ChannelName,
		ChannelID:       msg.ChannelID,
		Author:          msg.AuthorName,
		AuthorID:        msg.AuthorID,
		Content:         msg.Text,
		Timestamp:       msg.Timestamp,
		Event:           auditlog.EventSent,
		BlockedWords:    verdict.MatchedKeywords,
		MatchedPatterns: verdict.MatchedPatterns,
	}
	if verdict.Blocked {
		ev.Event = auditlog.EventBlocked
		ev.Reason = verdict.Reason
		messageBlockedCount.WithLabelValues(verdict.Reason).Inc()
	}
	if err := eng.Audit.Append(ctx, msg.TenantID, ev); err != nil {
		auditAppendErrors.Inc()
		eng.Logger.Warn("audit append failed", "tenant", msg.TenantID, "err", err)
	}
	if err := eng.Policies.AppendRecent(ctx, msg.TenantID, ev); err != nil {
		eng.Logger.Warn("recent activity mirror failed", "tenant", msg.TenantID, "err", err)
	}
	enforcementOutcomeCount.WithLabelValues(string(outcome)).Inc()
}
