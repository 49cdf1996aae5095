package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parlorchat/guardian/automod/policystore"
	"github.com/parlorchat/guardian/platform"
)

type Outcome string

const (
	// message passed through, no action taken
	OutcomeAllowed Outcome = "allowed"
	// message blocked but the tenant has enforcement (timeouts) disabled
	OutcomeSkipped Outcome = "skipped"
	// deletion and (where applicable) mute completed
	OutcomeEnforced Outcome = "enforced"
	// the platform denied at least one action; enforcement partially complete
	OutcomePermissionDenied Outcome = "permission_denied"
)

// enforce performs the platform-side actions for a verdict. Platform
// failures degrade the outcome but never abort the pipeline: the message
// still reaches the audit log.
func (eng *Engine) enforce(ctx context.Context, msg MessageEvent, policy policystore.TenantPolicy, verdict Verdict) Outcome {
	if !verdict.Blocked {
		return OutcomeAllowed
	}
	// spam enforcement is independent of the tenant's timeout setting
	if verdict.Reason != ReasonSpam && !policy.TimeoutEnabled {
		return OutcomeSkipped
	}

	denied := false
	if err := eng.Client.DeleteMessage(ctx, msg.Ref()); err != nil {
		switch {
		case errors.Is(err, platform.ErrPermissionDenied):
			denied = true
			eng.Logger.Warn("no permission to delete message", "tenant", msg.TenantID, "message", msg.MessageID)
		case errors.Is(err, platform.ErrNotFound):
			// already gone; nothing to degrade
		default:
			// transient platform failure: not retried here, a higher layer may
			eng.Logger.Warn("message deletion failed", "tenant", msg.TenantID, "message", msg.MessageID, "err", err)
		}
	}

	// service accounts are never muted
	if !msg.AuthorIsBot {
		dur := time.Duration(policy.TimeoutDuration) * time.Second
		if verdict.Reason == ReasonSpam {
			dur = SpamCooldown
		}
		if dur > 0 {
			until := time.Now().Add(dur)
			if err := eng.Client.MuteMember(ctx, msg.TenantID, msg.AuthorID, until); err != nil {
				if errors.Is(err, platform.ErrPermissionDenied) {
					denied = true
					eng.Logger.Warn("no permission to mute member", "tenant", msg.TenantID, "author", msg.AuthorID)
				} else {
					eng.Logger.Warn("mute failed", "tenant", msg.TenantID, "author", msg.AuthorID, "err", err)
				}
			}
		}
	}

	if denied {
		return OutcomePermissionDenied
	}
	return OutcomeEnforced
}

// TempbanMember bans a member and schedules the reversal. The ban is not
// applied unless the reversal record persists first; a tempban that could
// outlive a crash as a permanent ban is worse than no ban.
func (eng *Engine) TempbanMember(ctx context.Context, tenantID, userID string, d time.Duration, reason string) error {
	if eng.Tempbans == nil {
		return fmt.Errorf("tempban scheduler not configured")
	}
	until := time.Now().Add(d)
	if err := eng.Tempbans.Schedule(ctx, tenantID, userID, until, reason); err != nil {
		return err
	}
	if err := eng.Client.BanMember(ctx, tenantID, userID); err != nil {
		if cerr := eng.Tempbans.Cancel(ctx, tenantID, userID); cerr != nil {
			eng.Logger.Warn("orphaned tempban record after failed ban", "tenant", tenantID, "user", userID, "err", cerr)
		}
		return fmt.Errorf("banning member: %w", err)
	}
	eng.Logger.Info("member tempbanned", "tenant", tenantID, "user", userID, "until", until, "reason", reason)
	return nil
}
