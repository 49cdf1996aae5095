// Package policystore owns per-tenant moderation configuration.
//
// Policies are created on first reference, mutated only through Update, and
// never deleted. Every value read from or written to durable storage passes
// through field-level sanitization, so a malformed stored value (wrong type,
// or a broken-reference sentinel) is replaced by its default rather than
// propagated.
package policystore

import (
	"context"
	"strconv"

	"github.com/parlorchat/guardian/automod/auditlog"
	"github.com/parlorchat/guardian/automod/safejson"
)

// Number of recent events mirrored alongside each tenant's policy for
// dashboard consumption. The raw audit log keeps a larger history.
const RecentMax = 50

// Per-field defaults.
const (
	DefaultTimeoutDuration = 60
	DefaultSpamThreshold   = 5
	DefaultSpamTimeWindow  = 10
)

// TenantPolicy is the full moderation configuration for one tenant. JSON
// field names are the durable schema.
type TenantPolicy struct {
	AutomodEnabled   bool     `json:"automod_enabled"`
	BlockedKeywords  []string `json:"blocked_keywords"`
	RegexPatterns    []string `json:"regex_patterns"`
	TimeoutEnabled   bool     `json:"timeout_enabled"`
	TimeoutDuration  int      `json:"timeout_duration"`
	SpamThreshold    int      `json:"spam_threshold"`
	SpamTimeWindow   int      `json:"spam_time_window"`
	MaxRepeatedChars int      `json:"max_repeated_chars"`
	MaxRepeatedWords int      `json:"max_repeated_words"`
	BlockInvites     bool     `json:"block_invites"`
}

// Default returns the policy a tenant gets on first reference. Keyword and
// regex lists start empty; the classifier falls back to the global default
// rule set while they are empty.
func Default() TenantPolicy {
	return TenantPolicy{
		AutomodEnabled:   true,
		BlockedKeywords:  []string{},
		RegexPatterns:    []string{},
		TimeoutEnabled:   true,
		TimeoutDuration:  DefaultTimeoutDuration,
		SpamThreshold:    DefaultSpamThreshold,
		SpamTimeWindow:   DefaultSpamTimeWindow,
		MaxRepeatedChars: 0,
		MaxRepeatedWords: 0,
		BlockInvites:     true,
	}
}

type Store interface {
	// Get never fails: absent tenants are materialized with defaults (and
	// persisted, for durable backends).
	Get(ctx context.Context, tenantID string) TenantPolicy
	// Update applies mutate to a copy of the current policy, sanitizes every
	// field, persists the whole store, and returns the sanitized result.
	Update(ctx context.Context, tenantID string, mutate func(*TenantPolicy)) (TenantPolicy, error)

	// AppendRecent mirrors an audit event in to the policy-adjacent recent
	// activity view (capped at RecentMax, FIFO). Best-effort.
	AppendRecent(ctx context.Context, tenantID string, ev auditlog.Event) error
	Recent(ctx context.Context, tenantID string) ([]auditlog.Event, error)
}

// Clone returns a copy that shares no slices with p.
func (p TenantPolicy) Clone() TenantPolicy {
	out := p
	out.BlockedKeywords = append([]string{}, p.BlockedKeywords...)
	out.RegexPatterns = append([]string{}, p.RegexPatterns...)
	return out
}

// Validate clamps out-of-range numeric fields back to their defaults.
func (p *TenantPolicy) Validate() {
	if p.TimeoutDuration < 0 {
		p.TimeoutDuration = DefaultTimeoutDuration
	}
	if p.SpamThreshold <= 0 {
		p.SpamThreshold = DefaultSpamThreshold
	}
	if p.SpamTimeWindow <= 0 {
		p.SpamTimeWindow = DefaultSpamTimeWindow
	}
	if p.MaxRepeatedChars < 0 {
		p.MaxRepeatedChars = 0
	}
	if p.MaxRepeatedWords < 0 {
		p.MaxRepeatedWords = 0
	}
	if p.BlockedKeywords == nil {
		p.BlockedKeywords = []string{}
	}
	if p.RegexPatterns == nil {
		p.RegexPatterns = []string{}
	}
}

// policyFieldNames is used both for flat-config migration detection and for
// per-field coercion.
var policyFieldNames = map[string]bool{
	"automod_enabled":    true,
	"blocked_keywords":   true,
	"regex_patterns":     true,
	"timeout_enabled":    true,
	"timeout_duration":   true,
	"spam_threshold":     true,
	"spam_time_window":   true,
	"max_repeated_chars": true,
	"max_repeated_words": true,
	"block_invites":      true,
}

// policyFromRaw coerces an untyped stored object in to a type-correct policy.
// Unknown fields are dropped, wrong-typed fields are coerced best-effort, and
// anything unsalvageable falls back to the field default.
func policyFromRaw(raw map[string]any) TenantPolicy {
	def := Default()
	p := TenantPolicy{
		AutomodEnabled:   coerceBool(raw["automod_enabled"], def.AutomodEnabled),
		BlockedKeywords:  coerceStringList(raw["blocked_keywords"]),
		RegexPatterns:    coerceStringList(raw["regex_patterns"]),
		TimeoutEnabled:   coerceBool(raw["timeout_enabled"], def.TimeoutEnabled),
		TimeoutDuration:  coerceInt(raw["timeout_duration"], def.TimeoutDuration),
		SpamThreshold:    coerceInt(raw["spam_threshold"], def.SpamThreshold),
		SpamTimeWindow:   coerceInt(raw["spam_time_window"], def.SpamTimeWindow),
		MaxRepeatedChars: coerceInt(raw["max_repeated_chars"], def.MaxRepeatedChars),
		MaxRepeatedWords: coerceInt(raw["max_repeated_words"], def.MaxRepeatedWords),
		BlockInvites:     coerceBool(raw["block_invites"], def.BlockInvites),
	}
	p.Validate()
	return p
}

// coerceBool applies truthiness when the stored value is not already a bool.
// Missing values and broken-reference sentinels get the default.
func coerceBool(v any, def bool) bool {
	if v == nil {
		return def
	}
	if safejson.IsCircularRef(v) {
		return def
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	case int64:
		return val != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return def
	}
}

// coerceInt best-effort parses numerics (including numeric strings); the
// default wins when parsing fails or the value is a broken-reference
// sentinel.
func coerceInt(v any, def int) int {
	if v == nil {
		return def
	}
	if safejson.IsCircularRef(v) {
		return def
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		if n, err := strconv.ParseFloat(val, 64); err == nil {
			return int(n)
		}
		return def
	default:
		return def
	}
}

func coerceStringList(v any) []string {
	out := []string{}
	list, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]string); ok {
			return append(out, typed...)
		}
		return out
	}
	for _, item := range list {
		if s, ok := item.(string); ok && !safejson.IsCircularRef(s) {
			out = append(out, s)
		}
	}
	return out
}
