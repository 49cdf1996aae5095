// Package admin is the narrow surface exposed to administrative callers (a
// dashboard, an ops CLI). It only delegates to the synchronized stores, so it
// is safe to use from any goroutine while the message pipeline runs.
package admin

import (
	"context"

	"github.com/parlorchat/guardian/automod/auditlog"
	"github.com/parlorchat/guardian/automod/policystore"
	"github.com/parlorchat/guardian/automod/tempban"
	"github.com/parlorchat/guardian/platform"
)

type Service struct {
	Policies policystore.Store
	Audit    auditlog.Store
	// optional; CancelTempban fails without it
	Tempbans *tempban.Scheduler
}

// UpdatePolicy applies mutate to the tenant's policy and returns the
// sanitized, persisted result.
func (s *Service) UpdatePolicy(ctx context.Context, tenantID string, mutate func(*policystore.TenantPolicy)) (policystore.TenantPolicy, error) {
	return s.Policies.Update(ctx, tenantID, mutate)
}

// TailAudit returns the most recent n audit events for a tenant, oldest
// first.
func (s *Service) TailAudit(ctx context.Context, tenantID string, n int) ([]auditlog.Event, error) {
	return s.Audit.Tail(ctx, tenantID, n)
}

// RecentActivity returns the short per-tenant activity mirror kept alongside
// the policy.
func (s *Service) RecentActivity(ctx context.Context, tenantID string) ([]auditlog.Event, error) {
	return s.Policies.Recent(ctx, tenantID)
}

// CancelTempban lifts a scheduled unban, leaving the ban itself in place.
func (s *Service) CancelTempban(ctx context.Context, tenantID, userID string) error {
	if s.Tempbans == nil {
		return platform.ErrNotFound
	}
	return s.Tempbans.Cancel(ctx, tenantID, userID)
}
