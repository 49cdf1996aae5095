package admin

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/guardian/automod/auditlog"
	"github.com/parlorchat/guardian/automod/policystore"
	"github.com/parlorchat/guardian/automod/tempban"
	"github.com/parlorchat/guardian/platform"
)

func testService(t *testing.T) (*Service, *platform.MockClient) {
	t.Helper()
	client := platform.NewMockClient()
	return &Service{
		Policies: policystore.NewMemStore(),
		Audit:    auditlog.NewMemStore(),
		Tempbans: tempban.NewScheduler(filepath.Join(t.TempDir(), "tempbans.json"), client, nil),
	}, client
}

func TestUpdatePolicy(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc, _ := testService(t)
	updated, err := svc.UpdatePolicy(ctx, "tenant1", func(p *policystore.TenantPolicy) {
		p.SpamThreshold = 3
		p.BlockedKeywords = []string{"widget"}
	})
	assert.NoError(err)
	assert.Equal(3, updated.SpamThreshold)

	got := svc.Policies.Get(ctx, "tenant1")
	assert.Equal([]string{"widget"}, got.BlockedKeywords)
}

func TestTailAuditAndRecent(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	svc, _ := testService(t)
	ev := auditlog.Event{AuthorID: "user1", Content: "hi", Event: auditlog.EventSent}
	assert.NoError(svc.Audit.Append(ctx, "tenant1", ev))
	assert.NoError(svc.Policies.AppendRecent(ctx, "tenant1", ev))

	tail, err := svc.TailAudit(ctx, "tenant1", 5)
	assert.NoError(err)
	require.Len(tail, 1)
	assert.Equal("hi", tail[0].Content)

	recent, err := svc.RecentActivity(ctx, "tenant1")
	assert.NoError(err)
	require.Len(recent, 1)
	assert.Equal("user1", recent[0].AuthorID)
}

func TestCancelTempban(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc, _ := testService(t)
	assert.NoError(svc.Tempbans.Schedule(ctx, "tenant1", "user1", time.Now().Add(time.Hour), "raid"))

	assert.NoError(svc.CancelTempban(ctx, "tenant1", "user1"))
	assert.ErrorIs(svc.CancelTempban(ctx, "tenant1", "user1"), platform.ErrNotFound)
	assert.Empty(svc.Tempbans.Pending(ctx))
}

func TestCancelTempbanWithoutScheduler(t *testing.T) {
	assert := assert.New(t)

	svc, _ := testService(t)
	svc.Tempbans = nil
	assert.ErrorIs(svc.CancelTempban(context.Background(), "tenant1", "user1"), platform.ErrNotFound)
}
