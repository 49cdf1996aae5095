package tempban

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/guardian/platform"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSchedulePersistsBeforeFiring(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "tempbans.json")
	client := platform.NewMockClient()
	s := NewScheduler(path, client, nil)
	defer s.Shutdown()

	require.NoError(s.Schedule(ctx, "tenant1", "user1", time.Now().Add(time.Hour), "being rude"))

	// record is on disk before the timer fires
	raw, err := os.ReadFile(path)
	require.NoError(err)
	var records []Record
	require.NoError(json.Unmarshal(raw, &records))
	require.Len(records, 1)
	assert.Equal("tenant1", records[0].TenantID)
	assert.Equal("user1", records[0].UserID)
	assert.Equal("being rude", records[0].Reason)

	assert.Len(client.UnbanCalls(), 0)
	assert.Len(s.Pending(ctx), 1)
}

func TestFireRemovesRecordAndUnbans(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "tempbans.json")
	client := platform.NewMockClient()
	s := NewScheduler(path, client, nil)
	defer s.Shutdown()

	require.NoError(s.Schedule(ctx, "tenant1", "user1", time.Now().Add(20*time.Millisecond), ""))

	waitFor(t, func() bool { return len(client.UnbanCalls()) == 1 })
	assert.Equal("user1", client.UnbanCalls()[0].UserID)
	assert.Len(s.Pending(ctx), 0)

	var records []Record
	raw, err := os.ReadFile(path)
	require.NoError(err)
	require.NoError(json.Unmarshal(raw, &records))
	assert.Len(records, 0)
}

func TestRecoveryRearmsAll(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "tempbans.json")

	// simulate a previous process: write records directly, one overdue
	records := []Record{
		{TenantID: "tenant1", UserID: "overdue", UnbanTime: time.Now().Add(-100 * time.Second).Unix()},
		{TenantID: "tenant1", UserID: "future", UnbanTime: time.Now().Add(time.Hour).Unix()},
	}
	raw, err := json.Marshal(records)
	require.NoError(err)
	require.NoError(os.WriteFile(path, raw, 0644))

	client := platform.NewMockClient()
	s := NewScheduler(path, client, nil)
	defer s.Shutdown()
	require.NoError(s.Load(ctx))

	// the overdue record fires immediately rather than being lost
	waitFor(t, func() bool { return len(client.UnbanCalls()) == 1 })
	assert.Equal("overdue", client.UnbanCalls()[0].UserID)

	// the future record is still pending
	pending := s.Pending(ctx)
	require.Len(pending, 1)
	assert.Equal("future", pending[0].UserID)
}

func TestCancelBeforeFire(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "tempbans.json")
	client := platform.NewMockClient()
	s := NewScheduler(path, client, nil)
	defer s.Shutdown()

	require.NoError(s.Schedule(ctx, "tenant1", "user1", time.Now().Add(time.Hour), ""))
	require.NoError(s.Cancel(ctx, "tenant1", "user1"))

	assert.Len(s.Pending(ctx), 0)
	time.Sleep(20 * time.Millisecond)
	assert.Len(client.UnbanCalls(), 0)

	// cancelling twice reports not found
	assert.ErrorIs(s.Cancel(ctx, "tenant1", "user1"), platform.ErrNotFound)
}

func TestFailedReversalStillRemovesRecord(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "tempbans.json")
	client := platform.NewMockClient()
	client.FailWith("UnbanMember", platform.ErrPermissionDenied)
	s := NewScheduler(path, client, nil)
	defer s.Shutdown()

	require.NoError(s.Schedule(ctx, "tenant1", "user1", time.Now().Add(10*time.Millisecond), ""))

	waitFor(t, func() bool { return len(s.Pending(ctx)) == 0 })

	var records []Record
	raw, err := os.ReadFile(path)
	require.NoError(err)
	require.NoError(json.Unmarshal(raw, &records))
	assert.Len(records, 0, "record removed even though reversal failed")
}

func TestCorruptStoreResetsEmpty(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "tempbans.json")
	require.NoError(os.WriteFile(path, []byte("][ nope"), 0644))

	s := NewScheduler(path, platform.NewMockClient(), nil)
	defer s.Shutdown()
	assert.NoError(s.Load(ctx))
	assert.Len(s.Pending(ctx), 0)
}

func TestRescheduleReplacesExpiry(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "tempbans.json")
	client := platform.NewMockClient()
	s := NewScheduler(path, client, nil)
	defer s.Shutdown()

	require.NoError(s.Schedule(ctx, "tenant1", "user1", time.Now().Add(time.Hour), "first"))
	require.NoError(s.Schedule(ctx, "tenant1", "user1", time.Now().Add(2*time.Hour), "second"))

	pending := s.Pending(ctx)
	require.Len(pending, 1)
	assert.Equal("second", pending[0].Reason)

	// the replaced timer must not fire
	time.Sleep(20 * time.Millisecond)
	assert.Len(client.UnbanCalls(), 0)
}

func TestRescheduleAfterExpiryKeepsReplacement(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "tempbans.json")
	client := platform.NewMockClient()
	s := NewScheduler(path, client, nil)
	defer s.Shutdown()

	// The first schedule is already due, so its timer fires concurrently with
	// the reschedule. Whichever side wins the lock, the replacement one-hour
	// ban must survive; a stale firing must not reverse it.
	for i := 0; i < 50; i++ {
		user := fmt.Sprintf("user%d", i)
		require.NoError(s.Schedule(ctx, "tenant1", user, time.Now(), "first"))
		require.NoError(s.Schedule(ctx, "tenant1", user, time.Now().Add(time.Hour), "second"))
	}

	time.Sleep(100 * time.Millisecond)

	pending := s.Pending(ctx)
	require.Len(pending, 50)
	for _, rec := range pending {
		assert.Equal("second", rec.Reason)
	}
}

func TestScheduleRollsBackOnPersistFailure(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	// point the store at a directory to force the write to fail
	dir := t.TempDir()
	s := NewScheduler(dir, platform.NewMockClient(), nil)
	defer s.Shutdown()

	err := s.Schedule(ctx, "tenant1", "user1", time.Now().Add(time.Hour), "")
	assert.Error(err)
	assert.Len(s.Pending(ctx), 0)
}
