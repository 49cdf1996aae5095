package platform

import (
	"context"
	"sync"
	"time"
)

// MockClient records calls and injects errors, for tests.
type MockClient struct {
	mu sync.Mutex

	// errors to return, keyed by method name
	Errs map[string]error

	Deleted []MessageRef
	Muted   []MuteCall
	Banned  []MemberCall
	Unbans  []MemberCall
}

type MuteCall struct {
	TenantID string
	UserID   string
	Until    time.Time
}

type MemberCall struct {
	TenantID string
	UserID   string
}

func NewMockClient() *MockClient {
	return &MockClient{Errs: make(map[string]error)}
}

func (c *MockClient) FailWith(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Errs[method] = err
}

func (c *MockClient) DeleteMessage(ctx context.Context, ref MessageRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["DeleteMessage"]; err != nil {
		return err
	}
	c.Deleted = append(c.Deleted, ref)
	return nil
}

func (c *MockClient) MuteMember(ctx context.Context, tenantID, userID string, until time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["MuteMember"]; err != nil {
		return err
	}
	c.Muted = append(c.Muted, MuteCall{TenantID: tenantID, UserID: userID, Until: until})
	return nil
}

func (c *MockClient) BanMember(ctx context.Context, tenantID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["BanMember"]; err != nil {
		return err
	}
	c.Banned = append(c.Banned, MemberCall{TenantID: tenantID, UserID: userID})
	return nil
}

func (c *MockClient) UnbanMember(ctx context.Context, tenantID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Errs["UnbanMember"]; err != nil {
		return err
	}
	c.Unbans = append(c.Unbans, MemberCall{TenantID: tenantID, UserID: userID})
	return nil
}

// snapshot helpers, safe to call while the scheduler's goroutines run

func (c *MockClient) UnbanCalls() []MemberCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MemberCall, len(c.Unbans))
	copy(out, c.Unbans)
	return out
}

func (c *MockClient) MuteCalls() []MuteCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MuteCall, len(c.Muted))
	copy(out, c.Muted)
	return out
}

func (c *MockClient) DeletedRefs() []MessageRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MessageRef, len(c.Deleted))
	copy(out, c.Deleted)
	return out
}
