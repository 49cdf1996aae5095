package platform

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedClient caps outbound platform API calls. Enforcement actions
// block until the limiter admits them; the platform's own rate-limit errors
// still pass through untouched.
type RateLimitedClient struct {
	inner   Client
	limiter *rate.Limiter
}

func NewRateLimitedClient(inner Client, callsPerSecond int) *RateLimitedClient {
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), callsPerSecond),
	}
}

func (c *RateLimitedClient) DeleteMessage(ctx context.Context, ref MessageRef) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.inner.DeleteMessage(ctx, ref)
}

func (c *RateLimitedClient) MuteMember(ctx context.Context, tenantID, userID string, until time.Time) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.inner.MuteMember(ctx, tenantID, userID, until)
}

func (c *RateLimitedClient) BanMember(ctx context.Context, tenantID, userID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.inner.BanMember(ctx, tenantID, userID)
}

func (c *RateLimitedClient) UnbanMember(ctx context.Context, tenantID, userID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.inner.UnbanMember(ctx, tenantID, userID)
}
