package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RESTClient talks to a chat-platform moderation gateway over plain HTTP.
// No retries; callers decide what a failure means.
type RESTClient struct {
	Host   string
	Token  string
	Client *http.Client
}

var _ Client = (*RESTClient)(nil)

func NewRESTClient(host, token string) *RESTClient {
	return &RESTClient{
		Host:  host,
		Token: token,
		Client: &http.Client{
			Timeout: time.Second * 15,
		},
	}
}

func (c *RESTClient) DeleteMessage(ctx context.Context, ref MessageRef) error {
	path := fmt.Sprintf("/tenants/%s/channels/%s/messages/%s",
		url.PathEscape(ref.TenantID), url.PathEscape(ref.ChannelID), url.PathEscape(ref.MessageID))
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *RESTClient) MuteMember(ctx context.Context, tenantID, userID string, until time.Time) error {
	path := fmt.Sprintf("/tenants/%s/members/%s/mute",
		url.PathEscape(tenantID), url.PathEscape(userID))
	return c.do(ctx, http.MethodPut, path, map[string]string{
		"until": until.UTC().Format(time.RFC3339),
	})
}

func (c *RESTClient) BanMember(ctx context.Context, tenantID, userID string) error {
	path := fmt.Sprintf("/tenants/%s/members/%s/ban",
		url.PathEscape(tenantID), url.PathEscape(userID))
	return c.do(ctx, http.MethodPut, path, nil)
}

func (c *RESTClient) UnbanMember(ctx context.Context, tenantID, userID string) error {
	path := fmt.Sprintf("/tenants/%s/members/%s/ban",
		url.PathEscape(tenantID), url.PathEscape(userID))
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *RESTClient) do(ctx context.Context, method, path string, body any) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("platform: encoding request: %w", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.Host+path, buf)
	if err != nil {
		return fmt.Errorf("platform: building request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("platform: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrPermissionDenied
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("platform: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}
}
