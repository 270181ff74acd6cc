package platform

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const defaultTimeout = 10 * time.Second

// Client is an HTTP Gateway implementation backed by the companion
// presentation process, which proxies the actual chat-platform SDK calls.
type Client struct {
	baseURL     string
	token       string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates a gateway client for the presentation process at baseURL.
// Outbound calls are rate limited to stay under the chat platform's own
// invite/member fetch budget (roughly 10 rps with a small burst).
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(10), 20),
		logger:      logger,
	}
}

// FetchInvites returns the active invites of a community.
func (c *Client) FetchInvites(ctx context.Context, communityID string) ([]Invite, error) {
	var invites []Invite
	path := fmt.Sprintf("/gateway/communities/%s/invites", url.PathEscape(communityID))
	if err := c.get(ctx, path, &invites); err != nil {
		return nil, fmt.Errorf("fetch invites: %w", err)
	}
	return invites, nil
}

// FetchMember returns a community member, or (nil, nil) if they left.
func (c *Client) FetchMember(ctx context.Context, communityID, userID string) (*Member, error) {
	var member Member
	path := fmt.Sprintf("/gateway/communities/%s/members/%s",
		url.PathEscape(communityID), url.PathEscape(userID))

	err := c.get(ctx, path, &member)
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch member: %w", err)
	}
	return &member, nil
}

// KickMember removes a member from the community. Best-effort: callers are
// expected to swallow the error after logging.
func (c *Client) KickMember(ctx context.Context, communityID, userID, reason string) error {
	path := fmt.Sprintf("/gateway/communities/%s/members/%s/kick",
		url.PathEscape(communityID), url.PathEscape(userID))

	if err := c.post(ctx, path, map[string]string{"reason": reason}); err != nil {
		return fmt.Errorf("kick member: %w", err)
	}
	return nil
}

// EmitLog sends a line to the community's configured log channel.
// No delivery guarantee; failures degrade to a local warning.
func (c *Client) EmitLog(ctx context.Context, communityID, text string) error {
	path := fmt.Sprintf("/gateway/communities/%s/log", url.PathEscape(communityID))

	if err := c.post(ctx, path, map[string]string{"text": text}); err != nil {
		if c.logger != nil {
			c.logger.Warn("Failed to emit platform log", "community_id", communityID, "error", err)
		}
		return fmt.Errorf("emit log: %w", err)
	}
	return nil
}

// errNotFound signals a 404 from the presentation process.
var errNotFound = fmt.Errorf("not found")

func (c *Client) get(ctx context.Context, path string, dest any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.UnmarshalRead(resp.Body, dest)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
