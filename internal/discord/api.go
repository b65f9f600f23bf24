package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dombom/mark/internal/status"
	"github.com/hashicorp/go-retryablehttp"
)

// DefaultAPIBase is the Discord HTTP API root used by [APIClient].
const DefaultAPIBase = "https://discord.com/api/v9"

// ErrUnauthorized is returned when Discord rejects the user token.
var ErrUnauthorized = errors.New("discord: token rejected")

// ErrNoToken is returned by [NewAPIClient] for an empty token.
var ErrNoToken = errors.New("discord: no token")

// APIClient sets the account's custom status and presence through
// PATCH /users/@me/settings.
type APIClient struct {
	token string
	base  string
	http  *retryablehttp.Client
}

// APIOption configures an [APIClient].
type APIOption func(*APIClient)

// WithAPIBase overrides the API root, for tests.
func WithAPIBase(base string) APIOption {
	return func(c *APIClient) { c.base = strings.TrimSuffix(base, "/") }
}

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) APIOption {
	return func(c *APIClient) { c.http.RetryMax = n }
}

// NewAPIClient returns a client authenticating with token.
func NewAPIClient(token string, opts ...APIOption) (*APIClient, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNoToken
	}
	hc := retryablehttp.NewClient()
	hc.RetryMax = 2
	hc.RetryWaitMin = 500 * time.Millisecond
	hc.RetryWaitMax = 5 * time.Second
	hc.HTTPClient.Timeout = 10 * time.Second
	hc.Logger = nil // suppress retryablehttp's default logging

	c := &APIClient{token: token, base: DefaultAPIBase, http: hc}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// settingsPatch is the request body of PATCH /users/@me/settings.
type settingsPatch struct {
	CustomStatus customStatus `json:"custom_status"`
	Status       status.Type  `json:"status"`
}

type customStatus struct {
	Text      string `json:"text"`
	EmojiName string `json:"emoji_name"`
}

// SetStatus sends st. A type Discord does not accept is sent as online.
func (c *APIClient) SetStatus(ctx context.Context, st status.Status) error {
	const maxErrorBody = 4 << 10

	typ := st.Type
	if !typ.Valid() {
		typ = status.Online
	}
	body, err := json.Marshal(settingsPatch{
		CustomStatus: customStatus{Text: st.Text, EmojiName: st.Emoji},
		Status:       typ,
	})
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	url := c.base + "/users/@me/settings"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPatch, url, body)
	if err != nil {
		return fmt.Errorf("PATCH %s: %w", url, err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("PATCH %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("PATCH %s: status %d: %w", url, resp.StatusCode, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("PATCH %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Close releases idle connections.
func (c *APIClient) Close() error {
	c.http.HTTPClient.CloseIdleConnections()
	return nil
}
