// Package remote implements the collaborator contracts against HTTP JSON
// services. Each collaborator is a thin client over a shared transport that
// maps response status codes onto the engine's failure classes.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/scriptflow/scriptflow/pkg/protocol"
)

const defaultTimeout = 120 * time.Second

// Client is the shared HTTP JSON transport for remote collaborators.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a transport rooted at baseURL (no trailing slash).
func NewClient(baseURL string, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.With("module", "remote_collaborator"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// post sends a JSON request to path and decodes the JSON response into out.
// Server overload and timeout statuses are surfaced as transient errors so
// the engine's retry machinery can act on them; other client errors are
// fatal for the phase.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network and deadline failures are worth retrying.
		return protocol.Transient(fmt.Errorf("request to %s failed: %w", path, err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return protocol.Transient(fmt.Errorf("failed to read response from %s: %w", path, err))
	}

	if err := classifyStatus(resp.StatusCode, path, body); err != nil {
		return err
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	return nil
}

func classifyStatus(status int, path string, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= 500:
		return protocol.Transient(fmt.Errorf("%s returned status %d: %s", path, status, truncate(body)))
	default:
		return fmt.Errorf("%s returned status %d: %s", path, status, truncate(body))
	}
}

func truncate(body []byte) string {
	const limit = 512

	if len(body) > limit {
		return string(body[:limit]) + "..."
	}

	return string(body)
}
