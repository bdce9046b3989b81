// Package api is the HTTP client for the uptime-monitoring backend. It owns
// the authenticated request pipeline (bearer attachment plus single-attempt
// refresh-and-retry on authorization failure) and the credential operations
// that exchange user input for a session.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upwatch/upwatch-cli/internal/session"
)

// Options configures a Client. Store is required; everything else has
// working defaults.
type Options struct {
	// BaseURL is the root of the backend API, with or without a trailing slash.
	BaseURL string
	// Store holds the persisted session consumed and updated by the pipeline.
	Store session.Store
	// ProxyURL optionally routes all traffic through an HTTP(S) or SOCKS5 proxy.
	ProxyURL string
	// RequestLog enables detailed request/response logging with secrets redacted.
	RequestLog bool
	// OnSessionExpired runs after an irrecoverable refresh failure has wiped
	// the session. It is the CLI's stand-in for forcing navigation to the
	// login page.
	OnSessionExpired func()
	// Timeout bounds each HTTP request. Zero applies a default.
	Timeout time.Duration
}

// Client talks to the uptime-monitoring backend. All authenticated traffic
// flows through its transport pipeline; construct it once and share it.
type Client struct {
	baseURL    string
	store      session.Store
	httpClient *http.Client
}

// New constructs a Client with the full request pipeline wired: proxy-aware
// base transport, bearer attachment with refresh-and-retry, and optional
// request logging on the outside.
func New(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("api client: session store is required")
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("api client: base URL is required")
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	base, err := buildBaseTransport(opts.ProxyURL)
	if err != nil {
		return nil, fmt.Errorf("api client: %w", err)
	}

	var transport http.RoundTripper = &authTransport{
		base:             base,
		store:            opts.Store,
		refreshURL:       baseURL + "token/refresh/",
		onSessionExpired: opts.OnSessionExpired,
	}
	if opts.RequestLog {
		transport = &loggingTransport{base: transport}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: baseURL,
		store:   opts.Store,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}, nil
}

// Store returns the session store the client was built with.
func (c *Client) Store() session.Store {
	return c.store
}

// postJSON sends a JSON body to the given endpoint and returns the response
// status and body. The caller owns error translation.
func (c *Client) postJSON(ctx context.Context, endpoint string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}

// getJSON issues an authenticated GET and returns the response status and body.
func (c *Client) getJSON(ctx context.Context, endpoint string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}
