package atlassian

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ylchen07/worklog-dashboard/internal/auth"
	"github.com/ylchen07/worklog-dashboard/internal/config"
)

// DefaultTimeout bounds a single outbound request when none is configured.
const DefaultTimeout = 30 * time.Second

// Client is a thin JSON client for the Jira REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a Client for the API base URL (for example
// https://acme.atlassian.net/rest/api/3). A zero timeout selects DefaultTimeout.
func NewClient(base string, creds config.ServiceCredentials, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("atlassian: base URL required")
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("atlassian: parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("atlassian: base URL %q must be absolute", base)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: auth.NewTransport(nil, creds),
		},
		logger: logger,
	}, nil
}

// NewRequest builds a request against path relative to the base URL, with
// optional query parameters and a JSON-encoded body.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("atlassian: encode body: %w", err)
		}
		bodyReader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("atlassian: build request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Do executes the request and decodes the JSON response into out if provided.
// Non-2xx responses are returned as *Error.
func (c *Client) Do(req *http.Request, out any) error {
	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("atlassian: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	c.logger.Debug("jira request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", res.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return parseError(res)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("atlassian: decode response: %w", err)
	}

	return nil
}

// Get issues a GET for path and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.NewRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// Post sends body as JSON to path and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	req, err := c.NewRequest(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	return c.Do(req, out)
}

// SetTransport overrides the underlying HTTP transport. Useful for testing.
func (c *Client) SetTransport(rt http.RoundTripper) {
	if rt == nil {
		return
	}
	c.httpClient.Transport = rt
}
