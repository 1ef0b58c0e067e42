package fixturesql

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultAPITimeout bounds one API request.
const DefaultAPITimeout = 30 * time.Second

// APIResponse is a fully read HTTP response.
type APIResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// APIClient sends requests to the application under test, relative to base_url.
type APIClient struct {
	config WebConfig
	client *http.Client
	logger *zap.Logger
}

// APIOption configures an APIClient.
type APIOption func(*APIClient)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) APIOption {
	return func(c *APIClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithAPILogger sets the structured logger.
func WithAPILogger(logger *zap.Logger) APIOption {
	return func(c *APIClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAPIClient creates a client for the application configured in cfg.
func NewAPIClient(cfg WebConfig, opts ...APIOption) *APIClient {
	c := &APIClient{
		config: cfg,
		client: &http.Client{Timeout: DefaultAPITimeout},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get sends a GET request for path, appended to base_url, and reads the whole response.
// A missing base_url is reported as *ConfigurationError before anything is sent.
func (c *APIClient) Get(ctx context.Context, path string) (*APIResponse, error) {
	base, err := c.config.RequireBaseURL()
	if err != nil {
		return nil, err
	}
	target, err := joinURL(base, path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("api request",
		zap.String("method", http.MethodGet), zap.String("url", target), zap.Int("status", resp.StatusCode))
	return &APIResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// joinURL appends a relative resource path to base's path. Absolute URLs are returned unchanged.
func joinURL(base, path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", path, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", &ConfigurationError{Key: keyBaseURL, Value: base, Err: err}
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	if ref.RawQuery != "" {
		u.RawQuery = ref.RawQuery
	}
	u.Fragment = ref.Fragment
	return u.String(), nil
}

// ResolveURL resolves ref against base the way a browser resolves a link.
// An empty base returns ref unchanged.
func ResolveURL(base, ref string) (string, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	if strings.TrimSpace(base) == "" {
		return r.String(), nil
	}
	b, err := url.Parse(strings.TrimSpace(base))
	if err != nil || !b.IsAbs() {
		return r.String(), nil //nolint:nilerr // An unusable base leaves ref as written
	}
	return b.ResolveReference(r).String(), nil
}
