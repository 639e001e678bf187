package readarr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookshelf/internal/services"
)

// Searcher executes raw term searches against the lookup service.
type Searcher interface {
	Search(ctx context.Context, term string) ([]map[string]any, error)
}

// Client talks to a Readarr instance. Authentication uses the X-Api-Key
// header on every request.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Readarr client. Credentials are validated here so a
// misconfigured run fails before any book is claimed.
func New(endpoint, apiKey string, timeout time.Duration, opts ...ClientOption) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	apiKey = strings.TrimSpace(apiKey)
	if endpoint == "" || apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "readarr", "new",
			"readarr endpoint and api key must be configured", nil)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Search queries the search endpoint with a bare term. Entries that are not
// objects are dropped; a response that is not a list yields no results.
func (c *Client) Search(ctx context.Context, term string) ([]map[string]any, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("term must not be empty")
	}
	endpoint, err := url.Parse(c.endpoint + "/api/v1/search")
	if err != nil {
		return nil, fmt.Errorf("parse readarr url: %w", err)
	}
	params := url.Values{}
	params.Set("term", term)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("readarr search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	entries, ok := payload.([]any)
	if !ok {
		return nil, nil
	}
	items := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		if item, ok := entry.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items, nil
}
