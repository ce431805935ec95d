package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/gridhop/gogrid/pkg/logger"
)

const (
	// DefaultHost is the fixed production API host.
	DefaultHost = "api.gogrid.com"

	// APIVersion is sent as the `v` parameter on every request.
	APIVersion = "1.5"

	responseFormat = "json"
)

// Credentials is the API key pair for one account. It is immutable for the
// lifetime of a Client and the secret is never logged.
type Credentials struct {
	APIKey string
	Secret string
}

// Config holds transport configuration. Host normally stays at DefaultHost;
// it may include an explicit port, which tests use to point the client at a
// local server. With the default host the effective port is 443 when Secure
// and 80 otherwise, via the URL scheme.
type Config struct {
	Host    string
	Secure  bool
	Timeout time.Duration
}

// DefaultConfig returns the production transport configuration.
func DefaultConfig() Config {
	return Config{
		Host:    DefaultHost,
		Secure:  true,
		Timeout: 60 * time.Second,
	}
}

// Client issues signed requests against the provider API. It is safe for
// concurrent use: all fields are set at construction and never mutated.
type Client struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
	now        func() time.Time
}

// New creates a Client for the given account.
func New(creds Credentials, cfg Config, log *logger.Logger) (*Client, error) {
	if creds.APIKey == "" || creds.Secret == "" {
		return nil, fmt.Errorf("API key and secret are required")
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if log == nil {
		log = logger.NewDevelopment("client")
	}

	scheme := "http"
	if cfg.Secure {
		scheme = "https"
	}

	return &Client{
		creds:   creds,
		baseURL: fmt.Sprintf("%s://%s", scheme, cfg.Host),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: log,
		now:    time.Now,
	}, nil
}

// Do issues one signed request and returns the raw response. Caller params
// are merged with the mandated parameters (api key, API version, response
// format, and a freshly computed signature); the API takes all input as
// query parameters, for POST as well. Network-level failures propagate
// unclassified; response classification is the caller's job via Response.
func (c *Client) Do(ctx context.Context, path string, params url.Values, method string) (*Response, error) {
	query := url.Values{}
	for name, values := range params {
		for _, v := range values {
			query.Add(name, v)
		}
	}
	query.Set("api_key", c.creds.APIKey)
	query.Set("v", APIVersion)
	query.Set("format", responseFormat)
	query.Set("sig", signature(c.creds.APIKey, c.creds.Secret, c.now()))

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestID := uuid.NewString()[:8]
	c.logger.Debug("issuing API request",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", path))

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	c.logger.APIRequest(method, path, resp.StatusCode, time.Since(start),
		slog.String("request_id", requestID))

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
