// Package nsp provides clients for the NSP northbound REST APIs.
//
// # Operations
//
// - SessionManager: authenticate, refresh and revoke gateway tokens
// - SubscriptionManager: create, renew and delete the NSP-FAULT subscription
//
// NSP installations in the field run with self-signed certificates, so
// the shared client can skip TLS verification.
package nsp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const userAgent = "nsp-faultmon/1.0"

// Config holds connection settings shared by the NSP clients.
type Config struct {
	Timeout            time.Duration // HTTP timeout (default: 30s)
	RateLimit          int           // Requests per minute (default: 60)
	InsecureSkipVerify bool
	HTTPClient         *http.Client // overrides Timeout and InsecureSkipVerify when set
}

// Client is the shared HTTP core for the NSP REST APIs. Both managers
// build on it, so every NSP call shares one rate limit and TLS setup.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewClient creates the shared NSP HTTP client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		transport := &http.Transport{}
		if cfg.InsecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		httpClient = &http.Client{Timeout: timeout, Transport: transport}
	}

	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = 60 // one request per second
	}

	return &Client{
		httpClient:  httpClient,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/60.0), 1),
		logger:      logger.With("component", "nsp_client"),
	}
}

// newRequest builds a JSON request. A nil payload sends no body.
func (c *Client) newRequest(ctx context.Context, method, rawURL string, payload any) (*http.Request, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// newFormRequest builds a form-encoded POST.
func (c *Client) newFormRequest(ctx context.Context, rawURL string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// do applies the shared rate limit and standard headers.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	return c.httpClient.Do(req)
}

// readError extracts an error message from a failed response.
func (c *Client) readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
}
