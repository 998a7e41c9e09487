package qivivo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
)

const (
	// DefaultBaseURL is the Qivivo API base URL.
	DefaultBaseURL = "https://data.qivivo.com/api/v2"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second
)

// Client is a Qivivo API client. Devices obtained from a Client share its token.
type Client struct {
	baseURL     string
	oauthURL    string
	credential  Credential
	httpClient  *http.Client
	clock       clock.PassiveClock
	location    *time.Location
	logger      *slog.Logger
	metrics     *Metrics
	limiter     *rate.Limiter
	cacheConfig *CacheConfig
	tokens      *TokenManager
	habitation  *Habitation
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL for the API.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithOAuthURL sets a custom token endpoint.
func WithOAuthURL(url string) Option {
	return func(c *Client) {
		c.oauthURL = url
	}
}

// WithHTTPClient sets a custom HTTP client. It is used for the token exchange as well.
// A nil client is ignored.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the HTTP request timeout.
// This option can be applied in any order relative to other options.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithClock sets the time source used for token validity and device freshness.
func WithClock(clk clock.PassiveClock) Option {
	return func(c *Client) {
		c.clock = clk
	}
}

// WithLocation sets the time zone of the dates reported by the server.
// Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		c.location = loc
	}
}

// NewClient creates a new Qivivo API client for the given API credentials.
// No network call is made until the first request.
func NewClient(clientID, clientSecret string, opts ...Option) (*Client, error) {
	if clientID == "" {
		return nil, ErrEmptyClientID
	}
	if clientSecret == "" {
		return nil, ErrEmptyClientSecret
	}

	c := &Client{
		baseURL:    DefaultBaseURL,
		oauthURL:   DefaultOAuthURL,
		credential: Credential{ClientID: clientID, ClientSecret: clientSecret},
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DisableKeepAlives:   false,
			},
		},
		clock:    clock.RealClock{},
		location: time.Local,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger != nil {
		c.httpClient = withLoggingTransport(c.httpClient, c.logger)
	}
	if c.cacheConfig == nil {
		c.cacheConfig = DefaultCacheConfig()
	}
	if mc, ok := c.cacheConfig.Cache.(*MemoryCache); ok && mc.clock == nil {
		mc.clock = c.clock
	}

	c.tokens = NewTokenManager(c.credential, c.oauthURL, c.httpClient, c.clock)
	c.tokens.logger = c.logger
	c.tokens.metrics = c.metrics
	c.habitation = &Habitation{client: c}

	return c, nil
}

// TokenManager returns the manager of the client's bearer token.
func (c *Client) TokenManager() *TokenManager {
	return c.tokens
}

// resource addresses one field of the API: /<kind>/<subType>[/<uuid>]/<field>.
type resource struct {
	kind    string
	subType string
	uuid    string
	field   string
}

func (r resource) path() string {
	var b strings.Builder
	for _, seg := range []string{r.kind, r.subType, r.uuid, r.field} {
		if seg == "" {
			continue
		}
		b.WriteByte('/')
		b.WriteString(seg)
	}
	return b.String()
}

// label is path with the device UUID elided, for logs and metrics.
func (r resource) label() string {
	if r.uuid == "" {
		return r.path()
	}
	r.uuid = ":uuid"
	return r.path()
}

// do performs an authenticated HTTP request and returns the response body.
func (c *Client) do(ctx context.Context, method string, res resource, body any) ([]byte, error) {
	token, err := c.tokens.EnsureValidToken(ctx)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + res.path()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: method, URL: url, Err: err}
		}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.observeRequest(method, res.label(), 0, time.Since(start))
		return nil, &TransportError{Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.observeRequest(method, res.label(), resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &TransportError{Method: method, URL: url, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.handleError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// handleError converts HTTP error responses to an *APIError.
func (c *Client) handleError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       body,
		Message:    truncatePreview(body),
	}

	// Try to extract error message from response
	var errResp struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			apiErr.Message = errResp.Message
		case errResp.Error != "":
			apiErr.Message = errResp.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(statusCode)
	}
	return apiErr
}

// getJSON performs a GET request and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, res resource, v any) error {
	data, err := c.do(ctx, http.MethodGet, res, nil)
	if err != nil {
		return err
	}
	return decodeJSON(data, res, v)
}

// send performs a mutating request. The response may be empty; if it is not, it must be JSON.
func (c *Client) send(ctx context.Context, method string, res resource, body any) error {
	data, err := c.do(ctx, method, res, body)
	if err != nil {
		return err
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && !json.Valid(trimmed) {
		return &DecodeError{
			Resource: res.label(),
			Preview:  truncatePreview(data),
			Err:      fmt.Errorf("response is not valid JSON"),
		}
	}
	return nil
}

// put performs a PUT request.
func (c *Client) put(ctx context.Context, res resource, body any) error {
	return c.send(ctx, http.MethodPut, res, body)
}

// decodeJSON unmarshals a response body with consistent error formatting.
func decodeJSON(data []byte, res resource, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return &DecodeError{Resource: res.label(), Preview: truncatePreview(data), Err: err}
	}
	return nil
}

// truncatePreview returns a truncated string for error messages.
func truncatePreview(data []byte) string {
	s := string(data)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
