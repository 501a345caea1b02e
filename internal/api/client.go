package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"moul.io/http2curl"
)

// ContentType is a request or response media type
type ContentType string

const (
	CTJSON ContentType = "application/json"
	CTCSV  ContentType = "text/csv"

	BearerPrefix = "Bearer "

	// TotalCountHeader carries the number of rows matching a list request
	TotalCountHeader = "X-Total-Count"
)

// AuthMode selects how requests are authenticated
type AuthMode string

const (
	AuthNone     AuthMode = "none"
	AuthBearer   AuthMode = "bearer"
	AuthPassword AuthMode = "password"
)

// Config contains client configuration parameters
type Config struct {
	BaseURL            string
	InsecureSkipVerify bool
	Timeout            time.Duration
	CurlFlag           bool
	Token              string
	Logger             zerolog.Logger
}

// Response is a completed HTTP exchange
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Client talks to the certificate management REST API
type Client struct {
	baseURL  *url.URL
	client   *http.Client
	token    string
	curlFlag bool
	logger   zerolog.Logger
}

// NewClient creates a client for the API below baseURL
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("base url cannot be empty")
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q in base url", u.Scheme)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for lab CAs
		},
	}

	return &Client{
		baseURL: u,
		client: &http.Client{
			Transport: otelhttp.NewTransport(transport),
			Timeout:   cfg.Timeout,
		},
		token:    cfg.Token,
		curlFlag: cfg.CurlFlag,
		logger:   cfg.Logger.With().Str("component", "api").Logger(),
	}, nil
}

// SetToken replaces the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the bearer token in use
func (c *Client) Token() string {
	return c.token
}

// ResolveURL resolves an endpoint against the base URL. Relative endpoints
// ("api/...") stay below the base path, absolute ones ("/publicapi/...")
// start at the host root.
func (c *Client) ResolveURL(endpoint string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

// Get issues a GET request and returns the response for any status below 400
func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string) (*Response, error) {
	return c.processRequest(ctx, http.MethodGet, endpoint, nil, headers)
}

// processRequest creates and sends a request and checks the response status.
// With expected codes, any other status is an error; without, only statuses
// >= 400 are.
func (c *Client) processRequest(ctx context.Context, method, endpoint string, data []byte, headers map[string]string, expectedRespCodes ...int) (*Response, error) {
	reqURL, err := c.ResolveURL(endpoint)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", string(CTJSON))
	}
	req.Header.Set("Accept", string(CTJSON)+", */*")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if c.token != "" {
		req.Header.Set("Authorization", BearerPrefix+c.token)
	}

	if c.curlFlag {
		curlCommand, err := http2curl.GetCurlCommand(req)
		if err == nil {
			c.logger.Debug().Str("curl", curlCommand.String()).Msg("request")
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", method).Str("url", reqURL).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", reqURL).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request completed")

	if err := checkError(resp.StatusCode, respBody, expectedRespCodes...); err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// getJSON fetches an endpoint and decodes the JSON body into v
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	resp, err := c.processRequest(ctx, http.MethodGet, endpoint, nil, nil, http.StatusOK)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", endpoint, err)
	}
	return nil
}

// Authenticate exchanges user credentials for a bearer token and keeps it
// for subsequent requests.
func (c *Client) Authenticate(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(loginReq{Username: username, Password: password, RememberMe: false})
	if err != nil {
		return "", fmt.Errorf("failed to marshal login: %w", err)
	}

	resp, err := c.processRequest(ctx, http.MethodPost, "api/authenticate", payload, nil, http.StatusOK)
	if err != nil {
		return "", err
	}

	var res loginRes
	if err := json.Unmarshal(resp.Body, &res); err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	token := res.IDToken
	if token == "" {
		token = strings.TrimPrefix(resp.Header.Get("Authorization"), BearerPrefix)
	}
	if token == "" {
		return "", fmt.Errorf("no token in authentication response")
	}

	c.token = token
	return token, nil
}

type loginReq struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

type loginRes struct {
	IDToken string `json:"id_token"`
}
