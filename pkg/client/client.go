package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskmodel/pkg/utils/safe"
)

// Client calls the risk model REST API. Each service method issues exactly one
// request and never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client

	RiskModel   *RiskModelService
	RiskData    *RiskDataService
	RiskDataLog *RiskDataLogService
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New builds a client for the API served at baseURL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid API base URL", goerr.V("base_url", baseURL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, goerr.New("API base URL must be http or https", goerr.V("base_url", baseURL))
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.RiskModel = &RiskModelService{client: c}
	c.RiskData = &RiskDataService{client: c}
	c.RiskDataLog = &RiskDataLogService{client: c}
	return c, nil
}

// BaseURL returns the API base URL without trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPError is returned when the API responds with a non-2xx status
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API responded %d: %s", e.StatusCode, strings.TrimSpace(string(e.Body)))
}

func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal request body", goerr.V("path", path))
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("method", method), goerr.V("path", path))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send request", goerr.V("method", method), goerr.V("path", path))
	}
	defer safe.Close(ctx, resp.Body, "url", req.URL.String())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerr.Wrap(err, "failed to read response", goerr.V("path", path))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.Wrap(&HTTPError{StatusCode: resp.StatusCode, Body: respBody}, "API request failed",
			goerr.V("method", method),
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return goerr.Wrap(err, "failed to decode response", goerr.V("path", path))
		}
	}
	return nil
}
