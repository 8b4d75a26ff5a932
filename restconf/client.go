// Package restconf is a small client for the controller's RESTCONF interface. It only knows
// about URLs, authentication and content types; the meaning of the resources is up to the caller.
package restconf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	DefaultBaseURL  = "http://127.0.0.1:8181/restconf"
	DefaultUsername = "admin"
	DefaultPassword = "admin"
	DefaultTimeout  = time.Second * 30

	contentTypeJSON = "application/json"
	contentTypeXML  = "application/xml"
)

// Logger receives a line for every request and response.
type Logger interface {
	Printf(message string, args ...interface{})
}

type nullLogger struct{}

func (nullLogger) Printf(string, ...interface{}) {}

// Config describes where the RESTCONF interface is and how to authenticate to it.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client sends requests to one RESTCONF base URL using basic authentication.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     Logger
}

// NewClient creates a Client. A zero BaseURL or Timeout takes its default. Username and Password
// are used as given: basic auth is only sent when at least one of them is set, and callers that
// want DefaultUsername/DefaultPassword pass them explicitly.
func NewClient(cfg Config, logger Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = nullLogger{}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// WithLogger returns a copy of the client that logs to a different logger. The copy shares
// the underlying HTTP client.
func (c *Client) WithLogger(logger Logger) *Client {
	if logger == nil {
		logger = nullLogger{}
	}
	c1 := *c
	c1.logger = logger
	return &c1
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL returns the absolute URL for a path relative to the base URL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Get reads a resource, asking for JSON.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, contentTypeJSON)
}

// PutXML replaces a resource with an XML document. The response is requested as JSON.
func (c *Client) PutXML(ctx context.Context, path string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, body, contentTypeXML)
}

// PutJSON replaces a resource with the JSON encoding of payload.
func (c *Client) PutJSON(ctx context.Context, path string, payload interface{}) (*Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not encode request body for %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPut, path, data, contentTypeJSON)
}

// PostJSON posts the JSON encoding of payload.
func (c *Client) PostJSON(ctx context.Context, path string, payload interface{}) (*Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not encode request body for %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, data, contentTypeJSON)
}

// InvokeRPC calls a YANG RPC, wrapping input in the {"input": ...} envelope.
func (c *Client) InvokeRPC(ctx context.Context, module, rpc string, input interface{}) (*Response, error) {
	return c.PostJSON(ctx, OperationsPath(module, rpc), rpcEnvelope{Input: input})
}

type rpcEnvelope struct {
	Input interface{} `json:"input"`
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (*Response, error) {
	url := c.URL(path)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentTypeJSON)
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	if body != nil {
		c.logger.Printf("%s %s: %s", method, url, string(body))
	} else {
		c.logger.Printf("%s %s", method, url)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("%s %s failed: %s", method, url, err)
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body from %s %s: %w", method, url, err)
	}
	c.logger.Printf("Response %d: %s", resp.StatusCode, string(data))
	return &Response{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
