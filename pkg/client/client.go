// Package client provides a typed HTTP client for the mockbird control API.
// It speaks the JSON protocol served under the admin prefix of a running
// server instance, local or remote.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/journal"
	"github.com/mockbird/mockbird/pkg/stub"
)

// DefaultBaseURL is where a default-configured local server is reached.
const DefaultBaseURL = "http://localhost:4280"

// ErrNotFound reports that the addressed mock does not exist on the server.
var ErrNotFound = errors.New("mock not found")

// APIError is a structured error response from the control API.
type APIError struct {
	// StatusCode is the HTTP status, or 0 when the server was unreachable.
	StatusCode int
	// ErrorCode is the machine-readable code from the response body,
	// e.g. "invalid_expectation" or "not_found".
	ErrorCode string
	Message   string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("control API returned status %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrNotFound) see through the typed response.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsConnectionError reports whether err means the server could not be
// reached at all, as opposed to an error response from it.
func IsConnectionError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode == "connection_error"
}

// Client talks to the control API of one server instance.
type Client struct {
	baseURL    string
	prefix     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAdminPrefix overrides the path prefix the control API is mounted
// under. The default is config.DefaultAdminPrefix.
func WithAdminPrefix(prefix string) Option {
	return func(c *Client) {
		if prefix != "" {
			c.prefix = strings.TrimSuffix(prefix, "/")
		}
	}
}

// New creates a client for the server at baseURL, e.g.
// "http://localhost:4280". An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		prefix:     config.DefaultAdminPrefix,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateMock registers a stub and returns its assigned id.
func (c *Client) CreateMock(ctx context.Context, st *stub.Stub) (int, error) {
	body, err := json.Marshal(st)
	if err != nil {
		return 0, fmt.Errorf("encode stub: %w", err)
	}

	resp, err := c.post(ctx, "/mocks", body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return 0, c.parseError(resp)
	}

	var result stub.CreateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return result.ID, nil
}

// GetMock returns one registered mock with its hit count and state.
func (c *Client) GetMock(ctx context.Context, id int) (*stub.Detail, error) {
	resp, err := c.get(ctx, "/mocks/"+strconv.Itoa(id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var d stub.Detail
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &d, nil
}

// ListMocks returns every registered mock in creation order, deleted ones
// included.
func (c *Client) ListMocks(ctx context.Context) ([]*stub.Detail, error) {
	resp, err := c.get(ctx, "/mocks")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result stub.ListResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Mocks, nil
}

// DeleteMock removes a mock from matching. Its record stays listable until
// DeleteAllMocks.
func (c *Client) DeleteMock(ctx context.Context, id int) error {
	resp, err := c.delete(ctx, "/mocks/"+strconv.Itoa(id))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return c.parseError(resp)
	}
	return nil
}

// DeleteAllMocks removes every mock and resets the id sequence.
func (c *Client) DeleteAllMocks(ctx context.Context) error {
	resp, err := c.delete(ctx, "/mocks")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return c.parseError(resp)
	}
	return nil
}

// Verify checks a hit-count condition on a mock. A nil req asserts the
// default condition, at least one call.
func (c *Client) Verify(ctx context.Context, id int, req *stub.VerifyRequest) (*stub.VerifyResult, error) {
	var body []byte
	if req != nil {
		var err error
		body, err = json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("encode verify request: %w", err)
		}
	}

	resp, err := c.post(ctx, "/mocks/"+strconv.Itoa(id)+"/verify", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result stub.VerifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// Requests queries the request journal, newest first. A nil filter returns
// the server's default page.
func (c *Client) Requests(ctx context.Context, filter *journal.Filter) (*journal.ListResult, error) {
	path := "/requests"
	params := url.Values{}
	if filter != nil {
		if filter.Method != "" {
			params.Set("method", filter.Method)
		}
		if filter.Path != "" {
			params.Set("path", filter.Path)
		}
		if filter.Outcome != "" {
			params.Set("outcome", filter.Outcome)
		}
		if filter.MatchedMockID > 0 {
			params.Set("matched", strconv.Itoa(filter.MatchedMockID))
		}
		if filter.Limit > 0 {
			params.Set("limit", strconv.Itoa(filter.Limit))
		}
		if filter.Offset > 0 {
			params.Set("offset", strconv.Itoa(filter.Offset))
		}
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var result journal.ListResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

// ClearRequests empties the request journal and returns how many entries
// were dropped.
func (c *Client) ClearRequests(ctx context.Context) (int, error) {
	resp, err := c.delete(ctx, "/requests")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, c.parseError(resp)
	}

	var result struct {
		Cleared int `json:"cleared"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return result.Cleared, nil
}

// Health reports whether the server is up, with its mock count and uptime.
func (c *Client) Health(ctx context.Context) (*stub.Health, error) {
	resp, err := c.get(ctx, "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var h stub.Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &h, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *Client) delete(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.prefix+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{
			ErrorCode: "connection_error",
			Message:   fmt.Sprintf("cannot reach control API at %s: %v", c.baseURL, err),
		}
	}
	return resp, nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var eb stub.ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  eb.Error,
			Message:    eb.Message,
		}
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  "unknown_error",
		Message:    fmt.Sprintf("control API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
	}
}
