// Package archiveapi is the HTTP client for the transcript archive server.
package archiveapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"vodkeeper/internal/catalog"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

const (
	headerAPIKey        = "X-API-Key"
	headerMembershipKey = "X-Membership-Key"
	maxErrorBody        = 4096
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// RequestError is returned when no response was received.
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client talks to the archive server. It does not retry.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New returns a client for baseURL authenticating with apiKey.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the server URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerAPIKey, c.apiKey)
	return req, nil
}

// do sends req and returns the status and body. Transport failures become
// *RequestError; the status is not checked.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &RequestError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &RequestError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	return resp.StatusCode, body, nil
}

func statusError(req *http.Request, code int, body []byte) error {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return &StatusError{Method: req.Method, URL: req.URL.String(), Code: code, Body: text}
}

func ok(code int) bool { return code >= 200 && code < 300 }

// Info fetches the server's catalog from GET /info.
func (c *Client) Info(ctx context.Context) ([]catalog.Record, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/info", nil)
	if err != nil {
		return nil, err
	}
	code, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if !ok(code) {
		return nil, statusError(req, code, body)
	}

	var records []catalog.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode server catalog: %w", err)
	}
	return records, nil
}

// Transcript is the upload payload.
type Transcript struct {
	catalog.Record
	SRT string `json:"srt"`
}

// Upload posts one transcript to /transcript as gzip-compressed JSON.
func (c *Client) Upload(ctx context.Context, t Transcript) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("failed to compress transcript: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress transcript: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/transcript", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Encoding", "gzip")

	code, body, err := c.do(req)
	if err != nil {
		return err
	}
	if !ok(code) {
		return statusError(req, code, body)
	}
	return nil
}

// Response is a membership endpoint reply. Body is nil when the reply is
// not JSON.
type Response struct {
	Status int
	Body   any
}

func decodeResponse(code int, body []byte) *Response {
	r := &Response{Status: code}
	var v any
	if len(bytes.TrimSpace(body)) > 0 && json.Unmarshal(body, &v) == nil {
		r.Body = v
	}
	return r
}

func (c *Client) membership(ctx context.Context, method, path string, header map[string]string) (*Response, error) {
	req, err := c.newRequest(ctx, method, path, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	if _, ok := header[headerMembershipKey]; ok {
		req.Header.Del(headerAPIKey)
	}
	code, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return decodeResponse(code, body), nil
}

func channelPath(channel string) string {
	return "/membership/" + url.PathEscape(channel)
}

// ChannelKeys lists the membership keys of a channel.
func (c *Client) ChannelKeys(ctx context.Context, channel string) (*Response, error) {
	return c.membership(ctx, http.MethodGet, channelPath(channel), nil)
}

// CreateKey issues a new membership key for a channel.
func (c *Client) CreateKey(ctx context.Context, channel string) (*Response, error) {
	return c.membership(ctx, http.MethodPost, channelPath(channel), nil)
}

// DeleteKeys removes every membership key of a channel.
func (c *Client) DeleteKeys(ctx context.Context, channel string) (*Response, error) {
	return c.membership(ctx, http.MethodDelete, channelPath(channel), nil)
}

// AllKeys lists every membership key.
func (c *Client) AllKeys(ctx context.Context) (*Response, error) {
	return c.membership(ctx, http.MethodGet, "/membership", nil)
}

// VerifyKey checks a membership key. The request carries the key instead
// of the API key.
func (c *Client) VerifyKey(ctx context.Context, key string) (*Response, error) {
	return c.membership(ctx, http.MethodGet, "/membership/verify", map[string]string{headerMembershipKey: key})
}
