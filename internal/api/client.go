// Package api talks to the remote DateStack service: event sync, the
// connection checks used by `config test`, and agenda items.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	appLog "datestack/internal/log"
	"datestack/internal/model"
)

const (
	DefaultTimeout = 10 * time.Second
	SyncTimeout    = 30 * time.Second

	apiKeyHeader = "X-API-Key"
)

// APIError is a failed request with a message suitable for the terminal.
// StatusCode is zero when no response was received.
type APIError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the service.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Per-request deadlines
// are still applied through the request context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SyncRequest is the body of POST /api/events/sync.
type SyncRequest struct {
	SourceName string        `json:"source_name"`
	Events     []model.Event `json:"events"`
	Force      bool          `json:"force,omitempty"`
}

type SyncResponse struct {
	EventsSynced int `json:"events_synced"`
}

// AgendaItem is a single to-do entry attached to a date.
type AgendaItem struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Date      string `json:"date,omitempty"`
	Completed bool   `json:"completed"`
}

// Health checks that the service answers at all. It sends no API key.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/health", anonymous: true}, nil)
}

// CheckAPIKey performs an authenticated read; a 401 means the key is wrong.
func (c *Client) CheckAPIKey(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodGet, path: "/api/sources"}, nil)
}

// SyncEvents replaces this source's events on the server.
func (c *Client) SyncEvents(ctx context.Context, req SyncRequest) (SyncResponse, error) {
	if req.Events == nil {
		req.Events = []model.Event{}
	}
	var resp SyncResponse
	err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/api/events/sync",
		body:    req,
		timeout: SyncTimeout,
	}, &resp)
	return resp, err
}

// ListAgenda returns the items for day (YYYY-MM-DD), completed ones included.
func (c *Client) ListAgenda(ctx context.Context, day string) ([]AgendaItem, error) {
	q := url.Values{}
	q.Set("date", day)
	q.Set("include_completed", "true")

	items := make([]AgendaItem, 0)
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/agenda", query: q}, &items)
	return items, err
}

func (c *Client) AddAgenda(ctx context.Context, text, day string) (AgendaItem, error) {
	var item AgendaItem
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/agenda",
		body:   map[string]string{"text": text, "date": day},
	}, &item)
	return item, err
}

// SetAgendaCompleted marks an item done or not done.
func (c *Client) SetAgendaCompleted(ctx context.Context, id int, completed bool) (AgendaItem, error) {
	var item AgendaItem
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   "/api/agenda/" + strconv.Itoa(id),
		body:   map[string]bool{"completed": completed},
	}, &item)
	return item, err
}

func (c *Client) DeleteAgenda(ctx context.Context, id int) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/agenda/" + strconv.Itoa(id)}, nil)
}

type request struct {
	method    string
	path      string
	query     url.Values
	body      any
	timeout   time.Duration
	anonymous bool
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	timeout := r.timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if !r.anonymous {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	appLog.Debug("api request",
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration", time.Since(started).String(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

func (c *Client) transportError(ctx context.Context, err error) error {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &APIError{
			Message: fmt.Sprintf("Connection timed out: Server at %s did not respond", c.baseURL),
			Err:     err,
		}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	return &APIError{
		Message: fmt.Sprintf("Connection failed: Could not connect to %s", c.baseURL),
		Err:     err,
	}
}

// responseError maps a non-2xx response to an APIError, preferring the
// "error" or "message" field of a JSON body.
func responseError(resp *http.Response) error {
	status := resp.StatusCode

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &payload)
	detail := payload.Error
	if detail == "" {
		detail = payload.Message
	}

	orDefault := func(def string) string {
		if detail != "" {
			return detail
		}
		return def
	}

	var msg string
	switch {
	case status == http.StatusUnauthorized:
		msg = "Authentication failed: " + orDefault("Invalid or missing API key")
	case status == http.StatusForbidden:
		msg = "Access denied: " + orDefault("Insufficient permissions")
	case status == http.StatusNotFound:
		msg = "Not found: " + orDefault("Resource does not exist")
	case status == http.StatusBadRequest:
		msg = "Bad request: " + orDefault("Invalid request")
	case status >= 500:
		msg = fmt.Sprintf("Server error (%d): %s", status, orDefault("Internal server error"))
	default:
		msg = fmt.Sprintf("Request failed (%d): %s", status, orDefault(http.StatusText(status)))
	}

	return &APIError{Message: msg, StatusCode: status}
}
