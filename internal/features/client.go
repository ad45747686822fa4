package features

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

	"github.com/google/uuid"
)

// RecordClient performs list/get/create/update/delete against the record store.
// It is implemented by *Client and faked in tests.
type RecordClient interface {
	List(ctx context.Context, offset, limit int) ([]Record, error)
	Get(ctx context.Context, id ID) (Record, error)
	Create(ctx context.Context, payload Payload) (Record, error)
	Update(ctx context.Context, id ID, payload Payload) (Record, error)
	Delete(ctx context.Context, id ID) error
}

// Ensure Client implements RecordClient at compile time.
var _ RecordClient = (*Client)(nil)

// Client talks to the feature HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIURL    = "http://127.0.0.1:8000"
	defaultUserAgent = "waypoint/0.1"
	defaultTimeout   = 10 * time.Second
	featuresPath     = "/api/features/"
	maxErrorBody     = 4 << 10
)

// APIError reports a status outside 2xx. Detail carries the response body.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// NewClient builds a Client for apiURL ("host:port" or a full URL). A
// non-positive timeout uses the default.
func NewClient(apiURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// List fetches one page of records.
func (c *Client) List(ctx context.Context, offset, limit int) ([]Record, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	values.Set("limit", strconv.Itoa(limit))
	values.Set("offset", strconv.Itoa(offset))
	rel := &url.URL{Path: featuresPath, RawQuery: values.Encode()}
	var payload []Record
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Get fetches a single record.
func (c *Client) Get(ctx context.Context, id ID) (Record, error) {
	if c == nil {
		return Record{}, fmt.Errorf("client is nil")
	}
	var rec Record
	if err := c.do(ctx, http.MethodGet, recordPath(id), nil, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Create stores a new record and returns it with its assigned id.
func (c *Client) Create(ctx context.Context, payload Payload) (Record, error) {
	if c == nil {
		return Record{}, fmt.Errorf("client is nil")
	}
	var rec Record
	if err := c.do(ctx, http.MethodPost, featuresPath, payload, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update replaces the record with the given id.
func (c *Client) Update(ctx context.Context, id ID, payload Payload) (Record, error) {
	if c == nil {
		return Record{}, fmt.Errorf("client is nil")
	}
	if id.IsZero() {
		return Record{}, fmt.Errorf("record id required")
	}
	var rec Record
	if err := c.do(ctx, http.MethodPut, recordPath(id), payload, &rec); err != nil {
		return Record{}, err
	}
	if rec.ID.IsZero() {
		rec.ID = id
	}
	return rec, nil
}

// Delete removes the record with the given id.
func (c *Client) Delete(ctx context.Context, id ID) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if id.IsZero() {
		return fmt.Errorf("record id required")
	}
	// The confirmation body is informational; an empty 2xx is success too.
	return c.do(ctx, http.MethodDelete, recordPath(id), nil, nil)
}

func recordPath(id ID) string {
	return featuresPath + url.PathEscape(id.String())
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method: method,
			Path:   rel.String(),
			Status: resp.StatusCode,
			Detail: errorDetail(raw),
		}
	}
	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail extracts a readable message from an error body. JSON objects
// with a detail, message or error field yield that field; anything else is
// returned trimmed.
func errorDetail(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			switch v := obj[key].(type) {
			case string:
				if strings.TrimSpace(v) != "" {
					return strings.TrimSpace(v)
				}
			case nil:
			default:
				if encoded, err := json.Marshal(v); err == nil {
					return string(encoded)
				}
			}
		}
	}
	return trimmed
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
