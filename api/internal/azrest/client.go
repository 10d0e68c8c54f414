package azrest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/logging"
)

const DefaultKeyHeader = "Ocp-Apim-Subscription-Key"

// Client is a thin key-authenticated JSON client for a single cognitive
// services resource.
type Client struct {
	Endpoint   string
	Key        string
	KeyHeader  string
	Region     string
	APIVersion string

	headers http.Header
	httpc   *http.Client
	log     *logrus.Entry
}

type Option func(*Client)

func WithKeyHeader(name string) Option { return func(c *Client) { c.KeyHeader = name } }

// WithRegion sets Ocp-Apim-Subscription-Region (translator, multi-service keys).
func WithRegion(region string) Option { return func(c *Client) { c.Region = region } }

func WithAPIVersion(v string) Option { return func(c *Client) { c.APIVersion = v } }

func WithHeader(k, v string) Option { return func(c *Client) { c.headers.Set(k, v) } }

func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for custom timeouts or tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

func New(endpoint, key string, opts ...Option) *Client {
	c := &Client{
		Endpoint:  strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		Key:       strings.TrimSpace(key),
		KeyHeader: DefaultKeyHeader,
		headers:   http.Header{},
		httpc:     &http.Client{Timeout: 60 * time.Second},
		log:       logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Request describes one call. Body is JSON-encoded unless it is []byte or an
// io.Reader, in which case ContentType should be set by the caller.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	ContentType string
	Header      http.Header
}

// Response carries what callers occasionally need beyond the decoded body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do executes the request and decodes a 2xx JSON body into out (if non-nil).
// Non-2xx responses come back as *ResponseError.
func (c *Client) Do(ctx context.Context, r Request, out any) (*Response, error) {
	u, err := c.url(r.Path, r.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	contentType := r.ContentType
	switch b := r.Body.(type) {
	case nil:
	case []byte:
		body = bytes.NewReader(b)
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	case io.Reader:
		body = b
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.Key != "" {
		req.Header.Set(c.KeyHeader, c.Key)
	}
	if c.Region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", c.Region)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    req.URL.Path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("azure call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseError(resp.StatusCode, raw)
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// JSON is shorthand for the common "send JSON, decode JSON" call.
func (c *Client) JSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	_, err := c.Do(ctx, Request{Method: method, Path: path, Query: query, Body: in}, out)
	return err
}

// url joins path onto the endpoint. Absolute URLs (operation locations) are
// used unchanged apart from the query.
func (c *Client) url(path string, query url.Values) (string, error) {
	var raw string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		raw = path
	} else {
		if c.Endpoint == "" {
			return "", fmt.Errorf("azure endpoint is empty")
		}
		raw = c.Endpoint + "/" + strings.TrimLeft(path, "/")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("bad url %q: %w", raw, err)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	if c.APIVersion != "" && q.Get("api-version") == "" {
		q.Set("api-version", c.APIVersion)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// OperationLocation returns the polling URL of a long-running operation.
func OperationLocation(r *Response) string {
	if r == nil {
		return ""
	}
	if v := r.Header.Get("Operation-Location"); v != "" {
		return v
	}
	return r.Header.Get("Location")
}

// LastSegment returns the trailing id of an operation URL, ignoring the query.
func LastSegment(loc string) string {
	if u, err := url.Parse(loc); err == nil {
		loc = u.Path
	}
	loc = strings.TrimRight(loc, "/")
	if i := strings.LastIndex(loc, "/"); i >= 0 {
		return loc[i+1:]
	}
	return loc
}
