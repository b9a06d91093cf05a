// Package woocommerce is the single client for the WooCommerce REST API
// (wc/v3) and the WordPress media endpoint (wp/v2/media). Every call made
// through CallWithRetry, the generic helpers or the typed helpers gets its own
// bounded retry budget for transport failures.
package woocommerce

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edgard/wooadminbot/internal/apperr"
	"github.com/edgard/wooadminbot/internal/config"
	"github.com/edgard/wooadminbot/internal/metrics"
	"github.com/edgard/wooadminbot/internal/resilience"
)

var errBuildRequest = errors.New("failed to build request")

const (
	apiPrefix   = "wp-json/wc/v3/"
	mediaPrefix = "wp-json/wp/v2/media"
)

// Client talks to a single WooCommerce store.
type Client struct {
	apiURL         string
	mediaURL       string
	consumerKey    string
	consumerSecret string
	wpUser         string
	wpAppPassword  string

	httpClient *http.Client
	retrier    resilience.Retrier
	log        *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client built from the store timeouts.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetrier replaces the retry policy. Retryable and OnRetry are filled in
// by the client when left nil.
func WithRetrier(r resilience.Retrier) Option {
	return func(c *Client) {
		c.retrier = r
	}
}

// NewClient creates a client for the store described by cfg.
func NewClient(cfg config.StoreConfig, log *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid store base URL %q", cfg.BaseURL)
	}

	c := &Client{
		apiURL:         base.String() + apiPrefix,
		mediaURL:       base.String() + mediaPrefix,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		wpUser:         cfg.WPUser,
		wpAppPassword:  cfg.WPAppPassword,
		retrier:        resilience.NewRetrier(cfg.MaxRetries, cfg.RetryBaseDelay),
		log:            log.With("component", "woocommerce"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = newHTTPClient(cfg)
	}
	if c.retrier.Retryable == nil {
		c.retrier.Retryable = isTransportError
	}
	if c.retrier.OnRetry == nil {
		c.retrier.OnRetry = func(attempt int, delay time.Duration, err error) {
			metrics.StoreRetriesTotal.Inc()
			c.log.Warn("Store call failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		}
	}

	return c, nil
}

func newHTTPClient(cfg config.StoreConfig) *http.Client {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = config.DefaultStoreConnectTimeout
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultStoreTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{Timeout: timeout, Transport: transport}
}

// Response is a completed HTTP exchange. A non-2xx status is not an error at
// this level; callers inspect Status or use Err.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// Err returns a RemoteError for a non-2xx response and nil otherwise.
func (r *Response) Err(op string) error {
	if r.OK() {
		return nil
	}
	return &apperr.RemoteError{Op: op, Status: r.Status, Body: remoteMessage(r.Body)}
}

// remoteMessage prefers the "message" field of a WooCommerce error body.
func remoteMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

// Call performs a single authenticated request against wc/v3. Path is
// relative to the API root ("products/12"). Only transport failures are
// returned as errors.
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	if !supportedMethod(method) {
		return nil, apperr.Validation("unsupported method %q", method)
	}

	u, err := url.Parse(c.apiURL + strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, apperr.Validation("invalid path %q", path)
	}
	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("consumer_key", c.consumerKey)
	q.Set("consumer_secret", c.consumerSecret)
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode body: %w", errBuildRequest, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBuildRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, method, resourceOf(path))
}

// CallWithRetry wraps Call in the client's retry policy. Non-2xx responses
// are returned immediately.
func (c *Client) CallWithRetry(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	if !supportedMethod(method) {
		return nil, apperr.Validation("unsupported method %q", method)
	}

	var resp *Response
	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := c.Call(ctx, method, path, query, body)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(req *http.Request, method, resource string) (*Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.StoreRequestsTotal.WithLabelValues(method, resource, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.StoreRequestsTotal.WithLabelValues(method, resource, "error").Inc()
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	duration := time.Since(start)
	metrics.StoreRequestDuration.WithLabelValues(method, resource).Observe(duration.Seconds())
	metrics.StoreRequestsTotal.WithLabelValues(method, resource, strconv.Itoa(resp.StatusCode/100)+"xx").Inc()
	c.log.Debug("Store request completed",
		"method", method,
		"resource", resource,
		"status", resp.StatusCode,
		"duration", duration,
	)

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func supportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// isTransportError excludes the errors produced before any request leaves.
func isTransportError(err error) bool {
	var ve *apperr.ValidationError
	return !errors.As(err, &ve) && !errors.Is(err, errBuildRequest)
}

// resourceOf keeps metric label cardinality bounded: "products/12/variations" -> "products".
func resourceOf(path string) string {
	path = strings.TrimLeft(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}

func request[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (T, error) {
	var out T
	op := method + " " + path

	resp, err := c.CallWithRetry(ctx, method, path, query, body)
	if err != nil {
		if !isTransportError(err) {
			return out, err
		}
		return out, &apperr.RemoteError{Op: op, Transport: true, Err: err}
	}
	if err := resp.Err(op); err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Get fetches path and decodes the body into T.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	return request[T](ctx, c, http.MethodGet, path, query, nil)
}

// Post sends body as JSON to path and decodes the body into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return request[T](ctx, c, http.MethodPost, path, nil, body)
}

// Put sends body as JSON to path and decodes the body into T.
func Put[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return request[T](ctx, c, http.MethodPut, path, nil, body)
}

// Delete removes the resource at path and decodes the body into T.
func Delete[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	return request[T](ctx, c, http.MethodDelete, path, query, nil)
}
