package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/dashlink/internal/core/domain"
	"github.com/yndnr/dashlink/internal/infra/buildinfo"
	"github.com/yndnr/dashlink/internal/telemetry/logger"
	"github.com/yndnr/dashlink/internal/telemetry/metric"
)

// HeaderSource adds headers to every outgoing request. The auth service
// uses one to attach the bearer token.
type HeaderSource func(h http.Header)

// HTTPClient dispatches requests to the dashboard API. It is safe for
// concurrent use.
type HTTPClient struct {
	baseURL    string
	client     *http.Client
	classifier *Classifier
	sources    []HeaderSource
	userAgent  string
	metrics    *metric.Registry
	logger     logger.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// WithHeaderSource adds a source of default headers.
func WithHeaderSource(src HeaderSource) Option {
	return func(c *HTTPClient) {
		c.sources = append(c.sources, src)
	}
}

// WithUserAgent overrides the default User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// WithMetrics records request counts and durations in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(c *HTTPClient) {
		c.metrics = reg
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

// NewHTTPClient creates a client for server, which may carry a path prefix
// such as "http://localhost:18080/api". A missing scheme defaults to http.
func NewHTTPClient(server string, classifier *Classifier, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    NormalizeServer(server),
		classifier: classifier,
		client:     &http.Client{Timeout: 30 * time.Second},
		userAgent:  buildinfo.UserAgent(),
		logger:     logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.classifier == nil {
		c.classifier = NewClassifier(nil)
	}
	return c
}

// NormalizeServer adds the http scheme when missing and strips a trailing
// slash. unix:// addresses are kept for the socket transport.
func NormalizeServer(server string) string {
	server = strings.TrimSpace(server)
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	return strings.TrimSuffix(server, "/")
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string, headers http.Header) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, nil, headers)
}

// Post performs a POST request. A non-nil body is encoded as JSON.
func (c *HTTPClient) Post(ctx context.Context, path string, body any, headers http.Header) (*http.Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body, headers)
}

// Put performs a PUT request. A non-nil body is encoded as JSON.
func (c *HTTPClient) Put(ctx context.Context, path string, body any, headers http.Header) (*http.Response, error) {
	return c.sendJSON(ctx, http.MethodPut, path, body, headers)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string, headers http.Header) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil, headers)
}

// Request performs a request with an arbitrary method and raw body. No
// Content-Type is implied; pass one in headers.
func (c *HTTPClient) Request(ctx context.Context, method, path string, body io.Reader, headers http.Header) (*http.Response, error) {
	return c.do(ctx, strings.ToUpper(method), path, body, nil, headers)
}

func (c *HTTPClient) sendJSON(ctx context.Context, method, path string, body any, headers http.Header) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	defaults := http.Header{}
	defaults.Set("Content-Type", "application/json")
	return c.do(ctx, method, path, reader, defaults, headers)
}

// do applies headers in increasing priority: client defaults, header
// sources, method defaults, caller headers.
func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader, methodDefaults, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	requestID := ulid.Make().String()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	for _, src := range c.sources {
		src(req.Header)
	}
	for k, vs := range methodDefaults {
		req.Header[k] = vs
	}
	for k, vs := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = vs
	}

	ctx = logger.WithRequestID(ctx, req.Header.Get("X-Request-ID"))
	log := c.logger.WithContext(ctx).With("request_id", req.Header.Get("X-Request-ID"), "method", method, "url", req.URL.String())

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.ObserveRequest(method, metric.OutcomeTransportError, elapsed.Seconds())
		log.Debug("request failed", "error", err)
		return nil, err
	}

	log.Debug("response received", "status", resp.StatusCode, "elapsed", elapsed)
	resp, err = c.classifier.Classify(ctx, resp)
	c.metrics.ObserveRequest(method, outcome(err), elapsed.Seconds())
	return resp, err
}

// URL resolves path against the base URL. Absolute http(s) URLs are
// returned unchanged; unix socket servers resolve to http://unix<prefix>.
func (c *HTTPClient) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base := c.baseURL
	if rest, ok := strings.CutPrefix(base, "unix://"); ok {
		prefix := ""
		if i := strings.Index(rest, ".sock"); i >= 0 {
			prefix = rest[i+len(".sock"):]
		}
		base = "http://unix" + prefix
	}
	return base + path
}

func outcome(err error) string {
	if err == nil {
		return metric.OutcomeOK
	}
	switch domain.KindOf(err) {
	case domain.KindSessionExpired:
		return metric.OutcomeSessionExpired
	case domain.KindForbidden:
		return metric.OutcomeForbidden
	case domain.KindNotFound:
		return metric.OutcomeNotFound
	case domain.KindServerError:
		return metric.OutcomeServerError
	}
	return metric.OutcomeTransportError
}

// DecodeJSON decodes a pass-through response body into target and closes
// it. Statuses the classifier lets through (2xx, 3xx, other 4xx) are
// returned as an error carrying the status when they are not 2xx.
func DecodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		if detail == "" {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, detail)
	}

	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
