// Package backend is the console's client for the external RACI REST API.
//
// Calls return raw response bodies; shape handling belongs to the
// normalizer. Non-2xx statuses become *APIError, transport failures wrap
// ErrNetworkFailure, and 401/403 satisfy errors.Is(err, ErrUnauthenticated).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/raciconsole/internal/app/system/metrics"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds every backend call that has no earlier deadline.
const DefaultTimeout = 15 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 16 << 20

// Client talks to one backend base URL. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	transport http.RoundTripper
	limiter   *rate.Limiter
	timeout   time.Duration
	log       *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the base round tripper (default http.DefaultTransport).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

// WithRateLimit caps outbound requests per second. A non-positive limit
// disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a client for baseURL, e.g. "https://api.example.com/api".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute http(s)", baseURL)
	}
	c := &Client{
		base:      u,
		transport: http.DefaultTransport,
		timeout:   DefaultTimeout,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Timeout is the per-call default deadline.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Bearer returns a Caller that sends token as a bearer credential on every
// request. An empty token yields a Caller that sends none.
func (c *Client) Bearer(token string) *Caller {
	hc := &http.Client{Transport: c.transport}
	if token != "" {
		hc.Transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.transport,
		}
	}
	return &Caller{c: c, hc: hc}
}

// anonymous is used for the sign-in family of endpoints.
func (c *Client) anonymous() *Caller { return c.Bearer("") }

// Caller issues requests with one credential.
type Caller struct {
	c  *Client
	hc *http.Client
}

// do performs one request and returns the body of a 2xx response.
// label names the resource for metrics.
func (a *Caller) do(ctx context.Context, method, label string, q url.Values, body any, path ...string) ([]byte, error) {
	c := a.c
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
		}
	}

	u := c.base.JoinPath(path...)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", label, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", label, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := a.hc.Do(req)
	if err != nil {
		metrics.ObserveBackend(method, label, "error", time.Since(start))
		c.log.Warn("backend request failed",
			zap.String("method", method),
			zap.String("path", u.Path),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	metrics.ObserveBackend(method, label, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetworkFailure, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, raw)
		c.log.Debug("backend returned error status",
			zap.String("method", method),
			zap.String("path", u.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return nil, apiErr
	}
	return raw, nil
}
