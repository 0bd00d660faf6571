package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

const (
	instrumentationName = "github.com/Additional-Code/frostline/remote"
	maxErrorBody        = 4 << 10
)

var remoteTracer = otel.Tracer(instrumentationName)

// Client talks to the production backend's REST API.
type Client struct {
	base      *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *zap.Logger

	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient builds a Client for the configured base URL.
func NewClient(cfg config.Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Remote.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote base url: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.Remote.RateLimit > 0 {
		limit = rate.Limit(cfg.Remote.RateLimit)
	}
	burst := cfg.Remote.RateBurst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: cfg.Remote.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: cfg.Remote.UserAgent,
		logger:    logger.Named("remote"),
	}
	for _, opt := range opts {
		opt(c)
	}

	meter := otel.Meter(instrumentationName)
	if c.requests, err = meter.Int64Counter("remote.requests",
		metric.WithDescription("Requests issued to the production backend")); err != nil {
		return nil, err
	}
	if c.latency, err = meter.Float64Histogram("remote.request.duration",
		metric.WithDescription("Latency of production backend requests"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}

	return c, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(query url.Values, segments ...string) *url.URL {
	u := c.base.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// sameOrigin guards cursor links so the console never follows a link off the API host.
func (c *Client) sameOrigin(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errorbank.Upstream("invalid pagination link", errorbank.WithCause(err))
	}
	if !u.IsAbs() {
		u = c.base.ResolveReference(u)
	}
	if !strings.EqualFold(u.Scheme, c.base.Scheme) || !strings.EqualFold(u.Host, c.base.Host) {
		return nil, errorbank.Upstream("pagination link points outside the API",
			errorbank.WithDetail("link", raw))
	}
	return u, nil
}

func (c *Client) do(ctx context.Context, op, method string, target *url.URL, body any, out any) error {
	ctx, span := remoteTracer.Start(ctx, "remote."+op, trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", target.Path),
		))
	defer span.End()

	start := time.Now()
	status, err := c.roundTrip(ctx, method, target, body, out)
	elapsed := time.Since(start)

	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.Int("status", status),
	)
	c.requests.Add(ctx, 1, attrs)
	c.latency.Record(ctx, elapsed.Seconds(), attrs)

	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote request failed")
		c.logger.Warn("remote request failed",
			zap.String("operation", op),
			zap.String("method", method),
			zap.String("path", target.Path),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return err
	}

	c.logger.Debug("remote request finished",
		zap.String("operation", op),
		zap.Int("status", status),
		zap.Duration("duration", elapsed),
	)
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method string, target *url.URL, body any, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, errorbank.Upstream("remote request aborted", errorbank.WithCause(err))
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, errorbank.Internal("encode request body", errorbank.WithCause(err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return 0, errorbank.Internal("build remote request", errorbank.WithCause(err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errorbank.Upstream("remote request failed", errorbank.WithCause(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, errorbank.FromUpstream(resp.StatusCode, upstreamMessage(resp.StatusCode, raw))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, errorbank.Upstream("malformed response from backend",
			errorbank.WithCause(fmt.Errorf("%w: %v", ErrMalformed, err)))
	}
	return resp.StatusCode, nil
}

// upstreamMessage extracts the backend's own error message when it sends one.
func upstreamMessage(status int, raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		for _, m := range []string{body.Message, body.Detail, body.Error} {
			if strings.TrimSpace(m) != "" {
				return m
			}
		}
	}
	return fmt.Sprintf("backend responded %d %s", status, http.StatusText(status))
}
