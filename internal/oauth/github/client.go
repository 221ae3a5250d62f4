package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dropDatabas3/githubauth/internal/metrics"
	"github.com/dropDatabas3/githubauth/internal/observability/logger"
)

const (
	maxBodyBytes = 1 << 20
	userAgent    = "githubauth"

	endpointToken   = "token"
	endpointProfile = "profile"
)

var tracer = otel.Tracer("github.com/dropDatabas3/githubauth/internal/oauth/github")

// Client performs the two outbound calls of the callback flow. It holds no per-flow state and
// is safe for concurrent use. Calls are bounded by Config.Timeout, not by the HTTP client.
type Client struct {
	http        *http.Client
	tokenHTTP   *http.Client
	parseToken  TokenParser
	tokenAccept string
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (TLS settings, proxies, test transports).
// A Timeout set on hc still caps every call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenParser swaps the token response decoder. accept is sent as the Accept header of the
// token request.
func WithTokenParser(p TokenParser, accept string) Option {
	return func(c *Client) {
		if p != nil {
			c.parseToken = p
			c.tokenAccept = accept
		}
	}
}

// NewClient returns a client that decodes GitHub's default form-encoded token responses.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{},
		parseToken:  ParseFormToken,
		tokenAccept: "application/x-www-form-urlencoded",
	}
	for _, o := range opts {
		o(c)
	}

	// A followed redirect would replay the POST as a bodiless GET.
	th := *c.http
	th.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	c.tokenHTTP = &th
	return c
}

// do sends req and returns status and body, bounded by maxBodyBytes. Transport failures come
// back with the request URL stripped so callers can wrap them without leaking query strings.
func (c *Client) do(hc *http.Client, req *http.Request, endpoint string) (int, []byte, error) {
	log := logger.From(req.Context()).With(logger.Layer("client"), logger.Component("github"), logger.Endpoint(endpoint))
	start := time.Now()

	resp, err := hc.Do(req)
	if err != nil {
		metrics.ObserveProviderCall(endpoint, "transport_error", time.Since(start))
		log.Warn("github request failed", logger.DurationMs(time.Since(start)), logger.Err(transportCause(err)))
		return 0, nil, transportCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		metrics.ObserveProviderCall(endpoint, "transport_error", time.Since(start))
		return resp.StatusCode, nil, fmt.Errorf("read body: %w", transportCause(err))
	}
	if len(body) > maxBodyBytes {
		metrics.ObserveProviderCall(endpoint, "too_large", time.Since(start))
		return resp.StatusCode, nil, errors.New("response body too large")
	}

	metrics.ObserveProviderCall(endpoint, statusClass(resp.StatusCode), time.Since(start))
	log.Debug("github request done",
		logger.Status(resp.StatusCode),
		logger.Bytes(len(body)),
		logger.DurationMs(time.Since(start)),
	)
	return resp.StatusCode, body, nil
}

func transportCause(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("timeout")
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		if ue.Timeout() {
			return errors.New("timeout")
		}
		return ue.Err
	}
	return err
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}

func startSpan(ctx context.Context, name, endpoint string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("github.endpoint", endpoint)),
	)
}

func endSpan(span trace.Span, status int, err error) {
	if status > 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
