// Package api holds the two REST probes that sit beside the GraphQL
// endpoint: GET /welcome, authenticated with the session token, and
// GET /invitation, authenticated with an invitation token.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/log"
	"github.com/felixgeelhaar/oneway/internal/metrics"
	"github.com/felixgeelhaar/oneway/internal/model"
	"github.com/felixgeelhaar/oneway/internal/session"
	"github.com/felixgeelhaar/oneway/internal/telemetry"
	"github.com/felixgeelhaar/oneway/internal/version"
)

// DefaultBaseURL is the backend REST base.
const DefaultBaseURL = "http://localhost:3001"

// Client is the REST probe client
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Metrics is optional.
	Metrics *metrics.Metrics
	Tracer  trace.Tracer

	logger *log.Logger
}

// NewClient creates a probe client. A zero timeout waits indefinitely.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Tracer: telemetry.Tracer(otel.GetTracerProvider()),
		logger: logger.With("component", "api"),
	}
}

// Welcome probes GET /welcome with the session token. The response is handed
// to the session's refresh policy, which may rotate the token.
// Non-success statuses return a REST-001 error; the caller decides recovery.
func (c *Client) Welcome(ctx context.Context, sess *session.Session) (_ *model.ProbeResult, err error) {
	ctx, done := c.instrument(ctx, "/welcome")
	defer func() { done(err) }()

	header, err := sess.AuthorizationHeader(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, "/welcome", header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := sess.Observe(ctx, resp); err != nil {
		return nil, err
	}

	if err := statusError("/welcome", resp); err != nil {
		return nil, err
	}

	var result model.ProbeResult
	if err := parseResponse(resp, "/welcome", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Invitation probes GET /invitation with an invitation token. The bearer is
// not the session token, so no rotation is applied.
func (c *Client) Invitation(ctx context.Context, invitationToken string) (_ *model.ProbeResult, err error) {
	ctx, done := c.instrument(ctx, "/invitation")
	defer func() { done(err) }()

	resp, err := c.doRequest(ctx, "/invitation", session.BearerValue(invitationToken, true))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError("/invitation", resp); err != nil {
		return nil, err
	}

	var result model.ProbeResult
	if err := parseResponse(resp, "/invitation", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// doRequest performs a GET with the given Authorization value
func (c *Client) doRequest(ctx context.Context, path, authorization string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, errors.NewNetworkError(c.BaseURL+path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", authorization)
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("User-Agent", version.GetInfo().UserAgent())

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, transportError(ctx, c.BaseURL+path, err)
	}

	trace.SpanFromContext(ctx).SetAttributes(telemetry.AttrHTTPStatus.Int(resp.StatusCode))
	c.logger.DebugContext(ctx, "probe completed",
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))
	return resp, nil
}

// instrument opens a span for a probe; the returned func ends it and records
// the request metric.
func (c *Client) instrument(ctx context.Context, path string) (context.Context, func(error)) {
	tracer := c.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer(otel.GetTracerProvider())
	}
	ctx, span := tracer.Start(ctx, "rest "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			telemetry.AttrTransport.String(metrics.TransportREST),
			telemetry.AttrOperation.String(path),
		))
	start := time.Now()
	return ctx, func(err error) {
		telemetry.RecordError(span, err)
		span.End()
		c.Metrics.ObserveRequest(metrics.TransportREST, path, time.Since(start), err)
	}
}

func transportError(ctx context.Context, endpoint string, err error) error {
	if stderrors.Is(ctx.Err(), context.Canceled) {
		return errors.Wrap(errors.ErrCodeNetworkCanceled, fmt.Sprintf("request to %s canceled", endpoint), err)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(errors.ErrCodeNetworkTimeout, fmt.Sprintf("request to %s timed out", endpoint), err).
			WithSuggestion("Raise http.timeout in the configuration file")
	}
	return errors.NewNetworkError(endpoint, err)
}

func statusError(path string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return errors.NewStatusError(path, resp.StatusCode)
}

// parseResponse decodes a successful probe body
func parseResponse(resp *http.Response, path string, target any) error {
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return errors.Wrap(errors.ErrCodeRESTDecode, fmt.Sprintf("failed to decode %s response", path), err)
	}
	return nil
}
