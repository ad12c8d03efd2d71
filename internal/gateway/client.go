// Package gateway is the authenticated GraphQL path to the backend. Every
// operation goes through a chain of HTTP links that attaches the session
// token, stamps a request id and lets the session's refresh policy see the
// response. The gateway classifies failures but never clears the token or
// decides where to go next; that belongs to the page flows.
package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	graphql "github.com/hasura/go-graphql-client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/oneway/internal/errors"
	"github.com/felixgeelhaar/oneway/internal/log"
	"github.com/felixgeelhaar/oneway/internal/metrics"
	"github.com/felixgeelhaar/oneway/internal/model"
	"github.com/felixgeelhaar/oneway/internal/session"
	"github.com/felixgeelhaar/oneway/internal/telemetry"
)

const (
	// DefaultEndpoint is the backend GraphQL endpoint.
	DefaultEndpoint = "http://localhost:3001/graphql"

	// DefaultTimeout bounds each request. Zero disables the bound.
	DefaultTimeout = 30 * time.Second

	defaultCacheSize = 64
)

// Options configures a Client.
type Options struct {
	Endpoint  string
	Timeout   time.Duration
	CacheSize int
	Transport http.RoundTripper
	Logger    *log.Logger

	// Metrics is optional. TracerProvider defaults to the global provider.
	Metrics        *metrics.Metrics
	TracerProvider trace.TracerProvider
}

// DefaultOptions returns options for the local backend.
func DefaultOptions() Options {
	return Options{
		Endpoint:  DefaultEndpoint,
		Timeout:   DefaultTimeout,
		CacheSize: defaultCacheSize,
	}
}

// Client issues GraphQL operations on behalf of a session.
type Client struct {
	endpoint string
	sess     *session.Session
	gql      *graphql.Client
	members  *lru.Cache[string, []model.Member]
	logger   *log.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// New creates a Client bound to sess.
func New(sess *session.Session, opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	cache, err := lru.New[string, []model.Member](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create members cache: %w", err)
	}

	httpClient := &http.Client{
		Timeout:   opts.Timeout,
		Transport: chain(sess, opts.Transport),
	}

	return &Client{
		endpoint: opts.Endpoint,
		sess:     sess,
		gql:      graphql.NewClient(opts.Endpoint, httpClient),
		members:  cache,
		logger:   opts.Logger.With("component", "gateway"),
		metrics:  opts.Metrics,
		tracer:   telemetry.Tracer(opts.TracerProvider),
	}, nil
}

// Endpoint returns the GraphQL endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthPayload, error) {
	var out struct {
		Login *model.AuthPayload `json:"login"`
	}
	err := c.exec(ctx, OpLogin, loginDocument, map[string]any{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Login == nil {
		return nil, emptyResult(OpLogin)
	}
	return out.Login, nil
}

// Signup creates an account and returns its first token.
func (c *Client) Signup(ctx context.Context, in model.SignupInput) (*model.AuthPayload, error) {
	var out struct {
		Signup *model.AuthPayload `json:"signup"`
	}
	err := c.exec(ctx, OpSignup, signupDocument, map[string]any{
		"firstName": in.FirstName,
		"lastName":  in.LastName,
		"email":     in.Email,
		"password":  in.Password,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Signup == nil {
		return nil, emptyResult(OpSignup)
	}
	return out.Signup, nil
}

// UpdatePassword sets the password of an invited member. The returned token
// may be empty.
func (c *Client) UpdatePassword(ctx context.Context, id model.ID, password string) (*model.AuthPayload, error) {
	var out struct {
		UpdatePassword *model.AuthPayload `json:"updatepassword"`
	}
	err := c.exec(ctx, OpUpdatePassword, updatePasswordDocument, map[string]any{
		"id":       id.String(),
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.UpdatePassword == nil {
		return nil, emptyResult(OpUpdatePassword)
	}
	return out.UpdatePassword, nil
}

// CreateMember invites a member managed by managerID.
func (c *Client) CreateMember(ctx context.Context, in model.MemberInput, managerID model.ID) (*model.CreateMemberPayload, error) {
	var out struct {
		CreateMember *model.CreateMemberPayload `json:"createmember"`
	}
	err := c.exec(ctx, OpCreateMember, createMemberDocument, map[string]any{
		"firstName": in.FirstName,
		"lastName":  in.LastName,
		"email":     in.Email,
		"role":      in.Role,
		"managerId": managerID.String(),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.CreateMember == nil {
		return nil, emptyResult(OpCreateMember)
	}
	return out.CreateMember, nil
}

// GetMembers returns the members of managerID, from cache when available.
func (c *Client) GetMembers(ctx context.Context, managerID model.ID) ([]model.Member, error) {
	members, ok := c.members.Get(membersKey(managerID))
	c.metrics.ObserveCache(ok)
	if ok {
		c.logger.DebugContext(ctx, "members served from cache", "manager_id", managerID.String())
		return members, nil
	}
	return c.RefetchMembers(ctx, managerID)
}

// RefetchMembers bypasses the cache and replaces its entry.
func (c *Client) RefetchMembers(ctx context.Context, managerID model.ID) ([]model.Member, error) {
	var out struct {
		GetMembers []model.Member `json:"getmembers"`
	}
	err := c.exec(ctx, OpGetMembers, getMembersDocument, map[string]any{
		"id": managerID.String(),
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.GetMembers == nil {
		out.GetMembers = []model.Member{}
	}

	c.members.Add(membersKey(managerID), out.GetMembers)
	return out.GetMembers, nil
}

func membersKey(managerID model.ID) string {
	return OpGetMembers + ":" + managerID.String()
}

func (c *Client) exec(ctx context.Context, op, document string, vars map[string]any, target any) (err error) {
	ctx, span := c.tracer.Start(ctx, "graphql "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			telemetry.AttrTransport.String(metrics.TransportGraphQL),
			telemetry.AttrOperation.String(op),
		))
	ctx, st := withCallState(ctx)
	start := time.Now()
	defer func() {
		if st.status != 0 {
			span.SetAttributes(telemetry.AttrHTTPStatus.Int(st.status))
		}
		telemetry.RecordError(span, err)
		span.End()
		c.metrics.ObserveRequest(metrics.TransportGraphQL, op, time.Since(start), err)
	}()

	data, err := c.gql.ExecRaw(ctx, document, vars)

	logger := c.logger.With("operation", op, "duration", time.Since(start))
	if err != nil {
		classified := c.classify(ctx, op, st, err)
		logger.WithError(classified).DebugContext(ctx, "graphql operation failed")
		return classified
	}
	logger.DebugContext(ctx, "graphql operation completed")

	if len(data) == 0 || string(data) == "null" {
		return emptyResult(op)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrap(errors.ErrCodeGraphQLDecode,
			fmt.Sprintf("failed to decode %s response", op), err)
	}
	return nil
}

func (c *Client) classify(ctx context.Context, op string, st *callState, err error) error {
	switch {
	case stderrors.Is(ctx.Err(), context.Canceled):
		return errors.Wrap(errors.ErrCodeNetworkCanceled,
			fmt.Sprintf("%s canceled", op), context.Canceled)

	case st.transportErr != nil:
		if isTimeout(st.transportErr) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.Wrap(errors.ErrCodeNetworkTimeout,
				fmt.Sprintf("%s timed out", op), st.transportErr).
				WithSuggestion("Raise http.timeout in the configuration file")
		}
		return errors.NewNetworkError(c.endpoint, st.transportErr)

	case st.linkErr != nil:
		// The request never left the link chain, e.g. the store was unreadable.
		if oe, ok := errors.As(st.linkErr); ok {
			return oe
		}
		return errors.Wrap(errors.ErrCodeStoreRead, "failed to read credential store", st.linkErr)

	case st.status == 0:
		return errors.NewGraphQLError(op, err)

	case st.status < 200 || st.status > 299:
		return errors.NewGraphQLError(op, fmt.Errorf("endpoint returned status %d", st.status))
	}

	var gqlErrs graphql.Errors
	if stderrors.As(err, &gqlErrs) && len(gqlErrs) > 0 {
		return errors.NewGraphQLError(op, fmt.Errorf("%s", joinMessages(gqlErrs)))
	}
	return errors.Wrap(errors.ErrCodeGraphQLDecode,
		fmt.Sprintf("failed to read %s response", op), err)
}

func isTimeout(err error) bool {
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

func joinMessages(errs graphql.Errors) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func emptyResult(op string) error {
	return errors.New(errors.ErrCodeGraphQLEmpty, fmt.Sprintf("%s returned no data", op))
}

// Messages returns the server-side messages carried by a GraphQL operation
// error, or nil.
func Messages(err error) []string {
	oe, ok := errors.As(err)
	if !ok || oe.Code != errors.ErrCodeGraphQLOperation || oe.Cause == nil {
		return nil
	}
	return strings.Split(oe.Cause.Error(), "; ")
}
