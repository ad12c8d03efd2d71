package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/oneway/internal/session"
	"github.com/felixgeelhaar/oneway/internal/version"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type linkFunc func(*http.Request) (*http.Response, error)

func (f linkFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

type ctxKey int

const (
	headerOverrideKey ctxKey = iota
	callStateKey
)

// WithAuthorization overrides the Authorization header for calls made with
// ctx. The stored token is not consulted.
func WithAuthorization(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, headerOverrideKey, value)
}

func authorizationOverride(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(headerOverrideKey).(string)
	return v, ok
}

// callState records what the HTTP link saw, so errors can be classified
// without depending on how the GraphQL library wraps them.
type callState struct {
	status       int
	transportErr error
	linkErr      error
}

func withCallState(ctx context.Context) (context.Context, *callState) {
	st := &callState{}
	return context.WithValue(ctx, callStateKey, st), st
}

func stateFrom(ctx context.Context) *callState {
	st, _ := ctx.Value(callStateKey).(*callState)
	return st
}

// authLink sets Authorization from the session on every request. An absent
// token produces an empty header value.
func authLink(sess *session.Session, next http.RoundTripper) http.RoundTripper {
	return linkFunc(func(req *http.Request) (*http.Response, error) {
		ctx := req.Context()

		value, ok := authorizationOverride(ctx)
		if !ok {
			var err error
			value, err = sess.AuthorizationHeader(ctx)
			if err != nil {
				if st := stateFrom(ctx); st != nil {
					st.linkErr = err
				}
				return nil, err
			}
		}

		req = req.Clone(ctx)
		req.Header.Set("Authorization", value)
		return next.RoundTrip(req)
	})
}

// requestIDLink tags the request with a correlation id and the build's
// User-Agent.
func requestIDLink(next http.RoundTripper) http.RoundTripper {
	userAgent := version.GetInfo().UserAgent()
	return linkFunc(func(req *http.Request) (*http.Response, error) {
		req = req.Clone(req.Context())
		if req.Header.Get(RequestIDHeader) == "" {
			req.Header.Set(RequestIDHeader, uuid.NewString())
		}
		req.Header.Set("User-Agent", userAgent)
		return next.RoundTrip(req)
	})
}

// refreshLink hands every response to the session's refresh policy.
func refreshLink(sess *session.Session, next http.RoundTripper) http.RoundTripper {
	return linkFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := next.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		_ = sess.Observe(req.Context(), resp)
		return resp, nil
	})
}

func httpLink(next http.RoundTripper) http.RoundTripper {
	return linkFunc(func(req *http.Request) (*http.Response, error) {
		resp, err := next.RoundTrip(req)
		if st := stateFrom(req.Context()); st != nil {
			if err != nil {
				st.transportErr = err
			} else {
				st.status = resp.StatusCode
			}
		}
		return resp, err
	})
}

// chain builds auth -> request-id -> refresh -> http.
func chain(sess *session.Session, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return authLink(sess, requestIDLink(refreshLink(sess, httpLink(base))))
}
