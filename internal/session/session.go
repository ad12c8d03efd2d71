// Package session is the explicit session context handed to every call that
// talks to the backend. It owns the credential store and the refresh policy so
// that nothing reads or rotates the token behind the caller's back.
package session

import (
	"context"
	"net/http"

	"github.com/felixgeelhaar/oneway/internal/credential"
	"github.com/felixgeelhaar/oneway/internal/log"
	"github.com/felixgeelhaar/oneway/internal/metrics"
)

// Session couples a credential store with the policy that rotates it.
type Session struct {
	store   credential.Store
	refresh RefreshPolicy
	logger  *log.Logger
	metrics *metrics.Metrics
}

// Option configures a Session.
type Option func(*Session)

// WithRefreshPolicy overrides the default HeaderRotation policy.
func WithRefreshPolicy(p RefreshPolicy) Option {
	return func(s *Session) {
		s.refresh = p
	}
}

// WithLogger sets the logger used for session events.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithMetrics counts token rotations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// New creates a Session over store. Rotation defaults to HeaderRotation on the
// Authorization response header.
func New(store credential.Store, opts ...Option) *Session {
	s := &Session{
		store:   store,
		refresh: HeaderRotation{},
		logger:  log.DefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying credential store.
func (s *Session) Store() credential.Store {
	return s.store
}

// Token returns the current token, if any.
func (s *Session) Token(ctx context.Context) (string, bool, error) {
	return s.store.Get(ctx)
}

// Authenticated reports whether a token is present. Presence is the only
// client-side signal; a store read error counts as unauthenticated.
func (s *Session) Authenticated(ctx context.Context) bool {
	_, ok, err := s.store.Get(ctx)
	if err != nil {
		s.logger.WithError(err).WarnContext(ctx, "credential store unreadable")
		return false
	}
	return ok
}

// AuthorizationHeader returns "Bearer <token>", or "" when no token is stored.
func (s *Session) AuthorizationHeader(ctx context.Context) (string, error) {
	token, ok, err := s.store.Get(ctx)
	if err != nil {
		return "", err
	}
	return BearerValue(token, ok), nil
}

// Begin stores the token issued by login, signup or invitation acceptance.
func (s *Session) Begin(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, token); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "session started")
	return nil
}

// End forgets the token.
func (s *Session) End(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "session ended")
	return nil
}

// Observe runs the refresh policy against a response to a request that was
// authenticated with this session's token.
func (s *Session) Observe(ctx context.Context, resp *http.Response) error {
	rotated, err := s.refresh.Apply(ctx, s.store, resp)
	if err != nil {
		s.logger.WithError(err).WarnContext(ctx, "token rotation failed")
		return err
	}
	if rotated {
		path := ""
		if resp.Request != nil && resp.Request.URL != nil {
			path = resp.Request.URL.Path
		}
		s.metrics.ObserveRotation()
		s.logger.InfoContext(ctx, "token rotated by server", "path", path)
	}
	return nil
}

// BearerValue formats an Authorization header value. Absent tokens produce
// the empty string, which servers treat as unauthenticated.
func BearerValue(token string, ok bool) string {
	if !ok || token == "" {
		return ""
	}
	return "Bearer " + token
}
