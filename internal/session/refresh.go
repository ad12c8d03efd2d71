package session

import (
	"context"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/oneway/internal/credential"
)

// RefreshPolicy decides whether a response carries a replacement token and,
// if so, writes it to the store. It runs after every session-authenticated
// call.
type RefreshPolicy interface {
	Apply(ctx context.Context, store credential.Store, resp *http.Response) (rotated bool, err error)
}

// HeaderRotation takes a rotated token from a response header on successful
// responses. The header value is "<scheme> <token>"; values without a scheme
// are ignored.
type HeaderRotation struct {
	// Header defaults to Authorization.
	Header string
}

func (h HeaderRotation) header() string {
	if h.Header == "" {
		return "Authorization"
	}
	return h.Header
}

// RotatedToken extracts the token from a header value, e.g. "Bearer abc".
// The token is the second field; anything after it is ignored.
func RotatedToken(value string) (string, bool) {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return "", false
	}
	return fields[1], true
}

func (h HeaderRotation) Apply(ctx context.Context, store credential.Store, resp *http.Response) (bool, error) {
	if resp == nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, nil
	}

	next, ok := RotatedToken(resp.Header.Get(h.header()))
	if !ok {
		return false, nil
	}

	current, _, err := store.Get(ctx)
	if err != nil {
		return false, err
	}
	if current == next {
		return false, nil
	}

	if err := store.Set(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// NoRotation never rotates.
type NoRotation struct{}

func (NoRotation) Apply(context.Context, credential.Store, *http.Response) (bool, error) {
	return false, nil
}

// PolicyFunc adapts a function to RefreshPolicy.
type PolicyFunc func(ctx context.Context, store credential.Store, resp *http.Response) (bool, error)

func (f PolicyFunc) Apply(ctx context.Context, store credential.Store, resp *http.Response) (bool, error) {
	return f(ctx, store, resp)
}
