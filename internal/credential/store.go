// Package credential holds the single bearer token the client trusts.
//
// A Store is a string cell: there is no expiry, no metadata, and at most one
// token at a time. Whether the token is still valid is only ever discovered by
// sending it to the server.
package credential

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

// Key is the name under which the token is persisted by every backend.
const Key = "token"

// Store persists the current session token.
//
// Get reports ok=false when no token is present. Clear on an empty store is
// not an error. Set rejects the empty string; use Clear instead.
type Store interface {
	Get(ctx context.Context) (token string, ok bool, err error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

func errEmptyToken() error {
	return errors.New(errors.ErrCodeStoreEmptyToken, "refusing to store an empty token").
		WithSuggestion("Call Clear to remove the token")
}

// MemoryStore keeps the token in process memory only.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith creates an in-memory store holding token.
func NewMemoryStoreWith(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Get(ctx context.Context) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != "", nil
}

func (m *MemoryStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return errEmptyToken()
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
