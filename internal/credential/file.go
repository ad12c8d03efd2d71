package credential

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

// document is the on-disk layout of the credential file.
type document struct {
	Token string `json:"token,omitempty"`
	Salt  string `json:"salt,omitempty"`
}

// sealer transforms the token on its way to and from disk.
type sealer interface {
	seal(doc *document, token string) error
	open(doc document) (string, error)
}

type plain struct{}

func (plain) seal(doc *document, token string) error {
	doc.Token = token
	return nil
}

func (plain) open(doc document) (string, error) {
	return doc.Token, nil
}

// FileStore persists the token as JSON in a single 0600 file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	sealer sealer
}

// NewFileStore creates a store backed by the file at path. The file and its
// parent directory are created on first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, sealer: plain{}}
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(ctx context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, exists, err := f.read()
	if err != nil || !exists || doc.Token == "" {
		return "", false, err
	}

	token, err := f.sealer.open(doc)
	if err != nil {
		return "", false, err
	}
	return token, token != "", nil
}

func (f *FileStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return errEmptyToken()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var doc document
	if err := f.sealer.seal(&doc, token); err != nil {
		return err
	}
	return f.write(doc)
}

func (f *FileStore) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to remove credential file", err)
	}
	return nil
}

func (f *FileStore) read() (document, bool, error) {
	var doc document

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, errors.Wrap(errors.ErrCodeStoreRead, "failed to read credential file", err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, false, errors.Wrap(errors.ErrCodeStoreRead, "credential file is corrupt", err).
			WithSuggestion("Run 'oneway logout' to reset the stored credentials")
	}
	return doc, true, nil
}

func (f *FileStore) write(doc document) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to create credential directory", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to encode credential file", err)
	}

	// Write then rename so a crash never leaves a truncated file behind.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to write credential file", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to replace credential file", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
