package credential

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

// Backend names accepted by Open.
const (
	BackendFile          = "file"
	BackendEncryptedFile = "encrypted-file"
	BackendRedis         = "redis"
	BackendMemory        = "memory"
)

// Backends lists every supported backend name.
var Backends = []string{BackendFile, BackendEncryptedFile, BackendRedis, BackendMemory}

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Path       string
	Passphrase string
	Redis      RedisOptions
}

// DefaultPath returns ~/.oneway/credentials.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".oneway", "credentials.json"), nil
}

// Open builds the Store described by opts.
func Open(opts Options) (Store, error) {
	path := opts.Path
	if path == "" && (opts.Backend == "" || opts.Backend == BackendFile || opts.Backend == BackendEncryptedFile) {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "cannot resolve credential path", err)
		}
		path = p
	}

	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendEncryptedFile:
		return NewEncryptedFileStore(path, opts.Passphrase)
	case BackendRedis:
		if opts.Redis.Addr == "" {
			return nil, errors.NewConfigInvalidError("store.redis.addr is required for the redis backend")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     opts.Redis.Addr,
			Password: opts.Redis.Password,
			DB:       opts.Redis.DB,
		})
		return NewRedisStore(client, opts.Redis.Prefix), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, errors.NewConfigInvalidError(fmt.Sprintf("unknown store backend %q", opts.Backend)).
			WithSuggestion(fmt.Sprintf("Use one of: %v", Backends))
	}
}
