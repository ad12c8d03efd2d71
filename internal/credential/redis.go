package credential

import (
	"context"
	stderrors "errors"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

// RedisStore keeps the token in a single Redis key so that several terminals
// can share one session.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore creates a store using client. The token lives at prefix+Key.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + Key}
}

// KeyName returns the Redis key holding the token.
func (r *RedisStore) KeyName() string {
	return r.key
}

func (r *RedisStore) Get(ctx context.Context) (string, bool, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(errors.ErrCodeStoreRead, "failed to read token from redis", err)
	}
	return token, token != "", nil
}

func (r *RedisStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return errEmptyToken()
	}
	if err := r.client.Set(ctx, r.key, token, 0).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to write token to redis", err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to delete token from redis", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
