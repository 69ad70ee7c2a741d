package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// KV is a Redis-backed implementation of app.KVStore. The session slot and
// history log are opaque blobs here; the store never inspects their content.
type KV struct {
	client *goredis.Client
	ttl    time.Duration
	prefix string
}

// NewKV wraps a Redis client. A non-zero ttl expires the stored keys so an
// abandoned session eventually disappears on its own; the prefix namespaces
// keys when several deployments share one Redis.
func NewKV(client *goredis.Client, ttl time.Duration, prefix string) *KV {
	return &KV{client: client, ttl: ttl, prefix: prefix}
}

func (s *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *KV) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

func (s *KV) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
