package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/transfer-state/transfer-state/codec"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in redis, for deployments with more than one
// rendering instance. Expiry is delegated to redis key TTLs.
type RedisStore struct {
	client *redis.Client
	codec  codec.Codec[Session]
}

func NewRedisStore(client *redis.Client, opts ...Option) *RedisStore {
	return &RedisStore{
		client: client,
		codec:  applyOptions(opts).codec,
	}
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s, err := r.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if s.expired() {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *Session, ttl time.Duration) error {
	if ttl > 0 {
		s.Expires = time.Now().Add(ttl)
	}
	data, err := r.codec.Encode(*s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+s.Token, data, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, token string) error {
	return r.client.Del(ctx, redisKeyPrefix+token).Err()
}
