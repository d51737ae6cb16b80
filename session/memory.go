package session

import (
	"context"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/transfer-state/transfer-state/codec"
)

// MemoryStore is an in-process store backed by bigcache. Suitable for single
// instance deployments and tests.
type MemoryStore struct {
	cache *bigcache.BigCache
	codec codec.Codec[Session]
}

// NewMemoryStore creates an in-memory store. lifeWindow is the backing
// cache's retention; per-session expiry is tracked on the record itself and
// checked on Get, so a shorter Put ttl still takes effect.
func NewMemoryStore(lifeWindow time.Duration, opts ...Option) (*MemoryStore, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(lifeWindow))
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		cache: cache,
		codec: applyOptions(opts).codec,
	}, nil
}

func (m *MemoryStore) Get(ctx context.Context, token string) (*Session, error) {
	data, err := m.cache.Get(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s, err := m.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	if s.expired() {
		m.cache.Delete(token)
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Put(ctx context.Context, s *Session, ttl time.Duration) error {
	if ttl > 0 {
		s.Expires = time.Now().Add(ttl)
	}
	data, err := m.codec.Encode(*s)
	if err != nil {
		return err
	}
	return m.cache.Set(s.Token, data)
}

func (m *MemoryStore) Delete(ctx context.Context, token string) error {
	err := m.cache.Delete(token)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil
	}
	return err
}

// Close releases the backing cache.
func (m *MemoryStore) Close() error {
	return m.cache.Close()
}
