// Package session resolves forwarded session credentials to their sessions,
// so the server render can show signed-in state without an extra client
// fetch. Stores keep opaque encoded session records and track expiry;
// encoding is pluggable via the codec package.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/transfer-state/transfer-state/codec"
)

// ErrNotFound is returned when no live session exists for a token.
// An expired session is indistinguishable from a missing one.
var ErrNotFound = errors.New("session not found")

// Session is the resolved identity behind a session token.
type Session struct {
	Token   string    `json:"token" msgpack:"token" cbor:"token"`
	UserID  string    `json:"user_id" msgpack:"user_id" cbor:"user_id"`
	Name    string    `json:"name" msgpack:"name" cbor:"name"`
	Expires time.Time `json:"expires" msgpack:"expires" cbor:"expires"`
}

// expired reports whether the session is past its expiry.
// A zero Expires means no expiry.
func (s *Session) expired() bool {
	return !s.Expires.IsZero() && time.Now().After(s.Expires)
}

// Store is a session store. Implementations must be safe for concurrent use,
// since sessions are resolved on every incoming document request.
type Store interface {
	// Get returns the live session for the given token.
	// It returns ErrNotFound for unknown and expired tokens.
	Get(ctx context.Context, token string) (*Session, error)
	// Put stores the session under its token and expires it after ttl.
	Put(ctx context.Context, s *Session, ttl time.Duration) error
	// Delete removes the session for the given token, if any.
	Delete(ctx context.Context, token string) error
}

type options struct {
	codec codec.Codec[Session]
}

// Option configures a store.
type Option func(*options)

// WithCodec sets the codec used to serialize session records.
// The default is codec.JSON.
func WithCodec(c codec.Codec[Session]) Option {
	return func(o *options) {
		o.codec = c
	}
}

func applyOptions(opts []Option) options {
	o := options{codec: codec.JSON[Session]{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
