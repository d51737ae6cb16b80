package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfer-state/transfer-state/codec"
)

func TestMemoryStorePutGet(t *testing.T) {
	store, err := NewMemoryStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	err = store.Put(ctx, &Session{Token: "abc123", UserID: "u1", Name: "Anna"}, time.Hour)
	require.NoError(t, err)

	s, err := store.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "Anna", s.Name)
}

func TestMemoryStoreUnknownToken(t *testing.T) {
	store, err := NewMemoryStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, err = store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store, err := NewMemoryStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &Session{Token: "short", UserID: "u1"}, time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store, err := NewMemoryStore(time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &Session{Token: "abc", UserID: "u1"}, time.Hour))
	require.NoError(t, store.Delete(ctx, "abc"))

	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing token is not an error
	assert.NoError(t, store.Delete(ctx, "abc"))
}

func TestMemoryStoreMsgpackCodec(t *testing.T) {
	store, err := NewMemoryStore(time.Hour, WithCodec(codec.Msgpack[Session]{}))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &Session{Token: "mp", UserID: "u2", Name: "Bo"}, time.Hour))

	s, err := store.Get(ctx, "mp")
	require.NoError(t, err)
	assert.Equal(t, "Bo", s.Name)
}

func TestSQLiteStorePutGet(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir() + "/sessions.db")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &Session{Token: "abc123", UserID: "u1", Name: "Anna"}, time.Hour))

	s, err := store.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreExpiry(t *testing.T) {
	store, err := NewSQLiteStore("file::memory:?cache=shared", WithCodec(codec.CBOR[Session]{}))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &Session{Token: "short", UserID: "u1"}, -time.Second))

	_, err = store.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStoreOverwrite(t *testing.T) {
	store, err := NewSQLiteStore(t.TempDir() + "/sessions.db")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, &Session{Token: "abc", UserID: "u1", Name: "Old"}, time.Hour))
	require.NoError(t, store.Put(ctx, &Session{Token: "abc", UserID: "u1", Name: "New"}, time.Hour))

	s, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "New", s.Name)
}
