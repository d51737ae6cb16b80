package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/transfer-state/transfer-state/codec"
)

// SQLiteStore persists sessions in a sqlite database. Use filename
// "file::memory:?cache=shared" for an in-memory database.
type SQLiteStore struct {
	db    *sql.DB
	codec codec.Codec[Session]
}

func NewSQLiteStore(filename string, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec("CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, data BLOB, expires INTEGER)")
	if err != nil {
		return nil, err
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS sessions_expires_idx ON sessions (expires)")
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{
		db:    db,
		codec: applyOptions(opts).codec,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, token string) (*Session, error) {
	var expires int64
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT expires, data FROM sessions WHERE token = ?", token).Scan(&expires, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expires > 0 && time.Now().After(time.Unix(expires, 0)) {
		s.Delete(ctx, token)
		return nil, ErrNotFound
	}
	sess, err := s.codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sess *Session, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		sess.Expires = time.Now().Add(ttl)
		expires = sess.Expires.Unix()
	}
	data, err := s.codec.Encode(*sess)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO sessions (token, data, expires) VALUES (?, ?, ?)",
		sess.Token, data, expires)
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
