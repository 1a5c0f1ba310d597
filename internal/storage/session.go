package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var errSessionClosed = errors.New("session closed")

// Session is a request-scoped handle on the store. The underlying connection
// is taken from the pool on first use and handed back by Close.
type Session struct {
	store  *Store
	conn   *sql.Conn
	closed bool
}

func (s *Store) Session() *Session {
	return &Session{store: s}
}

func (s *Session) Conn(ctx context.Context) (*sql.Conn, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: %w", ErrStorage, errSessionClosed)
	}
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := s.store.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire connection: %w", ErrStorage, err)
	}
	s.conn = conn
	return conn, nil
}

// Tasks returns a repository running on the session's connection.
func (s *Session) Tasks(ctx context.Context, opts ...Option) (*Tasks, error) {
	conn, err := s.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return NewTasks(conn, opts...), nil
}

// Opened reports whether a connection has been acquired.
func (s *Session) Opened() bool { return s.conn != nil }

// Close releases the connection, if one was acquired. It is safe to call more
// than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}
