package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"tasklist/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

var ErrStorage = errors.New("storage failure")

type Store struct {
	db   *sql.DB
	path string
}

// Open opens the database at dbPath, creating the file and its directory when
// missing, and brings the schema up to date.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: db path is empty", ErrStorage)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: create db dir: %w", ErrStorage, err)
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorage, dbPath, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: dbPath}
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string { return s.path }

// Tasks returns a repository bound to the connection pool rather than to a
// request session.
func (s *Store) Tasks(opts ...Option) *Tasks {
	return NewTasks(s.db, opts...)
}

// InitSchema applies the embedded migrations. Already-applied migrations are
// skipped, so calling it repeatedly is safe. If the tasks table has gone
// missing while goose still records it as applied, the recorded versions are
// rolled back first so the table is created again.
func (s *Store) InitSchema(ctx context.Context) error {
	gooseMu.Lock()
	defer func() {
		goose.SetBaseFS(nil)
		goose.SetLogger(goose.NopLogger())
		gooseMu.Unlock()
	}()
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: logger.FromContext(ctx)})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("%w: set goose dialect: %w", ErrStorage, err)
	}

	exists, err := s.tableExists(ctx, "tasks")
	if err != nil {
		return err
	}
	if !exists {
		version, err := goose.GetDBVersionContext(ctx, s.db)
		if err != nil {
			return fmt.Errorf("%w: read schema version: %w", ErrStorage, err)
		}
		if version > 0 {
			logger.FromContext(ctx).Warn("tasks table missing, resetting schema", "version", version)
			if err := goose.ResetContext(ctx, s.db, "migrations"); err != nil {
				return fmt.Errorf("%w: reset migrations: %w", ErrStorage, err)
			}
		}
	}

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("%w: apply migrations: %w", ErrStorage, err)
	}
	return nil
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?;`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: check table %s: %w", ErrStorage, name, err)
	}
	return n > 0, nil
}

type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrations")
}

// Fatalf panics rather than exiting the process.
func (g gooseLogger) Fatalf(format string, v ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	g.log.Error(msg, "component", "migrations")
	panic(fmt.Sprintf("migrations: %s", msg))
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	u.RawQuery = q.Encode()
	return u.String()
}
