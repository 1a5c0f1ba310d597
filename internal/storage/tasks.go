package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// createdAtLayout is fixed-width so that text order in SQLite matches time order.
const createdAtLayout = "2006-01-02 15:04:05.000"

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTaskNotFound  = errors.New("task not found")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Task struct {
	ID        int64
	Title     string
	Completed bool
	CreatedAt time.Time
}

type newTask struct {
	Title string `validate:"required"`
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Tasks struct {
	q   Querier
	now func() time.Time
}

type Option func(*Tasks)

func WithClock(now func() time.Time) Option {
	return func(t *Tasks) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTasks(q Querier, opts ...Option) *Tasks {
	t := &Tasks{q: q, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

const selectTask = `SELECT id, title, completed, created_at FROM tasks`

func (t *Tasks) List(ctx context.Context) ([]Task, error) {
	rows, err := t.q.QueryContext(ctx, selectTask+` ORDER BY created_at DESC, id DESC;`)
	if err != nil {
		return nil, fmt.Errorf("%w: list tasks: %w", ErrStorage, err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iter tasks: %w", ErrStorage, err)
	}
	return tasks, nil
}

func (t *Tasks) Get(ctx context.Context, id int64) (Task, error) {
	task, err := scanTask(t.q.QueryRowContext(ctx, selectTask+` WHERE id = ?;`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrTaskNotFound
	}
	return task, err
}

// Create stores a new open task and returns the row as persisted.
func (t *Tasks) Create(ctx context.Context, title string) (Task, error) {
	in := newTask{Title: strings.TrimSpace(title)}
	if err := validate.Struct(in); err != nil {
		return Task{}, fmt.Errorf("%w: %w", ErrTitleRequired, err)
	}
	now := t.now().UTC().Format(createdAtLayout)
	res, err := t.q.ExecContext(ctx, `INSERT INTO tasks (title, completed, created_at) VALUES (?, 0, ?);`, in.Title, now)
	if err != nil {
		return Task{}, fmt.Errorf("%w: insert task: %w", ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Task{}, fmt.Errorf("%w: last insert id: %w", ErrStorage, err)
	}
	return t.Get(ctx, id)
}

// Toggle flips the completed flag and returns the updated row.
func (t *Tasks) Toggle(ctx context.Context, id int64) (Task, error) {
	res, err := t.q.ExecContext(ctx, `UPDATE tasks SET completed = 1 - completed WHERE id = ?;`, id)
	if err != nil {
		return Task{}, fmt.Errorf("%w: toggle task: %w", ErrStorage, err)
	}
	if err := requireAffected(res, "toggle task"); err != nil {
		return Task{}, err
	}
	return t.Get(ctx, id)
}

func (t *Tasks) Delete(ctx context.Context, id int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("%w: delete task: %w", ErrStorage, err)
	}
	return requireAffected(res, "delete task")
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected (%s): %w", ErrStorage, op, err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (Task, error) {
	var task Task
	var completed int
	var createdStr string
	if err := row.Scan(&task.ID, &task.Title, &completed, &createdStr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, err
		}
		return Task{}, fmt.Errorf("%w: scan task: %w", ErrStorage, err)
	}
	task.Completed = completed != 0
	created, err := parseCreatedAt(createdStr)
	if err != nil {
		return Task{}, fmt.Errorf("%w: task %d created_at: %w", ErrStorage, task.ID, err)
	}
	task.CreatedAt = created
	return task, nil
}

// parseCreatedAt accepts the stored layout (fractional seconds optional) and
// RFC3339 for rows written by hand.
func parseCreatedAt(s string) (time.Time, error) {
	if ts, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, s)
}
