// Package sqlite stores tasks in SQLite. Instants are kept as fixed-width
// UTC text with nanosecond precision, so comparing the strings in SQL
// orders them the same way as the instants they encode.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"scheduled-tasks/internal/model"
)

// timeLayout sorts lexically for years 0000-9999, the range
// model.NormalizeStartAt accepts.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Open opens the database at dsn and limits the pool to one connection.
// Transactions start with BEGIN IMMEDIATE unless dsn sets _txlock, so
// separate handles on one file wait on each other instead of failing with
// SQLITE_BUSY.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", withTxLock(dsn))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func withTxLock(dsn string) string {
	if strings.Contains(dsn, "_txlock=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_txlock=immediate"
	}
	return dsn + "?_txlock=immediate"
}

type TaskRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewTaskRepo(db *sql.DB, now func() time.Time) *TaskRepo {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &TaskRepo{db: db, now: now}
}

func (r *TaskRepo) CreateTask(ctx context.Context, taskType string, startAt time.Time) (uuid.UUID, error) {
	startAt, err := model.NormalizeStartAt(startAt)
	if err != nil {
		return uuid.Nil, err
	}

	const q = `
INSERT INTO tasks (id, created_at, type, start_at)
VALUES (?, ?, ?, ?);
`
	id := uuid.New()
	err = r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, q, id.String(), formatTime(r.now()), taskType, formatTime(startAt))
		return err
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

func (r *TaskRepo) ShowTask(ctx context.Context, id uuid.UUID) (model.Task, bool, error) {
	const q = `
SELECT id, created_at, type, start_at, worker_assigned_at, completed_at
FROM tasks
WHERE id = ?;
`
	var (
		t           model.Task
		rawID       string
		createdAt   string
		startAt     string
		assignedAt  sql.NullString
		completedAt sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, id.String()).Scan(
		&rawID,
		&createdAt,
		&t.Type,
		&startAt,
		&assignedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, false, nil
		}
		return model.Task{}, false, fmt.Errorf("select task: %w", err)
	}

	if t.ID, err = uuid.Parse(rawID); err != nil {
		return model.Task{}, false, fmt.Errorf("parse task id: %w", err)
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Task{}, false, err
	}
	if t.StartAt, err = parseTime(startAt); err != nil {
		return model.Task{}, false, err
	}
	if t.WorkerAssignedAt, err = parseNullTime(assignedAt); err != nil {
		return model.Task{}, false, err
	}
	if t.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return model.Task{}, false, err
	}
	t.Status = model.DeriveStatus(t.StartAt, t.CompletedAt, r.now())
	return t, true, nil
}

// ClaimNextTask claims ONE ready task with a single compare-and-set
// statement: the UPDATE only applies while worker_assigned_at is still NULL,
// so two claimers can never both stamp the same row.
func (r *TaskRepo) ClaimNextTask(ctx context.Context) (model.WorkerTask, bool, error) {
	const q = `
UPDATE tasks
SET worker_assigned_at = ?1
WHERE id = (
    SELECT id
    FROM tasks
    WHERE start_at < ?1
      AND completed_at IS NULL
      AND worker_assigned_at IS NULL
    ORDER BY start_at, created_at
    LIMIT 1
)
  AND worker_assigned_at IS NULL
RETURNING id, type;
`
	var (
		t     model.WorkerTask
		rawID string
		found bool
	)
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, q, formatTime(r.now())).Scan(&rawID, &t.Type)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		found = err == nil
		return err
	})
	if err != nil {
		return model.WorkerTask{}, false, fmt.Errorf("claim task: %w", err)
	}
	if !found {
		return model.WorkerTask{}, false, nil
	}
	if t.ID, err = uuid.Parse(rawID); err != nil {
		return model.WorkerTask{}, false, fmt.Errorf("parse task id: %w", err)
	}
	return t, true, nil
}

// CompleteTask stamps completed_at unconditionally. A second call overwrites
// the first timestamp, and an unknown id is not an error.
func (r *TaskRepo) CompleteTask(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE tasks SET completed_at = ? WHERE id = ?;`
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, q, formatTime(r.now()), id.String())
		return err
	})
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

func (r *TaskRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// inTx runs fn in a write transaction. Taking the write lock at BEGIN lets
// SQLite's busy timeout apply; an autocommit write that upgrades a read lock
// fails immediately when another connection holds the lock.
func (r *TaskRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
