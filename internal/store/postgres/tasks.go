package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scheduled-tasks/internal/model"
)

type TaskRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewTaskRepo returns a repository over db. now defaults to the UTC wall clock.
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
INSERT INTO tasks (type, start_at)
VALUES ($1, $2)
RETURNING id;
`
	var id uuid.UUID
	if err := r.db.QueryRowContext(ctx, q, taskType, startAt).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

func (r *TaskRepo) ShowTask(ctx context.Context, id uuid.UUID) (model.Task, bool, error) {
	const q = `
SELECT id, created_at, type, start_at, worker_assigned_at, completed_at
FROM tasks
WHERE id = $1;
`
	var (
		t           model.Task
		assignedAt  sql.NullTime
		completedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID,
		&t.CreatedAt,
		&t.Type,
		&t.StartAt,
		&assignedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, false, nil
		}
		return model.Task{}, false, fmt.Errorf("select task: %w", err)
	}

	t.CreatedAt = t.CreatedAt.UTC()
	t.StartAt = t.StartAt.UTC()
	t.WorkerAssignedAt = utcPtr(assignedAt)
	t.CompletedAt = utcPtr(completedAt)
	t.Status = model.DeriveStatus(t.StartAt, t.CompletedAt, r.now())
	return t, true, nil
}

// CompleteTask stamps completed_at unconditionally. A second call overwrites
// the first timestamp, and an unknown id is not an error.
func (r *TaskRepo) CompleteTask(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE tasks SET completed_at = $2 WHERE id = $1;`
	if _, err := r.db.ExecContext(ctx, q, id, r.now()); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// Ping is used by readiness checks.
func (r *TaskRepo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

func utcPtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
