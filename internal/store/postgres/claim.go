package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"scheduled-tasks/internal/model"
)

// ClaimNextTask atomically claims ONE ready task by stamping worker_assigned_at.
// Returns (task, true, nil) if claimed; (zero, false, nil) if none is ready.
// Any failure, including on commit, is returned as an error.
//
// The row lock taken by FOR UPDATE keeps concurrent claimers off the selected
// row until commit; SKIP LOCKED lets them move on to other ready rows.
func (r *TaskRepo) ClaimNextTask(ctx context.Context) (model.WorkerTask, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.WorkerTask{}, false, fmt.Errorf("begin claim: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.now()

	const selectQ = `
SELECT id, type
FROM tasks
WHERE start_at < $1
  AND completed_at IS NULL
  AND worker_assigned_at IS NULL
ORDER BY start_at, created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;
`
	var t model.WorkerTask
	err = tx.QueryRowContext(ctx, selectQ, now).Scan(&t.ID, &t.Type)
	if errors.Is(err, sql.ErrNoRows) {
		if err := tx.Commit(); err != nil {
			return model.WorkerTask{}, false, fmt.Errorf("commit empty claim: %w", err)
		}
		return model.WorkerTask{}, false, nil
	}
	if err != nil {
		return model.WorkerTask{}, false, fmt.Errorf("select ready task: %w", err)
	}

	const updateQ = `UPDATE tasks SET worker_assigned_at = $2 WHERE id = $1;`
	if _, err := tx.ExecContext(ctx, updateQ, t.ID, now); err != nil {
		return model.WorkerTask{}, false, fmt.Errorf("assign task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.WorkerTask{}, false, fmt.Errorf("commit claim: %w", err)
	}
	return t, true, nil
}
