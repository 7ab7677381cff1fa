package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"scheduled-tasks/internal/model"
)

// Repository is the only gateway to the tasks table.
// ShowTask and ClaimNextTask report absence with ok=false, never with an error.
type Repository interface {
	CreateTask(ctx context.Context, taskType string, startAt time.Time) (uuid.UUID, error)
	ShowTask(ctx context.Context, id uuid.UUID) (model.Task, bool, error)
	ClaimNextTask(ctx context.Context) (model.WorkerTask, bool, error)
	CompleteTask(ctx context.Context, id uuid.UUID) error
}
