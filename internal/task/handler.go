package task

import (
	"context"

	"scheduled-tasks/internal/model"
)

// Handler executes one claimed task. A nil error means the task is complete.
type Handler interface {
	Handle(ctx context.Context, t model.WorkerTask) error
}

type HandlerFunc func(ctx context.Context, t model.WorkerTask) error

func (f HandlerFunc) Handle(ctx context.Context, t model.WorkerTask) error {
	return f(ctx, t)
}

// Handlers maps a task type to its handler.
type Handlers map[string]Handler
