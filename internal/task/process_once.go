package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scheduled-tasks/internal/model"
)

var ErrNoHandler = errors.New("no handler for task type")

type WorkerDeps struct {
	Repo     Repository
	Handlers Handlers
	Logger   *slog.Logger
	Now      func() time.Time
}

// ProcessOnce claims at most one ready task and dispatches it without
// waiting for its handler. It returns ErrNoWork when nothing is ready, and
// the store error when the claim attempt itself failed.
func (w *Worker) ProcessOnce(ctx context.Context) (model.WorkerTask, error) {
	t, ok, err := w.deps.Repo.ClaimNextTask(ctx)
	if err != nil {
		return model.WorkerTask{}, fmt.Errorf("claim next task: %w", err)
	}
	if !ok {
		return model.WorkerTask{}, ErrNoWork
	}

	w.dispatch(ctx, t)
	return t, nil
}

func (w *Worker) dispatch(ctx context.Context, t model.WorkerTask) {
	// handlers outlive the polling loop; shutdown waits for them instead
	hctx := context.WithoutCancel(ctx)

	w.inflight.Start(t, w.deps.Now())
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()

		w.deps.Logger.Info("starting task", "task_id", t.ID.String(), "type", t.Type)
		err := w.execute(hctx, t)
		res := w.inflight.Finish(t.ID, err, w.deps.Now())

		if err != nil {
			// the task stays claimed; see InFlight.Failures
			w.deps.Logger.Error("task failed",
				"task_id", t.ID.String(),
				"type", t.Type,
				"dur", res.FinishedAt.Sub(res.StartedAt),
				"error", err,
			)
			return
		}
		w.deps.Logger.Info("completed task", "task_id", t.ID.String(), "dur", res.FinishedAt.Sub(res.StartedAt))
	}()
}

func (w *Worker) execute(ctx context.Context, t model.WorkerTask) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()

	h, ok := w.deps.Handlers[t.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoHandler, t.Type)
	}
	if err := h.Handle(ctx, t); err != nil {
		return fmt.Errorf("handle %s: %w", t.Type, err)
	}
	if err := w.deps.Repo.CompleteTask(ctx, t.ID); err != nil {
		return fmt.Errorf("could not mark task completed: %w", err)
	}
	return nil
}
