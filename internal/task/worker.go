package task

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

type WorkerConfig struct {
	PollInterval time.Duration // sleep when no work (e.g. 1s)
	MaxInFlight  int           // 0 means unbounded
	StuckAfter   time.Duration // report handlers running longer than this
	ErrorBackoff BackoffConfig
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: 1 * time.Second,
		StuckAfter:   5 * time.Minute,
		ErrorBackoff: DefaultBackoff(),
	}
}

type Worker struct {
	deps     WorkerDeps
	cfg      WorkerConfig
	inflight *InFlight
	wg       sync.WaitGroup

	// only touched by the polling goroutine
	rng      *rand.Rand
	reported map[uuid.UUID]struct{}
}

func NewWorker(deps WorkerDeps, cfg WorkerConfig) *Worker {
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1 * time.Second
	}
	if cfg.StuckAfter <= 0 {
		cfg.StuckAfter = 5 * time.Minute
	}

	return &Worker{
		deps:     deps,
		cfg:      cfg,
		inflight: NewInFlight(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		reported: make(map[uuid.UUID]struct{}),
	}
}

// InFlight exposes the registry of dispatched tasks.
func (w *Worker) InFlight() *InFlight { return w.inflight }

// Run polls until ctx is cancelled. It does not wait for dispatched
// handlers; call Shutdown for that.
func (w *Worker) Run(ctx context.Context) {
	w.run(ctx, -1)
}

// RunIterations polls at most n times, or until ctx is cancelled.
func (w *Worker) RunIterations(ctx context.Context, n int) {
	w.run(ctx, n)
}

func (w *Worker) run(ctx context.Context, iterations int) {
	w.deps.Logger.Info("worker started",
		"poll_interval", w.cfg.PollInterval,
		"max_in_flight", w.cfg.MaxInFlight,
	)

	failures := 0
	for i := 0; iterations < 0 || i < iterations; i++ {
		if ctx.Err() != nil {
			break
		}

		delay := w.step(ctx, &failures)
		w.reportStuck()

		if delay <= 0 || (iterations >= 0 && i == iterations-1) {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
	}

	w.deps.Logger.Info("worker stopping", "in_flight", w.inflight.Len(), "reason", context.Cause(ctx))
}

// step performs one poll and returns how long to wait before the next one.
func (w *Worker) step(ctx context.Context, failures *int) time.Duration {
	if w.cfg.MaxInFlight > 0 && w.inflight.Len() >= w.cfg.MaxInFlight {
		return w.cfg.PollInterval
	}

	_, err := w.ProcessOnce(ctx)
	switch {
	case err == nil:
		*failures = 0
		return 0
	case errors.Is(err, ErrNoWork):
		*failures = 0
		return w.cfg.PollInterval
	case ctx.Err() != nil:
		return 0
	default:
		*failures++
		delay := PollBackoff(*failures, w.cfg.ErrorBackoff, w.rng)
		w.deps.Logger.Error("poll failed", "error", err, "failures", *failures, "retry_in", delay)
		return delay
	}
}

func (w *Worker) reportStuck() {
	stuck := w.inflight.Stuck(w.deps.Now(), w.cfg.StuckAfter)

	current := make(map[uuid.UUID]struct{}, len(stuck))
	for _, e := range stuck {
		current[e.Task.ID] = struct{}{}
		if _, seen := w.reported[e.Task.ID]; seen {
			continue
		}
		w.deps.Logger.Warn("task running longer than expected",
			"task_id", e.Task.ID.String(),
			"type", e.Task.Type,
			"started_at", e.StartedAt,
		)
	}
	w.reported = current
}

// Shutdown waits for dispatched handlers to return, or for ctx to end.
func (w *Worker) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		for _, e := range w.inflight.Running() {
			w.deps.Logger.Warn("abandoning in-flight task", "task_id", e.Task.ID.String(), "type", e.Task.Type)
		}
		return ctx.Err()
	}
}
