package task

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"scheduled-tasks/internal/model"
)

const maxRecordedFailures = 100

// Result is the outcome of one dispatched task.
type Result struct {
	Task       model.WorkerTask
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// Entry tracks a dispatched task until its handler returns.
type Entry struct {
	Task      model.WorkerTask
	StartedAt time.Time
	done      chan Result
}

// Done delivers the task's Result once, then is closed.
func (e *Entry) Done() <-chan Result { return e.done }

// InFlight is the registry of tasks this worker instance has dispatched and
// not yet finished, plus the most recent failures.
type InFlight struct {
	mu       sync.Mutex
	running  map[uuid.UUID]*Entry
	failures []Result
}

func NewInFlight() *InFlight {
	return &InFlight{running: make(map[uuid.UUID]*Entry)}
}

func (r *InFlight) Start(t model.WorkerTask, now time.Time) *Entry {
	e := &Entry{Task: t, StartedAt: now, done: make(chan Result, 1)}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.running[t.ID] = e
	return e
}

// Finish removes the task from the registry and publishes its Result.
// Finishing an unknown ID returns a Result with a zero StartedAt.
func (r *InFlight) Finish(id uuid.UUID, err error, now time.Time) Result {
	r.mu.Lock()
	e, ok := r.running[id]
	delete(r.running, id)

	res := Result{Task: model.WorkerTask{ID: id}, FinishedAt: now, Err: err}
	if ok {
		res.Task = e.Task
		res.StartedAt = e.StartedAt
	}
	if err != nil {
		r.failures = append(r.failures, res)
		if len(r.failures) > maxRecordedFailures {
			r.failures = r.failures[len(r.failures)-maxRecordedFailures:]
		}
	}
	r.mu.Unlock()

	if ok {
		e.done <- res
		close(e.done)
	}
	return res
}

func (r *InFlight) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.running)
}

func (r *InFlight) Get(id uuid.UUID) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.running[id]
	return e, ok
}

// Running returns a snapshot of the dispatched, unfinished tasks.
func (r *InFlight) Running() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.running))
	for _, e := range r.running {
		out = append(out, Entry{Task: e.Task, StartedAt: e.StartedAt})
	}
	return out
}

// Stuck returns the running tasks started more than after before now.
func (r *InFlight) Stuck(now time.Time, after time.Duration) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Entry
	for _, e := range r.running {
		if now.Sub(e.StartedAt) > after {
			out = append(out, Entry{Task: e.Task, StartedAt: e.StartedAt})
		}
	}
	return out
}

// Failures returns the most recent failed results, oldest first.
func (r *InFlight) Failures() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Result, len(r.failures))
	copy(out, r.failures)
	return out
}
