package model

import "time"

type Status string

// The labels are part of the public contract. WaitingToStart means the task
// is ready and unclaimed; WaitingToComplete means start_at is still ahead.
const (
	StatusWaitingToStart    Status = "waiting_to_start"
	StatusWaitingToComplete Status = "waiting_to_complete"
	StatusCompleted         Status = "completed"
)

// DeriveStatus computes a task's status as of now. The comparison with
// startAt is strict: a task whose start_at equals now is not yet ready.
func DeriveStatus(startAt time.Time, completedAt *time.Time, now time.Time) Status {
	switch {
	case completedAt != nil:
		return StatusCompleted
	case startAt.Before(now):
		return StatusWaitingToStart
	default:
		return StatusWaitingToComplete
	}
}
