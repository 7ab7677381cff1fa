package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrStartAtNotUTC     = errors.New("start_at must be a UTC instant")
	ErrStartAtOutOfRange = errors.New("start_at must fall in years 0000 to 9999")
)

type Task struct {
	ID               uuid.UUID  `json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	Type             string     `json:"type"`
	Status           Status     `json:"status"`
	StartAt          time.Time  `json:"start_at"`
	WorkerAssignedAt *time.Time `json:"-"`
	CompletedAt      *time.Time `json:"completed_at"`
}

// WorkerTask is what a successful claim hands to the worker.
type WorkerTask struct {
	ID   uuid.UUID
	Type string
}

// NormalizeStartAt returns t in UTC, or ErrStartAtNotUTC when t carries a
// non-zero offset or is the zero time. Years outside the four digits RFC3339
// can express fail with ErrStartAtOutOfRange. Stores call it before any
// write.
func NormalizeStartAt(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, ErrStartAtNotUTC
	}
	if _, offset := t.Zone(); offset != 0 {
		return time.Time{}, ErrStartAtNotUTC
	}
	if y := t.Year(); y < 0 || y > 9999 {
		return time.Time{}, ErrStartAtOutOfRange
	}
	return t.UTC(), nil
}
