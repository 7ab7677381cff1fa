package task

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported task type")
	ErrInvalidStartAt  = errors.New("start_at must be an RFC3339 timestamp")
	ErrNoWork          = errors.New("no ready tasks")
)
