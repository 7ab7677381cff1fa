package task

import (
	"context"

	"github.com/google/uuid"

	"scheduled-tasks/internal/model"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Type    string `json:"type"`
	StartAt string `json:"start_at"`
}

// Create validates the input and persists a new task. Validation failures
// return ErrUnsupportedType or ErrInvalidStartAt without touching the store.
func (s *Service) Create(ctx context.Context, in CreateInput) (uuid.UUID, error) {
	taskType, err := ValidateType(in.Type)
	if err != nil {
		return uuid.Nil, err
	}
	startAt, err := ParseStartAt(in.StartAt)
	if err != nil {
		return uuid.Nil, err
	}
	return s.repo.CreateTask(ctx, taskType, startAt)
}

func (s *Service) Show(ctx context.Context, id uuid.UUID) (model.Task, bool, error) {
	return s.repo.ShowTask(ctx, id)
}
