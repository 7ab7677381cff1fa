package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"scheduled-tasks/internal/model"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTask(ctx context.Context, taskType string, startAt time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, taskType, startAt)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRepository) ShowTask(ctx context.Context, id uuid.UUID) (model.Task, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Task), args.Bool(1), args.Error(2)
}

func (m *MockRepository) ClaimNextTask(ctx context.Context) (model.WorkerTask, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(model.WorkerTask), args.Bool(1), args.Error(2)
}

func (m *MockRepository) CompleteTask(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
