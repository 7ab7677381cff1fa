package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheduled-tasks/internal/config"
	"scheduled-tasks/internal/model"
	"scheduled-tasks/internal/observability/jsonlog"
	"scheduled-tasks/internal/store"
	"scheduled-tasks/internal/task"
)

func TestRun_CompletesReadyTasks(t *testing.T) {
	cfg := config.Config{
		DBDriver:     "sqlite",
		DBURL:        "file:" + filepath.Join(t.TempDir(), "tasks.db") + "?_busy_timeout=5000",
		PollInterval: 10 * time.Millisecond,
		StuckAfter:   time.Minute,
		FooSleep:     time.Millisecond,
		BazN:         10,
	}

	st, err := store.Open(context.Background(), cfg.DBDriver, cfg.DBURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startAt := time.Now().UTC().Add(-time.Minute)
	fooID, err := st.Tasks.CreateTask(ctx, "foo", startAt)
	require.NoError(t, err)
	bazID, err := st.Tasks.CreateTask(ctx, "baz", startAt)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, jsonlog.Discard()) }()

	for _, id := range []uuid.UUID{fooID, bazID} {
		require.Eventually(t, func() bool {
			got, ok, err := st.Tasks.ShowTask(context.Background(), id)
			return err == nil && ok && got.Status == model.StatusCompleted
		}, 5*time.Second, 20*time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerConfig(t *testing.T) {
	got := workerConfig(config.Config{
		PollInterval: 250 * time.Millisecond,
		MaxInFlight:  3,
		StuckAfter:   time.Minute,
	})

	assert.Equal(t, 250*time.Millisecond, got.PollInterval)
	assert.Equal(t, 3, got.MaxInFlight)
	assert.Equal(t, time.Minute, got.StuckAfter)
	assert.Equal(t, task.DefaultBackoff(), got.ErrorBackoff)
}
