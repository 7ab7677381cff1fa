// Package storetest holds the behaviour every task.Repository implementation
// must share. Store packages call Run from their own tests.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheduled-tasks/internal/model"
	"scheduled-tasks/internal/task"
)

// Clock is a settable time source. Values are truncated to microseconds,
// the finest resolution every store keeps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now.UTC().Truncate(time.Microsecond)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d).Truncate(time.Microsecond)
}

// Factory returns an empty repository that reads time from clock.
type Factory func(t *testing.T, clock *Clock) task.Repository

func Run(t *testing.T, newRepo Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo task.Repository, clock *Clock)
	}{
		{"CreateAndShow", testCreateAndShow},
		{"ShowMissing", testShowMissing},
		{"CreateRejectsNonUTC", testCreateRejectsNonUTC},
		{"ClaimReadyTaskOnce", testClaimReadyTaskOnce},
		{"ClaimWaitsForStartAt", testClaimWaitsForStartAt},
		{"ClaimOrdersByStartAt", testClaimOrdersByStartAt},
		{"FarStartAtKeepsItsValue", testFarStartAt},
		{"CompleteTwiceKeepsSecondTimestamp", testCompleteTwice},
		{"CompletedTaskIsNotClaimable", testCompletedNotClaimable},
		{"ConcurrentClaimsAreUnique", testConcurrentClaims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewClock(time.Now())
			tt.fn(t, newRepo(t, clock), clock)
		})
	}
}

func testCreateAndShow(t *testing.T, repo task.Repository, clock *Clock) {
	ctx := context.Background()
	startAt := clock.Now().Add(-time.Hour)

	id, err := repo.CreateTask(ctx, "foo", startAt)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	got, ok, err := repo.ShowTask(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, "foo", got.Type)
	assert.True(t, got.StartAt.Equal(startAt), "start_at=%s want %s", got.StartAt, startAt)
	assert.Equal(t, time.UTC, got.StartAt.Location())
	assert.False(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.WorkerAssignedAt)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, model.StatusWaitingToStart, got.Status)
}

func testShowMissing(t *testing.T, repo task.Repository, _ *Clock) {
	_, ok, err := repo.ShowTask(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func testCreateRejectsNonUTC(t *testing.T, repo task.Repository, clock *Clock) {
	ctx := context.Background()
	cet := time.FixedZone("CET", 3600)

	_, err := repo.CreateTask(ctx, "foo", clock.Now().Add(-time.Hour).In(cet))
	assert.ErrorIs(t, err, model.ErrStartAtNotUTC)

	_, ok, err := repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "rejected task must not be persisted")
}

func testClaimReadyTaskOnce(t *testing.T, repo task.Repository, clock *Clock) {
	ctx := context.Background()

	id, err := repo.CreateTask(ctx, "foo", clock.Now().Add(-time.Hour))
	require.NoError(t, err)

	claimed, ok, err := repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.WorkerTask{ID: id, Type: "foo"}, claimed)

	_, ok, err = repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a claimed task must not be handed out again")

	got, ok, err := repo.ShowTask(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.WorkerAssignedAt)
	assert.True(t, got.WorkerAssignedAt.Equal(clock.Now()))
	assert.Equal(t, model.StatusWaitingToStart, got.Status)
}

func testClaimWaitsForStartAt(t *testing.T, repo task.Repository, clock *Clock) {
	ctx := context.Background()
	startAt := clock.Now().Add(time.Hour)

	id, err := repo.CreateTask(ctx, "bar", startAt)
	require.NoError(t, err)

	_, ok, err := repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	got, _, err := repo.ShowTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaitingToComplete, got.Status)

	// start_at == now is still not ready
	clock.Advance(time.Hour)
	_, ok, err = repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(time.Second)
	claimed, ok, err := repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, claimed.ID)
}

func testClaimOrdersByStartAt(t *testing.T, repo task.Repository, clock *Clock) {
	ctx := context.Background()

	later, err := repo.CreateTask(ctx, "foo", clock.Now().Add(-time.Minute))
	require.NoError(t, err)
	earlier, err := repo.CreateTask(ctx, "baz", clock.Now().Add(-time.Hour))
	require.NoError(t, err)

	first, ok, err := repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	second, ok, err := repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, earlier, first.ID)
	assert.Equal(t, later, second.ID)
}

func testFarStartAt(t *testing.T, repo task.Repository, _ *Clock) {
	ctx := context.Background()
	future := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
	past := time.Date(1600, 1, 1, 0, 0, 0, 0, time.UTC)

	futureID, err := repo.CreateTask(ctx, "foo", future)
	require.NoError(t, err)
	pastID, err := repo.CreateTask(ctx, "bar", past)
	require.NoError(t, err)

	got, ok, err := repo.ShowTask(ctx, futureID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.StartAt.Equal(future), "start_at=%s want %s", got.StartAt, future)
	assert.Equal(t, model.StatusWaitingToComplete, got.Status)

	got, ok, err = repo.ShowTask(ctx, pastID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.StartAt.Equal(past), "start_at=%s want %s", got.StartAt, past)
	assert.Equal(t, model.StatusWaitingToStart, got.Status)

	claimed, ok, err := repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, pastID, claimed.ID)

	_, ok, err = repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a task starting in 2300 must not be claimable now")

	_, err = repo.CreateTask(ctx, "foo", time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, model.ErrStartAtOutOfRange)
}

func testCompleteTwice(t *testing.T, repo task.Repository, clock *Clock) {
	ctx := context.Background()

	id, err := repo.CreateTask(ctx, "foo", clock.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, ok, err := repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.CompleteTask(ctx, id))
	firstAt := clock.Now()

	clock.Advance(time.Minute)
	require.NoError(t, repo.CompleteTask(ctx, id))
	secondAt := clock.Now()

	got, ok, err := repo.ShowTask(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.True(t, got.CompletedAt.Equal(secondAt), "completed_at=%s want second call %s", got.CompletedAt, secondAt)
	assert.False(t, got.CompletedAt.Equal(firstAt))

	// unknown ids complete without error
	assert.NoError(t, repo.CompleteTask(ctx, uuid.New()))
}

func testCompletedNotClaimable(t *testing.T, repo task.Repository, clock *Clock) {
	ctx := context.Background()

	id, err := repo.CreateTask(ctx, "foo", clock.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.CompleteTask(ctx, id))

	_, ok, err := repo.ClaimNextTask(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testConcurrentClaims(t *testing.T, repo task.Repository, clock *Clock) {
	ctx := context.Background()
	const (
		n = 5
		m = 20
	)

	created := make(map[uuid.UUID]bool, n)
	for i := 0; i < n; i++ {
		id, err := repo.CreateTask(ctx, "foo", clock.Now().Add(-time.Duration(i+1)*time.Minute))
		require.NoError(t, err)
		created[id] = true
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed []uuid.UUID
		errs    []error
	)
	start := make(chan struct{})
	wg.Add(m)
	for i := 0; i < m; i++ {
		go func() {
			defer wg.Done()
			<-start
			tk, ok, err := repo.ClaimNextTask(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if ok {
				claimed = append(claimed, tk.ID)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, claimed, n)

	seen := make(map[uuid.UUID]bool, n)
	for _, id := range claimed {
		assert.False(t, seen[id], "task %s claimed twice", id)
		assert.True(t, created[id], "claimed unknown task %s", id)
		seen[id] = true
	}
}
