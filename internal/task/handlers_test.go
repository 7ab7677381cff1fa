package task

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hackebrot/go-fibonacci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheduled-tasks/internal/model"
)

func TestSleepHandler(t *testing.T) {
	wt := model.WorkerTask{ID: uuid.New(), Type: "foo"}

	assert.NoError(t, SleepHandler(time.Millisecond).Handle(context.Background(), wt))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepHandler(time.Hour).Handle(ctx, wt), context.Canceled)
}

func TestHTTPGetHandler(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"no content", http.StatusNoContent, false},
		{"server error", http.StatusInternalServerError, true},
		{"not found", http.StatusNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			err := HTTPGetHandler(srv.Client(), srv.URL).Handle(context.Background(), model.WorkerTask{ID: uuid.New(), Type: "bar"})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPGetHandler_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := HTTPGetHandler(http.DefaultClient, url).Handle(context.Background(), model.WorkerTask{Type: "bar"})
	assert.Error(t, err)
}

func TestFibonacciHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	id := uuid.New()

	err := FibonacciHandler(fibonacci.NewRecursive(), 10, logger).Handle(context.Background(), model.WorkerTask{ID: id, Type: "baz"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "computation complete")
	assert.Contains(t, buf.String(), id.String())

	err = FibonacciHandler(fibonacci.NewRecursive(), -1, logger).Handle(context.Background(), model.WorkerTask{ID: id, Type: "baz"})
	assert.Error(t, err)

	err = FibonacciHandler(fibonacci.NewIterative(), MaxFibonacciN+1, logger).Handle(context.Background(), model.WorkerTask{ID: id, Type: "baz"})
	assert.Error(t, err)
}

func TestDefaultHandlers_BazAtLimitIsFast(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultHandlerConfig()
	cfg.BazN = MaxFibonacciN
	cfg.Logger = slog.New(slog.NewJSONHandler(&buf, nil))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- DefaultHandlers(cfg)["baz"].Handle(ctx, model.WorkerTask{ID: uuid.New(), Type: "baz"}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("baz handler did not finish")
	}
	assert.Contains(t, buf.String(), `"result":7540113804746346429`)
}
