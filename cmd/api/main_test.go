package main

import (
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scheduled-tasks/internal/config"
	"scheduled-tasks/internal/observability/jsonlog"
)

func freeAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRun_ServesUntilSignalled(t *testing.T) {
	cfg := config.Config{
		DBDriver:       "sqlite",
		DBURL:          "file:" + filepath.Join(t.TempDir(), "tasks.db"),
		HTTPAddr:       freeAddr(t),
		RequestTimeout: time.Second,
	}

	done := make(chan error, 1)
	go func() { done <- run(cfg, jsonlog.Discard()) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		r, err := http.Get("http://" + cfg.HTTPAddr + "/healthz")
		if err != nil {
			return false
		}
		resp = r
		return true
	}, 5*time.Second, 20*time.Millisecond)

	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err := http.Post("http://"+cfg.HTTPAddr+"/tasks", "application/json",
		strings.NewReader(`{"type":"foo","start_at":"2024-01-01T00:00:00Z"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRun_BadDriver(t *testing.T) {
	err := run(config.Config{DBDriver: "oracle"}, jsonlog.Discard())
	assert.Error(t, err)
}
