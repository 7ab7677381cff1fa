package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hackebrot/go-fibonacci"

	"scheduled-tasks/internal/model"
)

type HandlerConfig struct {
	FooSleep   time.Duration
	BarURL     string
	BazN       int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		FooSleep: 2 * time.Second,
		BarURL:   "https://example.com",
		BazN:     30,
	}
}

// DefaultHandlers wires one handler per entry of SupportedTypes.
func DefaultHandlers(cfg HandlerConfig) Handlers {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return Handlers{
		"foo": SleepHandler(cfg.FooSleep),
		"bar": HTTPGetHandler(cfg.HTTPClient, cfg.BarURL),
		"baz": FibonacciHandler(fibonacci.NewIterative(), cfg.BazN, cfg.Logger),
	}
}

// SleepHandler waits for d, or fails if ctx ends first.
func SleepHandler(d time.Duration) Handler {
	return HandlerFunc(func(ctx context.Context, _ model.WorkerTask) error {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	})
}

// HTTPGetHandler succeeds when a GET to url answers with a 2xx status.
func HTTPGetHandler(client *http.Client, url string) Handler {
	return HandlerFunc(func(ctx context.Context, _ model.WorkerTask) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("get %s: %w", url, err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
		}
		return nil
	})
}

// MaxFibonacciN is the largest n whose Fibonacci number fits in an int64.
const MaxFibonacciN = 92

func FibonacciHandler(strategy fibonacci.Strategy, n int, logger *slog.Logger) Handler {
	return HandlerFunc(func(ctx context.Context, t model.WorkerTask) error {
		if n < 0 || n > MaxFibonacciN {
			return fmt.Errorf("fibonacci: n=%d is not supported", n)
		}
		r := strategy.Compute(n)
		logger.InfoContext(ctx, "computation complete", "task_id", t.ID.String(), "n", n, "result", r)
		return nil
	})
}
