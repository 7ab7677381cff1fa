package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scheduled-tasks/internal/config"
	"scheduled-tasks/internal/observability/jsonlog"
	"scheduled-tasks/internal/store"
	"scheduled-tasks/internal/task"
)

// handlers still running after this long are abandoned; their tasks stay
// claimed
const shutdownTimeout = 30 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := jsonlog.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := store.Open(ctx, cfg.DBDriver, cfg.DBURL)
	if err != nil {
		return err
	}
	defer st.Close()

	w := newWorker(cfg, st.Tasks, logger)
	w.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := w.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("bye")
	return nil
}

func newWorker(cfg config.Config, repo task.Repository, logger *slog.Logger) *task.Worker {
	handlers := task.DefaultHandlers(task.HandlerConfig{
		FooSleep: cfg.FooSleep,
		BarURL:   cfg.BarURL,
		BazN:     cfg.BazN,
		Logger:   logger,
	})

	return task.NewWorker(task.WorkerDeps{
		Repo:     repo,
		Handlers: handlers,
		Logger:   logger,
	}, workerConfig(cfg))
}

func workerConfig(cfg config.Config) task.WorkerConfig {
	wcfg := task.DefaultWorkerConfig()
	wcfg.PollInterval = cfg.PollInterval
	wcfg.MaxInFlight = cfg.MaxInFlight
	wcfg.StuckAfter = cfg.StuckAfter
	return wcfg
}
