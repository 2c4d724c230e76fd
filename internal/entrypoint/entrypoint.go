// Package entrypoint wires the background worker process: the catalog
// store, the task queue and the QA sweep scheduler, with graceful
// shutdown on SIGINT/SIGTERM.
package entrypoint

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/potool/potool/internal/accessor"
	"github.com/potool/potool/internal/config"
	"github.com/potool/potool/internal/database"
	"github.com/potool/potool/internal/scheduler"
	"github.com/potool/potool/internal/tasks"
)

func Run(cfg *config.Config, version string) {
	log.Printf("Starting potool worker v%s", version)

	store, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// The worker processes queue tasks only, so it reads and writes through
	// a bare accessor rather than a cached catalog session.
	acc := accessor.New(store)

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewQACheckQueue(acc),
			tasks.NewQASweepQueue(acc),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	var sweepScheduler *scheduler.QASweepScheduler
	if taskClient != nil && cfg.QASweep.Enabled {
		sweepScheduler = scheduler.NewQASweepScheduler(taskClient, cfg.QASweep)
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start QA sweep scheduler: %v", err)
		}
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutting down, waiting up to %v for tasks to finish", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if sweepScheduler != nil {
		sweepScheduler.Stop()
	}
	if taskClient != nil && taskCtxCancel != nil {
		taskClient.Stop(ctx)
		taskCtxCancel()
	}

	log.Println("Worker exiting")
}
