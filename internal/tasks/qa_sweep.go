package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/potool/potool/internal/checks"
	"github.com/potool/potool/internal/model"
)

const sweepBatchSize = 200

// SweepStore extends CheckStore with the catalog-wide listing a full sweep
// needs.
type SweepStore interface {
	CheckStore
	GetAllEntriesBasicInfo() (map[string]model.BasicInfo, error)
}

// QASweepTask recomputes check results for every entry in the catalog.
// Enqueued by the scheduler on a cron cadence; deduplicated by index so an
// overlapping sweep is never queued twice.
type QASweepTask struct{}

// Config returns the queue configuration for sweep tasks.
func (t QASweepTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "qa_sweep",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// QASweepProcessor creates a processor function for QASweepTask. Entries are
// loaded and checked in batches so a large catalog never sits in memory all
// at once.
func QASweepProcessor(store SweepStore) backlite.QueueProcessor[QASweepTask] {
	return func(ctx context.Context, task QASweepTask) error {
		if store == nil {
			return fmt.Errorf("sweep store not configured")
		}

		infos, err := store.GetAllEntriesBasicInfo()
		if err != nil {
			return fmt.Errorf("qa sweep: list entries: %w", err)
		}
		keys := make([]string, 0, len(infos))
		for key := range infos {
			keys = append(keys, key)
		}

		var findings int
		for start := 0; start < len(keys); start += sweepBatchSize {
			if err := ctx.Err(); err != nil {
				return err
			}
			end := min(start+sweepBatchSize, len(keys))
			batch := keys[start:end]

			entries, err := store.GetEntriesByKeys(batch)
			if err != nil {
				return fmt.Errorf("qa sweep: load entries: %w", err)
			}
			for _, key := range batch {
				entry, ok := entries[key]
				if !ok {
					continue
				}
				results := checks.Run(entry)
				if err := store.ReplaceCheckResults(key, results); err != nil {
					return fmt.Errorf("qa sweep: store results for %q: %w", key, err)
				}
				findings += len(results)
			}
		}

		log.Printf("[TASK] QA sweep finished: %d entries, %d findings", len(keys), findings)
		return nil
	}
}

// NewQASweepQueue creates a backlite queue for QA sweep tasks.
func NewQASweepQueue(store SweepStore) backlite.Queue {
	return backlite.NewQueue(QASweepProcessor(store))
}
