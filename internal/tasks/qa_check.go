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

// CheckStore provides the catalog reads and writes the QA processor needs.
type CheckStore interface {
	GetEntriesByKeys(keys []string) (map[string]*model.Entry, error)
	ReplaceCheckResults(key string, results []model.CheckResult) error
}

// QACheckTask recomputes automated check results for a batch of entries.
type QACheckTask struct {
	Keys []string `json:"keys"`
}

// Config returns the queue configuration for QA check tasks.
func (t QACheckTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "qa_check",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// QACheckProcessor creates a processor function for QACheckTask. Each entry's
// stored check results are replaced with a fresh run, so entries whose
// findings cleared get their stale results removed as well.
func QACheckProcessor(store CheckStore) backlite.QueueProcessor[QACheckTask] {
	return func(ctx context.Context, task QACheckTask) error {
		if store == nil {
			return fmt.Errorf("check store not configured")
		}
		if len(task.Keys) == 0 {
			return nil
		}

		entries, err := store.GetEntriesByKeys(task.Keys)
		if err != nil {
			return fmt.Errorf("qa check: load entries: %w", err)
		}

		var findings int
		for _, key := range task.Keys {
			entry, ok := entries[key]
			if !ok {
				// Deleted since enqueue, nothing to check.
				continue
			}
			results := checks.Run(entry)
			if err := store.ReplaceCheckResults(key, results); err != nil {
				return fmt.Errorf("qa check: store results for %q: %w", key, err)
			}
			findings += len(results)
		}

		log.Printf("[TASK] QA check finished: %d entries, %d findings", len(task.Keys), findings)
		return nil
	}
}

// NewQACheckQueue creates a backlite queue for QA check tasks.
func NewQACheckQueue(store CheckStore) backlite.Queue {
	return backlite.NewQueue(QACheckProcessor(store))
}

// Enqueuer submits QA check tasks through a task client. It satisfies the
// catalog session's enqueuer interface.
type Enqueuer struct {
	client *Client
}

func NewEnqueuer(client *Client) *Enqueuer {
	return &Enqueuer{client: client}
}

func (e *Enqueuer) EnqueueQACheck(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := e.client.Add(QACheckTask{Keys: keys}).Ctx(ctx).Save()
	return err
}
