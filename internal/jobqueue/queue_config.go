package jobqueue

import (
	"time"

	"github.com/riverqueue/river"
)

// QueueConfig holds the tunable parameters for the River job queue.
type QueueConfig struct {
	// MaxWorkers is the number of concurrent workers processing sync jobs.
	// Sync runs for the same game serialize on the orchestrator's per-game
	// lock, so extra workers only help across distinct games.
	MaxWorkers int

	// MaxAttempts is the retry budget per job. Job-level retries sit above
	// the per-request retry executor: a job re-runs the whole sync, which is
	// safe because runs are idempotent.
	MaxAttempts int

	// JobTimeout bounds a single sync run inside a worker.
	JobTimeout time.Duration
}

// DefaultQueueConfig returns the default configuration
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		MaxWorkers:  10,
		MaxAttempts: 3,
		JobTimeout:  15 * time.Minute,
	}
}

// RiverQueueConfig converts our config to River's queue configuration format
func (c *QueueConfig) RiverQueueConfig() map[string]river.QueueConfig {
	return map[string]river.QueueConfig{
		river.QueueDefault: {
			MaxWorkers: c.MaxWorkers,
		},
	}
}
