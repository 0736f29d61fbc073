// Package jobqueue runs review syncs asynchronously on a River job queue
// backed by Postgres. The engine is agnostic to whether it runs inline or in
// a worker; this package is the worker path.
package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog/log"

	"github.com/steamsync/internal/sync"
)

// ErrJobNotFound means no job exists for the polled id.
var ErrJobNotFound = errors.New("sync job not found")

// SyncJobArgs carries the target game for one review sync job.
type SyncJobArgs struct {
	GameID int64 `json:"game_id"`
}

// Kind returns the job kind for River
func (SyncJobArgs) Kind() string { return "review_sync" }

// SyncWorker executes review sync jobs
type SyncWorker struct {
	river.WorkerDefaults[SyncJobArgs]
	orchestrator *sync.Orchestrator
}

// Work runs the orchestrator for the job's game id.
func (w *SyncWorker) Work(ctx context.Context, job *river.Job[SyncJobArgs]) error {
	log.Info().Int64("job_id", job.ID).Int64("game_id", job.Args.GameID).Msg("Processing review sync job")

	res, err := w.orchestrator.Execute(ctx, job.Args.GameID)
	if err != nil {
		log.Error().Int64("job_id", job.ID).Int64("game_id", job.Args.GameID).Err(err).
			Msg("Review sync job failed")
		return err
	}

	log.Info().Int64("job_id", job.ID).Int64("game_id", job.Args.GameID).
		Int("created", res.Created).Int("updated", res.Updated).
		Msg("Review sync job complete")
	return nil
}

// EnqueueResult is returned to the caller when a sync job is accepted.
type EnqueueResult struct {
	JobID   int64  `json:"job_id"`
	Message string `json:"message"`
}

// JobStatus is the poll response for an enqueued sync job.
type JobStatus struct {
	Status   string `json:"status"` // queued | active | completed | failed
	Progress int    `json:"progress"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// JobQueue manages the River job queue
type JobQueue struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	config *QueueConfig
}

// NewJobQueue creates a new job queue instance
func NewJobQueue(databaseURL string, config *QueueConfig, orchestrator *sync.Orchestrator) (*JobQueue, error) {
	if config == nil {
		config = DefaultQueueConfig()
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &SyncWorker{orchestrator: orchestrator})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:     config.RiverQueueConfig(),
		Workers:    workers,
		JobTimeout: config.JobTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &JobQueue{
		client: client,
		pool:   pool,
		config: config,
	}, nil
}

// Start starts the job queue workers
func (jq *JobQueue) Start(ctx context.Context) error {
	return jq.client.Start(ctx)
}

// Stop stops the job queue workers
func (jq *JobQueue) Stop(ctx context.Context) error {
	return jq.client.Stop(ctx)
}

// EnqueueSync queues a review sync job for the given game.
func (jq *JobQueue) EnqueueSync(ctx context.Context, gameID int64) (EnqueueResult, error) {
	res, err := jq.client.Insert(ctx, SyncJobArgs{GameID: gameID}, &river.InsertOpts{
		MaxAttempts: jq.config.MaxAttempts,
	})
	if err != nil {
		return EnqueueResult{}, fmt.Errorf("failed to queue review sync job: %w", err)
	}

	log.Info().Int64("job_id", res.Job.ID).Int64("game_id", gameID).Msg("Queued review sync job")
	return EnqueueResult{
		JobID:   res.Job.ID,
		Message: fmt.Sprintf("Review sync job queued successfully with ID %d", res.Job.ID),
	}, nil
}

// GetStatus reports the state of a previously enqueued job.
func (jq *JobQueue) GetStatus(ctx context.Context, jobID int64) (JobStatus, error) {
	row, err := jq.client.JobGet(ctx, jobID)
	if err != nil {
		if errors.Is(err, rivertype.ErrNotFound) {
			return JobStatus{}, ErrJobNotFound
		}
		return JobStatus{}, err
	}
	return statusFromRow(row), nil
}

func statusFromRow(row *rivertype.JobRow) JobStatus {
	status, progress := mapJobState(row.State)

	js := JobStatus{Status: status, Progress: progress}
	if status == "completed" {
		js.Result = "Reviews synchronized successfully."
	}
	if len(row.Errors) > 0 {
		js.Error = row.Errors[len(row.Errors)-1].Error
	}
	return js
}

// mapJobState folds River's job states onto the four caller-facing ones.
// River has no fractional progress, so progress is all-or-nothing.
func mapJobState(state rivertype.JobState) (string, int) {
	switch state {
	case rivertype.JobStateCompleted:
		return "completed", 100
	case rivertype.JobStateRunning:
		return "active", 0
	case rivertype.JobStateRetryable, rivertype.JobStateCancelled, rivertype.JobStateDiscarded:
		return "failed", 0
	default:
		// available, scheduled, pending
		return "queued", 0
	}
}
