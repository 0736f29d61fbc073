package jobqueue

import (
	"testing"

	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
)

func TestMapJobState(t *testing.T) {
	cases := []struct {
		state        rivertype.JobState
		wantStatus   string
		wantProgress int
	}{
		{rivertype.JobStateAvailable, "queued", 0},
		{rivertype.JobStateScheduled, "queued", 0},
		{rivertype.JobStatePending, "queued", 0},
		{rivertype.JobStateRunning, "active", 0},
		{rivertype.JobStateCompleted, "completed", 100},
		{rivertype.JobStateRetryable, "failed", 0},
		{rivertype.JobStateCancelled, "failed", 0},
		{rivertype.JobStateDiscarded, "failed", 0},
	}

	for _, tc := range cases {
		status, progress := mapJobState(tc.state)
		assert.Equalf(t, tc.wantStatus, status, "state %s", tc.state)
		assert.Equalf(t, tc.wantProgress, progress, "state %s", tc.state)
	}
}

func TestStatusFromRow(t *testing.T) {
	completed := statusFromRow(&rivertype.JobRow{State: rivertype.JobStateCompleted})
	assert.Equal(t, "completed", completed.Status)
	assert.NotEmpty(t, completed.Result)
	assert.Empty(t, completed.Error)

	failed := statusFromRow(&rivertype.JobRow{
		State: rivertype.JobStateDiscarded,
		Errors: []rivertype.AttemptError{
			{Error: "operation failed after 3 attempts: connection refused"},
		},
	})
	assert.Equal(t, "failed", failed.Status)
	assert.Contains(t, failed.Error, "connection refused")
	assert.Empty(t, failed.Result)
}

func TestDefaultQueueConfig(t *testing.T) {
	cfg := DefaultQueueConfig()
	assert.Equal(t, 10, cfg.MaxWorkers)
	assert.Equal(t, 3, cfg.MaxAttempts)

	queues := cfg.RiverQueueConfig()
	assert.Equal(t, 10, queues["default"].MaxWorkers)
}
