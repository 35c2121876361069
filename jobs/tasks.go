// Package jobs hosts background task definitions and the Asynq worker glue.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerly/ledgerly/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionSweep is the task type for purging expired session records.
	TaskSessionSweep = "session:sweep"
)

// SessionSweepPayload bounds a sweep run. Records expiring before the cutoff
// are removed.
type SessionSweepPayload struct {
	Before time.Time `json:"before"`
}

// NewSessionSweepTask constructs an Asynq task for a sweep run. A zero cutoff
// means "now at processing time".
func NewSessionSweepTask(payload SessionSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionSweep, data), nil
}

// SessionSweeper removes expired session records from durable storage.
type SessionSweeper interface {
	SweepExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// NewSessionSweepHandler returns the Asynq handler for TaskSessionSweep.
// Metrics may be nil.
func NewSessionSweepHandler(sweeper SessionSweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SessionSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		before := payload.Before
		if before.IsZero() {
			before = time.Now()
		}
		tracker := metrics.Track(TaskSessionSweep)
		removed, err := sweeper.SweepExpiredSessions(ctx, before)
		if err != nil {
			logger.Error("session sweep", slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.AddSweptSessions(removed)
		logger.Info("session sweep done", slog.Int64("removed", removed))
		return tracker.End(nil)
	}
}
