package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerly/ledgerly/jobs"
)

type stubSweeper struct {
	before  time.Time
	removed int64
	err     error
	calls   int
}

func (s *stubSweeper) SweepExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	s.calls++
	s.before = before
	return s.removed, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionSweepHandler(t *testing.T) {
	cutoff := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	task, err := jobs.NewSessionSweepTask(jobs.SessionSweepPayload{Before: cutoff})
	require.NoError(t, err)

	sweeper := &stubSweeper{removed: 3}
	handler := jobs.NewSessionSweepHandler(sweeper, discardLogger(), nil)
	require.NoError(t, handler(context.Background(), task))
	assert.Equal(t, 1, sweeper.calls)
	assert.True(t, sweeper.before.Equal(cutoff))
}

func TestSessionSweepHandlerDefaultsCutoffToNow(t *testing.T) {
	task, err := jobs.NewSessionSweepTask(jobs.SessionSweepPayload{})
	require.NoError(t, err)

	sweeper := &stubSweeper{}
	handler := jobs.NewSessionSweepHandler(sweeper, discardLogger(), nil)
	require.NoError(t, handler(context.Background(), task))
	assert.WithinDuration(t, time.Now(), sweeper.before, time.Minute)
}

func TestSessionSweepHandlerPropagatesError(t *testing.T) {
	task, err := jobs.NewSessionSweepTask(jobs.SessionSweepPayload{})
	require.NoError(t, err)

	sweeper := &stubSweeper{err: errors.New("db down")}
	handler := jobs.NewSessionSweepHandler(sweeper, discardLogger(), nil)
	assert.Error(t, handler(context.Background(), task))
}

func TestSessionSweepHandlerSkipsMalformedPayload(t *testing.T) {
	sweeper := &stubSweeper{}
	handler := jobs.NewSessionSweepHandler(sweeper, discardLogger(), nil)
	err := handler(context.Background(), asynq.NewTask(jobs.TaskSessionSweep, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, sweeper.calls)
}
