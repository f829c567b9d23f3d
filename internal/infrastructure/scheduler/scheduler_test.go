package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJob counts executions and fails on demand.
type fakeJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *fakeJob) Name() string        { return j.name }
func (j *fakeJob) Description() string { return "test job" }

func (j *fakeJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

// farFuture never comes due, so scheduled runs stay out of RunNow tests.
type farFuture struct{}

func (farFuture) Next(t time.Time) time.Time { return t.Add(24 * time.Hour) }
func (farFuture) String() string             { return "never" }

func newTestScheduler() *Scheduler {
	config := DefaultSchedulerConfig()
	config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScheduler(config)
}

func TestRegister_RejectsDuplicatesAndNil(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.Register(&fakeJob{name: "sync"}, farFuture{}))

	err := s.Register(&fakeJob{name: "sync"}, farFuture{})
	assert.ErrorIs(t, err, ErrJobAlreadyExists)

	assert.ErrorIs(t, s.Register(nil, farFuture{}), ErrNilJob)
	assert.ErrorIs(t, s.Register(&fakeJob{name: "other"}, nil), ErrNilSchedule)
}

func TestStartStop_Lifecycle(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.Register(&fakeJob{name: "sync"}, farFuture{}))

	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestRunNow_ExecutesRegisteredJob(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "sync"}
	require.NoError(t, s.Register(job, farFuture{}))

	result, err := s.RunNow(context.Background(), "sync")
	require.NoError(t, err)

	assert.Equal(t, int64(1), job.runs.Load())
	assert.Equal(t, "sync", result.JobName)
	assert.True(t, result.Success)
	assert.NoError(t, result.Error)
}

func TestRunNow_ReportsJobFailure(t *testing.T) {
	s := newTestScheduler()
	errSync := errors.New("upstream unavailable")
	require.NoError(t, s.Register(&fakeJob{name: "sync", err: errSync}, farFuture{}))

	result, err := s.RunNow(context.Background(), "sync")
	assert.ErrorIs(t, err, errSync)

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.ErrorIs(t, result.Error, errSync)
}

func TestRunNow_UnknownJob(t *testing.T) {
	s := newTestScheduler()

	_, err := s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
