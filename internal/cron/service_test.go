package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cartsync-backend/pkg/logger"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
)

type stubLocker struct {
	held     bool
	err      error
	released int
}

func (s *stubLocker) TryLock(context.Context) (func(context.Context) error, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.held {
		return nil, nil
	}
	s.held = true
	return func(context.Context) error {
		s.held = false
		s.released++
		return nil
	}, nil
}

type countingJob struct {
	name string
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

func newTestService(t *testing.T, locker Locker, m *metrics.CronMetrics, jobs ...Job) *Service {
	t.Helper()
	set, err := NewJobs(jobs...)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Jobs:     set,
		Locker:   locker,
		Metrics:  m,
		Interval: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestCycleRunsEveryJobEvenAfterFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	locker := &stubLocker{}
	svc := newTestService(t, locker, metrics.NewCronMetrics(reg), failing, ok)

	require.NoError(t, svc.cycle(context.Background()))
	require.Equal(t, 1, ok.runs)
	require.Equal(t, 1, failing.runs)
	require.Equal(t, 1, locker.released)
	require.False(t, locker.held)

	expected := `
# HELP cartsync_cron_job_runs_total Maintenance job runs by job and result.
# TYPE cartsync_cron_job_runs_total counter
cartsync_cron_job_runs_total{job="failing",result="error"} 1
cartsync_cron_job_runs_total{job="ok",result="ok"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cartsync_cron_job_runs_total"))
}

func TestCycleSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &countingJob{name: "job"}
	svc := newTestService(t, &stubLocker{held: true}, nil, job)

	require.NoError(t, svc.cycle(context.Background()))
	require.Zero(t, job.runs)
}

func TestCycleReturnsLockError(t *testing.T) {
	job := &countingJob{name: "job"}
	svc := newTestService(t, &stubLocker{err: errors.New("redis down")}, nil, job)

	require.Error(t, svc.cycle(context.Background()))
	require.Zero(t, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &countingJob{name: "job"}
	svc := newTestService(t, &stubLocker{}, nil, job)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, svc.Run(ctx), context.Canceled)
	require.Equal(t, 1, job.runs)
}

func TestNewJobsRejectsDuplicates(t *testing.T) {
	_, err := NewJobs(&countingJob{name: "a"}, &countingJob{name: "a"})
	require.Error(t, err)
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(ServiceParams{Interval: time.Hour})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Locker: &stubLocker{}})
	require.Error(t, err)
}
