package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	err      error
	calls    int
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(ctx context.Context) error {
	j.calls++
	return j.err
}

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(config.Default(), logger.Nop())
	require.NoError(t, err)
	return s
}

func TestNew_Timezone(t *testing.T) {
	s := newScheduler(t)
	assert.Equal(t, "Europe/Copenhagen", s.Location().String())

	cfg := config.Default()
	cfg.Scheduler.Timezone = "Mars/Olympus"
	_, err := New(cfg, logger.Nop())
	assert.Error(t, err)
}

func TestScheduler_AddJob(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddJob(&fakeJob{name: "forecast", schedule: "0 5 * * *"}))
	require.NoError(t, s.AddJob(&fakeJob{name: "retrain", schedule: "0 6 * * 1"}))
	assert.Equal(t, []string{"forecast", "retrain"}, s.GetAllJobs())

	t.Run("duplicate", func(t *testing.T) {
		assert.Error(t, s.AddJob(&fakeJob{name: "forecast", schedule: "0 5 * * *"}))
	})

	t.Run("six field expression rejected", func(t *testing.T) {
		assert.Error(t, s.AddJob(&fakeJob{name: "seconds", schedule: "0 30 18 * * *"}))
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, s.RemoveJob("retrain"))
		assert.Equal(t, []string{"forecast"}, s.GetAllJobs())
		assert.Error(t, s.RemoveJob("retrain"))
	})
}

func TestScheduler_RunJob(t *testing.T) {
	s := newScheduler(t)
	ok := &fakeJob{name: "ok", schedule: "@daily"}
	bad := &fakeJob{name: "bad", schedule: "@daily", err: errors.New("boom")}
	require.NoError(t, s.AddJob(ok))
	require.NoError(t, s.AddJob(bad))

	require.NoError(t, s.RunJob(context.Background(), "ok"))
	require.NoError(t, s.RunJob(context.Background(), "ok"))

	err := s.RunJob(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, 1, bad.calls, "failed jobs are not retried")

	assert.Error(t, s.RunJob(context.Background(), "missing"))

	history, err := s.GetJobHistory("ok")
	require.NoError(t, err)
	assert.Len(t, history.Results, 2)

	stats := s.GetJobStats()
	require.Contains(t, stats, "ok")
	assert.Equal(t, 2, stats["ok"].TotalRuns)
	assert.Equal(t, 1.0, stats["ok"].SuccessRate)
	assert.NotNil(t, stats["ok"].LastSuccess)

	assert.Equal(t, 1, stats["bad"].FailureCount)
	assert.NotNil(t, stats["bad"].LastFailure)
	assert.Nil(t, stats["bad"].LastSuccess)
}

func TestScheduler_NextRun(t *testing.T) {
	s := newScheduler(t)
	require.NoError(t, s.AddJob(&fakeJob{name: "forecast", schedule: "0 5 * * *"}))

	s.Start()
	defer s.Stop()

	// next activation is set once the cron loop has started
	require.Eventually(t, func() bool {
		return s.GetJobStats()["forecast"].NextRun != nil
	}, time.Second, 10*time.Millisecond)

	next := s.GetJobStats()["forecast"].NextRun.In(s.Location())
	assert.Equal(t, 5, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.SuccessRate())
	_, ok := h.Latest()
	assert.False(t, ok)

	base := time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC)
	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "j", StartTime: base.Add(time.Duration(i) * time.Hour), Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Equal(t, maxHistory+10, h.Total)
	assert.Equal(t, (maxHistory+10)/2, h.Failures)
	assert.InDelta(t, 0.5, h.SuccessRate(), 1e-12)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.False(t, latest.Success)

	// last success survives a later failure
	require.NotNil(t, h.LastSuccess)
	require.NotNil(t, h.LastFailure)
	assert.True(t, h.LastSuccess.Equal(base.Add(time.Duration(maxHistory+8)*time.Hour)))
	assert.True(t, h.LastFailure.Equal(base.Add(time.Duration(maxHistory+9)*time.Hour)))
}

func TestScheduler_StatsAfterRecovery(t *testing.T) {
	s := newScheduler(t)
	job := &fakeJob{name: "forecast", schedule: "0 5 * * *"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob(context.Background(), "forecast"))
	job.err = errors.New("feed down")
	require.Error(t, s.RunJob(context.Background(), "forecast"))

	stat := s.GetJobStats()["forecast"]
	assert.Equal(t, 2, stat.TotalRuns)
	assert.Equal(t, 1, stat.SuccessCount)
	assert.Equal(t, 1, stat.FailureCount)
	assert.NotNil(t, stat.LastSuccess)
	assert.NotNil(t, stat.LastFailure)

	// history is a copy
	history, err := s.GetJobHistory("forecast")
	require.NoError(t, err)
	history.Results[0].Success = false
	again, _ := s.GetJobHistory("forecast")
	assert.True(t, again.Results[0].Success)
}
