package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/internal/datasource"
	"github.com/wonny/spotcast/internal/forecast"
	"github.com/wonny/spotcast/internal/pipeline"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/logger"
)

type stubRunner struct {
	horizon int
	out     *contracts.PipelineOutput
	err     error
}

func (r *stubRunner) TryRun(ctx context.Context, horizon int) (*contracts.PipelineOutput, error) {
	r.horizon = horizon
	return r.out, r.err
}

type fixedResolver struct {
	series contracts.PriceSeries
}

func (r fixedResolver) Resolve(ctx context.Context, horizon int) (contracts.PriceSeries, contracts.DataSource) {
	return r.series, contracts.DataSourceSynthetic
}

func TestForecastJob(t *testing.T) {
	runner := &stubRunner{out: &contracts.PipelineOutput{RunID: "r1", DataSource: contracts.DataSourceSynthetic}}
	job := NewForecastJob(runner, 24, "0 5 * * *", logger.Nop())

	assert.Equal(t, "forecast", job.Name())
	assert.Equal(t, "0 5 * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 24, runner.horizon)

	t.Run("run in progress", func(t *testing.T) {
		busy := NewForecastJob(&stubRunner{err: pipeline.ErrRunInProgress}, 24, "@daily", logger.Nop())
		assert.ErrorIs(t, busy.Run(context.Background()), pipeline.ErrRunInProgress)
	})

	t.Run("pipeline failure", func(t *testing.T) {
		failing := NewForecastJob(&stubRunner{err: forecast.ErrInsufficientData}, 24, "@daily", logger.Nop())
		assert.ErrorIs(t, failing.Run(context.Background()), forecast.ErrInsufficientData)
	})
}

func TestRetrainJob(t *testing.T) {
	// synthetic series: max(24+48, 72) = 72 points
	resolver := datasource.NewResolver(config.Default(), nil, logger.Nop()).
		WithClock(func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) })

	job := NewRetrainJob(resolver, 24, contracts.DefaultRollingWindowConfig(DefaultRetrainWindow), "0 6 * * 1", logger.Nop())
	assert.Equal(t, "retrain", job.Name())
	assert.Equal(t, "0 6 * * 1", job.Schedule())
	assert.Nil(t, job.LastSummary())

	require.NoError(t, job.Run(context.Background()))

	summary := job.LastSummary()
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Trials) // start 48 only: 48 <= 72-24
	assert.Greater(t, summary.AvgRMSE, 0.0)
	assert.GreaterOrEqual(t, summary.WorstRMSE, summary.AvgRMSE)

	t.Run("series too short", func(t *testing.T) {
		short := NewRetrainJob(fixedResolver{series: contracts.NewHourlySeries(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), []float64{1, 2, 3})},
			2, contracts.DefaultRollingWindowConfig(DefaultRetrainWindow), "@weekly", logger.Nop())
		assert.ErrorIs(t, short.Run(context.Background()), forecast.ErrInsufficientData)
		assert.Nil(t, short.LastSummary())
	})
}
