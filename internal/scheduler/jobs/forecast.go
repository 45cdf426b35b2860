package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/internal/pipeline"
	"github.com/wonny/spotcast/pkg/logger"
)

// ForecastRunner 파이프라인 실행 트리거 (pipeline.Runner)
type ForecastRunner interface {
	TryRun(ctx context.Context, horizon int) (*contracts.PipelineOutput, error)
}

// ForecastJob runs the forecast pipeline on the fetch schedule
// Schedule: FETCH_CRON (default 05:00 daily)
type ForecastJob struct {
	runner   ForecastRunner
	horizon  int
	schedule string
	logger   *logger.Logger
}

// NewForecastJob creates a new forecast job
func NewForecastJob(runner ForecastRunner, horizon int, schedule string, log *logger.Logger) *ForecastJob {
	return &ForecastJob{
		runner:   runner,
		horizon:  horizon,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ForecastJob) Name() string {
	return "forecast"
}

// Schedule returns the cron schedule
func (j *ForecastJob) Schedule() string {
	return j.schedule
}

// Run executes the forecast pipeline once
func (j *ForecastJob) Run(ctx context.Context) error {
	j.logger.WithField("horizon", j.horizon).Info("Starting scheduled forecast pipeline")

	out, err := j.runner.TryRun(ctx, j.horizon)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		return fmt.Errorf("skip scheduled run: %w", err)
	}
	if err != nil {
		return fmt.Errorf("forecast pipeline: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":      out.RunID,
		"data_source": string(out.DataSource),
		"report":      out.ReportPath,
		"sink_errors": len(out.Diagnostics),
	}).Info("Scheduled forecast pipeline completed")

	return nil
}
