package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/internal/forecast"
	"github.com/wonny/spotcast/internal/pipeline"
	"github.com/wonny/spotcast/pkg/logger"
)

// DefaultRetrainWindow 롤링 백테스트 기본 윈도우 (48시간)
const DefaultRetrainWindow = 48

// RetrainJob re-evaluates the baseline with a rolling back-test over a freshly resolved series
// Schedule: RETRAIN_CRON (default Mondays 06:00)
type RetrainJob struct {
	resolver   pipeline.SeriesResolver
	backtester *forecast.Backtester
	horizon    int
	window     contracts.RollingWindowConfig
	schedule   string
	logger     *logger.Logger

	mu   sync.RWMutex
	last *forecast.BacktestSummary
}

// NewRetrainJob creates a new retrain job
func NewRetrainJob(resolver pipeline.SeriesResolver, horizon int, window contracts.RollingWindowConfig, schedule string, log *logger.Logger) *RetrainJob {
	return &RetrainJob{
		resolver:   resolver,
		backtester: forecast.NewBacktester(log.Zerolog()),
		horizon:    horizon,
		window:     window,
		schedule:   schedule,
		logger:     log,
	}
}

// Name returns the job name
func (j *RetrainJob) Name() string {
	return "retrain"
}

// Schedule returns the cron schedule
func (j *RetrainJob) Schedule() string {
	return j.schedule
}

// Run resolves the current series and runs the rolling back-test
func (j *RetrainJob) Run(ctx context.Context) error {
	series, source := j.resolver.Resolve(ctx, j.horizon)

	j.logger.WithFields(map[string]interface{}{
		"points":      series.Len(),
		"data_source": string(source),
		"window":      j.window.WindowSize,
		"step":        j.window.StepSize,
	}).Info("Starting rolling back-test")

	summary, err := j.backtester.Run(series, j.horizon, j.window)
	if err != nil {
		return fmt.Errorf("rolling back-test: %w", err)
	}

	j.mu.Lock()
	j.last = summary
	j.mu.Unlock()

	return nil
}

// LastSummary returns the summary of the latest successful run (nil before the first)
func (j *RetrainJob) LastSummary() *forecast.BacktestSummary {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last
}
