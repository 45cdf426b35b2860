package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/internal/features"
	"github.com/wonny/spotcast/internal/forecast"
	"github.com/wonny/spotcast/internal/report"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/logger"
)

// SeriesResolver RESOLVE 단계 협력자
type SeriesResolver interface {
	Resolve(ctx context.Context, horizon int) (contracts.PriceSeries, contracts.DataSource)
}

// Deps 파이프라인 협력자 묶음
// Store, Pages, Committer may be nil: the matching step is skipped.
type Deps struct {
	Resolver  SeriesResolver
	Notifier  contracts.Notifier
	Renderer  contracts.ChartRenderer
	Store     contracts.RunStore
	Pages     contracts.PageLogger
	Committer contracts.Committer
}

// Pipeline 예측 파이프라인 오케스트레이터
// ⭐ SSOT: RESOLVE → ... → DONE 순서는 여기서만 정의
// Each Run is a self-contained value flow; the struct holds no per-run state.
type Pipeline struct {
	cfg    *config.Config
	deps   Deps
	logger *logger.Logger
	now    func() time.Time
	newID  func() string
}

// New creates a pipeline
func New(cfg *config.Config, deps Deps, log *logger.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: log.WithComponent("pipeline"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithClock overrides the clock used for run timestamps
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Run executes one forecast run.
// Fatal: invalid horizon, insufficient data, notifier failure, render failure.
// Upload, persist, Notion and GitHub failures end up in PipelineOutput.Diagnostics.
func (p *Pipeline) Run(ctx context.Context, horizon int) (*contracts.PipelineOutput, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", forecast.ErrInvalidParameter, horizon)
	}

	runID := p.newID()
	began := time.Now()
	startedAt := p.now().UTC()
	log := p.logger.WithFields(map[string]interface{}{
		"run_id":  runID,
		"horizon": horizon,
	})

	// RESOLVE
	series, source := p.deps.Resolver.Resolve(ctx, horizon)
	log.WithFields(map[string]interface{}{
		"stage":       contracts.StageResolve,
		"data_source": source,
		"points":      len(series),
	}).Info("Price series resolved")

	// SHAPE + VALIDATE
	shaped := features.Shape(series, features.DefaultLags).DropIncomplete()
	if shaped.Len() <= horizon {
		return nil, fmt.Errorf("%w: %d complete observations for horizon %d, increase data window or reduce horizon",
			forecast.ErrInsufficientData, shaped.Len(), horizon)
	}

	// FORECAST
	train, test, err := forecast.TrainTestSplit(shaped.Series(), horizon)
	if err != nil {
		return nil, err
	}
	joined := make(contracts.PriceSeries, 0, len(train)+len(test))
	joined = append(append(joined, train...), test...)

	result, err := forecast.NaiveForecast(joined, horizon)
	if err != nil {
		return nil, err
	}

	// SCORE
	metrics := forecast.Score(result)
	message := BuildMessage(metrics)

	// NOTIFY (primary deliverable)
	if err := p.deps.Notifier.PostMessage(ctx, p.cfg.Slack.Channel, message); err != nil {
		return nil, asNotifierError(err)
	}
	log.WithField("stage", contracts.StageNotify).Info("Forecast summary posted")

	// RENDER
	reportPath, err := p.deps.Renderer.Render(result, filepath.Join(p.cfg.ReportsDir, "plots"), report.DefaultTitle, horizon)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}

	output := &contracts.PipelineOutput{
		RunID:      runID,
		Forecast:   result,
		Message:    message,
		ReportPath: reportPath,
		Metrics:    metrics,
		DataSource: source,
	}

	run := runContext{
		id:         runID,
		startedAt:  startedAt,
		horizon:    horizon,
		source:     source,
		metrics:    metrics,
		result:     result,
		reportPath: reportPath,
	}

	// best-effort fan-out, in order
	for _, step := range p.sinkSteps() {
		if !step.enabled {
			output.Skipped = append(output.Skipped, step.stage)
			continue
		}
		if err := step.run(ctx, run, output); err != nil {
			output.Diagnostics = append(output.Diagnostics, contracts.SinkError{Stage: step.stage, Err: err})
			log.WithFields(map[string]interface{}{
				"stage": step.stage,
				"error": err.Error(),
			}).Warn("Best-effort step failed")
		}
	}

	log.WithFields(map[string]interface{}{
		"stage":       contracts.StageDone,
		"report_path": reportPath,
		"rmse":        metrics.RMSE,
		"mae":         metrics.MAE,
		"mape":        metrics.MAPE,
		"diagnostics": len(output.Diagnostics),
		"duration":    time.Since(began),
	}).Info("Forecast run completed")

	return output, nil
}

func asNotifierError(err error) error {
	var svcErr *contracts.ExternalServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	return contracts.NewExternalServiceError("slack", "post message", err)
}
