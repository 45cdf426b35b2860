package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/spotcast/internal/contracts"
)

// runContext 한 run의 불변 결과 (sink 입력)
type runContext struct {
	id         string
	startedAt  time.Time
	horizon    int
	source     contracts.DataSource
	metrics    contracts.Metrics
	result     contracts.ForecastResult
	reportPath string
}

// sinkStep 하나의 best-effort 단계
type sinkStep struct {
	stage   contracts.Stage
	enabled bool
	run     func(ctx context.Context, rc runContext, out *contracts.PipelineOutput) error
}

// sinkSteps UPLOAD → PERSIST → SYNC → COMMIT
// A step without its credential or collaborator is skipped, not failed.
func (p *Pipeline) sinkSteps() []sinkStep {
	uploader, canUpload := p.deps.Notifier.(contracts.FileUploader)

	return []sinkStep{
		{
			stage:   contracts.StageUpload,
			enabled: canUpload && p.cfg.Slack.Enabled(),
			run: func(ctx context.Context, rc runContext, _ *contracts.PipelineOutput) error {
				title := "Spot price forecast " + p.now().UTC().Format("2006-01-02 15:04") + " UTC"
				return uploader.UploadFile(ctx, p.cfg.Slack.Channel, rc.reportPath, title)
			},
		},
		{
			stage:   contracts.StagePersist,
			enabled: p.deps.Store != nil,
			run:     p.persist,
		},
		{
			stage:   contracts.StageSync,
			enabled: p.deps.Pages != nil && p.cfg.Notion.Enabled(),
			run: func(ctx context.Context, rc runContext, _ *contracts.PipelineOutput) error {
				return p.deps.Pages.LogRun(ctx, contracts.RunEntry{
					RunID:      rc.id,
					Timestamp:  p.now().UTC(),
					Horizon:    rc.horizon,
					DataSource: rc.source,
					Metrics:    rc.metrics,
					ReportPath: rc.reportPath,
				})
			},
		},
		{
			stage:   contracts.StageCommit,
			enabled: p.deps.Committer != nil && p.cfg.GitHub.Enabled(),
			run:     p.commit,
		},
	}
}

func (p *Pipeline) persist(ctx context.Context, rc runContext, out *contracts.PipelineOutput) error {
	record := contracts.RunRecord{
		Timestamp:   p.now().UTC(),
		Horizon:     rc.horizon,
		DataSource:  rc.source,
		LatestPrice: rc.metrics.Latest,
		RMSE:        rc.metrics.RMSE,
		MAE:         rc.metrics.MAE,
		MAPE:        rc.metrics.MAPE,
		ReportPath:  rc.reportPath,
	}

	id, err := p.deps.Store.SaveRun(ctx, record, contracts.NewValueRecords(0, rc.result))
	if err != nil {
		return contracts.NewExternalServiceError("store", "save run", err)
	}
	out.StoredRunID = id
	return nil
}

// historyDocument reports/history/<stem>.json
type historyDocument struct {
	RunID      string             `json:"run_id"`
	Timestamp  string             `json:"timestamp"`
	Horizon    int                `json:"horizon"`
	DataSource string             `json:"data_source"`
	Metrics    map[string]float64 `json:"metrics"`
	ReportPath string             `json:"report_path"`
	Values     historyValues      `json:"values"`
}

type historyValues struct {
	Index    []string  `json:"index"`
	Actual   []float64 `json:"actual"`
	Forecast []float64 `json:"forecast"`
}

// commit pushes the chart, then the JSON history document.
// A failed chart commit skips the history commit.
func (p *Pipeline) commit(ctx context.Context, rc runContext, _ *contracts.PipelineOutput) error {
	now := p.now().UTC()
	stamp := now.Format("20060102_150405")
	base := filepath.Base(rc.reportPath)
	remotePlot := "reports/plots/" + base

	plot, err := os.ReadFile(rc.reportPath)
	if err != nil {
		return fmt.Errorf("read chart: %w", err)
	}
	if err := p.deps.Committer.CommitFile(ctx, remotePlot, plot, "Add forecast plot "+stamp); err != nil {
		return err
	}

	doc := historyDocument{
		RunID:      rc.id,
		Timestamp:  now.Format(time.RFC3339Nano),
		Horizon:    rc.horizon,
		DataSource: string(rc.source),
		Metrics:    rc.metrics.Map(),
		ReportPath: remotePlot,
		Values: historyValues{
			Index:    make([]string, len(rc.result.Index)),
			Actual:   rc.result.Actual,
			Forecast: rc.result.Predicted,
		},
	}
	for i, ts := range rc.result.Index {
		doc.Values.Index[i] = ts.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return p.deps.Committer.CommitFile(ctx, "reports/history/"+stem+".json", data, "Add forecast metrics "+stamp)
}
