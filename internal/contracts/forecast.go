package contracts

import (
	"encoding/json"
	"fmt"
	"time"
)

// DataSource 가격 시계열 출처 (provenance)
type DataSource string

const (
	// DataSourceAPI 라이브 가격 피드
	DataSourceAPI DataSource = "api"
	// DataSourceSynthetic 날짜 시드 기반 합성 시계열
	DataSourceSynthetic DataSource = "synthetic"
)

// PricePoint 시간별 가격 관측치
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// PriceSeries 시간 오름차순, 중복 없는 가격 시계열
// ⭐ SSOT: 한 번 생성되면 run 동안 변경하지 않음
type PriceSeries []PricePoint

// NewHourlySeries builds a series of consecutive hourly points starting at start
func NewHourlySeries(start time.Time, values []float64) PriceSeries {
	series := make(PriceSeries, len(values))
	for i, v := range values {
		series[i] = PricePoint{Time: start.Add(time.Duration(i) * time.Hour), Price: v}
	}
	return series
}

// Len returns the number of observations
func (s PriceSeries) Len() int {
	return len(s)
}

// Values returns the prices in order
func (s PriceSeries) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Price
	}
	return values
}

// Times returns the timestamps in order
func (s PriceSeries) Times() []time.Time {
	times := make([]time.Time, len(s))
	for i, p := range s {
		times[i] = p.Time
	}
	return times
}

// Validate checks that timestamps are strictly increasing
func (s PriceSeries) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].Time.After(s[i-1].Time) {
			return fmt.Errorf("timestamps not strictly increasing at index %d (%s <= %s)",
				i, s[i].Time.Format(time.RFC3339), s[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// ForecastResult 홀드아웃 구간의 실제값과 예측값 (같은 인덱스 공유)
// Invariant: len(Index) == len(Actual) == len(Predicted) == horizon
type ForecastResult struct {
	Index     []time.Time `json:"index"`
	Actual    []float64   `json:"actual"`
	Predicted []float64   `json:"forecast"`
}

// Horizon returns the number of holdout periods
func (r ForecastResult) Horizon() int {
	return len(r.Actual)
}

// Metrics 예측 정확도 및 방향성 지표 묶음
type Metrics struct {
	Latest   float64 `json:"latest"`
	Previous float64 `json:"previous"`
	DeltaPct float64 `json:"delta_pct"`
	RMSE     float64 `json:"rmse"`
	MAE      float64 `json:"mae"`
	MAPE     float64 `json:"mape"`
}

// Map returns the bundle keyed by metric name
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"latest":    m.Latest,
		"previous":  m.Previous,
		"delta_pct": m.DeltaPct,
		"rmse":      m.RMSE,
		"mae":       m.MAE,
		"mape":      m.MAPE,
	}
}

// RollingWindowConfig 롤링 백테스트 윈도우 설정
type RollingWindowConfig struct {
	WindowSize int `json:"window_size"`
	StepSize   int `json:"step_size"` // default 1
}

// DefaultRollingWindowConfig returns a config with StepSize 1
func DefaultRollingWindowConfig(windowSize int) RollingWindowConfig {
	return RollingWindowConfig{WindowSize: windowSize, StepSize: 1}
}

// Validate checks window and step are positive
func (c RollingWindowConfig) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	if c.StepSize <= 0 {
		return fmt.Errorf("step_size must be positive, got %d", c.StepSize)
	}
	return nil
}

// PipelineOutput 파이프라인 1회 실행의 최종 산출물
// Created once per run and never mutated afterwards.
type PipelineOutput struct {
	RunID       string         `json:"run_id"`
	StoredRunID int64          `json:"stored_run_id,omitempty"` // forecast_runs.id, 0 when not persisted
	Forecast    ForecastResult `json:"forecast"`
	Message     string         `json:"message"`
	ReportPath  string         `json:"report_path"`
	Metrics     Metrics        `json:"metrics"`
	DataSource  DataSource     `json:"data_source"`

	// Diagnostics 비치명적 best-effort 단계 실패 목록
	Diagnostics []SinkError `json:"diagnostics,omitempty"`
	// Skipped 자격 증명이 없어 건너뛴 단계
	Skipped []Stage `json:"skipped,omitempty"`
}

// SinkError 하나의 best-effort 단계 실패
type SinkError struct {
	Stage Stage `json:"stage"`
	Err   error `json:"-"`
}

func (e SinkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e SinkError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the error as text
func (e SinkError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Stage Stage  `json:"stage"`
		Error string `json:"error"`
	}{e.Stage, msg})
}
