package forecast

import (
	"fmt"
	"iter"

	"github.com/rs/zerolog"

	"github.com/wonny/spotcast/internal/contracts"
)

// =============================================================================
// Rolling Evaluator
// =============================================================================

// RollingForecast 슬라이딩 윈도우 naive forecast 시퀀스 (lazy, 재시작 가능)
// start: WindowSize → len-horizon (inclusive), StepSize 간격
// 각 trial = [start-WindowSize, start) 윈도우 + 다음 horizon개 실제값
// 잘못된 설정이면 빈 시퀀스
func RollingForecast(series contracts.PriceSeries, horizon int, cfg contracts.RollingWindowConfig) iter.Seq[contracts.ForecastResult] {
	return func(yield func(contracts.ForecastResult) bool) {
		if horizon <= 0 || cfg.Validate() != nil {
			return
		}

		for start := cfg.WindowSize; start <= len(series)-horizon; start += cfg.StepSize {
			result, err := NaiveForecast(series[start-cfg.WindowSize:start+horizon], horizon)
			if err != nil {
				return
			}
			if !yield(result) {
				return
			}
		}
	}
}

// CollectMetrics 시퀀스를 소비하며 trial별 지표 수집
func CollectMetrics(results iter.Seq[contracts.ForecastResult]) []contracts.Metrics {
	var out []contracts.Metrics
	for result := range results {
		out = append(out, Score(result))
	}
	return out
}

// BacktestSummary 롤링 백테스트 집계 결과
type BacktestSummary struct {
	Trials     int     `json:"trials"`
	Horizon    int     `json:"horizon"`
	WindowSize int     `json:"window_size"`
	StepSize   int     `json:"step_size"`
	AvgRMSE    float64 `json:"avg_rmse"`
	AvgMAE     float64 `json:"avg_mae"`
	AvgMAPE    float64 `json:"avg_mape"`
	WorstRMSE  float64 `json:"worst_rmse"`
}

// Backtester 롤링 평가 집계기
type Backtester struct {
	log zerolog.Logger
}

// NewBacktester 새 백테스터 생성
func NewBacktester(log zerolog.Logger) *Backtester {
	return &Backtester{
		log: log.With().Str("component", "forecast.backtester").Logger(),
	}
}

// Run 시리즈 전체에 대해 롤링 평가 후 평균 지표 계산
func (b *Backtester) Run(series contracts.PriceSeries, horizon int, cfg contracts.RollingWindowConfig) (*BacktestSummary, error) {
	if horizon <= 0 {
		return nil, fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidParameter, horizon)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}

	summary := &BacktestSummary{
		Horizon:    horizon,
		WindowSize: cfg.WindowSize,
		StepSize:   cfg.StepSize,
	}

	for _, m := range CollectMetrics(RollingForecast(series, horizon, cfg)) {
		summary.Trials++
		summary.AvgRMSE += m.RMSE
		summary.AvgMAE += m.MAE
		summary.AvgMAPE += m.MAPE
		summary.WorstRMSE = max(summary.WorstRMSE, m.RMSE)
	}

	if summary.Trials == 0 {
		return nil, fmt.Errorf("%w: series of %d points cannot fit window %d + horizon %d",
			ErrInsufficientData, len(series), cfg.WindowSize, horizon)
	}

	n := float64(summary.Trials)
	summary.AvgRMSE /= n
	summary.AvgMAE /= n
	summary.AvgMAPE /= n

	b.log.Info().
		Int("trials", summary.Trials).
		Int("horizon", horizon).
		Float64("avg_rmse", summary.AvgRMSE).
		Float64("avg_mae", summary.AvgMAE).
		Float64("avg_mape", summary.AvgMAPE).
		Msg("backtest completed")

	return summary, nil
}
