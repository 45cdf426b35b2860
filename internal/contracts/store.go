package contracts

import "time"

// RunRecord forecast_runs 테이블의 한 행
type RunRecord struct {
	ID          int64      `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Horizon     int        `json:"horizon"`
	DataSource  DataSource `json:"data_source"`
	LatestPrice float64    `json:"latest_price"`
	RMSE        float64    `json:"rmse"`
	MAE         float64    `json:"mae"`
	MAPE        float64    `json:"mape"`
	ReportPath  string     `json:"report_path"`
}

// ValueRecord forecast_values 테이블의 한 행
type ValueRecord struct {
	ID        int64     `json:"id"`
	RunID     int64     `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Actual    float64   `json:"actual"`
	Forecast  float64   `json:"forecast"`
}

// PerformanceSummary 최근 N일 run 성과 요약
type PerformanceSummary struct {
	Days        int     `json:"days"`
	TotalRuns   int     `json:"total_runs"`
	AvgRMSE     float64 `json:"avg_rmse"`
	AvgMAE      float64 `json:"avg_mae"`
	AvgMAPE     float64 `json:"avg_mape"`
	DataSources int     `json:"data_sources"`
}

// RunEntry everything a per-run sink needs to describe one run
type RunEntry struct {
	RunID      string     `json:"run_id"`
	Timestamp  time.Time  `json:"timestamp"`
	Horizon    int        `json:"horizon"`
	DataSource DataSource `json:"data_source"`
	Metrics    Metrics    `json:"metrics"`
	ReportPath string     `json:"report_path"`
}

// NewValueRecords zips a forecast result into value rows for runID
func NewValueRecords(runID int64, result ForecastResult) []ValueRecord {
	values := make([]ValueRecord, len(result.Actual))
	for i := range result.Actual {
		values[i] = ValueRecord{
			RunID:     runID,
			Timestamp: result.Index[i],
			Actual:    result.Actual[i],
			Forecast:  result.Predicted[i],
		}
	}
	return values
}
