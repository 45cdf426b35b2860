package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/logger"
)

var runTime = time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

func sampleRun() (contracts.RunRecord, []contracts.ValueRecord) {
	run := contracts.RunRecord{
		Timestamp:   runTime,
		Horizon:     2,
		DataSource:  contracts.DataSourceSynthetic,
		LatestPrice: 61.5,
		RMSE:        1.2,
		MAE:         1.1,
		MAPE:        2.5,
		ReportPath:  "reports/plots/forecast_20240301_060000.png",
	}
	values := []contracts.ValueRecord{
		{Timestamp: runTime.Add(-2 * time.Hour), Actual: 60, Forecast: 61.5},
		{Timestamp: runTime.Add(-1 * time.Hour), Actual: 62, Forecast: 61.5},
	}
	return run, values
}

func TestPostgres_SaveRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	run, values := sampleRun()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO forecast_runs").
		WithArgs(pgxmock.AnyArg(), 2, "synthetic", 61.5, 1.2, 1.1, 2.5, run.ReportPath).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))
	for _, v := range values {
		mock.ExpectExec("INSERT INTO forecast_values").
			WithArgs(int64(42), pgxmock.AnyArg(), v.Actual, v.Forecast).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	s := NewPostgres(mock, logger.Nop())
	id, err := s.SaveRun(context.Background(), run, values)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveRun_RollsBackOnValueFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	run, values := sampleRun()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO forecast_runs").
		WithArgs(pgxmock.AnyArg(), 2, "synthetic", 61.5, 1.2, 1.1, 2.5, run.ReportPath).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	// first value lands, second fails
	mock.ExpectExec("INSERT INTO forecast_values").
		WithArgs(int64(7), pgxmock.AnyArg(), values[0].Actual, values[0].Forecast).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO forecast_values").
		WithArgs(int64(7), pgxmock.AnyArg(), values[1].Actual, values[1].Forecast).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	s := NewPostgres(mock, logger.Nop())
	id, err := s.SaveRun(context.Background(), run, values)
	require.Error(t, err)
	assert.Zero(t, id)
	assert.Contains(t, err.Error(), "insert forecast value: disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveRun_RollsBackOnRunFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	run, values := sampleRun()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO forecast_runs").
		WithArgs(pgxmock.AnyArg(), 2, "synthetic", 61.5, 1.2, 1.1, 2.5, run.ReportPath).
		WillReturnError(errors.New("unique violation"))
	mock.ExpectRollback()

	_, err = NewPostgres(mock, logger.Nop()).SaveRun(context.Background(), run, values)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert forecast run: unique violation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RecentRuns(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "timestamp", "horizon", "data_source", "latest_price", "rmse", "mae", "mape", "report_path"}).
		AddRow(int64(2), runTime, 24, "api", 70.0, 1.0, 0.8, 1.5, "b.png").
		AddRow(int64(1), runTime.Add(-time.Hour), 24, "synthetic", 60.0, 2.0, 1.6, 3.0, "a.png")
	mock.ExpectQuery("SELECT id, timestamp, horizon").WithArgs(DefaultRecentLimit).WillReturnRows(rows)

	runs, err := NewPostgres(mock, logger.Nop()).RecentRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(2), runs[0].ID)
	assert.Equal(t, contracts.DataSourceAPI, runs[0].DataSource)
	assert.Equal(t, contracts.DataSourceSynthetic, runs[1].DataSource)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ForecastValues(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "run_id", "timestamp", "actual", "forecast"}).
		AddRow(int64(10), int64(3), runTime, 60.0, 61.0)
	mock.ExpectQuery("FROM forecast_values").WithArgs(int64(3)).WillReturnRows(rows)

	values, err := NewPostgres(mock, logger.Nop()).ForecastValues(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, 61.0, values[0].Forecast)
	assert.Equal(t, runTime, values[0].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_PerformanceSummary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"avg_rmse", "avg_mae", "avg_mape", "total_runs", "unique_sources"}).
		AddRow(1.5, 1.2, 2.0, 4, 2)
	mock.ExpectQuery(`COUNT\(DISTINCT data_source\)`).
		WithArgs(runTime.AddDate(0, 0, -30)).
		WillReturnRows(rows)

	s := NewPostgres(mock, logger.Nop())
	s.now = func() time.Time { return runTime }

	summary, err := s.PerformanceSummary(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, 30, summary.Days)
	assert.Equal(t, 4, summary.TotalRuns)
	assert.Equal(t, 2, summary.DataSources)
	assert.Equal(t, 1.5, summary.AvgRMSE)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS forecast_runs").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS forecast_values").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_forecast_runs_timestamp").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_forecast_values_run_id").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, NewPostgres(mock, logger.Nop()).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
