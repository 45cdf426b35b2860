package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/logger"
)

// pgxPool is the subset of *pgxpool.Pool used by the store
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres PostgreSQL 기반 run 저장소
type Postgres struct {
	pool   pgxPool
	logger *logger.Logger
	now    func() time.Time
	closer func()
}

// NewPostgres wraps an open pool
func NewPostgres(pool pgxPool, log *logger.Logger) *Postgres {
	return &Postgres{
		pool:   pool,
		logger: log.WithComponent("store.postgres"),
		now:    time.Now,
	}
}

// Migrate creates the tables if they do not exist
func (s *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id           BIGSERIAL PRIMARY KEY,
			timestamp    TIMESTAMPTZ NOT NULL,
			horizon      INTEGER NOT NULL,
			data_source  TEXT NOT NULL,
			latest_price DOUBLE PRECISION NOT NULL,
			rmse         DOUBLE PRECISION NOT NULL,
			mae          DOUBLE PRECISION NOT NULL,
			mape         DOUBLE PRECISION NOT NULL,
			report_path  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS forecast_values (
			id        BIGSERIAL PRIMARY KEY,
			run_id    BIGINT NOT NULL REFERENCES forecast_runs(id) ON DELETE CASCADE,
			timestamp TIMESTAMPTZ NOT NULL,
			actual    DOUBLE PRECISION NOT NULL,
			forecast  DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_runs_timestamp ON forecast_runs(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_values_run_id ON forecast_values(run_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate forecast tables: %w", err)
		}
	}
	return nil
}

// SaveRun inserts one run row and its value rows in a single transaction
func (s *Postgres) SaveRun(ctx context.Context, run contracts.RunRecord, values []contracts.ValueRecord) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	query := `
		INSERT INTO forecast_runs
			(timestamp, horizon, data_source, latest_price, rmse, mae, mape, report_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err = tx.QueryRow(ctx, query,
		run.Timestamp.UTC(), run.Horizon, string(run.DataSource),
		run.LatestPrice, run.RMSE, run.MAE, run.MAPE, run.ReportPath,
	).Scan(&id)
	if err != nil {
		_ = tx.Rollback(ctx)
		return 0, fmt.Errorf("insert forecast run: %w", err)
	}

	for _, v := range values {
		if _, err := tx.Exec(ctx, `
			INSERT INTO forecast_values (run_id, timestamp, actual, forecast)
			VALUES ($1, $2, $3, $4)`,
			id, v.Timestamp.UTC(), v.Actual, v.Forecast,
		); err != nil {
			_ = tx.Rollback(ctx)
			return 0, fmt.Errorf("insert forecast value: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit forecast run: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"run_id": id,
		"values": len(values),
	}).Debug("Forecast run persisted")

	return id, nil
}

// RecentRuns returns the newest runs first
func (s *Postgres) RecentRuns(ctx context.Context, limit int) ([]contracts.RunRecord, error) {
	query := `
		SELECT id, timestamp, horizon, data_source, latest_price, rmse, mae, mape, report_path
		FROM forecast_runs
		ORDER BY timestamp DESC, id DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []contracts.RunRecord
	for rows.Next() {
		var r contracts.RunRecord
		var source string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Horizon, &source,
			&r.LatestPrice, &r.RMSE, &r.MAE, &r.MAPE, &r.ReportPath); err != nil {
			return nil, fmt.Errorf("scan forecast run: %w", err)
		}
		r.DataSource = contracts.DataSource(source)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// ForecastValues returns the value rows of one run in time order
func (s *Postgres) ForecastValues(ctx context.Context, runID int64) ([]contracts.ValueRecord, error) {
	query := `
		SELECT id, run_id, timestamp, actual, forecast
		FROM forecast_values
		WHERE run_id = $1
		ORDER BY timestamp`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query forecast values: %w", err)
	}
	defer rows.Close()

	var values []contracts.ValueRecord
	for rows.Next() {
		var v contracts.ValueRecord
		if err := rows.Scan(&v.ID, &v.RunID, &v.Timestamp, &v.Actual, &v.Forecast); err != nil {
			return nil, fmt.Errorf("scan forecast value: %w", err)
		}
		values = append(values, v)
	}

	return values, rows.Err()
}

// PerformanceSummary aggregates runs from the last days
func (s *Postgres) PerformanceSummary(ctx context.Context, days int) (*contracts.PerformanceSummary, error) {
	query := `
		SELECT
			COALESCE(AVG(rmse), 0),
			COALESCE(AVG(mae), 0),
			COALESCE(AVG(mape), 0),
			COUNT(*),
			COUNT(DISTINCT data_source)
		FROM forecast_runs
		WHERE timestamp >= $1`

	cutoff := s.now().UTC().AddDate(0, 0, -days)

	summary := &contracts.PerformanceSummary{Days: days}
	err := s.pool.QueryRow(ctx, query, cutoff).Scan(
		&summary.AvgRMSE, &summary.AvgMAE, &summary.AvgMAPE,
		&summary.TotalRuns, &summary.DataSources,
	)
	if err != nil {
		return nil, fmt.Errorf("query performance summary: %w", err)
	}

	return summary, nil
}

// Close releases the pool when the store owns it
func (s *Postgres) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}
