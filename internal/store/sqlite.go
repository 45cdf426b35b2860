package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/logger"
)

// SQLite 파일 기반 run 저장소 (기본 백엔드)
type SQLite struct {
	db     *sql.DB
	logger *logger.Logger
	now    func() time.Time
}

// OpenSQLite opens or creates the database file at path
func OpenSQLite(path string, log *logger.Logger) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer

	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLite{
		db:     db,
		logger: log.WithComponent("store.sqlite"),
		now:    time.Now,
	}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

func (s *SQLite) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    TEXT NOT NULL,
			horizon      INTEGER NOT NULL,
			data_source  TEXT NOT NULL,
			latest_price REAL NOT NULL,
			rmse         REAL NOT NULL,
			mae          REAL NOT NULL,
			mape         REAL NOT NULL,
			report_path  TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS forecast_values (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    INTEGER NOT NULL REFERENCES forecast_runs(id) ON DELETE CASCADE,
			timestamp TEXT NOT NULL,
			actual    REAL NOT NULL,
			forecast  REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_runs_timestamp ON forecast_runs(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_values_run_id ON forecast_values(run_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun inserts one run row and its value rows in a single transaction
func (s *SQLite) SaveRun(ctx context.Context, run contracts.RunRecord, values []contracts.ValueRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `
		INSERT INTO forecast_runs
			(timestamp, horizon, data_source, latest_price, rmse, mae, mape, report_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(run.Timestamp), run.Horizon, string(run.DataSource),
		run.LatestPrice, run.RMSE, run.MAE, run.MAPE, run.ReportPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert forecast run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO forecast_values (run_id, timestamp, actual, forecast) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare forecast value insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.ExecContext(ctx, id, formatTime(v.Timestamp), v.Actual, v.Forecast); err != nil {
			return 0, fmt.Errorf("insert forecast value: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit forecast run: %w", err)
	}

	return id, nil
}

// RecentRuns returns the newest runs first
func (s *SQLite) RecentRuns(ctx context.Context, limit int) ([]contracts.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, horizon, data_source, latest_price, rmse, mae, mape, report_path
		FROM forecast_runs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []contracts.RunRecord
	for rows.Next() {
		var r contracts.RunRecord
		var ts, source string
		if err := rows.Scan(&r.ID, &ts, &r.Horizon, &source,
			&r.LatestPrice, &r.RMSE, &r.MAE, &r.MAPE, &r.ReportPath); err != nil {
			return nil, fmt.Errorf("scan forecast run: %w", err)
		}
		if r.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", ts, err)
		}
		r.DataSource = contracts.DataSource(source)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// ForecastValues returns the value rows of one run in time order
func (s *SQLite) ForecastValues(ctx context.Context, runID int64) ([]contracts.ValueRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, timestamp, actual, forecast
		FROM forecast_values
		WHERE run_id = ?
		ORDER BY timestamp`, runID)
	if err != nil {
		return nil, fmt.Errorf("query forecast values: %w", err)
	}
	defer rows.Close()

	var values []contracts.ValueRecord
	for rows.Next() {
		var v contracts.ValueRecord
		var ts string
		if err := rows.Scan(&v.ID, &v.RunID, &ts, &v.Actual, &v.Forecast); err != nil {
			return nil, fmt.Errorf("scan forecast value: %w", err)
		}
		if v.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parse value timestamp %q: %w", ts, err)
		}
		values = append(values, v)
	}

	return values, rows.Err()
}

// PerformanceSummary aggregates runs from the last days
func (s *SQLite) PerformanceSummary(ctx context.Context, days int) (*contracts.PerformanceSummary, error) {
	cutoff := formatTime(s.now().UTC().AddDate(0, 0, -days))

	summary := &contracts.PerformanceSummary{Days: days}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(AVG(rmse), 0),
			COALESCE(AVG(mae), 0),
			COALESCE(AVG(mape), 0),
			COUNT(*),
			COUNT(DISTINCT data_source)
		FROM forecast_runs
		WHERE timestamp >= ?`, cutoff,
	).Scan(&summary.AvgRMSE, &summary.AvgMAE, &summary.AvgMAPE, &summary.TotalRuns, &summary.DataSources)
	if err != nil {
		return nil, fmt.Errorf("query performance summary: %w", err)
	}

	return summary, nil
}

// Close closes the underlying database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}
