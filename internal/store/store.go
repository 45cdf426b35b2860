package store

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/database"
	"github.com/wonny/spotcast/pkg/logger"
)

// DefaultRecentLimit 최근 run 조회 기본 개수
const DefaultRecentLimit = 50

// Store run 이력 저장소 (쓰기 + 읽기)
// ⭐ SSOT: forecast_runs / forecast_values 접근은 이 패키지에서만
type Store interface {
	contracts.RunStore
	contracts.RunReader
	Close() error
}

// Open selects the backend from the DATABASE_URL scheme
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Store, error) {
	url := cfg.Database.URL

	switch {
	case config.IsPostgresURL(url):
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		s := NewPostgres(db.Pool, log)
		s.closer = db.Close
		if err := s.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return s, nil

	case config.IsSQLiteURL(url):
		return OpenSQLite(config.SQLitePath(url), log)

	default:
		return nil, fmt.Errorf("unsupported database url %q", url)
	}
}

// sqliteTimeLayout 고정 폭 UTC 포맷: 문자열 비교가 시간 순서와 일치
const sqliteTimeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(sqliteTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	return limit
}
