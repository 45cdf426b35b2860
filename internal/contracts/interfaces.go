package contracts

import (
	"context"
	"time"
)

// RawPrice 라이브 피드가 반환하는 가공 전 레코드
// SpotPrice is kept as text so coercion happens in one place (datasource).
type RawPrice struct {
	DateTime  string
	SpotPrice string
}

// PriceQuery 라이브 피드 조회 조건
type PriceQuery struct {
	Area       string
	Currency   string
	Resolution string
	Date       time.Time
}

// PriceFeed fetches live spot prices (RESOLVE)
// ⭐ SSOT: 라이브 가격 피드 인터페이스
type PriceFeed interface {
	FetchSpotPrices(ctx context.Context, query PriceQuery) ([]RawPrice, error)
}

// Notifier posts the run summary (NOTIFY)
// ⭐ SSOT: 필수 capability는 PostMessage 하나뿐
type Notifier interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// FileUploader is the optional upload capability of a Notifier (UPLOAD).
// Detect it with a type assertion on the Notifier.
type FileUploader interface {
	UploadFile(ctx context.Context, channel, path, title string) error
}

// ChartRenderer renders actual vs forecast into an image file (RENDER)
type ChartRenderer interface {
	Render(result ForecastResult, outputDir, title string, horizon int) (string, error)
}

// RunStore persists one run row plus its value rows (PERSIST)
type RunStore interface {
	SaveRun(ctx context.Context, run RunRecord, values []ValueRecord) (int64, error)
}

// RunReader reads run history
type RunReader interface {
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	ForecastValues(ctx context.Context, runID int64) ([]ValueRecord, error)
	PerformanceSummary(ctx context.Context, days int) (*PerformanceSummary, error)
}

// PageLogger creates one external page per run (SYNC)
type PageLogger interface {
	LogRun(ctx context.Context, entry RunEntry) error
}

// Committer creates or updates a file in a remote repository (COMMIT)
type Committer interface {
	CommitFile(ctx context.Context, dest string, content []byte, message string) error
}
