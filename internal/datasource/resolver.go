package datasource

import (
	"context"
	"time"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/logger"
)

// Resolver 라이브 피드 또는 합성 시계열 선택
// ⭐ SSOT: RESOLVE 단계의 폴백 정책은 여기서만
// Any feed failure or short response falls back to synthetic data. No retry.
type Resolver struct {
	feed   contracts.PriceFeed // nil: no live credential configured
	query  contracts.PriceQuery
	now    func() time.Time
	logger *logger.Logger
}

// NewResolver creates a resolver. feed is ignored when the live credential is absent.
func NewResolver(cfg *config.Config, feed contracts.PriceFeed, log *logger.Logger) *Resolver {
	if !cfg.Nordpool.Enabled() {
		feed = nil
	}

	return &Resolver{
		feed: feed,
		query: contracts.PriceQuery{
			Area:       cfg.Nordpool.Area,
			Currency:   cfg.Nordpool.Currency,
			Resolution: cfg.Nordpool.Resolution,
		},
		now:    time.Now,
		logger: log.WithComponent("datasource"),
	}
}

// WithClock overrides the clock used to pick the target date
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve returns a series for today covering more than horizon points
func (r *Resolver) Resolve(ctx context.Context, horizon int) (contracts.PriceSeries, contracts.DataSource) {
	return r.ResolveFor(ctx, r.now().UTC(), horizon)
}

// ResolveFor returns a series for date covering more than horizon points
func (r *Resolver) ResolveFor(ctx context.Context, date time.Time, horizon int) (contracts.PriceSeries, contracts.DataSource) {
	if r.feed == nil {
		r.logger.Debug("No live feed credential, using synthetic series")
		return Synthetic(date, horizon), contracts.DataSourceSynthetic
	}

	query := r.query
	query.Date = date

	records, err := r.feed.FetchSpotPrices(ctx, query)
	if err != nil {
		r.logger.WithError(err).Warn("Live feed failed, falling back to synthetic series")
		return Synthetic(date, horizon), contracts.DataSourceSynthetic
	}

	series := Coerce(records)
	if len(series) <= horizon {
		r.logger.WithFields(map[string]interface{}{
			"records":      len(records),
			"observations": len(series),
			"horizon":      horizon,
		}).Warn("Live feed returned too few observations, falling back to synthetic series")
		return Synthetic(date, horizon), contracts.DataSourceSynthetic
	}

	return series, contracts.DataSourceAPI
}
