package datasource

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/logger"
)

var targetDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type stubFeed struct {
	records []contracts.RawPrice
	err     error
	calls   int
	query   contracts.PriceQuery
}

func (f *stubFeed) FetchSpotPrices(ctx context.Context, query contracts.PriceQuery) ([]contracts.RawPrice, error) {
	f.calls++
	f.query = query
	return f.records, f.err
}

func hourlyRecords(n int) []contracts.RawPrice {
	records := make([]contracts.RawPrice, n)
	for i := range records {
		ts := targetDate.Add(time.Duration(i) * time.Hour)
		records[i] = contracts.RawPrice{
			DateTime:  ts.Format("2006-01-02T15:04:05"),
			SpotPrice: fmt.Sprintf("%.2f", 50+float64(i)),
		}
	}
	return records
}

func configWithKey(key string) *config.Config {
	cfg := config.Default()
	cfg.Nordpool.APIKey = key
	return cfg
}

func TestOrdinal(t *testing.T) {
	assert.Equal(t, int64(1), Ordinal(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(719163), Ordinal(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(738886), Ordinal(time.Date(2024, 1, 1, 15, 30, 0, 0, time.UTC)))
}

func TestSynthetic(t *testing.T) {
	t.Run("deterministic per date", func(t *testing.T) {
		a := Synthetic(targetDate, 24)
		b := Synthetic(targetDate, 24)
		assert.Equal(t, a, b)

		c := Synthetic(targetDate.AddDate(0, 0, 1), 24)
		assert.NotEqual(t, a.Values(), c.Values())
	})

	t.Run("length and timestamps", func(t *testing.T) {
		for _, horizon := range []int{1, 24, 48} {
			series := Synthetic(targetDate, horizon)
			require.Len(t, series, max(horizon+48, 72))
			assert.Greater(t, len(series), horizon)
			assert.Equal(t, targetDate, series[len(series)-1].Time)
			assert.NoError(t, series.Validate())
		}
	})

	t.Run("plausible price range", func(t *testing.T) {
		for _, p := range Synthetic(targetDate, 24) {
			assert.InDelta(t, 60, p.Price, 20)
		}
	})
}

func TestCoerce(t *testing.T) {
	records := []contracts.RawPrice{
		{DateTime: "2024-03-01T02:00:00", SpotPrice: "3"},
		{DateTime: "2024-03-01T00:00:00Z", SpotPrice: "1"},
		{DateTime: "not a date", SpotPrice: "9"},
		{DateTime: "2024-03-01 01:00:00", SpotPrice: "abc"},
		{DateTime: "2024-03-01 01:00:00", SpotPrice: ""},
		{DateTime: "2024-03-01T01:00:00+01:00", SpotPrice: "0.5"}, // 00:00 UTC duplicate
		{DateTime: "2024-03-01T03:00", SpotPrice: " 4.25 "},
		{DateTime: "2024-03-01T04:00:00", SpotPrice: "NaN"},
	}

	series := Coerce(records)
	require.Len(t, series, 3)
	assert.NoError(t, series.Validate())
	assert.Equal(t, []float64{0.5, 3, 4.25}, series.Values())
	assert.Equal(t, targetDate, series[0].Time)
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return targetDate.Add(9 * time.Hour) }

	t.Run("no credential uses synthetic", func(t *testing.T) {
		feed := &stubFeed{records: hourlyRecords(48)}
		r := NewResolver(configWithKey(""), feed, logger.Nop()).WithClock(clock)

		series, source := r.Resolve(ctx, 24)
		assert.Equal(t, contracts.DataSourceSynthetic, source)
		assert.GreaterOrEqual(t, len(series), 24)
		assert.Equal(t, 0, feed.calls)
		assert.Equal(t, Synthetic(targetDate, 24), series)
	})

	t.Run("nil feed uses synthetic", func(t *testing.T) {
		r := NewResolver(configWithKey("key"), nil, logger.Nop()).WithClock(clock)
		_, source := r.Resolve(ctx, 24)
		assert.Equal(t, contracts.DataSourceSynthetic, source)
	})

	t.Run("live feed", func(t *testing.T) {
		feed := &stubFeed{records: hourlyRecords(48)}
		r := NewResolver(configWithKey("key"), feed, logger.Nop()).WithClock(clock)

		series, source := r.Resolve(ctx, 24)
		assert.Equal(t, contracts.DataSourceAPI, source)
		assert.Len(t, series, 48)
		assert.Equal(t, 1, feed.calls)
		assert.Equal(t, "DK1", feed.query.Area)
		assert.Equal(t, "EUR", feed.query.Currency)
		assert.Equal(t, "hour", feed.query.Resolution)
		assert.Equal(t, "2024-03-01", feed.query.Date.Format("2006-01-02"))
	})

	t.Run("feed failure falls back without retry", func(t *testing.T) {
		feed := &stubFeed{err: errors.New("connection refused")}
		r := NewResolver(configWithKey("key"), feed, logger.Nop()).WithClock(clock)

		series, source := r.Resolve(ctx, 24)
		assert.Equal(t, contracts.DataSourceSynthetic, source)
		assert.Len(t, series, 72)
		assert.Equal(t, 1, feed.calls)
	})

	t.Run("short response falls back", func(t *testing.T) {
		feed := &stubFeed{records: hourlyRecords(24)}
		r := NewResolver(configWithKey("key"), feed, logger.Nop()).WithClock(clock)

		_, source := r.Resolve(ctx, 24)
		assert.Equal(t, contracts.DataSourceSynthetic, source)
	})

	t.Run("unparseable rows count against length", func(t *testing.T) {
		records := hourlyRecords(30)
		for i := 0; i < 10; i++ {
			records[i].SpotPrice = "n/a"
		}
		feed := &stubFeed{records: records}
		r := NewResolver(configWithKey("key"), feed, logger.Nop()).WithClock(clock)

		_, source := r.Resolve(ctx, 24)
		assert.Equal(t, contracts.DataSourceSynthetic, source)
	})
}
