package datasource

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/wonny/spotcast/internal/contracts"
)

// ordinalEpoch 0001-01-01을 1로 세는 그레고리력 서수에서 1970-01-01의 값
const ordinalEpoch = 719163

// SyntheticLength returns the number of hourly points generated for horizon
func SyntheticLength(horizon int) int {
	return max(horizon+48, 72)
}

// Ordinal proleptic Gregorian day number of date (0001-01-01 = 1)
func Ordinal(date time.Time) int64 {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return day.Unix()/86400 + ordinalEpoch
}

// Synthetic 날짜 시드 기반 합성 시계열
// 마지막 시점 = 대상 날짜 00:00 UTC
// price = 60 + 5·sin(2π·i/24) + linspace(-2, 2) + N(0, 1.5)
// ⭐ 같은 날짜는 항상 같은 시계열을 재현
func Synthetic(date time.Time, horizon int) contracts.PriceSeries {
	n := SyntheticLength(horizon)
	end := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	start := end.Add(-time.Duration(n-1) * time.Hour)

	seed := uint64(Ordinal(date))
	rng := rand.New(rand.NewPCG(seed, seed))

	series := make(contracts.PriceSeries, n)
	for i := 0; i < n; i++ {
		base := 60 + 5*math.Sin(2*math.Pi*float64(i)/24)
		trend := -2 + 4*float64(i)/float64(n-1)
		noise := rng.NormFloat64() * 1.5

		series[i] = contracts.PricePoint{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Price: base + trend + noise,
		}
	}

	return series
}
