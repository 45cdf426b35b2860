package datasource

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/spotcast/internal/contracts"
)

// timeLayouts 피드가 사용하는 타임스탬프 형식 (zone 없는 값은 UTC)
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Coerce 피드 레코드 → PriceSeries
// 파싱 불가 행 제거, 시간순 정렬, 중복 타임스탬프는 마지막 값 유지
func Coerce(records []contracts.RawPrice) contracts.PriceSeries {
	series := make(contracts.PriceSeries, 0, len(records))
	for _, r := range records {
		ts, ok := parseTime(r.DateTime)
		if !ok {
			continue
		}
		price, ok := parsePrice(r.SpotPrice)
		if !ok {
			continue
		}
		series = append(series, contracts.PricePoint{Time: ts, Price: price})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Time.Before(series[j].Time)
	})

	deduped := series[:0]
	for _, p := range series {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(p.Time) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}

	return deduped
}

func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func parsePrice(value string) (float64, bool) {
	price, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, false
	}
	return price, true
}
