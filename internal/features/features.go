package features

import (
	"time"

	"github.com/wonny/spotcast/internal/contracts"
)

// DefaultLags 직전 1시간, 전날 같은 시간
var DefaultLags = []int{1, 24}

// Row 캘린더/래그 피처가 붙은 가격 관측치
type Row struct {
	Time  time.Time
	Price float64

	Hour       int
	Day        int
	Weekday    int // Monday = 0
	Month      int
	WeekOfYear int // ISO week
	IsWeekend  bool

	// Lags lag → 값. 이력이 부족한 lag는 키가 없음
	Lags map[int]float64
}

// Frame 피처 테이블 (시간 오름차순)
type Frame struct {
	Rows []Row
	lags []int
}

// Shape 가격 시계열에 캘린더 + 래그 피처 추가
// ⭐ SSOT: 피처 생성은 여기서만
func Shape(series contracts.PriceSeries, lags []int) Frame {
	frame := Frame{
		Rows: make([]Row, len(series)),
		lags: append([]int(nil), lags...),
	}

	for i, p := range series {
		row := calendarRow(p)
		row.Lags = make(map[int]float64, len(lags))
		for _, lag := range lags {
			if lag > 0 && i-lag >= 0 {
				row.Lags[lag] = series[i-lag].Price
			}
		}
		frame.Rows[i] = row
	}

	return frame
}

func calendarRow(p contracts.PricePoint) Row {
	_, week := p.Time.ISOWeek()
	weekday := (int(p.Time.Weekday()) + 6) % 7

	return Row{
		Time:       p.Time,
		Price:      p.Price,
		Hour:       p.Time.Hour(),
		Day:        p.Time.Day(),
		Weekday:    weekday,
		Month:      int(p.Time.Month()),
		WeekOfYear: week,
		IsWeekend:  weekday >= 5,
	}
}

// Complete reports whether every configured lag is present
func (f Frame) Complete(row Row) bool {
	for _, lag := range f.lags {
		if _, ok := row.Lags[lag]; !ok {
			return false
		}
	}
	return true
}

// DropIncomplete 래그 피처가 빠진 행 제거
func (f Frame) DropIncomplete() Frame {
	out := Frame{lags: f.lags}
	for _, row := range f.Rows {
		if f.Complete(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Len returns the number of rows
func (f Frame) Len() int {
	return len(f.Rows)
}

// Series 피처 테이블의 가격 열을 시계열로 변환
func (f Frame) Series() contracts.PriceSeries {
	series := make(contracts.PriceSeries, len(f.Rows))
	for i, row := range f.Rows {
		series[i] = contracts.PricePoint{Time: row.Time, Price: row.Price}
	}
	return series
}
