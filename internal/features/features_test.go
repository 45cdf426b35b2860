package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spotcast/internal/contracts"
)

func TestShape_Calendar(t *testing.T) {
	// 2024-03-02 is a Saturday, ISO week 9
	start := time.Date(2024, 3, 2, 22, 0, 0, 0, time.UTC)
	frame := Shape(contracts.NewHourlySeries(start, []float64{1, 2, 3}), DefaultLags)
	require.Equal(t, 3, frame.Len())

	first := frame.Rows[0]
	assert.Equal(t, 22, first.Hour)
	assert.Equal(t, 2, first.Day)
	assert.Equal(t, 5, first.Weekday)
	assert.Equal(t, 3, first.Month)
	assert.Equal(t, 9, first.WeekOfYear)
	assert.True(t, first.IsWeekend)

	// 2024-03-03 00:00 is Sunday
	third := frame.Rows[2]
	assert.Equal(t, 0, third.Hour)
	assert.Equal(t, 6, third.Weekday)
	assert.True(t, third.IsWeekend)
}

func TestShape_LagsAndDrop(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i)
	}
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	frame := Shape(contracts.NewHourlySeries(start, values), DefaultLags)

	assert.Empty(t, frame.Rows[0].Lags)
	assert.Equal(t, 4.0, frame.Rows[5].Lags[1])
	_, ok := frame.Rows[23].Lags[24]
	assert.False(t, ok)
	assert.Equal(t, 0.0, frame.Rows[24].Lags[24])
	assert.False(t, frame.Rows[0].IsWeekend)

	complete := frame.DropIncomplete()
	require.Equal(t, 6, complete.Len())
	assert.Equal(t, 24.0, complete.Rows[0].Price)

	series := complete.Series()
	assert.NoError(t, series.Validate())
	assert.Equal(t, start.Add(24*time.Hour), series[0].Time)
	assert.Equal(t, []float64{24, 25, 26, 27, 28, 29}, series.Values())
}

func TestShape_NoLags(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	frame := Shape(contracts.NewHourlySeries(start, []float64{1, 2}), nil)
	assert.Equal(t, 2, frame.DropIncomplete().Len())
}
