package forecast

import (
	"math"

	"github.com/wonny/spotcast/internal/contracts"
)

// RMSE root mean squared error; 0 for empty input
func RMSE(actual, predicted []float64) float64 {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// MAE mean absolute error; 0 for empty input
func MAE(actual, predicted []float64) float64 {
	n := min(len(actual), len(predicted))
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(n)
}

// MAPE mean absolute percentage error over nonzero actuals.
// Returns 0 when every actual is zero.
func MAPE(actual, predicted []float64) float64 {
	n := min(len(actual), len(predicted))

	var sum float64
	count := 0
	for i := 0; i < n; i++ {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - predicted[i]) / actual[i])
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count) * 100
}

// Score 예측 결과로부터 Metrics 묶음 계산
// previous = 홀드아웃의 마지막 직전 실제값 (1개뿐이면 latest → delta 0%)
func Score(result contracts.ForecastResult) contracts.Metrics {
	m := contracts.Metrics{
		RMSE: RMSE(result.Actual, result.Predicted),
		MAE:  MAE(result.Actual, result.Predicted),
		MAPE: MAPE(result.Actual, result.Predicted),
	}
	if len(result.Predicted) == 0 {
		return m
	}

	m.Latest = result.Predicted[len(result.Predicted)-1]
	m.Previous = m.Latest
	if len(result.Actual) > 1 {
		m.Previous = result.Actual[len(result.Actual)-2]
	}
	if m.Previous != 0 {
		m.DeltaPct = (m.Latest - m.Previous) / m.Previous * 100
	}

	return m
}
