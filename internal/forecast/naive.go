package forecast

import (
	"errors"
	"fmt"

	"github.com/wonny/spotcast/internal/contracts"
)

// =============================================================================
// Baseline Forecaster (Pure)
// =============================================================================

var (
	// ErrInsufficientData 홀드아웃 구간을 만들 관측치가 부족함 (fatal)
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidParameter 분할/호라이즌 파라미터 범위 오류 (fatal)
	ErrInvalidParameter = errors.New("invalid parameter")
)

// NaiveForecast 마지막 관측값 baseline 예측
// actual = 마지막 horizon개 관측치
// predicted = 홀드아웃 직전 값 (직전 값이 없으면 홀드아웃 첫 값)
func NaiveForecast(series contracts.PriceSeries, horizon int) (contracts.ForecastResult, error) {
	if horizon <= 0 {
		return contracts.ForecastResult{}, fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidParameter, horizon)
	}
	if len(series) < horizon {
		return contracts.ForecastResult{}, fmt.Errorf("%w: need %d observations, have %d", ErrInsufficientData, horizon, len(series))
	}

	holdout := series[len(series)-horizon:]
	last := holdout[0].Price
	if len(series) > horizon {
		last = series[len(series)-horizon-1].Price
	}

	result := contracts.ForecastResult{
		Index:     holdout.Times(),
		Actual:    holdout.Values(),
		Predicted: make([]float64, horizon),
	}
	for i := range result.Predicted {
		result.Predicted[i] = last
	}

	return result, nil
}

// TrainTestSplit 뒤쪽 testSize개를 test, 나머지를 train으로 분할
func TrainTestSplit(series contracts.PriceSeries, testSize int) (train, test contracts.PriceSeries, err error) {
	if testSize <= 0 || testSize >= len(series) {
		return nil, nil, fmt.Errorf("%w: test_size must be in (0, %d), got %d", ErrInvalidParameter, len(series), testSize)
	}

	cut := len(series) - testSize
	return series[:cut:cut], series[cut:], nil
}
