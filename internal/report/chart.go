package report

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/logger"
)

const (
	DefaultTitle = "Spot Price Forecast"

	chartWidth  = 1000
	chartHeight = 500
)

// Renderer draws actual vs forecast as a PNG line chart
// ⭐ SSOT: 차트 렌더링은 여기서만
type Renderer struct {
	now    func() time.Time
	logger *logger.Logger
}

// NewRenderer creates a chart renderer
func NewRenderer(log *logger.Logger) *Renderer {
	return &Renderer{
		now:    time.Now,
		logger: log.WithComponent("report"),
	}
}

// WithClock overrides the clock used for file names
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Render writes forecast_<UTC timestamp>.png under outputDir (created if missing)
func (r *Renderer) Render(result contracts.ForecastResult, outputDir, title string, horizon int) (string, error) {
	if len(result.Actual) == 0 || len(result.Actual) != len(result.Predicted) {
		return "", fmt.Errorf("cannot render forecast with %d actual and %d predicted points",
			len(result.Actual), len(result.Predicted))
	}
	if title == "" {
		title = DefaultTitle
	}
	if horizon <= 0 {
		horizon = len(result.Predicted)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	path, err := r.nextPath(outputDir)
	if err != nil {
		return "", err
	}

	graph := buildChart(result, fmt.Sprintf("%s (next %dh)", title, horizon))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	if err := graph.Render(chart.PNG, f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close chart file: %w", err)
	}

	r.logger.WithField("path", path).Info("Forecast chart rendered")
	return path, nil
}

// nextPath picks forecast_YYYYMMDD_HHMMSS.png, adding a suffix if that name is taken
func (r *Renderer) nextPath(dir string) (string, error) {
	stamp := r.now().UTC().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("forecast_%s.png", stamp))

	for i := 2; ; i++ {
		_, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			return path, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat chart file: %w", err)
		}
		path = filepath.Join(dir, fmt.Sprintf("forecast_%s_%d.png", stamp, i))
	}
}

func buildChart(result contracts.ForecastResult, title string) chart.Chart {
	n := len(result.Actual)
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		lo = min(lo, result.Actual[i], result.Predicted[i])
		hi = max(hi, result.Actual[i], result.Predicted[i])
	}
	pad := max((hi-lo)*0.1, 1)

	var start time.Time
	if len(result.Index) > 0 {
		start = result.Index[0]
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Time (UTC)",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(float64(n-1), 1)},
			ValueFormatter: func(v interface{}) string {
				hours, _ := v.(float64)
				if start.IsZero() {
					return fmt.Sprintf("+%.0fh", hours)
				}
				return start.Add(time.Duration(hours * float64(time.Hour))).UTC().Format("01-02 15h")
			},
		},
		YAxis: chart.YAxis{
			Name:  "€/MWh",
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Actual",
				XValues: xs,
				YValues: result.Actual,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
					DotColor:    chart.ColorBlue,
					DotWidth:    3,
				},
			},
			chart.ContinuousSeries{
				Name:    "Forecast",
				XValues: xs,
				YValues: result.Predicted,
				Style: chart.Style{
					StrokeColor:     chart.ColorRed,
					StrokeWidth:     2,
					StrokeDashArray: []float64{5, 5},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph
}
