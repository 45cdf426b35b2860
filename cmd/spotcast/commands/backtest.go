package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/internal/forecast"
	"github.com/wonny/spotcast/internal/profile"
	"github.com/wonny/spotcast/internal/scheduler/jobs"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "롤링 윈도우 백테스트",
	Long: `현재 가격 시계열에 대해 롤링 윈도우 naive forecast 를 평가합니다.

각 trial: [start-window, start) 윈도우 + 다음 horizon 개 실제값.
start 는 window 부터 len-horizon 까지 step 간격.

--profile 로 YAML 프로파일을 주면 window/step/horizon 을 프로파일 값으로 사용합니다.

Example:
  go run ./cmd/spotcast backtest
  go run ./cmd/spotcast backtest --window 24 --step 6 --horizon 12
  go run ./cmd/spotcast backtest --profile config/profiles/baseline.yaml`,
	RunE: runBacktest,
}

var (
	backtestWindow  int
	backtestStep    int
	backtestHorizon int
	backtestProfile string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().IntVar(&backtestWindow, "window", jobs.DefaultRetrainWindow, "윈도우 크기 (시간)")
	backtestCmd.Flags().IntVar(&backtestStep, "step", 1, "윈도우 이동 간격 (시간)")
	backtestCmd.Flags().IntVar(&backtestHorizon, "horizon", 0, "예측 horizon (시간, 기본: HORIZON_HOURS)")
	backtestCmd.Flags().StringVar(&backtestProfile, "profile", "", "YAML 프로파일 경로")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	horizon := a.horizonOr(backtestHorizon)
	window := contracts.RollingWindowConfig{WindowSize: backtestWindow, StepSize: backtestStep}

	var profileLabel string
	if backtestProfile != "" {
		p, _, err := profile.Load(backtestProfile)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		hash, err := profile.Hash(p)
		if err != nil {
			return fmt.Errorf("hash profile: %w", err)
		}
		horizon = p.Horizon
		window = p.Window()
		profileLabel = fmt.Sprintf("%s (%s)", p.Meta.ProfileID, hash[:12])
	}

	series, source := a.resolver.Resolve(ctx, horizon)

	PrintHeader("Rolling back-test")
	if profileLabel != "" {
		PrintKeyValue("Profile", profileLabel, 12)
	}
	PrintKeyValue("Data source", string(source), 12)
	PrintKeyValue("Points", fmt.Sprintf("%d", series.Len()), 12)
	PrintKeyValue("Window", fmt.Sprintf("%d (step %d)", window.WindowSize, window.StepSize), 12)
	PrintKeyValue("Horizon", fmt.Sprintf("%d", horizon), 12)
	PrintSeparator()

	widths := []int{6, 10, 10, 10, 10}
	PrintTableHeader([]string{"Trial", "Latest", "RMSE", "MAE", "MAPE"}, widths)
	for i, m := range forecast.CollectMetrics(forecast.RollingForecast(series, horizon, window)) {
		PrintTableRow([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.2f", m.Latest),
			fmt.Sprintf("%.3f", m.RMSE),
			fmt.Sprintf("%.3f", m.MAE),
			fmt.Sprintf("%.2f%%", m.MAPE),
		}, widths)
	}
	PrintSeparator()

	summary, err := forecast.NewBacktester(a.log.Zerolog()).Run(series, horizon, window)
	if err != nil {
		return err
	}

	PrintKeyValue("Trials", fmt.Sprintf("%d", summary.Trials), 12)
	PrintKeyValue("Avg RMSE", fmt.Sprintf("%.3f", summary.AvgRMSE), 12)
	PrintKeyValue("Avg MAE", fmt.Sprintf("%.3f", summary.AvgMAE), 12)
	PrintKeyValue("Avg MAPE", fmt.Sprintf("%.2f%%", summary.AvgMAPE), 12)
	PrintKeyValue("Worst RMSE", fmt.Sprintf("%.3f", summary.WorstRMSE), 12)

	return nil
}
