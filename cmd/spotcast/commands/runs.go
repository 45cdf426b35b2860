package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/spotcast/internal/store"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "예측 실행 이력 조회",
	Long: `DATABASE_URL 의 run store 에서 예측 이력을 조회합니다.

Subcommands:
  list     - 최근 실행 목록
  values   - 특정 실행의 actual/forecast 값
  summary  - 최근 N일 성과 요약

Example:
  go run ./cmd/spotcast runs list --limit 10
  go run ./cmd/spotcast runs values 42
  go run ./cmd/spotcast runs summary --days 30`,
}

var (
	runsListCmd = &cobra.Command{
		Use:   "list",
		Short: "최근 실행 목록",
		RunE:  listRuns,
	}

	runsValuesCmd = &cobra.Command{
		Use:   "values [run_id]",
		Short: "특정 실행의 예측값",
		Args:  cobra.ExactArgs(1),
		RunE:  showRunValues,
	}

	runsSummaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "최근 N일 성과 요약",
		RunE:  showRunSummary,
	}

	runsLimit int
	runsDays  int
)

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsValuesCmd)
	runsCmd.AddCommand(runsSummaryCmd)

	runsListCmd.Flags().IntVar(&runsLimit, "limit", store.DefaultRecentLimit, "조회 개수")
	runsSummaryCmd.Flags().IntVar(&runsDays, "days", 7, "집계 기간 (일)")
}

func listRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.requireStore()
	if err != nil {
		return err
	}

	runs, err := st.RecentRuns(ctx, runsLimit)
	if err != nil {
		return fmt.Errorf("recent runs: %w", err)
	}

	PrintHeader(fmt.Sprintf("Recent runs (%d)", len(runs)))
	widths := []int{6, 19, 9, 9, 9, 9, 8}
	PrintTableHeader([]string{"ID", "Timestamp (UTC)", "Source", "Latest", "RMSE", "MAE", "MAPE"}, widths)
	for _, r := range runs {
		PrintTableRow([]string{
			fmt.Sprintf("%d", r.ID),
			r.Timestamp.UTC().Format(timeLayout),
			string(r.DataSource),
			fmt.Sprintf("%.2f", r.LatestPrice),
			fmt.Sprintf("%.3f", r.RMSE),
			fmt.Sprintf("%.3f", r.MAE),
			fmt.Sprintf("%.2f%%", r.MAPE),
		}, widths)
	}

	return nil
}

func showRunValues(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", args[0], err)
	}

	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.requireStore()
	if err != nil {
		return err
	}

	values, err := st.ForecastValues(ctx, runID)
	if err != nil {
		return fmt.Errorf("forecast values: %w", err)
	}
	if len(values) == 0 {
		return fmt.Errorf("run #%d not found", runID)
	}

	PrintHeader(fmt.Sprintf("Run #%d values", runID))
	widths := []int{19, 10, 10, 10}
	PrintTableHeader([]string{"Timestamp (UTC)", "Actual", "Forecast", "Error"}, widths)
	for _, v := range values {
		PrintTableRow([]string{
			v.Timestamp.UTC().Format(timeLayout),
			fmt.Sprintf("%.2f", v.Actual),
			fmt.Sprintf("%.2f", v.Forecast),
			fmt.Sprintf("%+.2f", v.Forecast-v.Actual),
		}, widths)
	}

	return nil
}

func showRunSummary(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	st, err := a.requireStore()
	if err != nil {
		return err
	}

	summary, err := st.PerformanceSummary(ctx, runsDays)
	if err != nil {
		return fmt.Errorf("performance summary: %w", err)
	}

	PrintHeader(fmt.Sprintf("Performance (last %d days)", summary.Days))
	PrintKeyValue("Runs", fmt.Sprintf("%d", summary.TotalRuns), 12)
	PrintKeyValue("Avg RMSE", fmt.Sprintf("%.3f", summary.AvgRMSE), 12)
	PrintKeyValue("Avg MAE", fmt.Sprintf("%.3f", summary.AvgMAE), 12)
	PrintKeyValue("Avg MAPE", fmt.Sprintf("%.2f%%", summary.AvgMAPE), 12)
	PrintKeyValue("Sources", fmt.Sprintf("%d", summary.DataSources), 12)

	return nil
}
