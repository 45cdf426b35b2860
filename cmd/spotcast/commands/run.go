package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "예측 파이프라인 1회 (또는 N회) 실행",
	Long: `예측 파이프라인을 실행합니다.

이 명령어는:
- 가격 시계열 조회 (live feed, 실패 시 synthetic)
- naive forecast + RMSE/MAE/MAPE 계산
- Slack 메시지 (토큰 없으면 stdout) + 차트 생성
- 설정된 sink (Slack 업로드, DB, Notion, GitHub) 에 best-effort 기록

Example:
  go run ./cmd/spotcast run
  go run ./cmd/spotcast run --horizon 12
  go run ./cmd/spotcast run --runs 3 --pause 10s`,
	RunE: runPipeline,
}

var (
	runHorizon int
	runCount   int
	runPause   time.Duration
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runHorizon, "horizon", 0, "예측 horizon (시간, 기본: HORIZON_HOURS)")
	runCmd.Flags().IntVar(&runCount, "runs", 1, "연속 실행 횟수 (데모)")
	runCmd.Flags().DurationVar(&runPause, "pause", 2*time.Second, "연속 실행 간 대기 시간")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	if runCount <= 0 {
		return fmt.Errorf("--runs must be positive, got %d", runCount)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	horizon := a.horizonOr(runHorizon)

	for i := 1; i <= runCount; i++ {
		PrintHeader(fmt.Sprintf("Forecast run %d/%d (horizon %dh)", i, runCount, horizon))

		out, err := a.runner.TryRun(ctx, horizon)
		if err != nil {
			PrintError(err.Error())
			return fmt.Errorf("run %d: %w", i, err)
		}
		PrintRunOutput(out)

		if i < runCount {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(runPause):
			}
		}
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("%d run(s) completed", runCount))
	return nil
}
