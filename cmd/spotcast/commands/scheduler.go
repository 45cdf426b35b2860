package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/spotcast/internal/api"
	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/internal/scheduler"
	"github.com/wonny/spotcast/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/spotcast scheduler start
  go run ./cmd/spotcast scheduler start --api
  go run ./cmd/spotcast scheduler list
  go run ./cmd/spotcast scheduler run retrain`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업 (SCHEDULER_TIMEZONE 기준):
- forecast: FETCH_CRON (기본 매일 05:00) 예측 파이프라인
- retrain:  RETRAIN_CRON (기본 월요일 06:00) 롤링 백테스트

--api 를 주면 같은 프로세스에서 API 서버도 실행합니다.
스케줄 실행과 POST /api/runs 는 같은 runner 를 공유하므로 동시에 한 번만 실행됩니다.

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showStatus,
	}

	schedulerWithAPI bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerStartCmd.Flags().BoolVar(&schedulerWithAPI, "api", false, "API 서버 함께 실행")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== spotcast Scheduler ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	var server *api.Server
	if schedulerWithAPI {
		server, err = newAPIServer(a)
		if err != nil {
			return err
		}
		go func() {
			if err := server.Start(); err != nil {
				a.log.WithError(err).Error("API server stopped")
			}
		}()
	}

	sched.Start()

	fmt.Println()
	PrintSuccess("Scheduler started successfully")
	fmt.Printf("\nRegistered jobs (%s):\n", sched.Location())
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	if server != nil {
		fmt.Printf("\nAPI running on http://localhost:%s\n", a.cfg.Port)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			a.log.WithError(err).Warn("API shutdown failed")
		}
	}
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()

	fmt.Printf("Registered jobs (%s):\n", sched.Location())
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %-10s %s\n", jobName, stats[jobName].Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	start := time.Now()
	if err := sched.RunJob(ctx, jobName); err != nil {
		PrintError(err.Error())
		return fmt.Errorf("run job: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Job %s completed in %.2fs", jobName, time.Since(start).Seconds()))
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	// next activation is computed by the running cron loop
	sched.Start()
	defer sched.Stop()

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s (%s)\n", stat.Schedule, sched.Location())
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format(timeLayout))
		}

		if stat.NextRun != nil {
			fmt.Printf("   Next Run: %s\n", stat.NextRun.In(sched.Location()).Format(timeLayout))
		}

		fmt.Println()
	}

	return nil
}

// initScheduler registers the forecast and retrain jobs
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched, err := scheduler.New(a.cfg, a.log)
	if err != nil {
		return nil, err
	}

	forecastJob := jobs.NewForecastJob(a.runner, a.cfg.HorizonHours, a.cfg.Scheduler.FetchCron, a.log.WithComponent("job.forecast"))
	if err := sched.AddJob(forecastJob); err != nil {
		return nil, err
	}

	window := contracts.DefaultRollingWindowConfig(jobs.DefaultRetrainWindow)
	retrainJob := jobs.NewRetrainJob(a.resolver, a.cfg.HorizonHours, window, a.cfg.Scheduler.RetrainCron, a.log.WithComponent("job.retrain"))
	if err := sched.AddJob(retrainJob); err != nil {
		return nil, err
	}

	return sched, nil
}
