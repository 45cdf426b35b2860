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
	"github.com/wonny/spotcast/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- 예측 이력 조회 엔드포인트 제공
- 수동 예측 실행 트리거 제공 (동시 실행 시 409)

Endpoints:
  GET  /health                 - Health check
  GET  /api/runs?limit=50      - 최근 실행 목록
  GET  /api/runs/{id}/values   - 실행별 actual/forecast
  GET  /api/summary?days=7     - 성과 요약
  POST /api/runs               - 예측 실행 ({"horizon": 24}, optional)

Example:
  go run ./cmd/spotcast api
  go run ./cmd/spotcast api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: PORT)")
}

// newAPIServer builds the API server over the app's store and runner
func newAPIServer(a *app) (*api.Server, error) {
	st, err := a.requireStore()
	if err != nil {
		return nil, err
	}

	runsHandler := handlers.NewRunsHandler(st, a.runner, a.cfg.HorizonHours, a.log)
	router := api.NewRouter(runsHandler, a.log)

	return api.New(a.cfg, a.log, router), nil
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== spotcast API Server ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	server, err := newAPIServer(a)
	if err != nil {
		return err
	}

	// Start server with graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	a.log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/runs")
	fmt.Println("  GET  /api/runs/{id}/values")
	fmt.Println("  GET  /api/summary")
	fmt.Println("  POST /api/runs")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	a.log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
