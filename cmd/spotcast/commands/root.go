package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spotcast",
	Short: "spotcast - 전력 현물가격 예측 자동화",
	Long: `spotcast Unified CLI

전력 현물가격(spot price) 예측 파이프라인.
RESOLVE → SHAPE → VALIDATE → FORECAST → SCORE → NOTIFY → RENDER → UPLOAD → PERSIST → SYNC → COMMIT

Usage:
  go run ./cmd/spotcast [command]

Examples:
  go run ./cmd/spotcast run
  go run ./cmd/spotcast run --runs 3 --pause 5s
  go run ./cmd/spotcast backtest --window 48 --horizon 24
  go run ./cmd/spotcast runs list
  go run ./cmd/spotcast scheduler start --api
  go run ./cmd/spotcast api --port 8089`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
