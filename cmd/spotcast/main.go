package main

import (
	"os"

	"github.com/wonny/spotcast/cmd/spotcast/commands"
)

// main is the entry point for the spotcast CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/spotcast [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
