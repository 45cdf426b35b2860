package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/spotcast/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const timeLayout = "2006-01-02 15:04:05"

// PrintHeader prints a titled double-line header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Printf("⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintRunOutput prints the result of one pipeline run
func PrintRunOutput(out *contracts.PipelineOutput) {
	PrintKeyValue("Run ID", out.RunID, 12)
	if out.StoredRunID > 0 {
		PrintKeyValue("Stored ID", fmt.Sprintf("#%d", out.StoredRunID), 12)
	}
	PrintKeyValue("Data source", string(out.DataSource), 12)
	PrintKeyValue("Latest", fmt.Sprintf("%.2f €/MWh (%+.1f%%)", out.Metrics.Latest, out.Metrics.DeltaPct), 12)
	PrintKeyValue("RMSE", fmt.Sprintf("%.2f", out.Metrics.RMSE), 12)
	PrintKeyValue("MAE", fmt.Sprintf("%.2f", out.Metrics.MAE), 12)
	PrintKeyValue("MAPE", fmt.Sprintf("%.2f%%", out.Metrics.MAPE), 12)
	PrintKeyValue("Chart", out.ReportPath, 12)

	if len(out.Skipped) > 0 {
		skipped := make([]string, len(out.Skipped))
		for i, s := range out.Skipped {
			skipped[i] = s.String()
		}
		PrintKeyValue("Skipped", strings.Join(skipped, ", "), 12)
	}
	for _, d := range out.Diagnostics {
		PrintWarning(d.Error())
	}
}
