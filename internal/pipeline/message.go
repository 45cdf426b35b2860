package pipeline

import (
	"fmt"
	"math"

	"github.com/wonny/spotcast/internal/contracts"
)

// BuildMessage 요약 메시지 (Slack mrkdwn)
// 방향 화살표: delta_pct >= 0 이면 ↑
func BuildMessage(m contracts.Metrics) string {
	direction := "↑"
	if m.DeltaPct < 0 {
		direction = "↓"
	}

	return fmt.Sprintf(
		"*Dagens elpris-forecast:* %.2f €/MWh (%s%.1f%% fra sidste observation)\n"+
			"• RMSE: %.2f\n"+
			"• MAE: %.2f\n"+
			"• MAPE: %.2f%%",
		m.Latest, direction, math.Abs(m.DeltaPct), m.RMSE, m.MAE, m.MAPE,
	)
}
