package reporting

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/quantaris/risk-engine/internal/config"
	"github.com/quantaris/risk-engine/internal/risk"
)

// PrintConfig prints the active risk limits as a table.
func PrintConfig(cfg *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("RISK ENGINE CONFIGURATION")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"🎯 Base Risk", fmt.Sprintf("%.2f%% of equity", cfg.Risk.RiskPctBase)},
		{"🎯 Risk Band", fmt.Sprintf("%.2f%% - %.2f%%", cfg.Risk.MinRiskPct, cfg.Risk.MaxRiskPct)},
		{"📊 Confidence Mult", fmt.Sprintf("%.2fx - %.2fx", cfg.Risk.ConfidenceMinMult, cfg.Risk.ConfidenceMaxMult)},
		{"⚖️ Max Leverage", fmt.Sprintf("%.1fx", cfg.Risk.MaxLeverage)},
		{"💼 Margin Ceiling", fmt.Sprintf("%.0f%%", cfg.Risk.MarginCeiling*100)},
	})

	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"📉 Caution", fmt.Sprintf("daily %.1f%% / monthly %.1f%%", cfg.Drawdown.CautionDailyPct, cfg.Drawdown.CautionMonthlyPct)},
		{"📉 Safe Mode", fmt.Sprintf("daily %.1f%% / monthly %.1f%%", cfg.Drawdown.SafeModeDailyPct, cfg.Drawdown.SafeModeMonthlyPct)},
		{"📉 Emergency", fmt.Sprintf("daily %.1f%% / monthly %.1f%%", cfg.Drawdown.EmergencyDailyPct, cfg.Drawdown.EmergencyMonthlyPct)},
		{"⏳ Cooldown", fmt.Sprintf("%d min", cfg.Drawdown.CooldownMinutes)},
	})

	t.AppendSeparator()

	t.AppendRows([]table.Row{
		{"🔗 Corr Threshold", fmt.Sprintf("%.2f", cfg.Correlation.Threshold)},
		{"🔗 Cluster Cap", fmt.Sprintf("%.1f%% of equity", cfg.Correlation.ExposureCapPct)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 28, WidthMax: 40, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// PrintDecisions prints a decision batch as a table, one row per assessment.
func PrintDecisions(events []risk.DecisionEvent) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("ASSESSMENT DECISIONS")
	t.SetStyle(table.StyleRounded)

	t.AppendHeader(table.Row{"Symbol", "Dir", "Outcome", "Quantity", "Margin", "Stop", "Score", "Safety"})

	for _, ev := range events {
		outcome := "✅ APPROVED"
		detail := fmt.Sprintf("%.6f", ev.Decision.Quantity)
		margin := fmt.Sprintf("$%.2f", ev.Decision.Margin)
		stop := fmt.Sprintf("%.4f %s", ev.Decision.StopPrice, ev.Decision.StopType)
		if !ev.Decision.Approved {
			outcome = fmt.Sprintf("❌ %s", ev.Decision.Reason)
			detail, margin, stop = "-", "-", "-"
		}
		t.AppendRow(table.Row{
			ev.Request.Symbol,
			string(ev.Request.Direction),
			outcome,
			detail,
			margin,
			stop,
			fmt.Sprintf("%.1f", ev.Decision.Score),
			ev.Decision.SafetyLevel.String(),
		})
	}

	t.Render()
	fmt.Println()
}

// PrintSummary prints the aggregate outcome of a decision batch.
func PrintSummary(s Summary) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("📊 ASSESSMENT SUMMARY")
	fmt.Println(strings.Repeat("=", 50))

	fmt.Printf("🔄 Total Assessments:  %d\n", s.Total)
	fmt.Printf("✅ Approved:           %d (%.1f%%)\n", s.Approved, s.ApprovalRate())
	fmt.Printf("❌ Rejected:           %d\n", s.Rejected)
	for reason, n := range s.ByReason {
		fmt.Printf("   • %-18s %d\n", string(reason)+":", n)
	}
	fmt.Printf("📊 Avg Risk Score:     %.1f\n", s.AvgScore)
	fmt.Printf("📊 Max Risk Score:     %.1f\n", s.MaxScore)
	fmt.Printf("💼 Committed Margin:   $%.2f\n", s.TotalMargin)
	fmt.Printf("💰 Approved Notional:  $%.2f\n", s.TotalNotional)
}
