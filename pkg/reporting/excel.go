package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/quantaris/risk-engine/internal/risk"
	"github.com/quantaris/risk-engine/internal/riskerr"
)

// excelStyles holds the workbook styles created once per export.
type excelStyles struct {
	header   int
	base     int
	currency int
	approved int
	rejected int
}

// WriteDecisionsXLSX writes a decision batch to an Excel workbook with a
// Decisions sheet and a Summary sheet.
func WriteDecisionsXLSX(events []risk.DecisionEvent, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return riskerr.Wrap(err, riskerr.ErrorCategoryReporting, "reporting", "create output directory")
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const decisionsSheet = "Decisions"
	const summarySheet = "Summary"

	fx.SetSheetName(fx.GetSheetName(0), decisionsSheet)
	fx.NewSheet(summarySheet)

	styles, err := createStyles(fx)
	if err != nil {
		return riskerr.Wrap(err, riskerr.ErrorCategoryReporting, "reporting", "create styles")
	}

	if err := writeDecisionsSheet(fx, decisionsSheet, events, styles); err != nil {
		return err
	}
	if err := writeSummarySheet(fx, summarySheet, Summarize(events), styles); err != nil {
		return err
	}

	if err := fx.SaveAs(path); err != nil {
		return riskerr.Wrap(err, riskerr.ErrorCategoryReporting, "reporting", "save workbook")
	}
	return nil
}

func createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	// Header style, dark background with white bold text
	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F4F4F"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.base, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Family: "Calibri"},
	})
	if err != nil {
		return styles, err
	}

	styles.currency, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10, Family: "Calibri"},
		NumFmt: 177, // $#,##0.00
	})
	if err != nil {
		return styles, err
	}

	// Green for approved rows, red for rejections
	styles.approved, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Family: "Calibri", Color: "006100"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"C6EFCE"},
			Pattern: 1,
		},
	})
	if err != nil {
		return styles, err
	}

	styles.rejected, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 10, Family: "Calibri", Color: "9C0006"},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFC7CE"},
			Pattern: 1,
		},
	})
	return styles, err
}

func writeDecisionsSheet(fx *excelize.File, sheet string, events []risk.DecisionEvent, styles excelStyles) error {
	headers := []string{"Time", "Symbol", "Direction", "Entry", "Confidence", "Outcome",
		"Reason", "Quantity", "Margin", "Stop Price", "Stop Type", "Score", "Safety Level"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(sheet, cell, h)
		fx.SetCellStyle(sheet, cell, cell, styles.header)
	}

	for row, ev := range events {
		outcome := "APPROVED"
		outcomeStyle := styles.approved
		if !ev.Decision.Approved {
			outcome = "REJECTED"
			outcomeStyle = styles.rejected
		}
		values := []interface{}{
			ev.Time.Format("2006-01-02 15:04:05"),
			ev.Request.Symbol,
			string(ev.Request.Direction),
			ev.Request.EntryPrice,
			ev.Request.Confidence,
			outcome,
			string(ev.Decision.Reason),
			ev.Decision.Quantity,
			ev.Decision.Margin,
			ev.Decision.StopPrice,
			string(ev.Decision.StopType),
			ev.Decision.Score,
			ev.Decision.SafetyLevel.String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			fx.SetCellValue(sheet, cell, v)
			switch col {
			case 5:
				fx.SetCellStyle(sheet, cell, cell, outcomeStyle)
			case 8:
				fx.SetCellStyle(sheet, cell, cell, styles.currency)
			default:
				fx.SetCellStyle(sheet, cell, cell, styles.base)
			}
		}
	}

	fx.SetColWidth(sheet, "A", "A", 20)
	fx.SetColWidth(sheet, "B", "M", 14)
	return nil
}

func writeSummarySheet(fx *excelize.File, sheet string, s Summary, styles excelStyles) error {
	rows := [][]interface{}{
		{"Total Assessments", s.Total},
		{"Approved", s.Approved},
		{"Rejected", s.Rejected},
		{"Approval Rate", fmt.Sprintf("%.1f%%", s.ApprovalRate())},
		{"Average Risk Score", s.AvgScore},
		{"Max Risk Score", s.MaxScore},
		{"Committed Margin", s.TotalMargin},
		{"Approved Notional", s.TotalNotional},
	}
	for reason, n := range s.ByReason {
		rows = append(rows, []interface{}{fmt.Sprintf("Rejections: %s", reason), n})
	}

	fx.SetCellValue(sheet, "A1", "Metric")
	fx.SetCellValue(sheet, "B1", "Value")
	fx.SetCellStyle(sheet, "A1", "B1", styles.header)

	for i, row := range rows {
		labelCell, _ := excelize.CoordinatesToCellName(1, i+2)
		valueCell, _ := excelize.CoordinatesToCellName(2, i+2)
		fx.SetCellValue(sheet, labelCell, row[0])
		fx.SetCellValue(sheet, valueCell, row[1])
		fx.SetCellStyle(sheet, labelCell, valueCell, styles.base)
	}

	fx.SetColWidth(sheet, "A", "A", 26)
	fx.SetColWidth(sheet, "B", "B", 18)
	return nil
}
