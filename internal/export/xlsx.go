package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet names used by BuildXLSX.
const (
	SummarySheet = "summary"
	MonthsSheet  = "months"
)

// BuildXLSX renders the report as a workbook with a summary sheet and one
// row per month on the months sheet.
func BuildXLSX(r Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(MonthsSheet); err != nil {
		return nil, err
	}

	final := r.Final()
	summary := [][2]any{
		{"Gross Written Premium Report", ""},
		{"", ""},
		{"Range", r.Range.String()},
		{"Mode", string(r.Mode)},
		{"Events", r.Events},
		{"Months", len(r.Rows)},
		{"Final AGWP", final.ActualPremium},
		{"Final EGWP", final.ExpectedPremium},
	}
	for i, kv := range summary {
		row := i + 1
		_ = f.SetCellValue(SummarySheet, fmt.Sprintf("A%d", row), kv[0])
		if kv[1] != "" {
			_ = f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), kv[1])
		}
	}

	_ = f.SetCellValue(MonthsSheet, "A1", "Month")
	_ = f.SetCellValue(MonthsSheet, "B1", "Contracts")
	_ = f.SetCellValue(MonthsSheet, "C1", "AGWP")
	_ = f.SetCellValue(MonthsSheet, "D1", "EGWP")
	for i, row := range r.Rows {
		n := i + 2
		_ = f.SetCellValue(MonthsSheet, fmt.Sprintf("A%d", n), row.Month.String())
		_ = f.SetCellValue(MonthsSheet, fmt.Sprintf("B%d", n), row.ActiveContracts)
		_ = f.SetCellValue(MonthsSheet, fmt.Sprintf("C%d", n), row.ActualPremium)
		_ = f.SetCellValue(MonthsSheet, fmt.Sprintf("D%d", n), row.ExpectedPremium)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
