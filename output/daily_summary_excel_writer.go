package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

func writeDailySummariesExcel(path string, summaries []DailySummary) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := "Daily"
	if err := file.SetSheetName(file.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeExcelRow(file, sheet, 1, toAny(dailySummaryHeaders)); err != nil {
		return err
	}

	for i, summary := range summaries {
		values := []any{
			summary.Date,
			summary.Records,
			summary.CreatedHours,
			summary.SkippedHours,
			summary.FailedHours,
			summary.Failed,
		}
		if err := writeExcelRow(file, sheet, i+2, values); err != nil {
			return err
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}
