package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"clockysap/syncer"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, outcomes []syncer.RecordOutcome) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if err := writeExcelRow(file, sheet, 1, toAny(outcomeHeaders)); err != nil {
		return err
	}

	for i, outcome := range outcomes {
		values := []any{
			outcomeDate(outcome),
			outcome.EntryIDs,
			outcome.Key,
			outcome.ExternalCode,
			outcome.Hours,
			string(outcome.Outcome),
			outcome.Reason,
			outcome.Error,
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

func writeExcelRow(file *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("resolve excel cell: %w", err)
		}
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("set excel value %s: %w", cell, err)
		}
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}
