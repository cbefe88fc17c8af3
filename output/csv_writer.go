package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"clockysap/syncer"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, outcomes []syncer.RecordOutcome) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(outcomeHeaders); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, outcome := range outcomes {
		row := []string{
			outcomeDate(outcome),
			outcome.EntryIDs,
			outcome.Key,
			outcome.ExternalCode,
			strconv.FormatFloat(outcome.Hours, 'f', 2, 64),
			string(outcome.Outcome),
			outcome.Reason,
			outcome.Error,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	return nil
}
