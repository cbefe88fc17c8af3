package output

import (
	"fmt"
	"strings"

	"clockysap/internal/timeutil"
	"clockysap/syncer"
)

// Writer exports the per-record outcomes of one sync run.
type Writer interface {
	Write(path string, outcomes []syncer.RecordOutcome) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatFromPath picks csv or excel from the file extension, csv otherwise.
func FormatFromPath(path string) string {
	lower := strings.ToLower(strings.TrimSpace(path))
	if strings.HasSuffix(lower, ".xlsx") {
		return "excel"
	}
	return "csv"
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

var outcomeHeaders = []string{"Date", "EntryIDs", "NaturalKey", "ExternalCode", "Hours", "Outcome", "Reason", "Error"}

func outcomeDate(outcome syncer.RecordOutcome) string {
	if outcome.Date.IsZero() {
		return ""
	}
	return outcome.Date.Format(timeutil.DayLayout)
}
