package importer

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"clockysap/timeentry"
)

const reportSource = "report"

// MapReportRecord turns one row of a Clockify detailed report into an entry.
// Rows without a start date or start time are skipped (ok=false).
func MapReportRecord(record Record, sourceFile string, loc *time.Location) (timeentry.Entry, bool, error) {
	startDate := record.Get("start date", "startdate", "date")
	startTime := record.Get("start time", "starttime")
	if startDate == "" || startTime == "" {
		return timeentry.Entry{}, false, nil
	}

	start, err := parseDateAndTime(startDate, startTime, loc)
	if err != nil {
		return timeentry.Entry{}, false, fmt.Errorf("row %d: parse start: %w", record.RowNumber, err)
	}

	entry := timeentry.Entry{
		ID:          record.Get("id", "time entry id"),
		Start:       start,
		ProjectName: record.Get("project"),
		TaskName:    record.Get("task"),
		Description: record.Get("description"),
		Billable:    parseYesNo(record.Get("billable")),
		Source:      reportSource,
	}
	if entry.ID == "" {
		entry.ID = filepath.Base(sourceFile) + ":" + strconv.Itoa(record.RowNumber)
	}

	if endDate := record.Get("end date", "enddate"); endDate != "" {
		end, err := parseDateAndTime(endDate, record.Get("end time", "endtime"), loc)
		if err != nil {
			return timeentry.Entry{}, false, fmt.Errorf("row %d: parse end: %w", record.RowNumber, err)
		}
		if end.Before(start) {
			return timeentry.Entry{}, false, fmt.Errorf("row %d: end is before start", record.RowNumber)
		}
		entry.End = end
	}

	duration, err := parseDecimalHours(record.Get("duration (decimal)", "duration decimal", "hours"))
	if err != nil {
		return timeentry.Entry{}, false, fmt.Errorf("row %d: %w", record.RowNumber, err)
	}
	if duration == 0 {
		duration, err = parseClockDuration(record.Get("duration (h)", "duration"))
		if err != nil {
			return timeentry.Entry{}, false, fmt.Errorf("row %d: %w", record.RowNumber, err)
		}
	}
	if duration > 0 {
		entry.Duration = duration
		if entry.End.IsZero() {
			entry.End = start.Add(duration)
		}
	}

	return entry, true, nil
}
