package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clockysap/internal/timeutil"
	"clockysap/timeentry"
)

// FileSource serves time entries from an exported report file.
type FileSource struct {
	Path     string
	Format   string
	Location *time.Location
}

// Result describes what a report read produced.
type Result struct {
	RowsRead    int
	RowsSkipped int
	Entries     []timeentry.Entry
}

// ReadReport reads and maps every row of the report at path.
func ReadReport(path, format string, loc *time.Location) (*Result, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("report path is required")
	}
	if loc == nil {
		loc = time.Local
	}
	sourceFormat, err := InferFormat(path, format)
	if err != nil {
		return nil, err
	}
	reader, err := ReaderForFormat(sourceFormat)
	if err != nil {
		return nil, err
	}

	records, err := reader.Read(path)
	if err != nil {
		return nil, err
	}

	result := &Result{RowsRead: len(records), Entries: make([]timeentry.Entry, 0, len(records))}
	for _, record := range records {
		entry, ok, mapErr := MapReportRecord(record, path, loc)
		if mapErr != nil {
			return nil, fmt.Errorf("%s: %w", path, mapErr)
		}
		if !ok {
			result.RowsSkipped++
			continue
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

// ListTimeEntries returns the report entries whose start lies in r.
func (s *FileSource) ListTimeEntries(ctx context.Context, r timeutil.Range) ([]timeentry.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := ReadReport(s.Path, s.Format, s.Location)
	if err != nil {
		return nil, err
	}

	out := make([]timeentry.Entry, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if r.Contains(entry.Start) {
			out = append(out, entry)
		}
	}
	return out, nil
}
