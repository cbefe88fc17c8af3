package importer

import (
	"strings"
)

// Record is one data row of a report, keyed by normalized header.
type Record struct {
	RowNumber int
	Values    map[string]string
}

func (r Record) Get(keys ...string) string {
	for _, key := range keys {
		normalized := normalizeHeader(key)
		if value, ok := r.Values[normalized]; ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (r Record) blank() bool {
	for _, value := range r.Values {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

var headerReplacer = strings.NewReplacer("_", "", "-", "", " ", "", "(", "", ")", "", "\ufeff", "")

func normalizeHeader(input string) string {
	return headerReplacer.Replace(strings.TrimSpace(strings.ToLower(input)))
}

// buildRecords pairs each row with the header row. Rows shorter than the
// header get empty values; fully blank rows are dropped.
func buildRecords(headers []string, rows [][]string, firstRow int) []Record {
	normalizedHeaders := make([]string, len(headers))
	for i, header := range headers {
		normalizedHeaders[i] = normalizeHeader(header)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		values := make(map[string]string, len(normalizedHeaders))
		for col, header := range normalizedHeaders {
			if header == "" {
				continue
			}
			if col < len(row) {
				values[header] = row[col]
			} else {
				values[header] = ""
			}
		}
		record := Record{RowNumber: firstRow + i, Values: values}
		if record.blank() {
			continue
		}
		records = append(records, record)
	}
	return records
}
