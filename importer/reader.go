package importer

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Reader interface {
	Read(path string) ([]Record, error)
}

const (
	FormatCSV   = "csv"
	FormatExcel = "excel"
)

func ReaderForFormat(format string) (Reader, error) {
	switch normalizeHeader(format) {
	case FormatCSV:
		return &CSVReader{}, nil
	case FormatExcel, "xlsx", "xlsm":
		return &ExcelReader{}, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

// InferFormat returns format when set, otherwise derives it from the file
// extension.
func InferFormat(path, format string) (string, error) {
	if strings.TrimSpace(format) != "" {
		return strings.ToLower(strings.TrimSpace(format)), nil
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch extension {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "xlsm":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("unsupported file extension for %s", path)
	}
}
