package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	dateLayouts = []string{
		"01/02/2006",
		"2006-01-02",
		"02.01.2006",
		"1/2/2006",
	}
	timeLayouts = []string{
		"03:04:05 PM",
		"03:04 PM",
		"3:04 PM",
		"15:04:05",
		"15:04",
	}
)

// parseDecimalHours accepts "7.5" as well as "7,5".
func parseDecimalHours(raw string) (time.Duration, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, nil
	}
	// The separator that comes last is the decimal one.
	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	switch {
	case lastComma > lastDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	case lastComma >= 0:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	hours, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hours %q: %w", raw, err)
	}
	if hours < 0 {
		return 0, fmt.Errorf("hours must not be negative")
	}
	return time.Duration(math.Round(hours*3600)) * time.Second, nil
}

// parseClockDuration parses "hh:mm:ss" or "hh:mm" as a duration.
func parseClockDuration(raw string) (time.Duration, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, nil
	}
	parts := strings.Split(cleaned, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("parse duration %q: expected hh:mm[:ss]", raw)
	}

	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var total time.Duration
	for i, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 {
			return 0, fmt.Errorf("parse duration %q: invalid component %q", raw, part)
		}
		total += time.Duration(value) * units[i]
	}
	return total, nil
}

func parseDateAndTime(dateValue, timeValue string, loc *time.Location) (time.Time, error) {
	dateValue = strings.TrimSpace(dateValue)
	timeValue = strings.TrimSpace(timeValue)
	if dateValue == "" || timeValue == "" {
		return time.Time{}, fmt.Errorf("missing date or time")
	}

	datetime := dateValue + " " + strings.ToUpper(timeValue)
	for _, dateLayout := range dateLayouts {
		for _, timeLayout := range timeLayouts {
			if parsed, err := time.ParseInLocation(dateLayout+" "+timeLayout, datetime, loc); err == nil {
				return parsed, nil
			}
		}
	}

	return time.Time{}, fmt.Errorf("unsupported date/time format: %q", datetime)
}

func parseYesNo(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "true", "1", "ja", "y":
		return true
	default:
		return false
	}
}
