package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

// Range is an inclusive span of calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

// MonthRange returns the first and last day of the month containing value.
func MonthRange(value time.Time) Range {
	first := time.Date(value.Year(), value.Month(), 1, 0, 0, 0, 0, value.Location())
	last := first.AddDate(0, 1, -1)
	return Range{Start: first, End: last}
}

func CurrentMonth(now time.Time) Range {
	return MonthRange(now)
}

func NewRange(start, end time.Time) (Range, error) {
	start = StartOfDay(start)
	end = StartOfDay(end)
	if start.After(end) {
		return Range{}, fmt.Errorf("invalid range: start %s is after end %s", start.Format(DayLayout), end.Format(DayLayout))
	}
	return Range{Start: start, End: end}, nil
}

// Contains reports whether value falls on one of the range's days.
func (r Range) Contains(value time.Time) bool {
	day := StartOfDay(value.In(r.Start.Location()))
	return !day.Before(r.Start) && !day.After(r.End)
}

// EndExclusive is the first instant after the range.
func (r Range) EndExclusive() time.Time {
	return StartOfDay(r.End).AddDate(0, 0, 1)
}

func (r Range) String() string {
	return r.Start.Format(DayLayout) + ".." + r.End.Format(DayLayout)
}

func ParseDay(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(DayLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q (expected YYYY-MM-DD): %w", value, err)
	}
	return parsed, nil
}

func ParseMonth(value string) (Range, error) {
	parsed, err := time.ParseInLocation(MonthLayout, strings.TrimSpace(value), time.Local)
	if err != nil {
		return Range{}, fmt.Errorf("parse month %q (expected YYYY-MM): %w", value, err)
	}
	return MonthRange(parsed), nil
}
