package timeentry

import (
	"time"

	"clockysap/internal/timeutil"
)

// Entry is a single logged work interval fetched from the time tracker.
type Entry struct {
	ID          string
	Start       time.Time
	End         time.Time
	Duration    time.Duration
	ProjectID   string
	ProjectName string
	TaskID      string
	TaskName    string
	Description string
	Billable    bool
	Source      string
}

// Running reports whether the timer of the entry is still active.
func (e Entry) Running() bool {
	return e.End.IsZero()
}

// Day is the calendar day the entry started on.
func (e Entry) Day() time.Time {
	return timeutil.StartOfDay(e.Start)
}

// WorkedDuration prefers the explicit duration and falls back to End-Start.
func (e Entry) WorkedDuration() time.Duration {
	if e.Duration > 0 {
		return e.Duration
	}
	if e.Running() {
		return 0
	}
	return e.End.Sub(e.Start)
}
