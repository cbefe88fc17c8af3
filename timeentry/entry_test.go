package timeentry

import (
	"testing"
	"time"
)

func TestWorkedDuration(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)
	entry := Entry{Start: start, End: start.Add(90 * time.Minute)}
	if got := entry.WorkedDuration(); got != 90*time.Minute {
		t.Fatalf("expected 90m, got %s", got)
	}

	entry.Duration = 60 * time.Minute
	if got := entry.WorkedDuration(); got != time.Hour {
		t.Fatalf("expected explicit duration to win, got %s", got)
	}
}

func TestRunningEntryHasNoDuration(t *testing.T) {
	t.Parallel()

	entry := Entry{Start: time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local)}
	if !entry.Running() {
		t.Fatalf("expected entry without end to be running")
	}
	if got := entry.WorkedDuration(); got != 0 {
		t.Fatalf("expected zero duration for running entry, got %s", got)
	}
}
