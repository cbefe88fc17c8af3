package output

import (
	"fmt"
	"math"
	"sort"

	"clockysap/syncer"
)

// DailySummary totals the hours of one run per target day.
type DailySummary struct {
	Date         string
	Records      int
	CreatedHours float64
	SkippedHours float64
	FailedHours  float64
	Failed       int
}

func BuildDailySummaries(outcomes []syncer.RecordOutcome) []DailySummary {
	if len(outcomes) == 0 {
		return []DailySummary{}
	}

	byDay := make(map[string]*DailySummary)
	for _, outcome := range outcomes {
		day := outcomeDate(outcome)
		summary, ok := byDay[day]
		if !ok {
			summary = &DailySummary{Date: day}
			byDay[day] = summary
		}
		summary.Records++
		switch outcome.Outcome {
		case syncer.OutcomeCreated, syncer.OutcomePlanned:
			summary.CreatedHours += outcome.Hours
		case syncer.OutcomeSkipped:
			summary.SkippedHours += outcome.Hours
		case syncer.OutcomeFailed:
			summary.FailedHours += outcome.Hours
			summary.Failed++
		}
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	summaries := make([]DailySummary, 0, len(days))
	for _, day := range days {
		summary := *byDay[day]
		summary.CreatedHours = roundHours(summary.CreatedHours)
		summary.SkippedHours = roundHours(summary.SkippedHours)
		summary.FailedHours = roundHours(summary.FailedHours)
		summaries = append(summaries, summary)
	}

	return summaries
}

func roundHours(value float64) float64 {
	return math.Round(value*100) / 100
}

func WriteDailySummaries(path, format string, summaries []DailySummary) error {
	switch normalizeFormat(format) {
	case "csv":
		return writeDailySummariesCSV(path, summaries)
	case "excel", "xlsx":
		return writeDailySummariesExcel(path, summaries)
	default:
		return fmt.Errorf("unsupported output format for daily summaries: %s", format)
	}
}

var dailySummaryHeaders = []string{"Date", "Records", "CreatedHours", "SkippedHours", "FailedHours", "Failed"}
