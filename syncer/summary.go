package syncer

import (
	"time"

	"go.uber.org/multierr"

	"clockysap/internal/timeutil"
)

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomePlanned Outcome = "planned"
)

const (
	ReasonMapping = "mapping"
	ReasonLookup  = "lookup"
	ReasonCreate  = "create"
)

// RecordOutcome is the result for one target record. EntryIDs lists the
// source entries folded into it, comma separated.
type RecordOutcome struct {
	EntryIDs     string
	Date         time.Time
	Key          string
	ExternalCode string
	Hours        float64
	Outcome      Outcome
	Reason       string
	Error        string
}

type Summary struct {
	RunID      string
	Range      timeutil.Range
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Created    int
	Skipped    int
	Failed     int
	Aborted    bool
	DryRun     bool
	Outcomes   []RecordOutcome

	abortErr  error
	recordErr error
}

// OK reports a run that was neither aborted nor had failed records.
func (s Summary) OK() bool {
	return !s.Aborted && s.Failed == 0
}

// Err returns the abort cause, or all record failures combined.
func (s Summary) Err() error {
	if s.abortErr != nil {
		return s.abortErr
	}
	return s.recordErr
}

// Errors lists record failures individually.
func (s Summary) Errors() []error {
	return multierr.Errors(s.recordErr)
}

func (s *Summary) fail(outcome RecordOutcome, err error) {
	outcome.Outcome = OutcomeFailed
	outcome.Error = err.Error()
	s.Failed++
	s.Outcomes = append(s.Outcomes, outcome)
	s.recordErr = multierr.Append(s.recordErr, err)
}
