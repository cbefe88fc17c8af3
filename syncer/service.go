package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"clockysap/internal/logging"
	"clockysap/internal/timeutil"
	"clockysap/mapping"
	"clockysap/timeentry"
)

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrTargetUnavailable = errors.New("target unavailable")
	ErrRunIncomplete     = errors.New("sync run incomplete")
)

// Source lists the time entries logged in a range of days.
type Source interface {
	ListTimeEntries(ctx context.Context, r timeutil.Range) ([]timeentry.Entry, error)
}

// Target looks up and creates records by natural key.
type Target interface {
	FindRecord(ctx context.Context, key mapping.NaturalKey) (bool, error)
	CreateRecord(ctx context.Context, record mapping.TargetRecord) error
}

type Mapper interface {
	Map(entry timeentry.Entry) (mapping.TargetRecord, error)
}

// Recorder persists a finished run.
type Recorder interface {
	RecordRun(summary Summary) error
}

type Options struct {
	DryRun    bool
	Aggregate bool
	Logger    *log.Logger
	Recorder  Recorder
	Now       func() time.Time
}

type Synchronizer struct {
	source  Source
	target  Target
	mapper  Mapper
	options Options
}

func New(source Source, target Target, mapper Mapper, options Options) *Synchronizer {
	if options.Logger == nil {
		options.Logger = logging.Discard()
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	return &Synchronizer{
		source:  source,
		target:  target,
		mapper:  mapper,
		options: options,
	}
}

type candidate struct {
	record  mapping.TargetRecord
	entries []timeentry.Entry
}

// Run fetches every entry in r and creates the mapped records that are not
// present in the target yet. A source failure aborts the run; record-level
// failures are counted and the run continues.
func (s *Synchronizer) Run(ctx context.Context, r timeutil.Range) (Summary, error) {
	summary := Summary{
		RunID:     uuid.NewString(),
		Range:     r,
		StartedAt: s.options.Now(),
		DryRun:    s.options.DryRun,
	}
	logger := s.options.Logger.With("run", summary.RunID)

	entries, err := s.source.ListTimeEntries(ctx, r)
	if err != nil {
		summary.Aborted = true
		summary.abortErr = fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		summary.FinishedAt = s.options.Now()
		logger.Error("fetching time entries failed", "range", r.String(), "err", err)
		s.record(logger, summary)
		return summary, summary.abortErr
	}
	summary.Fetched = len(entries)
	logger.Info("fetched time entries", "range", r.String(), "count", len(entries))

	candidates := s.prepare(logger, &summary, sortEntries(entries))
	written := make(map[mapping.NaturalKey]struct{}, len(candidates))
	for _, item := range candidates {
		s.apply(ctx, logger, &summary, written, item)
	}

	summary.FinishedAt = s.options.Now()
	logger.Info(
		"sync finished",
		"created", summary.Created,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"dry_run", summary.DryRun,
	)
	s.record(logger, summary)
	return summary, nil
}

func (s *Synchronizer) prepare(logger *log.Logger, summary *Summary, entries []timeentry.Entry) []candidate {
	out := make([]candidate, 0, len(entries))
	index := make(map[mapping.NaturalKey]int, len(entries))
	for _, entry := range entries {
		record, err := s.mapper.Map(entry)
		if err != nil {
			logger.Warn("mapping failed", "entry", entry.ID, "err", err)
			summary.fail(RecordOutcome{
				EntryIDs: entry.ID,
				Date:     entry.Day(),
				Hours:    entry.WorkedDuration().Hours(),
				Reason:   ReasonMapping,
			}, err)
			continue
		}

		if s.options.Aggregate {
			if position, ok := index[record.Key()]; ok {
				merged := mapping.Merge([]mapping.TargetRecord{out[position].record, record})
				out[position].record = merged[0]
				out[position].entries = append(out[position].entries, entry)
				continue
			}
			index[record.Key()] = len(out)
		}
		out = append(out, candidate{record: record, entries: []timeentry.Entry{entry}})
	}
	return out
}

// apply handles one candidate. written holds the keys this run already
// created or planned, so dry-run and real runs count the same.
func (s *Synchronizer) apply(ctx context.Context, logger *log.Logger, summary *Summary, written map[mapping.NaturalKey]struct{}, item candidate) {
	record := item.record
	key := record.Key()
	outcome := RecordOutcome{
		EntryIDs:     record.SourceEntryID,
		Date:         record.Date,
		Key:          key.String(),
		ExternalCode: record.ExternalCode,
		Hours:        record.Hours,
	}

	if _, ok := written[key]; ok {
		logger.Debug("record already written in this run", "key", key.String())
		outcome.Outcome = OutcomeSkipped
		summary.Skipped++
		summary.Outcomes = append(summary.Outcomes, outcome)
		return
	}

	exists, err := s.target.FindRecord(ctx, key)
	if err != nil {
		logger.Warn("target lookup failed", "key", key.String(), "err", err)
		outcome.Reason = ReasonLookup
		summary.fail(outcome, fmt.Errorf("%w: lookup %s: %w", ErrTargetUnavailable, key, err))
		return
	}
	if exists {
		logger.Debug("record already present", "key", key.String())
		outcome.Outcome = OutcomeSkipped
		summary.Skipped++
		summary.Outcomes = append(summary.Outcomes, outcome)
		return
	}

	if s.options.DryRun {
		logger.Info("would create record", "key", key.String(), "hours", record.Hours)
		written[key] = struct{}{}
		outcome.Outcome = OutcomePlanned
		summary.Created++
		summary.Outcomes = append(summary.Outcomes, outcome)
		return
	}

	if err := s.target.CreateRecord(ctx, record); err != nil {
		logger.Warn("creating record failed", "key", key.String(), "err", err)
		outcome.Reason = ReasonCreate
		summary.fail(outcome, fmt.Errorf("%w: create %s: %w", ErrTargetUnavailable, key, err))
		return
	}
	logger.Info("created record", "key", key.String(), "hours", record.Hours, "entries", len(item.entries))
	written[key] = struct{}{}
	outcome.Outcome = OutcomeCreated
	summary.Created++
	summary.Outcomes = append(summary.Outcomes, outcome)
}

func (s *Synchronizer) record(logger *log.Logger, summary Summary) {
	if s.options.Recorder == nil {
		return
	}
	if err := s.options.Recorder.RecordRun(summary); err != nil {
		logger.Error("recording run failed", "err", err)
	}
}

func sortEntries(entries []timeentry.Entry) []timeentry.Entry {
	sorted := append([]timeentry.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Start.Before(sorted[j].Start)
	})
	return sorted
}

// CheckResult turns a summary into the error a caller should exit with.
func CheckResult(summary Summary) error {
	if summary.Aborted {
		return summary.Err()
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%w: %d record(s) failed: %v", ErrRunIncomplete, summary.Failed, summary.Err())
	}
	return nil
}
