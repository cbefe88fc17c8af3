package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"clockysap/config"
	"clockysap/internal/timeutil"
	"clockysap/mapping"
	"clockysap/syncer"
	"clockysap/timeentry"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "clockysap_test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func may2024() timeutil.Range {
	return timeutil.MonthRange(time.Date(2024, 5, 1, 0, 0, 0, 0, time.Local))
}

func testSummary(id string, startedAt time.Time) syncer.Summary {
	return syncer.Summary{
		RunID:      id,
		Range:      may2024(),
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(2 * time.Second),
		Fetched:    2,
		Created:    1,
		Skipped:    1,
		Outcomes: []syncer.RecordOutcome{
			{
				EntryIDs:     "a",
				Date:         time.Date(2024, 5, 2, 0, 0, 0, 0, time.Local),
				Key:          "EMP001|2024-05-02|CC-A",
				ExternalCode: "CLK-000000000001",
				Hours:        7.5,
				Outcome:      syncer.OutcomeCreated,
			},
			{
				EntryIDs:     "b,c",
				Date:         time.Date(2024, 5, 3, 0, 0, 0, 0, time.Local),
				Key:          "EMP001|2024-05-03|CC-B",
				ExternalCode: "CLK-000000000002",
				Hours:        2,
				Outcome:      syncer.OutcomeSkipped,
			},
		},
	}
}

func TestSQLiteStore_RecordAndReadRun(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	started := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := store.RecordRun(testSummary("run-1", started)); err != nil {
		t.Fatalf("record run: %v", err)
	}

	run, ok, err := store.GetRun("run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatalf("expected run to exist")
	}
	if run.Created != 1 || run.Skipped != 1 || run.Fetched != 2 || run.Aborted || run.Error != "" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Range().String() != "2024-05-01..2024-05-31" {
		t.Fatalf("unexpected range: %s", run.Range())
	}
	if !run.StartedAt.Equal(started) {
		t.Fatalf("unexpected started_at: %s", run.StartedAt)
	}

	outcomes, err := store.ListOutcomes("run-1")
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[1].EntryIDs != "b,c" || outcomes[1].Outcome != syncer.OutcomeSkipped || outcomes[0].Hours != 7.5 {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
	if outcomes[0].Date.Format(timeutil.DayLayout) != "2024-05-02" {
		t.Fatalf("unexpected outcome date: %s", outcomes[0].Date)
	}
}

func TestSQLiteStore_GetRunMissing(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	_, ok, err := store.GetRun("nope")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if ok {
		t.Fatalf("expected missing run")
	}
	if _, err := store.LatestRun(); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestSQLiteStore_ListRunsNewestFirstWithLimit(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		if err := store.RecordRun(testSummary(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("record %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	latest, err := store.LatestRun()
	if err != nil {
		t.Fatalf("latest run: %v", err)
	}
	if latest.ID != "run-3" {
		t.Fatalf("unexpected latest run: %s", latest.ID)
	}

	all, err := store.ListRuns(0)
	if err != nil {
		t.Fatalf("list all runs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestSQLiteStore_DeleteRunsBefore(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	old := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := store.RecordRun(testSummary("old", old)); err != nil {
		t.Fatalf("record old: %v", err)
	}
	if err := store.RecordRun(testSummary("recent", recent)); err != nil {
		t.Fatalf("record recent: %v", err)
	}

	deleted, err := store.DeleteRunsBefore(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("delete runs: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted run, got %d", deleted)
	}
	outcomes, err := store.ListOutcomes("old")
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected outcomes of deleted run to be removed, got %d", len(outcomes))
	}

	deleted, err = store.DeleteAllRuns()
	if err != nil {
		t.Fatalf("delete all runs: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 remaining run deleted, got %d", deleted)
	}
}

func TestSQLiteStore_RejectsDuplicateRunID(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	summary := testSummary("dup", time.Now())
	if err := store.RecordRun(summary); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := store.RecordRun(summary); err == nil {
		t.Fatalf("expected duplicate run id to fail")
	}
	outcomes, err := store.ListOutcomes("dup")
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("failed insert must not leave outcomes behind, got %d", len(outcomes))
	}
}

func TestSQLiteStore_ReopenKeepsSchema(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reopen.db")
	store, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := store.RecordRun(testSummary("run-1", time.Now())); err != nil {
		t.Fatalf("record run: %v", err)
	}
	_ = store.Close()

	reopened, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.Close()
	if _, ok, err := reopened.GetRun("run-1"); err != nil || !ok {
		t.Fatalf("expected run after reopen, ok=%v err=%v", ok, err)
	}
}

type failingSource struct{}

func (failingSource) ListTimeEntries(context.Context, timeutil.Range) ([]timeentry.Entry, error) {
	return nil, errors.New("dial tcp: connection refused")
}

type emptyTarget struct{}

func (emptyTarget) FindRecord(context.Context, mapping.NaturalKey) (bool, error) { return false, nil }
func (emptyTarget) CreateRecord(context.Context, mapping.TargetRecord) error     { return nil }

func TestSQLiteStore_RecordsAbortedRunFromSynchronizer(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	mapper, err := mapping.NewMapper(config.MappingConfig{EmployeeID: "EMP001", DefaultTimeType: "REGULAR"}, nil)
	if err != nil {
		t.Fatalf("new mapper: %v", err)
	}

	summary, err := syncer.New(failingSource{}, emptyTarget{}, mapper, syncer.Options{Recorder: store}).Run(context.Background(), may2024())
	if !errors.Is(err, syncer.ErrSourceUnavailable) {
		t.Fatalf("expected source unavailable, got %v", err)
	}

	run, ok, err := store.GetRun(summary.RunID)
	if err != nil || !ok {
		t.Fatalf("expected recorded run, ok=%v err=%v", ok, err)
	}
	if !run.Aborted || !strings.Contains(run.Error, "connection refused") {
		t.Fatalf("unexpected aborted run: %+v", run)
	}
}

func TestSQLiteStore_KeepsFailureReason(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	started := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)
	summary := testSummary("run-reason", started)
	summary.Created, summary.Skipped, summary.Failed = 0, 0, 1
	summary.Outcomes = []syncer.RecordOutcome{{
		EntryIDs: "x",
		Date:     time.Date(2024, 5, 4, 0, 0, 0, 0, time.Local),
		Key:      "EMP001|2024-05-04|CC-A",
		Hours:    1,
		Outcome:  syncer.OutcomeFailed,
		Reason:   syncer.ReasonCreate,
		Error:    "status 500",
	}}
	if err := store.RecordRun(summary); err != nil {
		t.Fatalf("record run: %v", err)
	}

	outcomes, err := store.ListOutcomes("run-reason")
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Reason != syncer.ReasonCreate || outcomes[0].Error != "status 500" {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
}
