package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"clockysap/clockify"
	"clockysap/config"
	"clockysap/importer"
	"clockysap/internal/timeutil"
	"clockysap/mapping"
	"clockysap/storage"
	"clockysap/successfactors"
	"clockysap/syncer"
)

var (
	syncFromDay     string
	syncToDay       string
	syncMonth       string
	syncInput       string
	syncInputFormat string
	syncDBPath      string
	syncDryRun      bool
	syncAggregate   bool
	syncNoLedger    bool
	syncTimeout     time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import Clockify time entries into SuccessFactors",
	Long: `Fetch the Clockify time entries of a date range, map them to SuccessFactors
time records, and create every record that is not present yet.

A record is identified by employee, day, and cost center. Records that already
exist in SuccessFactors are skipped, so running the same range again creates
nothing new. Entries that cannot be mapped or written are reported as failed and
the run continues with the next record.

Without --from/--to/--month the current calendar month is synced.
With --input the entries are read from an exported Clockify detailed report
(CSV or Excel) instead of the Clockify API.

The command exits non-zero when any record failed or Clockify could not be read.`,
	Example: `
  # Sync the current month
  clockysap sync

  # Sync a given month
  clockysap sync --month 2024-05

  # Sync an explicit range (inclusive)
  clockysap sync --from 2024-05-01 --to 2024-05-15

  # Preview without writing to SuccessFactors
  clockysap sync --dry-run

  # Sum entries of the same day and cost center into one record
  clockysap sync --aggregate

  # Read entries from an exported report
  clockysap sync --input ./Clockify_Time_Report_Detailed.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		logger, err := newLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		r, err := resolveSyncRange(syncFromDay, syncToDay, syncMonth, time.Now())
		if err != nil {
			return err
		}

		dbPath := cfg.Sync.DBPath
		if cmd.Flags().Changed("db") || strings.TrimSpace(dbPath) == "" {
			dbPath = syncDBPath
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), syncTimeout)
		defer cancel()

		summary, err := runSync(ctx, cfg, syncRequest{
			Range:       r,
			Input:       syncInput,
			InputFormat: syncInputFormat,
			DryRun:      syncDryRun,
			Aggregate:   syncAggregate || cfg.Sync.Aggregate,
			NoLedger:    syncNoLedger,
			DBPath:      dbPath,
		}, logger)
		if err != nil && !summary.Aborted {
			return err
		}

		printSyncSummary(cmd.OutOrStdout(), summary)
		return syncer.CheckResult(summary)
	},
}

type syncRequest struct {
	Range       timeutil.Range
	Input       string
	InputFormat string
	DryRun      bool
	Aggregate   bool
	NoLedger    bool
	DBPath      string
}

// runSync wires source, target, mapper, and ledger from cfg and performs one
// run. An aborted run is returned together with its summary.
func runSync(ctx context.Context, cfg *config.Config, req syncRequest, logger *log.Logger) (syncer.Summary, error) {
	mapper, err := mapping.NewMapper(cfg.Mapping, cfg.Rules)
	if err != nil {
		return syncer.Summary{}, err
	}

	source, err := buildSource(cfg, req.Input, req.InputFormat)
	if err != nil {
		return syncer.Summary{}, err
	}

	target, err := buildTarget(ctx, cfg)
	if err != nil {
		return syncer.Summary{}, err
	}

	options := syncer.Options{
		DryRun:    req.DryRun,
		Aggregate: req.Aggregate,
		Logger:    logger,
	}
	if !req.NoLedger {
		store, err := storage.OpenSQLite(req.DBPath)
		if err != nil {
			return syncer.Summary{}, err
		}
		defer store.Close()
		options.Recorder = store
	}

	return syncer.New(source, target, mapper, options).Run(ctx, req.Range)
}

func buildSource(cfg *config.Config, input, inputFormat string) (syncer.Source, error) {
	if strings.TrimSpace(input) != "" {
		if _, err := importer.InferFormat(input, inputFormat); err != nil {
			return nil, err
		}
		return &importer.FileSource{Path: input, Format: inputFormat}, nil
	}

	if strings.TrimSpace(cfg.Clockify.APIKey) == "" {
		return nil, errors.New("clockify.api_key is required (or set CLOCKYSAP_CLOCKIFY_API_KEY, or use --input)")
	}
	client, err := clockify.NewClient(clockify.ClientConfig{
		BaseURL:           cfg.Clockify.URL,
		APIKey:            cfg.Clockify.APIKey,
		WorkspaceID:       cfg.Clockify.WorkspaceID,
		UserID:            cfg.Clockify.UserID,
		PageSize:          cfg.Clockify.PageSize,
		RequestsPerSecond: cfg.Clockify.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildTarget(ctx context.Context, cfg *config.Config) (syncer.Target, error) {
	sf := cfg.SuccessFactors
	clientConfig := successfactors.ClientConfig{
		BaseURL:   sf.URL,
		EntitySet: sf.EntitySet,
		CompanyID: sf.CompanyID,
		Username:  sf.Username,
		Password:  sf.Password,
	}
	if strings.EqualFold(strings.TrimSpace(sf.Auth), config.AuthOAuth2) {
		clientConfig.OAuth2 = &successfactors.OAuth2Config{
			TokenURL:     sf.TokenURL,
			ClientID:     sf.ClientID,
			ClientSecret: sf.ClientSecret,
		}
	}
	client, err := successfactors.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// resolveSyncRange picks the range to sync. --month and --from/--to are
// mutually exclusive; a single bound is completed to its calendar month.
func resolveSyncRange(fromValue, toValue, monthValue string, now time.Time) (timeutil.Range, error) {
	fromValue = strings.TrimSpace(fromValue)
	toValue = strings.TrimSpace(toValue)
	monthValue = strings.TrimSpace(monthValue)

	if monthValue != "" {
		if fromValue != "" || toValue != "" {
			return timeutil.Range{}, fmt.Errorf("--month cannot be combined with --from/--to")
		}
		return timeutil.ParseMonth(monthValue)
	}
	if fromValue == "" && toValue == "" {
		return timeutil.CurrentMonth(now), nil
	}

	var from, to time.Time
	if fromValue != "" {
		day, err := timeutil.ParseDay(fromValue)
		if err != nil {
			return timeutil.Range{}, fmt.Errorf("invalid --from value: %w", err)
		}
		from = day
	}
	if toValue != "" {
		day, err := timeutil.ParseDay(toValue)
		if err != nil {
			return timeutil.Range{}, fmt.Errorf("invalid --to value: %w", err)
		}
		to = day
	}
	if from.IsZero() {
		from = timeutil.MonthRange(to).Start
	}
	if to.IsZero() {
		to = timeutil.MonthRange(from).End
	}
	return timeutil.NewRange(from, to)
}

func printSyncSummary(w io.Writer, summary syncer.Summary) {
	if summary.Aborted {
		fmt.Fprintf(w, "Sync aborted for %s: %v\n", summary.Range, summary.Err())
		return
	}

	for _, outcome := range summary.Outcomes {
		if outcome.Outcome != syncer.OutcomeFailed {
			continue
		}
		label := outcome.Key
		if label == "" {
			label = "entry " + outcome.EntryIDs
		}
		fmt.Fprintf(w, "Failed %s (%s): %s\n", label, outcome.Reason, outcome.Error)
	}

	prefix := "Sync completed."
	if summary.DryRun {
		prefix = "Dry-run completed (nothing written)."
	}
	fmt.Fprintf(
		w,
		"%s Created: %d, Skipped: %d, Failed: %d\n",
		prefix,
		summary.Created,
		summary.Skipped,
		summary.Failed,
	)
	fmt.Fprintf(w, "Range: %s, Entries fetched: %d, Run: %s\n", summary.Range, summary.Fetched, summary.RunID)
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVar(&syncFromDay, "from", "", "Start day (inclusive), format YYYY-MM-DD")
	syncCmd.Flags().StringVar(&syncToDay, "to", "", "End day (inclusive), format YYYY-MM-DD")
	syncCmd.Flags().StringVar(&syncMonth, "month", "", "Month to sync, format YYYY-MM (default: current month)")
	syncCmd.Flags().StringVarP(&syncInput, "input", "i", "", "Read entries from an exported Clockify report instead of the API")
	syncCmd.Flags().StringVarP(&syncInputFormat, "format", "f", "", "Input format: csv|excel (optional, inferred from --input extension)")
	syncCmd.Flags().StringVar(&syncDBPath, "db", "./clockysap.db", "Path to local SQLite run ledger (default from sync.db)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Check against SuccessFactors but do not create records")
	syncCmd.Flags().BoolVar(&syncAggregate, "aggregate", false, "Sum entries sharing a natural key into one record")
	syncCmd.Flags().BoolVar(&syncNoLedger, "no-ledger", false, "Do not record the run in the local ledger")
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 5*time.Minute, "Overall timeout for the sync run")
}
