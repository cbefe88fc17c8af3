package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clockysap/output"
	"clockysap/storage"
)

var (
	exportFormat string
	exportMode   string
	exportOutput string
	exportDBPath string
	exportRunID  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the outcomes of a sync run to CSV/Excel",
	Long: `Export the recorded outcomes of one sync run from the local ledger.

Modes:
- raw: one row per target record (date, entries, natural key, hours, outcome, error)
- daily: per-day totals of created, skipped, and failed hours

Without --run the most recent run is exported.
Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export outcomes of the latest run to CSV
  clockysap export --output ./outcomes.csv

  # Export daily totals of a given run to Excel
  clockysap export --run 3f0c9a4e-6a55-4c55-9a57-0d5f43f0b7a1 --mode daily --output ./daily.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = output.FormatFromPath(exportOutput)
		}

		store, err := storage.OpenSQLite(resolveLedgerPath(cmd, exportDBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := resolveExportRun(store, exportRunID)
		if err != nil {
			return err
		}
		outcomes, err := store.ListOutcomes(run.ID)
		if err != nil {
			return err
		}

		mode := strings.TrimSpace(strings.ToLower(exportMode))
		switch mode {
		case "", "raw":
			writer, writerErr := output.WriterForFormat(format)
			if writerErr != nil {
				return writerErr
			}
			if err := writer.Write(exportOutput, outcomes); err != nil {
				return err
			}
			fmt.Printf("Export completed. Run: %s, Rows: %d, Mode: raw, Format: %s, File: %s\n", run.ID, len(outcomes), format, exportOutput)
		case "daily":
			summaries := output.BuildDailySummaries(outcomes)
			if err := output.WriteDailySummaries(exportOutput, format, summaries); err != nil {
				return err
			}
			fmt.Printf("Export completed. Run: %s, Days: %d, Mode: daily, Format: %s, File: %s\n", run.ID, len(summaries), format, exportOutput)
		default:
			return fmt.Errorf("unsupported export mode: %s (supported: raw, daily)", exportMode)
		}
		return nil
	},
}

func resolveExportRun(store *storage.SQLiteStore, runID string) (storage.Run, error) {
	if strings.TrimSpace(runID) == "" {
		return store.LatestRun()
	}
	run, ok, err := store.GetRun(strings.TrimSpace(runID))
	if err != nil {
		return storage.Run{}, err
	}
	if !ok {
		return storage.Run{}, fmt.Errorf("%w: %s", storage.ErrRunNotFound, runID)
	}
	return run, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "raw", "Export mode: raw|daily")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "./clockysap.db", "Path to local SQLite run ledger (default from sync.db)")
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "Run id to export (default: latest run)")

	_ = exportCmd.MarkFlagRequired("output")
}
