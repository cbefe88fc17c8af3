package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clockysap/config"
	"clockysap/storage"
	"clockysap/syncer"
)

var (
	historyDBPath string
	historyLimit  int
	historyRunID  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded sync runs from the local ledger",
	Long: `List the sync runs recorded in the local SQLite ledger, newest first.

With --run the per-record outcomes of one run are listed instead.`,
	Example: `
  # Show the last 10 runs
  clockysap history

  # Show all outcomes of one run
  clockysap history --run 3f0c9a4e-6a55-4c55-9a57-0d5f43f0b7a1
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.OpenSQLite(resolveLedgerPath(cmd, historyDBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		if strings.TrimSpace(historyRunID) != "" {
			run, ok, err := store.GetRun(historyRunID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", storage.ErrRunNotFound, historyRunID)
			}
			outcomes, err := store.ListOutcomes(run.ID)
			if err != nil {
				return err
			}
			printRunOutcomes(os.Stdout, run, outcomes)
			return nil
		}

		runs, err := store.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No sync runs recorded yet.")
			return nil
		}
		printRuns(os.Stdout, runs)
		return nil
	},
}

// resolveLedgerPath prefers an explicit --db flag, then sync.db from config.
func resolveLedgerPath(cmd *cobra.Command, flagValue string) string {
	if cmd.Flags().Changed("db") {
		return flagValue
	}
	if configured := strings.TrimSpace(viper.GetString(config.KeySyncDBPath)); configured != "" {
		return configured
	}
	return flagValue
}

var (
	statusOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	statusWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	statusFailedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	headerStyle       = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle         = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printRuns(w io.Writer, runs []storage.Run) {
	t := newTable("RUN", "STARTED", "RANGE", "FETCHED", "CREATED", "SKIPPED", "FAILED", "STATUS")
	for _, run := range runs {
		t.Row(
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Range().String(),
			strconv.Itoa(run.Fetched),
			strconv.Itoa(run.Created),
			strconv.Itoa(run.Skipped),
			strconv.Itoa(run.Failed),
			styledStatus(run),
		)
	}
	fmt.Fprintln(w, t.String())
}

func printRunOutcomes(w io.Writer, run storage.Run, outcomes []syncer.RecordOutcome) {
	fmt.Fprintf(w, "Run %s (%s) range %s: %s\n", run.ID, run.StartedAt.Local().Format("2006-01-02 15:04"), run.Range(), styledStatus(run))
	if run.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", run.Error)
	}
	if len(outcomes) == 0 {
		return
	}

	t := newTable("DATE", "KEY", "HOURS", "OUTCOME", "ENTRIES", "ERROR")
	for _, outcome := range outcomes {
		t.Row(
			outcome.Date.Format("2006-01-02"),
			outcome.Key,
			fmt.Sprintf("%.2f", outcome.Hours),
			string(outcome.Outcome),
			outcome.EntryIDs,
			outcome.Error,
		)
	}
	fmt.Fprintln(w, t.String())
}

func styledStatus(run storage.Run) string {
	status := runStatus(run)
	switch status {
	case "aborted", "incomplete":
		return statusFailedStyle.Render(status)
	case "dry-run":
		return statusWarnStyle.Render(status)
	default:
		return statusOKStyle.Render(status)
	}
}

func runStatus(run storage.Run) string {
	switch {
	case run.Aborted:
		return "aborted"
	case run.Failed > 0:
		return "incomplete"
	case run.DryRun:
		return "dry-run"
	default:
		return "ok"
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDBPath, "db", "./clockysap.db", "Path to local SQLite run ledger (default from sync.db)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Maximum number of runs to list (0 = all)")
	historyCmd.Flags().StringVar(&historyRunID, "run", "", "Show the outcomes of one run")
}
