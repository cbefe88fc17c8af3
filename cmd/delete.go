package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clockysap/internal/timeutil"
	"clockysap/storage"
)

var (
	deleteDBPath string
	deleteBefore string
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the local run ledger or prune old runs",
	Long: `Destructive ledger cleanup command.

Without --before the complete SQLite ledger file is deleted.
With --before only runs started before that day are removed, together with
their outcomes. SuccessFactors is never touched.

Before deletion, an interactive security prompt requires typing exactly "Y".`,
	Example: `
  # Delete the complete ledger file (requires interactive confirmation)
  clockysap delete --db ./clockysap.db

  # Remove runs started before 2024-01-01
  clockysap delete --before 2024-01-01
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := resolveLedgerPath(cmd, deleteDBPath)

		if strings.TrimSpace(deleteBefore) != "" {
			cutoff, err := timeutil.ParseDay(deleteBefore)
			if err != nil {
				return fmt.Errorf("invalid --before value: %w", err)
			}
			question := fmt.Sprintf("Delete runs started before %s from %q?", cutoff.Format(timeutil.DayLayout), dbPath)
			confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, question)
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("delete aborted: confirmation was not 'Y'")
			}

			deleted, err := pruneRuns(dbPath, cutoff)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d run(s) from %s\n", deleted, dbPath)
			return nil
		}

		confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, fmt.Sprintf("Delete ledger file %q?", dbPath))
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}

		if err := removeDatabaseFile(dbPath); err != nil {
			return err
		}
		fmt.Printf("Deleted ledger file: %s\n", dbPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteDBPath, "db", "./clockysap.db", "Path to local SQLite run ledger (default from sync.db)")
	deleteCmd.Flags().StringVar(&deleteBefore, "before", "", "Only delete runs started before this day (YYYY-MM-DD)")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, question string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "%s Type Y to confirm: ", question); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return strings.TrimSpace(line) == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}

func pruneRuns(path string, cutoff time.Time) (int64, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("ledger file not found: %s", path)
		}
		return 0, fmt.Errorf("stat ledger file: %w", err)
	}

	store, err := storage.OpenSQLite(path)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	return store.DeleteRunsBefore(cutoff)
}

func removeDatabaseFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("ledger file not found: %s", path)
		}
		return fmt.Errorf("stat ledger file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("ledger path is a directory: %s", path)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete ledger file: %w", err)
	}
	return nil
}
