package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clockysap/config"
)

var configDeleteLedger bool

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by clockysap.

The run ledger configured in sync.db is kept unless --ledger is given; its path
is printed so it can be removed later with "clockysap delete".
If no configuration file is active, the command returns an error.`,
	Example: `
  # Delete active config, keep the run ledger
  clockysap config delete

  # Delete config at a custom path together with its run ledger
  clockysap --configFile ./custom-clockysap.yaml config delete --ledger
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			return fmt.Errorf("no configuration file found")
		}
		return deleteConfigFile(cmd.OutOrStdout(), configPath, viper.GetString(config.KeySyncDBPath), configDeleteLedger)
	},
}

// deleteConfigFile removes the config at configPath and, with withLedger,
// the run ledger at ledgerPath.
func deleteConfigFile(w io.Writer, configPath, ledgerPath string, withLedger bool) error {
	if err := os.Remove(configPath); err != nil {
		return fmt.Errorf("error deleting configuration file: %w", err)
	}
	fmt.Fprintf(w, "Configuration file successfully deleted: %s\n", configPath)

	ledgerPath = strings.TrimSpace(ledgerPath)
	if ledgerPath == "" {
		return nil
	}
	if _, err := os.Stat(ledgerPath); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if !withLedger {
		fmt.Fprintf(w, "Run ledger kept at: %s\n", ledgerPath)
		return nil
	}
	if err := removeDatabaseFile(ledgerPath); err != nil {
		return err
	}
	fmt.Fprintf(w, "Run ledger deleted: %s\n", ledgerPath)
	return nil
}

func init() {
	configCmd.AddCommand(configDeleteCmd)

	configDeleteCmd.Flags().BoolVar(&configDeleteLedger, "ledger", false, "Also delete the run ledger configured in sync.db")
}
