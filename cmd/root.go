/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clockysap/config"
	"clockysap/internal/logging"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "clockysap",
	Short: "Import Clockify time entries into SAP SuccessFactors.",
	Long: `
**********************************************
*              CLOCKY  ->  SAP               *
**********************************************

This CLI reads the time entries of a month from Clockify (or from an exported
Clockify report), maps them to SuccessFactors time records, and creates every
record that does not exist yet. Re-running a sync for the same month is safe:
records already present in SuccessFactors are skipped.

Every run is written to a local SQLite ledger that can be listed and exported.
`,
	Example: `
  # Create configuration file
  clockysap config create

  # Sync the current month
  clockysap sync

  # Sync a past month without writing anything
  clockysap sync --month 2024-05 --dry-run

  # Sync from an exported detailed report instead of the API
  clockysap sync --input Clockify_Time_Report_Detailed.csv --month 2024-05

  # Show recent runs and export the outcomes of the latest one
  clockysap history
  clockysap export --output ./outcomes.xlsx
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.clockysap.yaml, then ./.clockysap.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !requiresConfig(cmd) {
			return nil
		}

		_, err := config.LoadAndValidate()
		return err
	}
}

func requiresConfig(cmd *cobra.Command) bool {
	return cmd != nil && cmd.Name() == "sync"
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".clockysap")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Create one first with: clockysap config create")
	}
}

func newLogger(w io.Writer) (*log.Logger, error) {
	return logging.New(w, logLevel)
}
