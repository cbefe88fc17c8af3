package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clockysap/config"
)

var (
	configCreateEmployeeID        string
	configCreateCompanyID         string
	configCreateAuth              string
	configCreateDefaultCostCenter string
)

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file for a SuccessFactors employee.",
	Long: `Create a new configuration file from the example template, prefilled with the
employee, company, and SuccessFactors auth mode given as flags.

Only the credentials of the selected auth mode are written. After creating the file
the command lists the settings that still have to be filled in before "sync" can run.
If a configuration file is already in use, no new file is written.`,
	Example: `
  # Create config at $HOME/.clockysap.yaml for employee EMP001 (basic auth)
  clockysap config create --employee-id EMP001 --company-id ACME

  # Use OAuth2 client credentials and book unmatched projects on a default cost center
  clockysap config create --employee-id EMP001 --auth oauth2 --default-cost-center CC-1000
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return saveDefaultConfig(cmd.OutOrStdout(), config.TemplateValues{
			EmployeeID:        configCreateEmployeeID,
			CompanyID:         configCreateCompanyID,
			Auth:              configCreateAuth,
			DefaultCostCenter: configCreateDefaultCostCenter,
		})
	},
}

func saveDefaultConfig(w io.Writer, values config.TemplateValues) error {
	auth := strings.ToLower(strings.TrimSpace(values.Auth))
	if auth != "" && auth != config.AuthBasic && auth != config.AuthOAuth2 {
		return fmt.Errorf("unsupported auth mode %q (supported: basic, oauth2)", values.Auth)
	}

	configPath, err := resolveConfigPath(cfgFile, viper.ConfigFileUsed())
	if err != nil {
		return err
	}

	created, err := writeConfigTemplate(configPath, config.RenderTemplate(values))
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(w, "Config file already exists at: %s\n", configPath)
		return nil
	}

	fmt.Fprintf(w, "New config file created at: %s\n", configPath)
	return printMissingSettings(w, configPath)
}

func init() {
	configCmd.AddCommand(configCreateCmd)

	configCreateCmd.Flags().StringVar(&configCreateEmployeeID, "employee-id", "", "SuccessFactors user id the records are booked for")
	configCreateCmd.Flags().StringVar(&configCreateCompanyID, "company-id", "", "SuccessFactors company id")
	configCreateCmd.Flags().StringVar(&configCreateAuth, "auth", config.AuthBasic, "SuccessFactors auth mode: basic|oauth2")
	configCreateCmd.Flags().StringVar(&configCreateDefaultCostCenter, "default-cost-center", "", "Cost center for entries no rule matches")
}
