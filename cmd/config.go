package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage clockysap configuration file values.",
	Long: `Create, edit, display, and delete the clockysap configuration file.

The configuration stores connection settings and the mapping to SuccessFactors:
- clockify.url / api_key / workspace_id / user_id
- successfactors.url / entity_set / company_id / auth (basic|oauth2)
- mapping.employee_id / default_time_type / default_cost_center / rounding_minutes
- rules[].project (+ task) -> cost_center / time_type

Secrets can be supplied through the environment instead, for example
CLOCKYSAP_CLOCKIFY_API_KEY or CLOCKYSAP_SUCCESSFACTORS_PASSWORD.`,
	Example: `
  # Create default config in $HOME/.clockysap.yaml
  clockysap config create

  # Show active config and source file
  clockysap config show

  # Open active config in editor (creates example if missing)
  clockysap config edit

  # Delete active config file
  clockysap config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
