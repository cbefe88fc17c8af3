package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clockysap/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Secrets are masked.`,
	Example: `
  # Show active configuration
  clockysap config show
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return nil
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		}
		printConfig(os.Stdout, cfg)
		return nil
	},
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "clockify.url: %s\n", cfg.Clockify.URL)
	fmt.Fprintf(w, "clockify.api_key: %s\n", maskSecret(cfg.Clockify.APIKey))
	fmt.Fprintf(w, "clockify.workspace_id: %s\n", cfg.Clockify.WorkspaceID)
	fmt.Fprintf(w, "clockify.user_id: %s\n", cfg.Clockify.UserID)
	fmt.Fprintf(w, "clockify.page_size: %d\n", cfg.Clockify.PageSize)
	fmt.Fprintf(w, "clockify.requests_per_second: %g\n", cfg.Clockify.RequestsPerSecond)
	fmt.Fprintf(w, "successfactors.url: %s\n", cfg.SuccessFactors.URL)
	fmt.Fprintf(w, "successfactors.entity_set: %s\n", cfg.SuccessFactors.EntitySet)
	fmt.Fprintf(w, "successfactors.company_id: %s\n", cfg.SuccessFactors.CompanyID)
	fmt.Fprintf(w, "successfactors.auth: %s\n", cfg.SuccessFactors.Auth)
	if strings.EqualFold(cfg.SuccessFactors.Auth, config.AuthOAuth2) {
		fmt.Fprintf(w, "successfactors.token_url: %s\n", cfg.SuccessFactors.TokenURL)
		fmt.Fprintf(w, "successfactors.client_id: %s\n", cfg.SuccessFactors.ClientID)
		fmt.Fprintf(w, "successfactors.client_secret: %s\n", maskSecret(cfg.SuccessFactors.ClientSecret))
	} else {
		fmt.Fprintf(w, "successfactors.username: %s\n", cfg.SuccessFactors.Username)
		fmt.Fprintf(w, "successfactors.password: %s\n", maskSecret(cfg.SuccessFactors.Password))
	}
	fmt.Fprintf(w, "mapping.employee_id: %s\n", cfg.Mapping.EmployeeID)
	fmt.Fprintf(w, "mapping.default_time_type: %s\n", cfg.Mapping.DefaultTimeType)
	fmt.Fprintf(w, "mapping.default_cost_center: %s\n", cfg.Mapping.DefaultCostCenter)
	fmt.Fprintf(w, "mapping.rounding_minutes: %d\n", cfg.Mapping.RoundingMinutes)
	fmt.Fprintf(w, "sync.aggregate: %t\n", cfg.Sync.Aggregate)
	fmt.Fprintf(w, "sync.db: %s\n", cfg.Sync.DBPath)
	fmt.Fprintf(w, "rules: %d\n", len(cfg.Rules))
	for i, rule := range cfg.Rules {
		fmt.Fprintf(w, "rules[%d].name: %s\n", i, rule.Name)
		fmt.Fprintf(w, "rules[%d].project: %s\n", i, rule.Project)
		fmt.Fprintf(w, "rules[%d].task: %s\n", i, rule.Task)
		fmt.Fprintf(w, "rules[%d].cost_center: %s\n", i, rule.CostCenter)
		timeType := rule.TimeType
		if strings.TrimSpace(timeType) == "" {
			timeType = cfg.Mapping.DefaultTimeType + " (default)"
		}
		fmt.Fprintf(w, "rules[%d].time_type: %s\n", i, timeType)
	}
}

func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "(not set)"
	case len(value) <= 4:
		return "****"
	default:
		return "****" + value[len(value)-4:]
	}
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
