package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clockysap/config"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor and validate it.",
	Long: `Open the active clockysap config file in $VISUAL, $EDITOR, or vi.

If no config file exists yet, the example template is written first.
After the editor exits the file is validated, and the employee, auth mode,
rule count, and any settings still missing for "sync" are printed.`,
	Example: `
  # Edit active config
  clockysap config edit

  # Edit with a specific editor
  VISUAL="code --wait" clockysap config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		created, err := writeConfigTemplate(configPath, config.ExampleYAML())
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(out, "No config file found. Created example config at: %s\n", configPath)
		}

		editorCommand := buildEditorCommand(os.Getenv("VISUAL"), os.Getenv("EDITOR"), configPath)
		editorCommand.Stdin = os.Stdin
		editorCommand.Stdout = os.Stdout
		editorCommand.Stderr = os.Stderr
		if err := editorCommand.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		return reportEditedConfig(out, configPath)
	},
}

// reportEditedConfig validates the file at path and summarizes what sync
// will use from it.
func reportEditedConfig(w io.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading edited config failed: %w", err)
	}
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		return fmt.Errorf("config validation failed in %s: %w", path, err)
	}

	fmt.Fprintf(
		w,
		"Configuration saved and validated: %s (employee %s, auth %s, %d rule(s))\n",
		path,
		cfg.Mapping.EmployeeID,
		cfg.SuccessFactors.Auth,
		len(cfg.Rules),
	)
	return printMissingSettings(w, path)
}

// buildEditorCommand uses $VISUAL, then $EDITOR, then vi. The editor value
// may carry arguments, e.g. "code --wait".
func buildEditorCommand(visual, editor, configPath string) *exec.Cmd {
	value := "vi"
	switch {
	case strings.TrimSpace(visual) != "":
		value = visual
	case strings.TrimSpace(editor) != "":
		value = editor
	}

	fields := strings.Fields(value)
	args := append(fields[1:], configPath)
	return exec.Command(fields[0], args...)
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
