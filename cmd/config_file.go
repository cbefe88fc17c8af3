package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"clockysap/config"
)

// resolveConfigPath picks the file config commands operate on: --configFile,
// then the file viper loaded, then $HOME/.clockysap.yaml.
func resolveConfigPath(configFileFlag, configFileUsed string) (string, error) {
	if strings.TrimSpace(configFileFlag) != "" {
		return configFileFlag, nil
	}
	if strings.TrimSpace(configFileUsed) != "" {
		return configFileUsed, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".clockysap.yaml"), nil
}

// writeConfigTemplate writes content to path unless a file already exists.
// New files get mode 0600.
func writeConfigTemplate(path, content string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("creating config file failed: %w", err)
	}
	return true, nil
}

// printMissingSettings tells the user what a sync still needs from the file
// at path or from CLOCKYSAP_* environment variables.
func printMissingSettings(w io.Writer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file failed: %w", err)
	}
	cfg, err := config.ParseYAMLContent(content)
	if err != nil {
		return err
	}

	missing := config.MissingSettings(*cfg)
	if len(missing) == 0 {
		fmt.Fprintln(w, "All settings required for sync are present.")
		return nil
	}
	fmt.Fprintln(w, "Still required before running sync (in the file or as CLOCKYSAP_* environment variables):")
	for _, key := range missing {
		fmt.Fprintf(w, "  - %s\n", key)
	}
	return nil
}
