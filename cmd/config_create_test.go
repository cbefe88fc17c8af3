package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"clockysap/config"
)

func useConfigFile(t *testing.T, path string) {
	t.Helper()
	t.Cleanup(func() {
		cfgFile = ""
		viper.Reset()
	})
	cfgFile = path
	viper.Reset()
}

func TestSaveDefaultConfig_PrefillsEmployeeAndListsMissingSettings(t *testing.T) {
	t.Setenv("CLOCKYSAP_CLOCKIFY_API_KEY", "")
	t.Setenv("CLOCKYSAP_SUCCESSFACTORS_PASSWORD", "")

	path := filepath.Join(t.TempDir(), "clockysap.yaml")
	useConfigFile(t, path)

	var out bytes.Buffer
	err := saveDefaultConfig(&out, config.TemplateValues{
		EmployeeID:        "EMP001",
		CompanyID:         "ACME",
		DefaultCostCenter: "CC-1000",
	})
	if err != nil {
		t.Fatalf("unexpected error creating config: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		t.Fatalf("expected created config to validate: %v", err)
	}
	if cfg.Mapping.EmployeeID != "EMP001" || cfg.SuccessFactors.CompanyID != "ACME" || cfg.Mapping.DefaultCostCenter != "CC-1000" {
		t.Fatalf("unexpected config values: %+v", cfg)
	}

	text := out.String()
	for _, want := range []string{"New config file created at: " + path, "- clockify.api_key", "- successfactors.username", "- successfactors.password"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
	if strings.Contains(text, "mapping.employee_id") {
		t.Fatalf("employee id was given and must not be reported missing:\n%s", text)
	}
}

func TestSaveDefaultConfig_RejectsUnknownAuth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clockysap.yaml")
	useConfigFile(t, path)

	if err := saveDefaultConfig(&bytes.Buffer{}, config.TemplateValues{Auth: "saml"}); err == nil {
		t.Fatalf("expected unsupported auth error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file should be written for an invalid auth mode")
	}
}

func TestSaveDefaultConfig_DoesNotOverwriteExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing.yaml")
	original := "mapping:\n  employee_id: \"EMP001\"\nsync:\n  aggregate: true\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatalf("failed writing initial config: %v", err)
	}
	useConfigFile(t, path)

	var out bytes.Buffer
	if err := saveDefaultConfig(&out, config.TemplateValues{EmployeeID: "EMP999"}); err != nil {
		t.Fatalf("unexpected error creating config: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed reading existing config after create: %v", err)
	}
	if string(content) != original {
		t.Fatalf("expected existing config to remain unchanged")
	}
	if !strings.Contains(out.String(), "already exists") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}
