package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/rupor-github/gencfg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}

	want := []string{"import", "font-face", "keyframes", "namespace", "supports"}
	if !slices.Equal(cfg.Sanitizer.BlockedAtRules, want) {
		t.Errorf("BlockedAtRules = %v, want %v", cfg.Sanitizer.BlockedAtRules, want)
	}
	if !slices.Equal(cfg.Sanitizer.FragmentProperties, []string{"filter", "mask"}) {
		t.Errorf("FragmentProperties = %v", cfg.Sanitizer.FragmentProperties)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" || cfg.Logging.FileLogger.Level != "none" {
		t.Errorf("unexpected logging defaults %+v", cfg.Logging)
	}
	if cfg.Reporting.Destination == "" {
		t.Error("report destination must have default")
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmp := t.TempDir()
	path := writeConfig(t, `version: 1
sanitizer:
  blocked_at_rules: [import, page]
logging:
  console:
    level: debug
  file:
    level: normal
    destination: `+filepath.Join(tmp, "test.log")+`
    mode: append
reporting:
  destination: `+filepath.Join(tmp, "report.zip")+`
`)

	cfg, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if !slices.Equal(cfg.Sanitizer.BlockedAtRules, []string{"import", "page"}) {
		t.Errorf("BlockedAtRules = %v", cfg.Sanitizer.BlockedAtRules)
	}
	// not mentioned in file - default is kept
	if !slices.Equal(cfg.Sanitizer.FragmentProperties, []string{"filter", "mask"}) {
		t.Errorf("FragmentProperties = %v", cfg.Sanitizer.FragmentProperties)
	}
	if cfg.Logging.FileLogger.Mode != "append" || cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("unexpected logging %+v", cfg.Logging)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadConfiguration_UnknownFields(t *testing.T) {
	path := writeConfig(t, `version: 1
document:
  fix_zip: true
`)
	if _, err := LoadConfiguration(path); err == nil {
		t.Error("Expected error for unknown field")
	}
}

func TestLoadConfiguration_ValidationError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"version", "version: 2\n"},
		{"empty at-rule", "version: 1\nsanitizer:\n  blocked_at_rules: [import, '']\n"},
		{"at sign", "version: 1\nsanitizer:\n  blocked_at_rules: ['@import']\n"},
		{"custom property", "version: 1\nsanitizer:\n  fragment_properties: [filter, --mask]\n"},
		{"console level", "version: 1\nlogging:\n  console:\n    level: verbose\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	_, err := unmarshalConfig([]byte("version: 1\nsanitizer:\n  blocked_at_rules: ['@media']\n"), &Config{
		Logging: LoggingConfig{
			ConsoleLogger: LoggerConfig{Level: "normal"},
			FileLogger:    LoggerConfig{Level: "none", Destination: filepath.Join(t.TempDir(), "test.log")},
		},
		Reporting: ReporterConfig{Destination: filepath.Join(t.TempDir(), "report.zip")},
	}, true)
	if err == nil {
		t.Fatal("Expected validation error")
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected validator errors, got %T: %v", err, err)
	}
	if len(verrs) != 1 || verrs[0].Tag() != "at_rule_name" {
		t.Errorf("unexpected validation errors %v", verrs)
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}
	if _, err := LoadConfiguration("", option); err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if _, err = unmarshalConfig(data, &Config{}, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
	if !strings.Contains(string(data), "blocked_at_rules") {
		t.Error("Prepared config does not document sanitizer settings")
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Sanitizer.FragmentProperties = append(cfg.Sanitizer.FragmentProperties, "clip-path")

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "clip-path") {
		t.Errorf("Dump() output misses modified value:\n%s", data)
	}

	// dumped configuration loads back
	back, err := LoadConfiguration(writeConfig(t, string(data)))
	if err != nil {
		t.Fatalf("LoadConfiguration() of dumped config error = %v", err)
	}
	if !slices.Equal(back.Sanitizer.FragmentProperties, cfg.Sanitizer.FragmentProperties) {
		t.Errorf("FragmentProperties = %v", back.Sanitizer.FragmentProperties)
	}
}
