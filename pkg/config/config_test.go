package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sampleConfig struct {
	Name    string        `split_words:"true" required:"true"`
	Retries int           `split_words:"true" default:"5"`
	Delay   time.Duration `split_words:"true" default:"1s"`
}

func TestExportEnvironmentKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "CFGTEST_NAME=from-file\nCFGTEST_RETRIES=7\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	t.Setenv("CFGTEST_NAME", "from-env")
	t.Setenv("CFGTEST_RETRIES", "")
	os.Unsetenv("CFGTEST_RETRIES")

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}

	if got := os.Getenv("CFGTEST_NAME"); got != "from-env" {
		t.Fatalf("CFGTEST_NAME = %q, want %q", got, "from-env")
	}
	if got := os.Getenv("CFGTEST_RETRIES"); got != "7" {
		t.Fatalf("CFGTEST_RETRIES = %q, want %q", got, "7")
	}
}

func TestExportEnvironmentIfExistsMissingFile(t *testing.T) {
	t.Parallel()

	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("exportEnvironmentIfExists() error = %v", err)
	}
}

func TestNewAppliesDefaultsAndRequired(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "assistant")

	conf, err := New[sampleConfig]("SAMPLE")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "assistant" {
		t.Fatalf("Name = %q, want %q", conf.Name, "assistant")
	}
	if conf.Retries != 5 {
		t.Fatalf("Retries = %d, want 5", conf.Retries)
	}
	if conf.Delay != time.Second {
		t.Fatalf("Delay = %v, want 1s", conf.Delay)
	}
}

func TestNewMissingRequired(t *testing.T) {
	t.Setenv("MISSING_NAME", "")
	os.Unsetenv("MISSING_NAME")

	if _, err := New[sampleConfig]("MISSING"); err == nil {
		t.Fatal("New() error = nil, want required field error")
	}
}
