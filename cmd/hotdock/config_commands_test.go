package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitShowValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", ""); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "", ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, []string{"config", "show"}, "", target)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# source: "+target)
	requireContains(t, out, "primary_output = ")
	requireContains(t, out, "HDMI-A-0")

	out, _, err = runCLI(t, []string{"config", "validate"}, "", target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestConfigShowDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	out, _, err := runCLI(t, []string{"config", "show"}, "", filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "# source: built-in defaults")
	requireContains(t, out, "settle_delay_ms = 500")
}

func TestConfigValidateRejectsBrokenFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[display\nprimary_output = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, "", path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLogsCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	base := t.TempDir()
	logDir := filepath.Join(base, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatal(err)
	}
	body := "INFO orchestrator [pass 1a2b3c4d]: layout applied\nINFO daemon: config reloaded\n"
	if err := os.WriteFile(filepath.Join(logDir, "hotdock.log"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(base, "config.toml")
	content := "[paths]\nstate_dir = \"" + filepath.Join(base, "state") + "\"\nlog_dir = \"" + logDir + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "--pass", "1a2b3c4d"}, "", cfgPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "layout applied")
	if strings.Contains(out, "config reloaded") {
		t.Fatalf("filter leaked unrelated line:\n%s", out)
	}
}
