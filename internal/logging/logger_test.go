package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hotdock/internal/config"
	"hotdock/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("daemon started", logging.Output("HDMI-A-0"))

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "hotdock.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	line := strings.TrimSpace(strings.Split(string(content), "\n")[0])
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, line)
	}
	if entry["msg"] != "daemon started" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Fatalf("unexpected level: %v", entry["level"])
	}
	if entry[logging.FieldOutput] != "HDMI-A-0" {
		t.Fatalf("missing output field: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestConsoleLoggerHeaderShowsComponentAndPass(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:           "console",
		Level:            "info",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithPassID(context.Background(), "0123456789abcdef")
	component := logging.NewComponentLogger(logger, "orchestrator")
	logging.WithContext(ctx, component).Info("layout applied", logging.Int("outputs", 2))
	logger.Debug("suppressed")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	got := string(content)
	if !strings.Contains(got, "INFO orchestrator [pass 01234567]: layout applied outputs=2") {
		t.Fatalf("unexpected console line: %q", got)
	}
	if strings.Contains(got, "suppressed") {
		t.Fatalf("debug record leaked at info level: %q", got)
	}
	if strings.Contains(got, ".go:") {
		t.Fatalf("expected no source location at info level: %q", got)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "probe failed", "probe_failed", logging.String(logging.FieldErrorHint, "check DISPLAY"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "probe_failed" {
		t.Fatalf("missing event type: %v", entry)
	}
	if entry[logging.FieldErrorHint] != "check DISPLAY" {
		t.Fatalf("hint overwritten: %v", entry)
	}
	if entry[logging.FieldImpact] == nil {
		t.Fatalf("missing impact default: %v", entry)
	}
}

func TestContextFields(t *testing.T) {
	if fields := logging.ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("expected no fields, got %v", fields)
	}
	ctx := logging.WithState(logging.WithPassID(context.Background(), "abc"), "reconciling")
	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected two fields, got %v", fields)
	}
	if id, ok := logging.PassIDFromContext(ctx); !ok || id != "abc" {
		t.Fatalf("unexpected pass id %q %v", id, ok)
	}
}

func TestTeeLoggerWritesDiagnosticFile(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	handler, closer, path, err := logging.OpenDiagnosticHandler(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("OpenDiagnosticHandler: %v", err)
	}
	logger := logging.TeeLogger(base, handler)
	logger.Debug("debug only in diagnostic")
	logger.Info("both sinks")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read diagnostic: %v", err)
	}
	if !strings.Contains(string(content), "debug only in diagnostic") || !strings.Contains(string(content), "both sinks") {
		t.Fatalf("diagnostic file missing records: %q", content)
	}
	if strings.Contains(buf.String(), "debug only") {
		t.Fatalf("base handler received debug record: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "both sinks") {
		t.Fatalf("base handler missing info record: %q", buf.String())
	}
}
