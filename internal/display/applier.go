package display

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"hotdock/internal/logging"
)

type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execCommandRunner struct{}

func (execCommandRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

// LayoutApplier runs xrandr with a prepared argument list.
type LayoutApplier struct {
	binary  string
	display string
	runner  commandRunner
	logger  *slog.Logger
}

// NewLayoutApplier returns an applier for binary. A non-empty display is
// passed through --display.
func NewLayoutApplier(binary, display string, logger *slog.Logger) *LayoutApplier {
	if strings.TrimSpace(binary) == "" {
		binary = "xrandr"
	}
	return &LayoutApplier{
		binary:  binary,
		display: strings.TrimSpace(display),
		runner:  execCommandRunner{},
		logger:  logging.NewComponentLogger(logger, "xrandr"),
	}
}

// Binary returns the configured xrandr executable.
func (a *LayoutApplier) Binary() string {
	return a.binary
}

// Apply runs one xrandr invocation. Empty args is a no-op.
func (a *LayoutApplier) Apply(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	full := make([]string, 0, len(args)+2)
	if a.display != "" {
		full = append(full, "--display", a.display)
	}
	full = append(full, args...)

	started := time.Now()
	output, err := a.runner.CombinedOutput(ctx, a.binary, full...)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", a.binary, strings.Join(full, " "), err, strings.TrimSpace(string(output)))
	}
	a.logger.Debug("xrandr applied",
		logging.Strings("args", full),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}
