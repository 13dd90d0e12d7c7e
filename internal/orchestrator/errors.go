package orchestrator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLayoutApply = errors.New("layout apply failed")
	ErrSnapshot    = errors.New("workspace snapshot failed")
	ErrCommand     = errors.New("window manager command failed")
	ErrProbe       = errors.New("output probe failed")
)

// wrap tags err with marker and the step that produced it.
func wrap(marker error, step, operation string, err error) error {
	detail := step
	if op := strings.TrimSpace(operation); op != "" {
		detail += ": " + op
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// failureKind maps an error to a short label for reports.
func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrLayoutApply):
		return "layout_apply"
	case errors.Is(err, ErrSnapshot):
		return "snapshot"
	case errors.Is(err, ErrCommand):
		return "command"
	case errors.Is(err, ErrProbe):
		return "probe"
	default:
		return "other"
	}
}
