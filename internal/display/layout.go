package display

import (
	"log/slog"
	"strings"

	"hotdock/internal/logging"
)

// Position is an extra xrandr argument set applied to one output while it is
// connected, for example {Output: "DVI-D-0", Args: ["--right-of", "HDMI-A-0"]}.
type Position struct {
	Output string
	Args   []string
}

// ParsePosition parses "<output>:<xrandr args>", splitting on the first colon.
// A missing colon or a blank side yields ok=false.
func ParsePosition(raw string) (Position, bool) {
	name, rest, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found {
		return Position{}, false
	}
	name = strings.TrimSpace(name)
	args := strings.Fields(rest)
	if name == "" || len(args) == 0 {
		return Position{}, false
	}
	return Position{Output: name, Args: args}, true
}

// Policy is the static layout configuration.
type Policy struct {
	Primary  string
	Position *Position
}

// NewPolicy builds a Policy from raw configuration values. A malformed
// position is dropped with a warning.
func NewPolicy(primary, rawPosition string, logger *slog.Logger) Policy {
	policy := Policy{Primary: strings.TrimSpace(primary)}
	if strings.TrimSpace(rawPosition) == "" {
		return policy
	}
	pos, ok := ParsePosition(rawPosition)
	if !ok {
		logging.WarnWithContext(logger, "ignoring malformed position directive", "position_invalid",
			logging.String("position", rawPosition),
			logging.String(logging.FieldErrorHint, `use "<output>:<xrandr args>", e.g. "DVI-D-0:--right-of HDMI-A-0"`),
			logging.String(logging.FieldImpact, "outputs are enabled without custom placement"),
		)
		return policy
	}
	policy.Position = &pos
	return policy
}

// BuildLayoutArgs renders one xrandr argument list covering every output in
// probe order. Connected outputs are enabled with --auto and disconnected ones
// turned --off. The configured primary gets --primary when connected;
// otherwise the first connected output does.
func BuildLayoutArgs(outputs []Output, policy Policy) []string {
	primarySet := false
	if policy.Primary != "" {
		for _, out := range outputs {
			if out.Name == policy.Primary && out.Connected {
				primarySet = true
				break
			}
		}
	}

	args := make([]string, 0, len(outputs)*4)
	for _, out := range outputs {
		args = append(args, "--output", out.Name)
		if !out.Connected {
			args = append(args, "--off")
			continue
		}
		args = append(args, "--auto")
		if policy.Position != nil && policy.Position.Output == out.Name {
			args = append(args, policy.Position.Args...)
		}
		if out.Name == policy.Primary || !primarySet {
			args = append(args, "--primary")
			primarySet = true
		}
	}
	return args
}
