package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate ensures the configuration is usable.
//
// A malformed display.position is deliberately not a validation error: the
// layout code treats it as "no directive configured".
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTiming() error {
	if c.Timing.SettleDelayMs < 0 {
		return errors.New("timing.settle_delay_ms must not be negative")
	}
	if c.Timing.PostLayoutDelayMs < 0 {
		return errors.New("timing.post_layout_delay_ms must not be negative")
	}
	return ensurePositiveMap(map[string]int{
		"timing.reconnect_max_seconds": c.Timing.ReconnectMaxSeconds,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
