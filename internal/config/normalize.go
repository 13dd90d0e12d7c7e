package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDisplay()
	c.normalizeI3()
	c.normalizeHotplug()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDisplay() {
	c.Display.PrimaryOutput = strings.TrimSpace(c.Display.PrimaryOutput)
	c.Display.Position = strings.TrimSpace(c.Display.Position)
	c.Display.XrandrBinary = strings.TrimSpace(c.Display.XrandrBinary)
	if c.Display.XrandrBinary == "" {
		c.Display.XrandrBinary = defaultXrandrBinary
	}
	c.Display.XDisplay = strings.TrimSpace(c.Display.XDisplay)
	if c.Display.XDisplay == "" {
		if value, ok := os.LookupEnv("DISPLAY"); ok {
			c.Display.XDisplay = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeI3() {
	c.I3.SocketPath = strings.TrimSpace(c.I3.SocketPath)
	if c.I3.SocketPath == "" {
		if value, ok := os.LookupEnv("I3SOCK"); ok {
			c.I3.SocketPath = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeHotplug() {
	c.Hotplug.Subsystem = strings.TrimSpace(c.Hotplug.Subsystem)
	if c.Hotplug.Subsystem == "" {
		c.Hotplug.Subsystem = defaultHotplugSubsystem
	}
	c.Hotplug.Devtype = strings.TrimSpace(c.Hotplug.Devtype)
	if c.Hotplug.Devtype == "" {
		c.Hotplug.Devtype = defaultHotplugDevtype
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
