package config

const (
	defaultConfigPath          = "~/.config/hotdock/config.toml"
	defaultStateDir            = "~/.local/state/hotdock"
	defaultLogDir              = "~/.local/state/hotdock/logs"
	defaultXrandrBinary        = "xrandr"
	defaultSettleDelayMs       = 500
	defaultPostLayoutDelayMs   = 500
	defaultReconnectMaxSeconds = 30
	defaultHotplugSubsystem    = "drm"
	defaultHotplugDevtype      = "drm_minor"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Display: Display{
			XrandrBinary: defaultXrandrBinary,
		},
		Timing: Timing{
			SettleDelayMs:       defaultSettleDelayMs,
			PostLayoutDelayMs:   defaultPostLayoutDelayMs,
			ReconnectMaxSeconds: defaultReconnectMaxSeconds,
		},
		Hotplug: Hotplug{
			Subsystem: defaultHotplugSubsystem,
			Devtype:   defaultHotplugDevtype,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
