package extension

import "time"

// Config holds the Vesting extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.vesting" or "vesting" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Administrator is the privileged principal allowed to perform
	// program administration through the engine's Admin surface.
	Administrator string `json:"administrator" mapstructure:"administrator" yaml:"administrator"`

	// UnlockPeriod is the engine-wide linear-release granularity
	// (default: 720h, thirty days).
	UnlockPeriod time.Duration `json:"unlock_period" mapstructure:"unlock_period" yaml:"unlock_period"`

	// WatchInterval is the polling interval of the unlock-boundary watcher.
	// Zero leaves the watcher disabled.
	WatchInterval time.Duration `json:"watch_interval" mapstructure:"watch_interval" yaml:"watch_interval"`

	// Driver selects the store backend built from the grove database
	// provided via WithGroveDB: "postgres", "sqlite" or "mongo"
	// (default: "postgres"). Ignored when WithStore supplies a store.
	Driver string `json:"driver" mapstructure:"driver" yaml:"driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UnlockPeriod: 720 * time.Hour,
		Driver:       "postgres",
	}
}
