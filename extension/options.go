package extension

import (
	"time"

	"github.com/xraph/grove"

	vesting "github.com/xraph/vesting"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/token"
)

// Option configures the Vesting Forge extension.
type Option func(*Extension)

// WithStore sets the store for the vesting engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB provides the grove database the store backend is built on.
// The backend is selected by the "driver" config field (postgres by default).
// Ignored when WithStore supplies a store.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithEngineOption passes a vesting.Option through to the underlying engine.
func WithEngineOption(opt vesting.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a vesting plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, vesting.WithPlugin(p))
	}
}

// WithLedger sets the token ledger claims are paid through.
func WithLedger(l token.Ledger) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, vesting.WithLedger(l))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithAdministrator sets the privileged principal.
func WithAdministrator(principal string) Option {
	return func(e *Extension) { e.config.Administrator = principal }
}

// WithUnlockPeriod sets the engine-wide linear-release granularity.
func WithUnlockPeriod(d time.Duration) Option {
	return func(e *Extension) { e.config.UnlockPeriod = d }
}

// WithWatchInterval enables the unlock-boundary watcher.
func WithWatchInterval(d time.Duration) Option {
	return func(e *Extension) { e.config.WatchInterval = d }
}

// WithDriver selects the store backend built from the grove database.
func WithDriver(name string) Option {
	return func(e *Extension) { e.config.Driver = name }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
