// Package plugin provides an extensible plugin system for Vesting.
// Plugins can hook into program, beneficiary, and claim lifecycle events
// to extend functionality.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Program lifecycle hooks
// ──────────────────────────────────────────────────

// OnProgramCreated is called when a new vesting program is created.
type OnProgramCreated interface {
	Plugin
	OnProgramCreated(ctx context.Context, prog interface{}) error
}

// OnStartTimeUpdated is called when a program's start time is overwritten.
type OnStartTimeUpdated interface {
	Plugin
	OnStartTimeUpdated(ctx context.Context, programKey string, newStart time.Time) error
}

// OnUnlockPeriodUpdated is called when the engine-wide unlock period changes.
type OnUnlockPeriodUpdated interface {
	Plugin
	OnUnlockPeriodUpdated(ctx context.Context, newPeriod time.Duration) error
}

// ──────────────────────────────────────────────────
// Beneficiary hooks
// ──────────────────────────────────────────────────

// OnBeneficiaryAdded is called when a single beneficiary is registered.
type OnBeneficiaryAdded interface {
	Plugin
	OnBeneficiaryAdded(ctx context.Context, rec interface{}) error
}

// OnBeneficiariesAdded is called once per successful batch registration.
type OnBeneficiariesAdded interface {
	Plugin
	OnBeneficiariesAdded(ctx context.Context, programKey string, recs []interface{}) error
}

// ──────────────────────────────────────────────────
// Claim hooks
// ──────────────────────────────────────────────────

// OnClaimed is called after a claim has settled and its transfer completed.
type OnClaimed interface {
	Plugin
	OnClaimed(ctx context.Context, receipt interface{}) error
}

// OnClaimFailed is called when a claim's token transfer fails and the
// settlement is rolled back.
type OnClaimFailed interface {
	Plugin
	OnClaimFailed(ctx context.Context, programKey, address string, amount interface{}, err error) error
}

// ──────────────────────────────────────────────────
// Watcher hooks
// ──────────────────────────────────────────────────

// OnUnlockBoundary is called by the boundary watcher when a program crosses
// an unlock-period boundary.
type OnUnlockBoundary interface {
	Plugin
	OnUnlockBoundary(ctx context.Context, programKey string, periodIndex uint64, at time.Time) error
}
