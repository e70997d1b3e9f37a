package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onProgramCreated      []OnProgramCreated
	onStartTimeUpdated    []OnStartTimeUpdated
	onUnlockPeriodUpdated []OnUnlockPeriodUpdated
	onBeneficiaryAdded    []OnBeneficiaryAdded
	onBeneficiariesAdded  []OnBeneficiariesAdded
	onClaimed             []OnClaimed
	onClaimFailed         []OnClaimFailed
	onUnlockBoundary      []OnUnlockBoundary
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnProgramCreated); ok {
		r.onProgramCreated = append(r.onProgramCreated, v)
	}
	if v, ok := p.(OnStartTimeUpdated); ok {
		r.onStartTimeUpdated = append(r.onStartTimeUpdated, v)
	}
	if v, ok := p.(OnUnlockPeriodUpdated); ok {
		r.onUnlockPeriodUpdated = append(r.onUnlockPeriodUpdated, v)
	}
	if v, ok := p.(OnBeneficiaryAdded); ok {
		r.onBeneficiaryAdded = append(r.onBeneficiaryAdded, v)
	}
	if v, ok := p.(OnBeneficiariesAdded); ok {
		r.onBeneficiariesAdded = append(r.onBeneficiariesAdded, v)
	}
	if v, ok := p.(OnClaimed); ok {
		r.onClaimed = append(r.onClaimed, v)
	}
	if v, ok := p.(OnClaimFailed); ok {
		r.onClaimFailed = append(r.onClaimFailed, v)
	}
	if v, ok := p.(OnUnlockBoundary); ok {
		r.onUnlockBoundary = append(r.onUnlockBoundary, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnProgramCreated)(nil)).Elem(), "OnProgramCreated")
	checkInterface(reflect.TypeOf((*OnStartTimeUpdated)(nil)).Elem(), "OnStartTimeUpdated")
	checkInterface(reflect.TypeOf((*OnUnlockPeriodUpdated)(nil)).Elem(), "OnUnlockPeriodUpdated")
	checkInterface(reflect.TypeOf((*OnBeneficiaryAdded)(nil)).Elem(), "OnBeneficiaryAdded")
	checkInterface(reflect.TypeOf((*OnBeneficiariesAdded)(nil)).Elem(), "OnBeneficiariesAdded")
	checkInterface(reflect.TypeOf((*OnClaimed)(nil)).Elem(), "OnClaimed")
	checkInterface(reflect.TypeOf((*OnClaimFailed)(nil)).Elem(), "OnClaimFailed")
	checkInterface(reflect.TypeOf((*OnUnlockBoundary)(nil)).Elem(), "OnUnlockBoundary")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProgramCreated emits a program created event.
func (r *Registry) EmitProgramCreated(ctx context.Context, prog interface{}) {
	r.mu.RLock()
	plugins := r.onProgramCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProgramCreated(ctx, prog)
		}); err != nil {
			r.logger.Warn("plugin OnProgramCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStartTimeUpdated emits a start time updated event.
func (r *Registry) EmitStartTimeUpdated(ctx context.Context, programKey string, newStart time.Time) {
	r.mu.RLock()
	plugins := r.onStartTimeUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStartTimeUpdated(ctx, programKey, newStart)
		}); err != nil {
			r.logger.Warn("plugin OnStartTimeUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUnlockPeriodUpdated emits an unlock period updated event.
func (r *Registry) EmitUnlockPeriodUpdated(ctx context.Context, newPeriod time.Duration) {
	r.mu.RLock()
	plugins := r.onUnlockPeriodUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUnlockPeriodUpdated(ctx, newPeriod)
		}); err != nil {
			r.logger.Warn("plugin OnUnlockPeriodUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBeneficiaryAdded emits a beneficiary added event.
func (r *Registry) EmitBeneficiaryAdded(ctx context.Context, rec interface{}) {
	r.mu.RLock()
	plugins := r.onBeneficiaryAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBeneficiaryAdded(ctx, rec)
		}); err != nil {
			r.logger.Warn("plugin OnBeneficiaryAdded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBeneficiariesAdded emits a batch registration event.
func (r *Registry) EmitBeneficiariesAdded(ctx context.Context, programKey string, recs []interface{}) {
	r.mu.RLock()
	plugins := r.onBeneficiariesAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBeneficiariesAdded(ctx, programKey, recs)
		}); err != nil {
			r.logger.Warn("plugin OnBeneficiariesAdded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitClaimed emits a claim settled event.
func (r *Registry) EmitClaimed(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onClaimed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnClaimed(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnClaimed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitClaimFailed emits a claim failed event.
func (r *Registry) EmitClaimFailed(ctx context.Context, programKey, address string, amount interface{}, claimErr error) {
	r.mu.RLock()
	plugins := r.onClaimFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnClaimFailed(ctx, programKey, address, amount, claimErr)
		}); err != nil {
			r.logger.Warn("plugin OnClaimFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUnlockBoundary emits an unlock boundary crossing event.
func (r *Registry) EmitUnlockBoundary(ctx context.Context, programKey string, periodIndex uint64, at time.Time) {
	r.mu.RLock()
	plugins := r.onUnlockBoundary
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUnlockBoundary(ctx, programKey, periodIndex, at)
		}); err != nil {
			r.logger.Warn("plugin OnUnlockBoundary failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the claim pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
