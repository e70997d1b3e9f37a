// Package observability provides a metrics extension for Vesting that records
// lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"
	"math/big"
	"time"

	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnProgramCreated      = (*MetricsExtension)(nil)
	_ plugin.OnStartTimeUpdated    = (*MetricsExtension)(nil)
	_ plugin.OnUnlockPeriodUpdated = (*MetricsExtension)(nil)
	_ plugin.OnBeneficiaryAdded    = (*MetricsExtension)(nil)
	_ plugin.OnBeneficiariesAdded  = (*MetricsExtension)(nil)
	_ plugin.OnClaimed             = (*MetricsExtension)(nil)
	_ plugin.OnClaimFailed         = (*MetricsExtension)(nil)
	_ plugin.OnUnlockBoundary      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Vesting plugin to automatically track vesting metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Program metrics
	ProgramCreated      Counter
	StartTimeUpdated    Counter
	UnlockPeriodUpdated Counter

	// Beneficiary metrics
	BeneficiariesAdded Counter
	BatchSize          Histogram

	// Claim metrics
	ClaimsSettled Counter
	ClaimsFailed  Counter
	ClaimAmount   Histogram

	// Watcher metrics
	UnlockBoundaries Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Program metrics
		ProgramCreated:      factory.Counter("vesting.program.created"),
		StartTimeUpdated:    factory.Counter("vesting.program.start_time.updated"),
		UnlockPeriodUpdated: factory.Counter("vesting.unlock_period.updated"),

		// Beneficiary metrics
		BeneficiariesAdded: factory.Counter("vesting.beneficiaries.added"),
		BatchSize:          factory.Histogram("vesting.beneficiaries.batch.size"),

		// Claim metrics
		ClaimsSettled: factory.Counter("vesting.claims.settled"),
		ClaimsFailed:  factory.Counter("vesting.claims.failed"),
		ClaimAmount:   factory.Histogram("vesting.claims.amount"),

		// Watcher metrics
		UnlockBoundaries: factory.Counter("vesting.unlock.boundaries"),

		// Error metrics
		StoreErrors:  factory.Counter("vesting.store.errors"),
		PluginErrors: factory.Counter("vesting.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Program lifecycle hooks
// ──────────────────────────────────────────────────

// OnProgramCreated implements plugin.OnProgramCreated.
func (m *MetricsExtension) OnProgramCreated(_ context.Context, _ interface{}) error {
	m.ProgramCreated.Inc()
	return nil
}

// OnStartTimeUpdated implements plugin.OnStartTimeUpdated.
func (m *MetricsExtension) OnStartTimeUpdated(_ context.Context, _ string, _ time.Time) error {
	m.StartTimeUpdated.Inc()
	return nil
}

// OnUnlockPeriodUpdated implements plugin.OnUnlockPeriodUpdated.
func (m *MetricsExtension) OnUnlockPeriodUpdated(_ context.Context, _ time.Duration) error {
	m.UnlockPeriodUpdated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Beneficiary lifecycle hooks
// ──────────────────────────────────────────────────

// OnBeneficiaryAdded implements plugin.OnBeneficiaryAdded.
func (m *MetricsExtension) OnBeneficiaryAdded(_ context.Context, _ interface{}) error {
	m.BeneficiariesAdded.Inc()
	return nil
}

// OnBeneficiariesAdded implements plugin.OnBeneficiariesAdded.
func (m *MetricsExtension) OnBeneficiariesAdded(_ context.Context, _ string, recs []interface{}) error {
	count := float64(len(recs))
	m.BeneficiariesAdded.Add(count)
	m.BatchSize.Observe(count)
	return nil
}

// ──────────────────────────────────────────────────
// Claim lifecycle hooks
// ──────────────────────────────────────────────────

// OnClaimed implements plugin.OnClaimed.
func (m *MetricsExtension) OnClaimed(_ context.Context, receipt interface{}) error {
	m.ClaimsSettled.Inc()
	if r, ok := receipt.(*claim.Receipt); ok {
		f, _ := new(big.Float).SetInt(r.Amount.BigInt()).Float64()
		m.ClaimAmount.Observe(f)
	}
	return nil
}

// OnClaimFailed implements plugin.OnClaimFailed.
func (m *MetricsExtension) OnClaimFailed(_ context.Context, _, _ string, _ interface{}, _ error) error {
	m.ClaimsFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Watcher hooks
// ──────────────────────────────────────────────────

// OnUnlockBoundary implements plugin.OnUnlockBoundary.
func (m *MetricsExtension) OnUnlockBoundary(_ context.Context, _ string, _ uint64, _ time.Time) error {
	m.UnlockBoundaries.Inc()
	return nil
}
