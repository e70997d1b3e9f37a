// Package audithook bridges Vesting lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/program"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnProgramCreated      = (*Extension)(nil)
	_ plugin.OnStartTimeUpdated    = (*Extension)(nil)
	_ plugin.OnUnlockPeriodUpdated = (*Extension)(nil)
	_ plugin.OnBeneficiaryAdded    = (*Extension)(nil)
	_ plugin.OnBeneficiariesAdded  = (*Extension)(nil)
	_ plugin.OnClaimed             = (*Extension)(nil)
	_ plugin.OnClaimFailed         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly; callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Vesting lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Program lifecycle hooks
// ──────────────────────────────────────────────────

// OnProgramCreated implements plugin.OnProgramCreated.
func (e *Extension) OnProgramCreated(ctx context.Context, prog interface{}) error {
	var resourceID string
	kvPairs := []any{"event", "program_created"}
	if p, ok := prog.(*program.Program); ok {
		resourceID = p.Key
		kvPairs = append(kvPairs,
			"program", p.Key,
			"pool_total", p.PoolTotal.String(),
			"tge_percent", p.TGEPercent,
		)
	}
	return e.record(ctx, ActionProgramCreated, SeverityInfo, OutcomeSuccess,
		ResourceProgram, resourceID, CategoryVesting, nil, kvPairs...)
}

// OnStartTimeUpdated implements plugin.OnStartTimeUpdated.
func (e *Extension) OnStartTimeUpdated(ctx context.Context, programKey string, newStart time.Time) error {
	return e.record(ctx, ActionStartTimeUpdated, SeverityWarning, OutcomeSuccess,
		ResourceProgram, programKey, CategoryAdmin, nil,
		"program", programKey,
		"start_time", newStart,
	)
}

// OnUnlockPeriodUpdated implements plugin.OnUnlockPeriodUpdated.
func (e *Extension) OnUnlockPeriodUpdated(ctx context.Context, newPeriod time.Duration) error {
	return e.record(ctx, ActionUnlockPeriodUpdated, SeverityWarning, OutcomeSuccess,
		ResourceProgram, "", CategoryAdmin, nil,
		"unlock_period", newPeriod.String(),
	)
}

// ──────────────────────────────────────────────────
// Beneficiary lifecycle hooks
// ──────────────────────────────────────────────────

// OnBeneficiaryAdded implements plugin.OnBeneficiaryAdded.
func (e *Extension) OnBeneficiaryAdded(ctx context.Context, rec interface{}) error {
	var resourceID string
	kvPairs := []any{"event", "beneficiary_added"}
	if r, ok := rec.(*beneficiary.Record); ok {
		resourceID = r.Address
		kvPairs = append(kvPairs,
			"program", r.ProgramKey,
			"address", r.Address,
			"total", r.TotalAmount.String(),
		)
	}
	return e.record(ctx, ActionBeneficiaryAdded, SeverityInfo, OutcomeSuccess,
		ResourceBeneficiary, resourceID, CategoryVesting, nil, kvPairs...)
}

// OnBeneficiariesAdded implements plugin.OnBeneficiariesAdded.
func (e *Extension) OnBeneficiariesAdded(ctx context.Context, programKey string, recs []interface{}) error {
	return e.record(ctx, ActionBeneficiariesAdded, SeverityInfo, OutcomeSuccess,
		ResourceBeneficiary, programKey, CategoryVesting, nil,
		"program", programKey,
		"count", len(recs),
	)
}

// ──────────────────────────────────────────────────
// Claim lifecycle hooks
// ──────────────────────────────────────────────────

// OnClaimed implements plugin.OnClaimed.
func (e *Extension) OnClaimed(ctx context.Context, receipt interface{}) error {
	var resourceID string
	kvPairs := []any{"event", "claim_settled"}
	if r, ok := receipt.(*claim.Receipt); ok {
		resourceID = r.ID.String()
		kvPairs = append(kvPairs,
			"program", r.ProgramKey,
			"address", r.Address,
			"amount", r.Amount.String(),
			"period_index", r.PeriodIndex,
		)
	}
	return e.record(ctx, ActionClaimSettled, SeverityInfo, OutcomeSuccess,
		ResourceClaim, resourceID, CategoryClaim, nil, kvPairs...)
}

// OnClaimFailed implements plugin.OnClaimFailed.
func (e *Extension) OnClaimFailed(ctx context.Context, programKey, address string, amount interface{}, err error) error {
	return e.record(ctx, ActionClaimFailed, SeverityCritical, OutcomeFailure,
		ResourceClaim, address, CategoryClaim, err,
		"program", programKey,
		"address", address,
		"amount", fmt.Sprintf("%v", amount),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
