package vesting

import (
	"context"
	"time"

	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/program"
	"github.com/xraph/vesting/token"
	"github.com/xraph/vesting/types"
)

// Admin is the capability object for privileged operations. It is obtained
// through Engine.Admin, which performs the single authorization check;
// the methods themselves never re-consult ambient state.
type Admin struct {
	e *Engine
}

// Admin authorizes a principal for privileged operations. Returns
// ErrUnauthorized, before any state is read, when the principal does not
// match the configured administrator or no administrator is configured.
func (e *Engine) Admin(principal string) (*Admin, error) {
	if e.administrator == "" || principal != e.administrator {
		return nil, ErrUnauthorized
	}
	return &Admin{e: e}, nil
}

// CreateProgram registers a new vesting program. The pool is an accounting
// budget: creating a program reserves capacity but moves no value; funding
// the token ledger is the caller's precondition. A program whose key is
// already taken by a funded program fails with ErrProgramExists.
func (a *Admin) CreateProgram(ctx context.Context, p *program.Program) error {
	e := a.e

	if p.Key == "" {
		return ValidationError{Field: "key", Message: "must not be empty"}
	}
	if p.TGEPercent < 0 || p.TGEPercent > 100 {
		return ValidationError{Field: "tge_percent", Message: "must be in [0, 100]"}
	}
	if p.CliffDuration < 0 {
		return ValidationError{Field: "cliff_duration", Message: "must not be negative"}
	}
	if p.VestingDuration < 0 {
		return ValidationError{Field: "vesting_duration", Message: "must not be negative"}
	}
	if !p.StartTime.IsZero() && p.StartTime.Before(e.clock()) {
		return ValidationError{Field: "start_time", Message: "must not be in the past", Err: ErrInvalidTime}
	}

	unlock := e.locks.lock("prog:" + p.Key)
	defer unlock()

	if existing, err := e.store.GetProgram(ctx, p.Key); err == nil {
		if existing.PoolTotal.IsPositive() {
			return ErrProgramExists
		}
		// An unfunded placeholder may be reconfigured in place.
		p.ID = existing.ID
		p.Entity = existing.Entity
		p.PoolRemaining = p.PoolTotal
		p.ReleasedTotal = types.ZeroAmount()
		p.Touch()
		if err := e.store.UpdateProgram(ctx, p); err != nil {
			return err
		}
		e.plugins.EmitProgramCreated(ctx, p)
		return nil
	} else if !IsNotFound(err) {
		return err
	}

	if p.ID.IsNil() {
		p.ID = id.NewProgramID()
	}
	p.Entity = types.NewEntity()
	p.PoolRemaining = p.PoolTotal
	p.ReleasedTotal = types.ZeroAmount()

	if err := e.store.CreateProgram(ctx, p); err != nil {
		return err
	}

	e.plugins.EmitProgramCreated(ctx, p)

	e.logger.Info("program created",
		"program", p.Key,
		"pool", p.PoolTotal.String(),
		"tge_percent", p.TGEPercent,
	)

	return nil
}

// AddBeneficiary registers a single beneficiary. Re-registering an address
// REPLACES its record: release state resets to zero, the old allocation is
// credited back to the pool before the new one is debited, and the roster
// position is kept.
func (a *Admin) AddBeneficiary(ctx context.Context, programKey, address string, total types.Amount) (*beneficiary.Record, error) {
	e := a.e

	unlock := e.locks.lock("prog:" + programKey)
	defer unlock()

	prog, err := e.store.GetProgram(ctx, programKey)
	if err != nil {
		return nil, err
	}

	rec, pool, err := stageBeneficiary(ctx, e, prog, prog.PoolRemaining, address, total, nil)
	if err != nil {
		return nil, err
	}

	if err := e.store.PutBeneficiary(ctx, programKey, rec, pool); err != nil {
		return nil, err
	}

	e.plugins.EmitBeneficiaryAdded(ctx, rec)

	e.logger.Info("beneficiary added",
		"program", programKey,
		"address", address,
		"total", total.String(),
	)

	return rec, nil
}

// AddBeneficiaries registers a batch of beneficiaries all-or-nothing:
// every pair is validated and the pool arithmetic staged in memory first,
// and a single atomic store write commits the whole batch. Any failure
// leaves the store untouched.
func (a *Admin) AddBeneficiaries(ctx context.Context, programKey string, addresses []string, totals []types.Amount) ([]*beneficiary.Record, error) {
	e := a.e

	if len(addresses) != len(totals) {
		return nil, ErrLengthMismatch
	}

	unlock := e.locks.lock("prog:" + programKey)
	defer unlock()

	prog, err := e.store.GetProgram(ctx, programKey)
	if err != nil {
		return nil, err
	}

	pool := prog.PoolRemaining
	staged := make(map[string]*beneficiary.Record, len(addresses))
	order := make([]string, 0, len(addresses))

	for i, address := range addresses {
		rec, next, stageErr := stageBeneficiary(ctx, e, prog, pool, address, totals[i], staged)
		if stageErr != nil {
			return nil, stageErr
		}
		if _, dup := staged[address]; !dup {
			order = append(order, address)
		}
		staged[address] = rec
		pool = next
	}

	recs := make([]*beneficiary.Record, 0, len(order))
	for _, address := range order {
		recs = append(recs, staged[address])
	}

	if err := e.store.PutBeneficiaries(ctx, programKey, recs, pool); err != nil {
		return nil, err
	}

	payload := make([]interface{}, len(recs))
	for i, rec := range recs {
		payload[i] = rec
	}
	e.plugins.EmitBeneficiariesAdded(ctx, programKey, payload)

	e.logger.Info("beneficiary batch added",
		"program", programKey,
		"count", len(recs),
	)

	return recs, nil
}

// stageBeneficiary validates one registration and computes the pool balance
// after it, without writing anything. A replaced allocation, whether already
// persisted or staged earlier in the same batch, is credited back before the
// new one is debited.
func stageBeneficiary(ctx context.Context, e *Engine, prog *program.Program, pool types.Amount, address string, total types.Amount, staged map[string]*beneficiary.Record) (*beneficiary.Record, types.Amount, error) {
	if address == "" {
		return nil, pool, ValidationError{Field: "address", Message: "must not be empty", Err: ErrInvalidAddress}
	}
	if total.IsZero() {
		return nil, pool, ValidationError{Field: "total", Message: "must be positive", Err: ErrInvalidAmount}
	}

	if prev, ok := staged[address]; ok {
		pool = pool.Add(prev.TotalAmount)
	} else if existing, err := e.store.GetBeneficiary(ctx, prog.Key, address); err == nil {
		pool = pool.Add(existing.TotalAmount)
	} else if !IsNotFound(err) {
		return nil, pool, err
	}

	if total.GreaterThan(pool) {
		return nil, pool, ErrInsufficientPool
	}

	rec := &beneficiary.Record{
		Entity:         types.NewEntity(),
		ID:             id.NewBeneficiaryID(),
		ProgramKey:     prog.Key,
		Address:        address,
		TotalAmount:    total,
		AmountReleased: types.ZeroAmount(),
	}

	return rec, pool.Sub(total), nil
}

// SetStartTime overwrites a program's start time. The new time must not be
// in the past. The overwrite applies even to in-flight programs; shifted
// cliff and period boundaries are handled by the calculator's clamping.
func (a *Admin) SetStartTime(ctx context.Context, programKey string, start time.Time) error {
	e := a.e

	if start.IsZero() || start.Before(e.clock()) {
		return ErrInvalidTime
	}

	unlock := e.locks.lock("prog:" + programKey)
	defer unlock()

	prog, err := e.store.GetProgram(ctx, programKey)
	if err != nil {
		return err
	}

	prog.StartTime = start
	prog.Touch()

	if err := e.store.UpdateProgram(ctx, prog); err != nil {
		return err
	}

	e.plugins.EmitStartTimeUpdated(ctx, programKey, start)

	e.logger.Info("start time updated",
		"program", programKey,
		"start_time", start,
	)

	return nil
}

// SetUnlockPeriod overwrites the engine-wide unlock period. Boundary
// watcher progress resets because period indexes are relative to the
// granularity.
func (a *Admin) SetUnlockPeriod(ctx context.Context, d time.Duration) error {
	e := a.e

	if d <= 0 {
		return ErrInvalidTime
	}

	e.mu.Lock()
	e.unlockPeriod = d
	e.lastPeriod = make(map[string]uint64)
	e.mu.Unlock()

	e.plugins.EmitUnlockPeriodUpdated(ctx, d)

	e.logger.Info("unlock period updated", "unlock_period", d)

	return nil
}

// SetLedger overwrites the token ledger claims are paid through.
func (a *Admin) SetLedger(l token.Ledger) error {
	e := a.e

	if l == nil {
		return ErrNoLedger
	}

	e.mu.Lock()
	e.ledger = l
	e.mu.Unlock()

	return nil
}
