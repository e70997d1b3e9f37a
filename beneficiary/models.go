package beneficiary

import (
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Record is a beneficiary's ledger entry under one program. There is at
// most one record per (program, address) pair; re-registration replaces
// the record while keeping its roster position.
type Record struct {
	types.Entity
	ID         id.BeneficiaryID `json:"id"`
	ProgramKey string           `json:"program_key"`
	Address    string           `json:"address"`

	// TotalAmount is the full allocation. Immutable after registration.
	TotalAmount types.Amount `json:"total_amount"`

	// AmountReleased is the cumulative amount paid out. Monotonically
	// non-decreasing, never exceeds TotalAmount.
	AmountReleased types.Amount `json:"amount_released"`

	// ClaimedPeriodIndex is the highest linear period index already
	// reflected in AmountReleased. Overwritten, not incremented, on claim.
	ClaimedPeriodIndex uint64 `json:"claimed_period_index"`
}

// Remaining returns the unreleased part of the allocation.
func (r *Record) Remaining() types.Amount {
	return r.TotalAmount.SubFloor(r.AmountReleased)
}

// Settled reports whether the full allocation has been paid out.
func (r *Record) Settled() bool {
	return r.AmountReleased.Cmp(r.TotalAmount) >= 0
}

// Position returns the record's release state as calculator input.
func (r *Record) Position() schedule.Position {
	return schedule.Position{
		Total:              r.TotalAmount,
		Released:           r.AmountReleased,
		ClaimedPeriodIndex: r.ClaimedPeriodIndex,
	}
}

// State is a record's place in the vesting lifecycle. All transitions
// except Settled are driven purely by elapsed time; Settled is driven by
// claim execution and is absorbing.
type State string

const (
	StateUnregistered State = "unregistered"
	StatePending      State = "pending"
	StateTgeWindow    State = "tge_window"
	StateVesting      State = "vesting"
	StateFullyVested  State = "fully_vested"
	StateSettled      State = "settled"
)

// StateAt derives the record's lifecycle state at the given instant.
// A nil record is Unregistered.
func StateAt(r *Record, t schedule.Terms, now time.Time) State {
	if r == nil {
		return StateUnregistered
	}
	if r.Settled() {
		return StateSettled
	}
	if t.Start.IsZero() || now.Before(t.Start) {
		return StatePending
	}
	if now.Before(t.CliffEnd()) {
		return StateTgeWindow
	}
	if now.Before(t.End()) {
		return StateVesting
	}
	return StateFullyVested
}

type ListOpts struct {
	Limit  int
	Offset int
}
