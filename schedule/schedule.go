// Package schedule implements the pure vesting-unlock calculator.
//
// A schedule releases a beneficiary's allocation in three phases: an
// immediate TGE (token generation event) slice, a cliff during which nothing
// further unlocks, and a linear release over discrete unlock periods. All
// arithmetic is integer-only with truncation toward zero; the terminal
// branch pays the exact remainder so every allocation settles at 100%.
//
// The package has no I/O and no clock of its own. Callers pass the current
// time explicitly, which keeps every function deterministic and testable.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/xraph/vesting/types"
)

// ErrNotStarted is returned when the schedule has no start time yet or the
// supplied instant is before it.
var ErrNotStarted = errors.New("vesting: schedule not started")

// Terms describes the unlock shape of a vesting program.
type Terms struct {
	// Start is the schedule origin. A zero Start makes the schedule inert.
	Start time.Time

	// CliffDuration is how long after Start the linear release begins.
	// The TGE slice is claimable immediately at Start regardless of cliff.
	CliffDuration time.Duration

	// VestingDuration is the length of the linear release, measured from
	// the end of the cliff.
	VestingDuration time.Duration

	// UnlockPeriod is the granularity of the linear release. Claimable
	// amounts grow in steps of one period, not continuously.
	UnlockPeriod time.Duration

	// TGEPercent is the share of the total allocation unlocked at Start,
	// in whole percent [0, 100].
	TGEPercent int
}

// Position is a beneficiary's release state against a schedule.
type Position struct {
	// Total is the full allocation. Immutable for the life of the record.
	Total types.Amount

	// Released is the cumulative amount already paid out.
	Released types.Amount

	// ClaimedPeriodIndex is the highest linear period index already
	// reflected in Released.
	ClaimedPeriodIndex uint64
}

// Validate checks that the terms are internally consistent.
func (t Terms) Validate() error {
	if t.TGEPercent < 0 || t.TGEPercent > 100 {
		return fmt.Errorf("schedule: tge percent %d out of range [0, 100]", t.TGEPercent)
	}
	if t.CliffDuration < 0 {
		return fmt.Errorf("schedule: negative cliff duration %s", t.CliffDuration)
	}
	if t.VestingDuration < 0 {
		return fmt.Errorf("schedule: negative vesting duration %s", t.VestingDuration)
	}
	if t.UnlockPeriod <= 0 {
		return fmt.Errorf("schedule: unlock period %s must be positive", t.UnlockPeriod)
	}
	return nil
}

// CliffEnd returns the instant the linear release begins.
func (t Terms) CliffEnd() time.Time {
	return t.Start.Add(t.CliffDuration)
}

// End returns the instant the allocation is fully vested.
func (t Terms) End() time.Time {
	return t.Start.Add(t.CliffDuration + t.VestingDuration)
}

// TotalPeriods returns the number of whole unlock periods in the linear
// release. Returns 0 when the unlock period is not positive.
func (t Terms) TotalPeriods() uint64 {
	if t.UnlockPeriod <= 0 {
		return 0
	}
	return uint64(t.VestingDuration / t.UnlockPeriod)
}

// TGEAmount returns the slice of total unlocked at Start, truncated
// toward zero.
func (t Terms) TGEAmount(total types.Amount) types.Amount {
	return total.MulDiv(uint64(t.TGEPercent), 100)
}

// Available computes the amount claimable at now and the linear period index
// the claim would advance the position to.
//
// The returned index is meaningful only when the claim settles: callers
// record it as the new ClaimedPeriodIndex. The index never moves backwards;
// if a retroactive reschedule leaves now behind the recorded index, the
// claimable span clamps to zero and the recorded index is returned unchanged.
//
// A TGE slice left unclaimed through the cliff stays claimable during the
// linear window on top of the per-period span. Per-period divisions truncate
// toward zero; the terminal branch pays the exact outstanding remainder,
// which guarantees full settlement at the schedule end.
func Available(t Terms, p Position, now time.Time) (types.Amount, uint64, error) {
	if err := t.Validate(); err != nil {
		return types.ZeroAmount(), 0, err
	}
	if t.Start.IsZero() || now.Before(t.Start) {
		return types.ZeroAmount(), 0, ErrNotStarted
	}

	// Fully settled positions stay settled no matter how the terms move.
	if p.Released.Cmp(p.Total) >= 0 {
		return types.ZeroAmount(), p.ClaimedPeriodIndex, nil
	}

	tge := t.TGEAmount(p.Total)
	cliffEnd := t.CliffEnd()
	end := t.End()

	// Before the cliff ends only the TGE slice is claimable.
	if now.Before(cliffEnd) {
		return tge.SubFloor(p.Released), 0, nil
	}

	// At or past the end the exact remainder settles, reconciling any
	// truncation accumulated by the per-period divisions.
	if !now.Before(end) {
		return p.Total.Sub(p.Released), t.TotalPeriods(), nil
	}

	// Any TGE slice not yet paid out remains claimable alongside the
	// linear release.
	unclaimedTGE := tge.SubFloor(p.Released)

	elapsed := uint64(now.Sub(cliffEnd) / t.UnlockPeriod)
	if elapsed <= p.ClaimedPeriodIndex {
		return unclaimedTGE, p.ClaimedPeriodIndex, nil
	}

	span := time.Duration(elapsed-p.ClaimedPeriodIndex) * t.UnlockPeriod
	remaining := p.Total.Sub(tge)
	claimable := unclaimedTGE.Add(remaining.MulDiv(uint64(span), uint64(t.VestingDuration)))

	return claimable, elapsed, nil
}

// NextUnlock returns the next instant at which the claimable amount grows,
// and false once the schedule is fully unlocked (or has no start time).
func NextUnlock(t Terms, now time.Time) (time.Time, bool) {
	if t.Start.IsZero() || t.UnlockPeriod <= 0 {
		return time.Time{}, false
	}
	if now.Before(t.Start) {
		return t.Start, true
	}

	end := t.End()
	if !now.Before(end) {
		return time.Time{}, false
	}

	cliffEnd := t.CliffEnd()
	var next time.Time
	if now.Before(cliffEnd) {
		next = cliffEnd.Add(t.UnlockPeriod)
	} else {
		elapsed := now.Sub(cliffEnd) / t.UnlockPeriod
		next = cliffEnd.Add((elapsed + 1) * t.UnlockPeriod)
	}

	if next.After(end) {
		next = end
	}
	return next, true
}
