package program

import (
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/types"
)

// Program is a vesting program: a pool of tokens released to registered
// beneficiaries on a shared TGE/cliff/linear schedule. The unlock period
// granularity is engine-level configuration, not part of the program.
type Program struct {
	types.Entity
	ID id.ProgramID `json:"id"`

	// Key is the caller-chosen program identifier, unique across the
	// registry. Programs are addressed by key, never deleted.
	Key string `json:"key"`

	// PoolTotal is the accounting capacity reserved at creation.
	// Immutable. Funding the token ledger is the caller's concern.
	PoolTotal types.Amount `json:"pool_total"`

	// PoolRemaining is the capacity not yet allocated to beneficiaries.
	PoolRemaining types.Amount `json:"pool_remaining"`

	// ReleasedTotal is the cumulative amount settled through claims
	// across all beneficiaries of this program. Never exceeds PoolTotal.
	ReleasedTotal types.Amount `json:"released_total"`

	CliffDuration   time.Duration `json:"cliff_duration"`
	VestingDuration time.Duration `json:"vesting_duration"`
	TGEPercent      int           `json:"tge_percent"`

	// StartTime zero means the schedule has not been armed yet.
	StartTime time.Time `json:"start_time"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// Terms binds the program configuration to the engine's unlock period,
// producing the input for the schedule calculator.
func (p *Program) Terms(unlockPeriod time.Duration) schedule.Terms {
	return schedule.Terms{
		Start:           p.StartTime,
		CliffDuration:   p.CliffDuration,
		VestingDuration: p.VestingDuration,
		UnlockPeriod:    unlockPeriod,
		TGEPercent:      p.TGEPercent,
	}
}

type ListOpts struct {
	Limit  int
	Offset int
}
