package claim

import (
	"time"

	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/types"
)

// Receipt records one settled claim. Receipts are append-only; the claim
// history of a program is the audit trail for its released totals.
type Receipt struct {
	types.Entity
	ID         id.ClaimID   `json:"id"`
	ProgramKey string       `json:"program_key"`
	Address    string       `json:"address"`
	Amount     types.Amount `json:"amount"`

	// PeriodIndex is the linear period index the claim advanced the
	// record to. Zero for pure TGE claims.
	PeriodIndex uint64 `json:"period_index"`

	ClaimedAt time.Time `json:"claimed_at"`
}

type ListOpts struct {
	Address string
	Limit   int
	Offset  int
}
