package store

import (
	"context"

	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/program"
	"github.com/xraph/vesting/types"
)

// Store is the unified storage interface for all Vesting entities: the
// program registry, per-program beneficiary rosters, and the claim history.
//
// Roster ordering is part of the contract: ListBeneficiaries returns records
// in registration order, and a record replaced by re-registration keeps its
// original roster position. Backends keep the ordered view and the keyed
// view consistent inside a single abstraction.
type Store interface {
	// Program methods
	CreateProgram(ctx context.Context, p *program.Program) error
	GetProgram(ctx context.Context, key string) (*program.Program, error)
	GetProgramByID(ctx context.Context, programID id.ProgramID) (*program.Program, error)
	ListPrograms(ctx context.Context, opts program.ListOpts) ([]*program.Program, error)
	UpdateProgram(ctx context.Context, p *program.Program) error

	// Beneficiary methods. Both put variants persist the record(s) and the
	// program's updated pool balance in one atomic write; PutBeneficiaries
	// commits all records or none.
	PutBeneficiary(ctx context.Context, programKey string, rec *beneficiary.Record, poolRemaining types.Amount) error
	PutBeneficiaries(ctx context.Context, programKey string, recs []*beneficiary.Record, poolRemaining types.Amount) error
	GetBeneficiary(ctx context.Context, programKey, address string) (*beneficiary.Record, error)
	ListBeneficiaries(ctx context.Context, programKey string, opts beneficiary.ListOpts) ([]*beneficiary.Record, error)

	// Claim methods. SettleClaim persists the mutated record, appends the
	// receipt, and advances the program's released total atomically.
	// RevertClaim compensates a settled claim whose transfer failed:
	// restores the prior record, removes the receipt, rolls the total back.
	SettleClaim(ctx context.Context, rec *beneficiary.Record, receipt *claim.Receipt) error
	RevertClaim(ctx context.Context, prev *beneficiary.Record, receiptID id.ClaimID) error
	ListReceipts(ctx context.Context, programKey string, opts claim.ListOpts) ([]*claim.Receipt, error)
	TotalReleased(ctx context.Context, programKey string) (types.Amount, error)
	TotalReleasedAll(ctx context.Context) (types.Amount, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
