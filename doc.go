// Package vesting provides a composable token-vesting accounting engine for Go applications.
//
// Vesting is designed as a library, not a service. Import it directly into
// your Go application and wire it to a store backend and a token ledger.
// It provides:
//
//   - Program registry with pooled allocation budgets
//   - TGE / cliff / linear unlock schedules with integer-exact arithmetic
//   - Per-beneficiary release ledgers with replace-on-reregistration
//   - Atomic batch registration (all-or-nothing)
//   - Claim settlement with compensating rollback on transfer failure
//   - Pluggable event hooks (audit trail, metrics, AMQP event stream)
//
// # Quick Start
//
// Create an engine instance with your preferred store:
//
//	import (
//	    "github.com/xraph/vesting"
//	    "github.com/xraph/vesting/store/postgres"
//	    "github.com/xraph/vesting/token"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	eng := vesting.New(store,
//	    vesting.WithAdministrator("ops"),
//	    vesting.WithLedger(tokenLedger),
//	)
//
//	// Start the engine (migrates the store, begins background workers)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// Programs reserve a pool of accounting capacity and carry the schedule
// shape; administrative operations go through the Admin capability:
//
//	admin, err := eng.Admin("ops")
//	if err != nil {
//	    // not the configured administrator
//	}
//
//	err = admin.CreateProgram(ctx, &program.Program{
//	    Key:             "seed-round",
//	    PoolTotal:       vesting.NewAmount(1_000_000),
//	    TGEPercent:      10,
//	    CliffDuration:   30 * 24 * time.Hour,
//	    VestingDuration: 300 * 24 * time.Hour,
//	    StartTime:       launch,
//	})
//
// Beneficiaries hold per-program allocations released over the schedule:
//
//	_, err = admin.AddBeneficiary(ctx, "seed-round", "alice", vesting.NewAmount(1000))
//
// Claims settle everything currently unlocked and pay it through the
// token ledger:
//
//	receipt, err := eng.Claim(ctx, "seed-round", "alice")
//
// # Arithmetic
//
// All amounts are arbitrary-precision unsigned integers in the smallest
// token unit; every division truncates toward zero. The terminal branch of
// the schedule pays the exact outstanding remainder, so each allocation
// settles at precisely 100% by the end of its schedule.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	prog_01h2xcejqtf2nbrexx3vqjhp41  // Program ID
//	bnf_01h2xcejqtf2nbrexx3vqjhp41   // Beneficiary ID
//	clm_01h455vb4pex5vsknk084sn02q   // Claim receipt ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package vesting
