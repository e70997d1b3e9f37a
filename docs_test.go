package vesting_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	vesting "github.com/xraph/vesting"
	"github.com/xraph/vesting/program"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/token"
)

// TestDocumentationExamples verifies that the examples in the documentation
// compile and run against the memory store.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Fund a token ledger the engine pays claims through
		ledger := token.NewMemoryLedger(vesting.NewAmount(10_000_000))

		launch := time.Now().UTC().Add(time.Hour)

		eng := vesting.New(store,
			vesting.WithLogger(slog.Default()),
			vesting.WithAdministrator("ops"),
			vesting.WithLedger(ledger),
		)

		// Start the engine
		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop()

		// Privileged operations go through the Admin capability
		admin, err := eng.Admin("ops")
		if err != nil {
			t.Fatal(err)
		}

		// Create a program
		err = admin.CreateProgram(ctx, &program.Program{
			Key:             "seed-round",
			PoolTotal:       vesting.NewAmount(1_000_000),
			TGEPercent:      10,
			CliffDuration:   30 * 24 * time.Hour,
			VestingDuration: 300 * 24 * time.Hour,
			StartTime:       launch,
		})
		if err != nil {
			t.Fatal(err)
		}

		// Register a beneficiary
		if _, err := admin.AddBeneficiary(ctx, "seed-round", "alice", vesting.NewAmount(1000)); err != nil {
			t.Fatal(err)
		}

		// Preview what is claimable; before launch the schedule is inert
		if _, err := eng.Claimable(ctx, "seed-round", "alice"); err == nil {
			t.Fatal("expected not-started error before launch")
		}

		// Inspect the program
		prog, err := eng.GetProgram(ctx, "seed-round")
		if err != nil {
			t.Fatal(err)
		}
		if prog.PoolRemaining.String() != "999000" {
			t.Fatalf("pool remaining = %s", prog.PoolRemaining)
		}
	})

	// Amount arithmetic examples
	t.Run("AmountExamples", func(t *testing.T) {
		// Constructors
		_ = vesting.NewAmount(1000)
		_ = vesting.ZeroAmount()
		_ = vesting.MustAmount("340282366920938463463374607431768211456")

		// Arithmetic truncates toward zero and never goes negative
		a := vesting.NewAmount(100)
		b := vesting.NewAmount(30)
		_ = a.Add(b)          // 130
		_ = a.SubFloor(b)     // 70
		_ = a.MulDiv(10, 100) // 10

		// Comparison
		if b.LessThan(a) {
			// b is less than a
		}

		// Formatting
		_ = a.String() // "100"
	})
}
