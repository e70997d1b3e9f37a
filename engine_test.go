package vesting_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	vesting "github.com/xraph/vesting"
	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/program"
	"github.com/xraph/vesting/store/memory"
	"github.com/xraph/vesting/token"
	"github.com/xraph/vesting/types"
)

// fakeClock is a deterministic time source for engine tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// failingLedger rejects every transfer.
type failingLedger struct{}

func (failingLedger) Transfer(context.Context, string, types.Amount) error {
	return errors.New("rpc unavailable")
}

func (failingLedger) BalanceOf(context.Context, string) (types.Amount, error) {
	return types.ZeroAmount(), nil
}

// recorder captures plugin events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) Name() string { return "recorder" }

func (r *recorder) add(evt string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) OnProgramCreated(_ context.Context, _ interface{}) error {
	r.add("program_created")
	return nil
}

func (r *recorder) OnBeneficiaryAdded(_ context.Context, _ interface{}) error {
	r.add("beneficiary_added")
	return nil
}

func (r *recorder) OnBeneficiariesAdded(_ context.Context, _ string, _ []interface{}) error {
	r.add("beneficiaries_added")
	return nil
}

func (r *recorder) OnClaimed(_ context.Context, _ interface{}) error {
	r.add("claimed")
	return nil
}

func (r *recorder) OnClaimFailed(_ context.Context, _, _ string, _ interface{}, _ error) error {
	r.add("claim_failed")
	return nil
}

var t0 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

const (
	day    = 24 * time.Hour
	period = 30 * day
)

// newTestEngine builds an engine on the memory store with a fake clock at t0,
// a funded memory ledger, and "ops" as administrator.
func newTestEngine(t *testing.T, opts ...vesting.Option) (*vesting.Engine, *token.MemoryLedger, *fakeClock) {
	t.Helper()

	clock := newFakeClock(t0)
	ledger := token.NewMemoryLedger(types.NewAmount(1_000_000))

	base := []vesting.Option{
		vesting.WithAdministrator("ops"),
		vesting.WithLedger(ledger),
		vesting.WithClock(clock.Now),
		vesting.WithUnlockPeriod(period),
	}
	eng := vesting.New(memory.New(), append(base, opts...)...)
	return eng, ledger, clock
}

// seedProgram creates the worked-example program: 10% TGE, 30 day cliff,
// 300 day linear release, starting at t0.
func seedProgram(t *testing.T, eng *vesting.Engine, key string, pool uint64) {
	t.Helper()

	admin, err := eng.Admin("ops")
	if err != nil {
		t.Fatalf("Admin() error = %v", err)
	}
	err = admin.CreateProgram(context.Background(), &program.Program{
		Key:             key,
		PoolTotal:       types.NewAmount(pool),
		TGEPercent:      10,
		CliffDuration:   30 * day,
		VestingDuration: 300 * day,
		StartTime:       t0,
	})
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}
}

func TestAdminAuthorization(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	if _, err := eng.Admin("intruder"); !errors.Is(err, vesting.ErrUnauthorized) {
		t.Errorf("Admin(intruder) error = %v, want ErrUnauthorized", err)
	}
	if _, err := eng.Admin(""); !errors.Is(err, vesting.ErrUnauthorized) {
		t.Errorf("Admin(\"\") error = %v, want ErrUnauthorized", err)
	}
	if _, err := eng.Admin("ops"); err != nil {
		t.Errorf("Admin(ops) error = %v, want nil", err)
	}

	// No administrator configured: nobody is authorized.
	bare := vesting.New(memory.New())
	if _, err := bare.Admin("ops"); !errors.Is(err, vesting.ErrUnauthorized) {
		t.Errorf("Admin() without administrator error = %v, want ErrUnauthorized", err)
	}
}

func TestCreateProgramValidation(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	admin, _ := eng.Admin("ops")
	ctx := context.Background()

	tests := []struct {
		name string
		prog *program.Program
	}{
		{"empty key", &program.Program{Key: "", PoolTotal: types.NewAmount(100)}},
		{"tge over 100", &program.Program{Key: "p", PoolTotal: types.NewAmount(100), TGEPercent: 101}},
		{"negative cliff", &program.Program{Key: "p", PoolTotal: types.NewAmount(100), CliffDuration: -time.Hour}},
		{"negative vesting", &program.Program{Key: "p", PoolTotal: types.NewAmount(100), VestingDuration: -time.Hour}},
		{"past start", &program.Program{Key: "p", PoolTotal: types.NewAmount(100), StartTime: t0.Add(-time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := admin.CreateProgram(ctx, tt.prog)
			if !vesting.IsValidation(err) {
				t.Errorf("CreateProgram() error = %v, want validation error", err)
			}
		})
	}
}

func TestCreateProgramDuplicate(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	seedProgram(t, eng, "seed", 1000)

	admin, _ := eng.Admin("ops")
	err := admin.CreateProgram(context.Background(), &program.Program{
		Key:       "seed",
		PoolTotal: types.NewAmount(500),
	})
	if !errors.Is(err, vesting.ErrProgramExists) {
		t.Fatalf("CreateProgram(duplicate) error = %v, want ErrProgramExists", err)
	}
}

func TestAddBeneficiaryPoolAccounting(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	seedProgram(t, eng, "seed", 1000)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()

	if _, err := admin.AddBeneficiary(ctx, "seed", "alice", types.NewAmount(600)); err != nil {
		t.Fatalf("AddBeneficiary(alice) error = %v", err)
	}

	prog, err := eng.GetProgram(ctx, "seed")
	if err != nil {
		t.Fatalf("GetProgram() error = %v", err)
	}
	if got := prog.PoolRemaining.String(); got != "400" {
		t.Errorf("PoolRemaining = %s, want 400", got)
	}

	// Over-allocation is rejected and leaves the pool untouched.
	if _, err := admin.AddBeneficiary(ctx, "seed", "bob", types.NewAmount(500)); !errors.Is(err, vesting.ErrInsufficientPool) {
		t.Fatalf("AddBeneficiary(bob) error = %v, want ErrInsufficientPool", err)
	}
	prog, _ = eng.GetProgram(ctx, "seed")
	if got := prog.PoolRemaining.String(); got != "400" {
		t.Errorf("PoolRemaining after rejection = %s, want 400", got)
	}

	// Invalid inputs.
	if _, err := admin.AddBeneficiary(ctx, "seed", "", types.NewAmount(1)); !vesting.IsValidation(err) {
		t.Errorf("AddBeneficiary(empty address) error = %v, want validation error", err)
	}
	if _, err := admin.AddBeneficiary(ctx, "seed", "carol", types.ZeroAmount()); !vesting.IsValidation(err) {
		t.Errorf("AddBeneficiary(zero amount) error = %v, want validation error", err)
	}
	if _, err := admin.AddBeneficiary(ctx, "missing", "carol", types.NewAmount(1)); !errors.Is(err, vesting.ErrProgramNotFound) {
		t.Errorf("AddBeneficiary(unknown program) error = %v, want ErrProgramNotFound", err)
	}
}

func TestReRegistrationReplaces(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	seedProgram(t, eng, "seed", 1000)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()

	if _, err := admin.AddBeneficiary(ctx, "seed", "alice", types.NewAmount(600)); err != nil {
		t.Fatalf("AddBeneficiary() error = %v", err)
	}
	if _, err := admin.AddBeneficiary(ctx, "seed", "bob", types.NewAmount(100)); err != nil {
		t.Fatalf("AddBeneficiary() error = %v", err)
	}

	// Replacing alice credits her 600 back before debiting the new 800.
	if _, err := admin.AddBeneficiary(ctx, "seed", "alice", types.NewAmount(800)); err != nil {
		t.Fatalf("AddBeneficiary(replace) error = %v", err)
	}

	prog, _ := eng.GetProgram(ctx, "seed")
	if got := prog.PoolRemaining.String(); got != "100" {
		t.Errorf("PoolRemaining = %s, want 100", got)
	}

	rec, err := eng.GetBeneficiary(ctx, "seed", "alice")
	if err != nil {
		t.Fatalf("GetBeneficiary() error = %v", err)
	}
	if got := rec.TotalAmount.String(); got != "800" {
		t.Errorf("TotalAmount = %s, want 800", got)
	}
	if !rec.AmountReleased.IsZero() {
		t.Errorf("AmountReleased = %s, want 0", rec.AmountReleased)
	}

	// Alice keeps her original roster slot.
	roster, err := eng.Roster(ctx, "seed", beneficiary.ListOpts{})
	if err != nil {
		t.Fatalf("Roster() error = %v", err)
	}
	if len(roster) != 2 || roster[0].Address != "alice" || roster[1].Address != "bob" {
		addrs := make([]string, len(roster))
		for i, r := range roster {
			addrs[i] = r.Address
		}
		t.Errorf("roster order = %v, want [alice bob]", addrs)
	}
}

func TestBatchRegistrationAtomic(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	seedProgram(t, eng, "seed", 1000)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()

	if _, err := admin.AddBeneficiaries(ctx, "seed", []string{"a"}, nil); !errors.Is(err, vesting.ErrLengthMismatch) {
		t.Fatalf("AddBeneficiaries(mismatch) error = %v, want ErrLengthMismatch", err)
	}

	// Third entry is invalid; the whole batch must be rejected.
	_, err := admin.AddBeneficiaries(ctx, "seed",
		[]string{"alice", "bob", ""},
		[]types.Amount{types.NewAmount(100), types.NewAmount(200), types.NewAmount(300)},
	)
	if !vesting.IsValidation(err) {
		t.Fatalf("AddBeneficiaries(invalid entry) error = %v, want validation error", err)
	}

	roster, _ := eng.Roster(ctx, "seed", beneficiary.ListOpts{})
	if len(roster) != 0 {
		t.Fatalf("roster after failed batch = %d records, want 0", len(roster))
	}
	prog, _ := eng.GetProgram(ctx, "seed")
	if got := prog.PoolRemaining.String(); got != "1000" {
		t.Errorf("PoolRemaining after failed batch = %s, want 1000", got)
	}

	// Same batch with the defect fixed commits in order.
	recs, err := admin.AddBeneficiaries(ctx, "seed",
		[]string{"alice", "bob", "carol"},
		[]types.Amount{types.NewAmount(100), types.NewAmount(200), types.NewAmount(300)},
	)
	if err != nil {
		t.Fatalf("AddBeneficiaries() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("AddBeneficiaries() returned %d records, want 3", len(recs))
	}
	prog, _ = eng.GetProgram(ctx, "seed")
	if got := prog.PoolRemaining.String(); got != "400" {
		t.Errorf("PoolRemaining = %s, want 400", got)
	}
}

func TestClaimWorkedExample(t *testing.T) {
	eng, ledger, clock := newTestEngine(t)
	seedProgram(t, eng, "seed", 1000)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()

	if _, err := admin.AddBeneficiary(ctx, "seed", "alice", types.NewAmount(1000)); err != nil {
		t.Fatalf("AddBeneficiary() error = %v", err)
	}

	// At start only the 10% TGE slice is claimable.
	claimable, err := eng.Claimable(ctx, "seed", "alice")
	if err != nil {
		t.Fatalf("Claimable() error = %v", err)
	}
	if got := claimable.String(); got != "100" {
		t.Fatalf("Claimable at TGE = %s, want 100", got)
	}

	receipt, err := eng.Claim(ctx, "seed", "alice")
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if got := receipt.Amount.String(); got != "100" {
		t.Errorf("receipt amount = %s, want 100", got)
	}
	if receipt.PeriodIndex != 0 {
		t.Errorf("receipt period index = %d, want 0", receipt.PeriodIndex)
	}

	// Nothing more until the cliff passes.
	if _, err := eng.Claim(ctx, "seed", "alice"); !errors.Is(err, vesting.ErrNothingToClaim) {
		t.Fatalf("Claim() during cliff error = %v, want ErrNothingToClaim", err)
	}

	// One unlock period past the cliff releases (1000-100) * 30/300 = 90.
	clock.Advance(60 * day)
	receipt, err = eng.Claim(ctx, "seed", "alice")
	if err != nil {
		t.Fatalf("Claim() after first period error = %v", err)
	}
	if got := receipt.Amount.String(); got != "90" {
		t.Errorf("first linear claim = %s, want 90", got)
	}
	if receipt.PeriodIndex != 1 {
		t.Errorf("period index = %d, want 1", receipt.PeriodIndex)
	}

	// Past the schedule end the exact remainder settles.
	clock.Advance(400 * day)
	receipt, err = eng.Claim(ctx, "seed", "alice")
	if err != nil {
		t.Fatalf("Claim() at end error = %v", err)
	}
	if got := receipt.Amount.String(); got != "810" {
		t.Errorf("terminal claim = %s, want 810", got)
	}

	// Full settlement: released equals the allocation exactly.
	rec, _ := eng.GetBeneficiary(ctx, "seed", "alice")
	if !rec.Settled() {
		t.Errorf("record not settled, released = %s", rec.AmountReleased)
	}
	total, _ := eng.TotalReleased(ctx, "seed")
	if got := total.String(); got != "1000" {
		t.Errorf("TotalReleased = %s, want 1000", got)
	}
	balance, _ := ledger.BalanceOf(ctx, "alice")
	if got := balance.String(); got != "1000" {
		t.Errorf("ledger balance = %s, want 1000", got)
	}
	if got := ledger.Treasury().String(); got != "999000" {
		t.Errorf("treasury = %s, want 999000", got)
	}

	// Settled is absorbing.
	if _, err := eng.Claim(ctx, "seed", "alice"); !errors.Is(err, vesting.ErrNothingToClaim) {
		t.Errorf("Claim() after settlement error = %v, want ErrNothingToClaim", err)
	}

	state, _ := eng.State(ctx, "seed", "alice")
	if state != beneficiary.StateSettled {
		t.Errorf("State = %s, want settled", state)
	}

	receipts, err := eng.ListReceipts(ctx, "seed", claim.ListOpts{Address: "alice"})
	if err != nil {
		t.Fatalf("ListReceipts() error = %v", err)
	}
	if len(receipts) != 3 {
		t.Errorf("ListReceipts() returned %d receipts, want 3", len(receipts))
	}
}

func TestClaimBeforeStart(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()
	err := admin.CreateProgram(ctx, &program.Program{
		Key:             "future",
		PoolTotal:       types.NewAmount(1000),
		TGEPercent:      10,
		VestingDuration: 300 * day,
		StartTime:       t0.Add(90 * day),
	})
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}
	if _, err := admin.AddBeneficiary(ctx, "future", "alice", types.NewAmount(100)); err != nil {
		t.Fatalf("AddBeneficiary() error = %v", err)
	}

	if _, err := eng.Claim(ctx, "future", "alice"); !errors.Is(err, vesting.ErrNotStarted) {
		t.Errorf("Claim() before start error = %v, want ErrNotStarted", err)
	}

	next, ok, err := eng.NextUnlock(ctx, "future")
	if err != nil || !ok {
		t.Fatalf("NextUnlock() = %v, %v, %v", next, ok, err)
	}
	if !next.Equal(t0.Add(90 * day)) {
		t.Errorf("NextUnlock = %v, want start time", next)
	}
}

func TestClaimRollbackOnTransferFailure(t *testing.T) {
	rec := &recorder{}
	eng, _, _ := newTestEngine(t,
		vesting.WithLedger(failingLedger{}),
		vesting.WithPlugin(rec),
	)
	seedProgram(t, eng, "seed", 1000)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()
	if _, err := admin.AddBeneficiary(ctx, "seed", "alice", types.NewAmount(1000)); err != nil {
		t.Fatalf("AddBeneficiary() error = %v", err)
	}

	_, err := eng.Claim(ctx, "seed", "alice")
	if !errors.Is(err, vesting.ErrTransferFailed) {
		t.Fatalf("Claim() error = %v, want ErrTransferFailed", err)
	}

	// The settled state was rolled back.
	b, _ := eng.GetBeneficiary(ctx, "seed", "alice")
	if !b.AmountReleased.IsZero() {
		t.Errorf("AmountReleased after rollback = %s, want 0", b.AmountReleased)
	}
	total, _ := eng.TotalReleased(ctx, "seed")
	if !total.IsZero() {
		t.Errorf("TotalReleased after rollback = %s, want 0", total)
	}

	events := rec.Events()
	var failed bool
	for _, e := range events {
		if e == "claim_failed" {
			failed = true
		}
		if e == "claimed" {
			t.Errorf("claimed event emitted for failed claim")
		}
	}
	if !failed {
		t.Errorf("claim_failed event not emitted, events = %v", events)
	}

	// The full amount is claimable again once the ledger recovers.
	if err := admin.SetLedger(token.NewMemoryLedger(types.NewAmount(10_000))); err != nil {
		t.Fatalf("SetLedger() error = %v", err)
	}
	receipt, err := eng.Claim(ctx, "seed", "alice")
	if err != nil {
		t.Fatalf("Claim() after recovery error = %v", err)
	}
	if got := receipt.Amount.String(); got != "100" {
		t.Errorf("recovered claim = %s, want 100", got)
	}
}

func TestClaimWithoutLedger(t *testing.T) {
	clock := newFakeClock(t0)
	eng := vesting.New(memory.New(),
		vesting.WithAdministrator("ops"),
		vesting.WithClock(clock.Now),
	)
	seedProgram(t, eng, "seed", 1000)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()
	if _, err := admin.AddBeneficiary(ctx, "seed", "alice", types.NewAmount(100)); err != nil {
		t.Fatalf("AddBeneficiary() error = %v", err)
	}

	if _, err := eng.Claim(ctx, "seed", "alice"); !errors.Is(err, vesting.ErrNoLedger) {
		t.Errorf("Claim() without ledger error = %v, want ErrNoLedger", err)
	}
}

func TestSetStartTime(t *testing.T) {
	eng, _, clock := newTestEngine(t)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()
	err := admin.CreateProgram(ctx, &program.Program{
		Key:       "unarmed",
		PoolTotal: types.NewAmount(1000),
	})
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}

	if err := admin.SetStartTime(ctx, "unarmed", t0.Add(-time.Hour)); !errors.Is(err, vesting.ErrInvalidTime) {
		t.Errorf("SetStartTime(past) error = %v, want ErrInvalidTime", err)
	}
	if err := admin.SetStartTime(ctx, "unarmed", time.Time{}); !errors.Is(err, vesting.ErrInvalidTime) {
		t.Errorf("SetStartTime(zero) error = %v, want ErrInvalidTime", err)
	}
	if err := admin.SetStartTime(ctx, "missing", t0.Add(day)); !errors.Is(err, vesting.ErrProgramNotFound) {
		t.Errorf("SetStartTime(unknown) error = %v, want ErrProgramNotFound", err)
	}

	start := t0.Add(7 * day)
	if err := admin.SetStartTime(ctx, "unarmed", start); err != nil {
		t.Fatalf("SetStartTime() error = %v", err)
	}
	prog, _ := eng.GetProgram(ctx, "unarmed")
	if !prog.StartTime.Equal(start) {
		t.Errorf("StartTime = %v, want %v", prog.StartTime, start)
	}

	clock.Advance(10 * day)
	// Arming in the past is still rejected after time moves on.
	if err := admin.SetStartTime(ctx, "unarmed", t0.Add(5*day)); !errors.Is(err, vesting.ErrInvalidTime) {
		t.Errorf("SetStartTime(now past) error = %v, want ErrInvalidTime", err)
	}
}

func TestSetUnlockPeriod(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()

	if err := admin.SetUnlockPeriod(ctx, 0); !errors.Is(err, vesting.ErrInvalidTime) {
		t.Errorf("SetUnlockPeriod(0) error = %v, want ErrInvalidTime", err)
	}
	if err := admin.SetUnlockPeriod(ctx, 7*day); err != nil {
		t.Fatalf("SetUnlockPeriod() error = %v", err)
	}
	if got := eng.UnlockPeriod(); got != 7*day {
		t.Errorf("UnlockPeriod = %v, want %v", got, 7*day)
	}
}

func TestStateTransitions(t *testing.T) {
	eng, _, clock := newTestEngine(t)
	seedProgram(t, eng, "seed", 1000)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()
	if _, err := admin.AddBeneficiary(ctx, "seed", "alice", types.NewAmount(1000)); err != nil {
		t.Fatalf("AddBeneficiary() error = %v", err)
	}

	check := func(want beneficiary.State) {
		t.Helper()
		got, err := eng.State(ctx, "seed", "alice")
		if err != nil {
			t.Fatalf("State() error = %v", err)
		}
		if got != want {
			t.Errorf("State = %s, want %s", got, want)
		}
	}

	check(beneficiary.StateTgeWindow)

	clock.Advance(45 * day) // past the 30 day cliff
	check(beneficiary.StateVesting)

	clock.Advance(300 * day) // past the schedule end
	check(beneficiary.StateFullyVested)

	if _, err := eng.Claim(ctx, "seed", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	check(beneficiary.StateSettled)

	// Unknown addresses are unregistered, not an error.
	got, err := eng.State(ctx, "seed", "stranger")
	if err != nil {
		t.Fatalf("State(stranger) error = %v", err)
	}
	if got != beneficiary.StateUnregistered {
		t.Errorf("State(stranger) = %s, want unregistered", got)
	}
}

func TestPluginEvents(t *testing.T) {
	rec := &recorder{}
	eng, _, _ := newTestEngine(t, vesting.WithPlugin(rec))
	seedProgram(t, eng, "seed", 1000)

	admin, _ := eng.Admin("ops")
	ctx := context.Background()
	if _, err := admin.AddBeneficiary(ctx, "seed", "alice", types.NewAmount(500)); err != nil {
		t.Fatalf("AddBeneficiary() error = %v", err)
	}
	if _, err := admin.AddBeneficiaries(ctx, "seed",
		[]string{"bob"}, []types.Amount{types.NewAmount(100)}); err != nil {
		t.Fatalf("AddBeneficiaries() error = %v", err)
	}
	if _, err := eng.Claim(ctx, "seed", "alice"); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	want := []string{"program_created", "beneficiary_added", "beneficiaries_added", "claimed"}
	got := rec.Events()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLifecycle(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	seedProgram(t, eng, "seed", 1000)
	if err := eng.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
