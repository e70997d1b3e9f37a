package vesting

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/plugin"
	"github.com/xraph/vesting/program"
	"github.com/xraph/vesting/schedule"
	"github.com/xraph/vesting/store"
	"github.com/xraph/vesting/token"
	"github.com/xraph/vesting/types"
)

// DefaultUnlockPeriod is the linear-release granularity used when no
// WithUnlockPeriod option is given. It applies engine-wide, across all
// programs.
const DefaultUnlockPeriod = 30 * 24 * time.Hour

// Engine is the main vesting engine.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time

	// Administrator principal; privileged operations go through Admin.
	administrator string

	// Mutable engine configuration, guarded by mu.
	mu           sync.RWMutex
	ledger       token.Ledger
	unlockPeriod time.Duration

	// Claim and admin serialization
	locks *keyedMutex

	// Background boundary watcher
	watchInterval time.Duration
	lastPeriod    map[string]uint64
	stopChan      chan struct{}
	wg            sync.WaitGroup

	skipMigrate bool
}

// New creates a new Engine instance. Privileged operations require an
// administrator configured via WithAdministrator; without one every
// Admin call fails with ErrUnauthorized.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:        s,
		plugins:      plugin.NewRegistry(),
		logger:       slog.Default(),
		clock:        func() time.Time { return time.Now().UTC() },
		unlockPeriod: DefaultUnlockPeriod,
		locks:        newKeyedMutex(),
		lastPeriod:   make(map[string]uint64),
		stopChan:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source. Intended for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLedger sets the token ledger claims are paid through.
func WithLedger(l token.Ledger) Option {
	return func(e *Engine) {
		e.ledger = l
	}
}

// WithAdministrator sets the privileged principal.
func WithAdministrator(principal string) Option {
	return func(e *Engine) {
		e.administrator = principal
	}
}

// WithUnlockPeriod sets the engine-wide linear-release granularity.
func WithUnlockPeriod(d time.Duration) Option {
	return func(e *Engine) {
		e.unlockPeriod = d
	}
}

// WithWatchInterval enables the unlock-boundary watcher with the given
// polling interval. Zero leaves the watcher disabled.
func WithWatchInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.watchInterval = d
	}
}

// WithSkipMigrate makes Start skip store migration. Use when migrations
// are managed out of band.
func WithSkipMigrate() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// Start migrates the store, initializes plugins, and begins background
// workers.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	e.plugins.EmitInit(ctx, e)

	if e.watchInterval > 0 {
		e.wg.Add(1)
		go e.boundaryWatcher()
	}

	e.logger.Info("vesting engine started",
		"unlock_period", e.UnlockPeriod(),
		"watch_interval", e.watchInterval,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// UnlockPeriod returns the current engine-wide unlock period.
func (e *Engine) UnlockPeriod() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.unlockPeriod
}

func (e *Engine) tokenLedger() token.Ledger {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger
}

// ──────────────────────────────────────────────────
// Claims
// ──────────────────────────────────────────────────

// Claim settles everything currently claimable by address under the
// program and transfers it through the token ledger. The whole operation
// runs under a per-(program, address) lock: the state mutation and the
// external transfer either both complete or both roll back, and no second
// claim for the same pair can start in between.
func (e *Engine) Claim(ctx context.Context, programKey, address string) (*claim.Receipt, error) {
	if address == "" {
		return nil, ErrInvalidAddress
	}

	ledger := e.tokenLedger()
	if ledger == nil {
		return nil, ErrNoLedger
	}

	unlock := e.locks.lock("claim:" + programKey + ":" + address)
	defer unlock()

	prog, err := e.store.GetProgram(ctx, programKey)
	if err != nil {
		return nil, err
	}
	rec, err := e.store.GetBeneficiary(ctx, programKey, address)
	if err != nil {
		return nil, err
	}

	now := e.clock()
	amount, index, err := schedule.Available(prog.Terms(e.UnlockPeriod()), rec.Position(), now)
	if err != nil {
		return nil, err
	}
	if amount.IsZero() {
		return nil, ErrNothingToClaim
	}

	// Program-wide cap: cumulative claims never exceed the pool.
	if prog.ReleasedTotal.Add(amount).GreaterThan(prog.PoolTotal) {
		return nil, ErrInsufficientPool
	}

	updated := *rec
	updated.AmountReleased = rec.AmountReleased.Add(amount)
	if index > updated.ClaimedPeriodIndex {
		updated.ClaimedPeriodIndex = index
	}
	updated.Touch()

	receipt := &claim.Receipt{
		Entity:      types.NewEntity(),
		ID:          id.NewClaimID(),
		ProgramKey:  programKey,
		Address:     address,
		Amount:      amount,
		PeriodIndex: updated.ClaimedPeriodIndex,
		ClaimedAt:   now,
	}

	if err := e.store.SettleClaim(ctx, &updated, receipt); err != nil {
		return nil, err
	}

	if err := ledger.Transfer(ctx, address, amount); err != nil {
		if revertErr := e.store.RevertClaim(ctx, rec, receipt.ID); revertErr != nil {
			e.logger.Error("failed to revert settled claim",
				"program", programKey,
				"address", address,
				"receipt", receipt.ID.String(),
				"error", revertErr,
			)
		}
		e.plugins.EmitClaimFailed(ctx, programKey, address, amount, err)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	e.plugins.EmitClaimed(ctx, receipt)

	e.logger.Info("claim settled",
		"program", programKey,
		"address", address,
		"amount", amount.String(),
		"period_index", receipt.PeriodIndex,
	)

	return receipt, nil
}

// Claimable previews the amount address could claim right now, without
// mutating any state.
func (e *Engine) Claimable(ctx context.Context, programKey, address string) (types.Amount, error) {
	prog, err := e.store.GetProgram(ctx, programKey)
	if err != nil {
		return types.ZeroAmount(), err
	}
	rec, err := e.store.GetBeneficiary(ctx, programKey, address)
	if err != nil {
		return types.ZeroAmount(), err
	}

	amount, _, err := schedule.Available(prog.Terms(e.UnlockPeriod()), rec.Position(), e.clock())
	if err != nil {
		return types.ZeroAmount(), err
	}
	return amount, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// GetProgram retrieves a program by key.
func (e *Engine) GetProgram(ctx context.Context, programKey string) (*program.Program, error) {
	return e.store.GetProgram(ctx, programKey)
}

// ListPrograms lists programs in creation order.
func (e *Engine) ListPrograms(ctx context.Context, opts program.ListOpts) ([]*program.Program, error) {
	return e.store.ListPrograms(ctx, opts)
}

// GetBeneficiary retrieves a beneficiary record.
func (e *Engine) GetBeneficiary(ctx context.Context, programKey, address string) (*beneficiary.Record, error) {
	return e.store.GetBeneficiary(ctx, programKey, address)
}

// Roster lists a program's beneficiary records in registration order.
func (e *Engine) Roster(ctx context.Context, programKey string, opts beneficiary.ListOpts) ([]*beneficiary.Record, error) {
	return e.store.ListBeneficiaries(ctx, programKey, opts)
}

// State derives the lifecycle state of address under the program. An
// unknown address reports StateUnregistered.
func (e *Engine) State(ctx context.Context, programKey, address string) (beneficiary.State, error) {
	prog, err := e.store.GetProgram(ctx, programKey)
	if err != nil {
		return beneficiary.StateUnregistered, err
	}

	rec, err := e.store.GetBeneficiary(ctx, programKey, address)
	if err != nil {
		if IsNotFound(err) {
			return beneficiary.StateUnregistered, nil
		}
		return beneficiary.StateUnregistered, err
	}

	return beneficiary.StateAt(rec, prog.Terms(e.UnlockPeriod()), e.clock()), nil
}

// NextUnlock returns the next instant the program's claimable amounts
// grow, and false once the schedule is fully unlocked.
func (e *Engine) NextUnlock(ctx context.Context, programKey string) (time.Time, bool, error) {
	prog, err := e.store.GetProgram(ctx, programKey)
	if err != nil {
		return time.Time{}, false, err
	}

	next, ok := schedule.NextUnlock(prog.Terms(e.UnlockPeriod()), e.clock())
	return next, ok, nil
}

// TotalReleased reports the cumulative amount claimed under a program.
func (e *Engine) TotalReleased(ctx context.Context, programKey string) (types.Amount, error) {
	return e.store.TotalReleased(ctx, programKey)
}

// TotalReleasedAll reports the cumulative amount claimed across all
// programs.
func (e *Engine) TotalReleasedAll(ctx context.Context) (types.Amount, error) {
	return e.store.TotalReleasedAll(ctx)
}

// ListReceipts lists a program's claim history.
func (e *Engine) ListReceipts(ctx context.Context, programKey string, opts claim.ListOpts) ([]*claim.Receipt, error) {
	return e.store.ListReceipts(ctx, programKey, opts)
}

// ──────────────────────────────────────────────────
// Boundary watcher
// ──────────────────────────────────────────────────

// boundaryWatcher polls programs for unlock-period boundary crossings.
func (e *Engine) boundaryWatcher() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkBoundaries(context.Background())
		}
	}
}

// checkBoundaries emits OnUnlockBoundary for every program whose linear
// period index advanced since the previous observation. The first
// observation of a program only primes the watcher, so boundaries that
// passed before startup are not replayed.
func (e *Engine) checkBoundaries(ctx context.Context) {
	progs, err := e.store.ListPrograms(ctx, program.ListOpts{})
	if err != nil {
		e.logger.Warn("boundary watcher list failed", "error", err)
		return
	}

	now := e.clock()
	period := e.UnlockPeriod()

	for _, p := range progs {
		t := p.Terms(period)
		if t.Start.IsZero() || now.Before(t.CliffEnd()) {
			continue
		}

		var index uint64
		if !now.Before(t.End()) {
			index = t.TotalPeriods()
		} else {
			index = uint64(now.Sub(t.CliffEnd()) / t.UnlockPeriod)
		}

		e.mu.Lock()
		last, seen := e.lastPeriod[p.Key]
		if !seen || index > last {
			e.lastPeriod[p.Key] = index
		}
		e.mu.Unlock()

		if seen && index > last {
			e.plugins.EmitUnlockBoundary(ctx, p.Key, index, now)
			e.logger.Debug("unlock boundary crossed",
				"program", p.Key,
				"period_index", index,
			)
		}
	}
}
