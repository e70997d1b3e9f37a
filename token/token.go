// Package token defines the value-transfer medium the claim engine pays
// beneficiaries through, and a reference in-memory implementation.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/vesting/types"
)

// ErrInsufficientBalance is returned when a transfer exceeds the source
// balance.
var ErrInsufficientBalance = errors.New("token: insufficient balance")

// Ledger is the external fungible-token ledger claims are paid from.
// A returned error means the transfer did not happen; the claim engine
// rolls its state mutation back and surfaces the failure.
type Ledger interface {
	// Transfer moves amount from the distribution source to the address.
	Transfer(ctx context.Context, to string, amount types.Amount) error

	// BalanceOf reports the balance held by an address.
	BalanceOf(ctx context.Context, address string) (types.Amount, error)
}

// MemoryLedger is an in-process Ledger backed by a treasury balance and
// per-address accounts. Safe for concurrent use. Intended for tests and
// local development.
type MemoryLedger struct {
	mu       sync.Mutex
	treasury types.Amount
	balances map[string]types.Amount
}

// NewMemoryLedger creates a ledger funded with the given treasury balance.
func NewMemoryLedger(treasury types.Amount) *MemoryLedger {
	return &MemoryLedger{
		treasury: treasury,
		balances: make(map[string]types.Amount),
	}
}

// Mint adds amount to the treasury.
func (l *MemoryLedger) Mint(amount types.Amount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.treasury = l.treasury.Add(amount)
}

// Transfer moves amount from the treasury to the address.
func (l *MemoryLedger) Transfer(_ context.Context, to string, amount types.Amount) error {
	if to == "" {
		return fmt.Errorf("token: transfer to empty address")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.treasury.LessThan(amount) {
		return fmt.Errorf("token: transfer %s to %s: %w", amount, to, ErrInsufficientBalance)
	}

	l.treasury = l.treasury.Sub(amount)
	l.balances[to] = l.balances[to].Add(amount)

	return nil
}

// BalanceOf reports the balance held by an address.
func (l *MemoryLedger) BalanceOf(_ context.Context, address string) (types.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balances[address], nil
}

// Treasury reports the undistributed balance.
func (l *MemoryLedger) Treasury() types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.treasury
}

var _ Ledger = (*MemoryLedger)(nil)
