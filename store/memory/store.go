// Package memory provides an in-memory Store implementation. It is the
// reference backend for tests, examples, and embedding the engine without
// external infrastructure.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/program"
	"github.com/xraph/vesting/types"
)

// programEntry keeps the ordered roster and the keyed record view together
// so they cannot drift out of sync.
type programEntry struct {
	prog    *program.Program
	roster  []string
	records map[string]*beneficiary.Record
}

type Store struct {
	mu sync.RWMutex

	// Program storage, plus creation order for listing
	programs map[string]*programEntry
	order    []string

	// Claim receipts per program, append-only
	receipts map[string][]*claim.Receipt
}

func New() *Store {
	return &Store{
		programs: make(map[string]*programEntry),
		receipts: make(map[string][]*claim.Receipt),
	}
}

// Program Store implementation

func (s *Store) CreateProgram(_ context.Context, p *program.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.programs[p.Key]; exists {
		return vesting.ErrProgramExists
	}

	s.programs[p.Key] = &programEntry{
		prog:    p,
		records: make(map[string]*beneficiary.Record),
	}
	s.order = append(s.order, p.Key)
	return nil
}

func (s *Store) GetProgram(_ context.Context, key string) (*program.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.programs[key]; ok {
		return e.prog, nil
	}
	return nil, vesting.ErrProgramNotFound
}

func (s *Store) GetProgramByID(_ context.Context, programID id.ProgramID) (*program.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.programs {
		if e.prog.ID.String() == programID.String() {
			return e.prog, nil
		}
	}
	return nil, vesting.ErrProgramNotFound
}

func (s *Store) ListPrograms(_ context.Context, opts program.ListOpts) ([]*program.Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*program.Program, 0, len(s.order))
	for _, key := range s.order {
		result = append(result, s.programs[key].prog)
	}
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateProgram(_ context.Context, p *program.Program) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.programs[p.Key]
	if !exists {
		return vesting.ErrProgramNotFound
	}
	e.prog = p
	return nil
}

// Beneficiary Store implementation

func (s *Store) PutBeneficiary(_ context.Context, programKey string, rec *beneficiary.Record, poolRemaining types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.putLocked(programKey, []*beneficiary.Record{rec}, poolRemaining)
}

func (s *Store) PutBeneficiaries(_ context.Context, programKey string, recs []*beneficiary.Record, poolRemaining types.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.putLocked(programKey, recs, poolRemaining)
}

// putLocked commits records and the new pool balance under the held lock.
// A replaced address keeps its roster position; new addresses append.
func (s *Store) putLocked(programKey string, recs []*beneficiary.Record, poolRemaining types.Amount) error {
	e, exists := s.programs[programKey]
	if !exists {
		return vesting.ErrProgramNotFound
	}

	for _, rec := range recs {
		if _, known := e.records[rec.Address]; !known {
			e.roster = append(e.roster, rec.Address)
		}
		e.records[rec.Address] = rec
	}
	e.prog.PoolRemaining = poolRemaining
	e.prog.Touch()
	return nil
}

func (s *Store) GetBeneficiary(_ context.Context, programKey, address string) (*beneficiary.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.programs[programKey]
	if !exists {
		return nil, vesting.ErrProgramNotFound
	}
	if rec, ok := e.records[address]; ok {
		return rec, nil
	}
	return nil, vesting.ErrBeneficiaryNotFound
}

func (s *Store) ListBeneficiaries(_ context.Context, programKey string, opts beneficiary.ListOpts) ([]*beneficiary.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.programs[programKey]
	if !exists {
		return nil, vesting.ErrProgramNotFound
	}

	result := make([]*beneficiary.Record, 0, len(e.roster))
	for _, addr := range e.roster {
		result = append(result, e.records[addr])
	}
	return page(result, opts.Offset, opts.Limit), nil
}

// Claim Store implementation

func (s *Store) SettleClaim(_ context.Context, rec *beneficiary.Record, receipt *claim.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.programs[rec.ProgramKey]
	if !exists {
		return vesting.ErrProgramNotFound
	}
	if _, known := e.records[rec.Address]; !known {
		return vesting.ErrBeneficiaryNotFound
	}

	e.records[rec.Address] = rec
	e.prog.ReleasedTotal = e.prog.ReleasedTotal.Add(receipt.Amount)
	e.prog.Touch()
	s.receipts[rec.ProgramKey] = append(s.receipts[rec.ProgramKey], receipt)
	return nil
}

func (s *Store) RevertClaim(_ context.Context, prev *beneficiary.Record, receiptID id.ClaimID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.programs[prev.ProgramKey]
	if !exists {
		return vesting.ErrProgramNotFound
	}

	receipts := s.receipts[prev.ProgramKey]
	for i, r := range receipts {
		if r.ID.String() == receiptID.String() {
			e.records[prev.Address] = prev
			e.prog.ReleasedTotal = e.prog.ReleasedTotal.Sub(r.Amount)
			e.prog.Touch()
			s.receipts[prev.ProgramKey] = append(receipts[:i], receipts[i+1:]...)
			return nil
		}
	}
	return vesting.ErrReceiptNotFound
}

func (s *Store) ListReceipts(_ context.Context, programKey string, opts claim.ListOpts) ([]*claim.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.programs[programKey]; !exists {
		return nil, vesting.ErrProgramNotFound
	}

	result := make([]*claim.Receipt, 0)
	for _, r := range s.receipts[programKey] {
		if opts.Address == "" || r.Address == opts.Address {
			result = append(result, r)
		}
	}
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) TotalReleased(_ context.Context, programKey string) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.programs[programKey]
	if !exists {
		return types.ZeroAmount(), vesting.ErrProgramNotFound
	}
	return e.prog.ReleasedTotal, nil
}

func (s *Store) TotalReleasedAll(_ context.Context) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := types.ZeroAmount()
	for _, e := range s.programs {
		total = total.Add(e.prog.ReleasedTotal)
	}
	return total, nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}

// Helper functions

func page[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
