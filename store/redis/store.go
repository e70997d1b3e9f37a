// Package redis provides a Redis-backed Store implementation. Entities are
// stored as JSON values under namespaced keys; registration order lives in
// per-program roster lists and receipts in append-only lists. Multi-key
// writes go through a single MULTI/EXEC pipeline.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/program"
	vestingstore "github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store implements store.Store on top of a Redis client.
type Store struct {
	rdb *redis.Client
}

// New creates a new Redis store from connection options.
func New(opts *redis.Options) *Store {
	return &Store{rdb: redis.NewClient(opts)}
}

// NewFromClient wraps an existing Redis client.
func NewFromClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Client returns the underlying Redis client for direct access.
func (s *Store) Client() *redis.Client { return s.rdb }

// Key layout. All keys share the vesting: prefix so one Redis database can
// host the store alongside other applications.
func keyProgram(key string) string      { return "vesting:program:" + key }
func keyRoster(key string) string       { return "vesting:roster:" + key }
func keyRecord(key, addr string) string { return "vesting:beneficiary:" + key + ":" + addr }
func keyReceipts(key string) string     { return "vesting:receipts:" + key }

const keyProgramOrder = "vesting:programs"

// ==================== Program Store ====================

func (s *Store) CreateProgram(ctx context.Context, p *program.Program) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("vesting/redis: marshal program: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, keyProgram(p.Key), payload, 0).Result()
	if err != nil {
		return fmt.Errorf("vesting/redis: create program: %w", err)
	}
	if !ok {
		return vesting.ErrProgramExists
	}

	if err := s.rdb.RPush(ctx, keyProgramOrder, p.Key).Err(); err != nil {
		return fmt.Errorf("vesting/redis: create program: %w", err)
	}
	return nil
}

func (s *Store) GetProgram(ctx context.Context, key string) (*program.Program, error) {
	payload, err := s.rdb.Get(ctx, keyProgram(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, vesting.ErrProgramNotFound
		}
		return nil, fmt.Errorf("vesting/redis: get program: %w", err)
	}

	p := new(program.Program)
	if err := json.Unmarshal(payload, p); err != nil {
		return nil, fmt.Errorf("vesting/redis: unmarshal program: %w", err)
	}
	return p, nil
}

func (s *Store) GetProgramByID(ctx context.Context, programID id.ProgramID) (*program.Program, error) {
	keys, err := s.rdb.LRange(ctx, keyProgramOrder, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("vesting/redis: get program by id: %w", err)
	}

	for _, key := range keys {
		p, err := s.GetProgram(ctx, key)
		if err != nil {
			if errors.Is(err, vesting.ErrProgramNotFound) {
				continue
			}
			return nil, err
		}
		if p.ID.String() == programID.String() {
			return p, nil
		}
	}
	return nil, vesting.ErrProgramNotFound
}

func (s *Store) ListPrograms(ctx context.Context, opts program.ListOpts) ([]*program.Program, error) {
	keys, err := s.rdb.LRange(ctx, keyProgramOrder, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("vesting/redis: list programs: %w", err)
	}

	result := make([]*program.Program, 0, len(keys))
	for _, key := range keys {
		p, err := s.GetProgram(ctx, key)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateProgram(ctx context.Context, p *program.Program) error {
	return s.writeProgram(ctx, p)
}

// ==================== Beneficiary Store ====================

func (s *Store) PutBeneficiary(ctx context.Context, programKey string, rec *beneficiary.Record, poolRemaining types.Amount) error {
	return s.PutBeneficiaries(ctx, programKey, []*beneficiary.Record{rec}, poolRemaining)
}

// PutBeneficiaries commits records, roster appends, and the pool balance in
// one MULTI/EXEC pipeline. Replaced addresses keep their roster position;
// new addresses append.
func (s *Store) PutBeneficiaries(ctx context.Context, programKey string, recs []*beneficiary.Record, poolRemaining types.Amount) error {
	prog, err := s.GetProgram(ctx, programKey)
	if err != nil {
		return err
	}

	roster, err := s.rdb.LRange(ctx, keyRoster(programKey), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("vesting/redis: put beneficiaries: %w", err)
	}
	known := make(map[string]bool, len(roster))
	for _, addr := range roster {
		known[addr] = true
	}

	payloads := make(map[string][]byte, len(recs))
	var appends []string
	for _, rec := range recs {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("vesting/redis: marshal beneficiary: %w", err)
		}
		payloads[rec.Address] = payload
		if !known[rec.Address] {
			known[rec.Address] = true
			appends = append(appends, rec.Address)
		}
	}

	prog.PoolRemaining = poolRemaining
	prog.Touch()
	progPayload, err := json.Marshal(prog)
	if err != nil {
		return fmt.Errorf("vesting/redis: marshal program: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, rec := range recs {
			pipe.Set(ctx, keyRecord(programKey, rec.Address), payloads[rec.Address], 0)
		}
		for _, addr := range appends {
			pipe.RPush(ctx, keyRoster(programKey), addr)
		}
		pipe.Set(ctx, keyProgram(programKey), progPayload, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("vesting/redis: put beneficiaries: %w", err)
	}
	return nil
}

func (s *Store) GetBeneficiary(ctx context.Context, progKey, address string) (*beneficiary.Record, error) {
	payload, err := s.rdb.Get(ctx, keyRecord(progKey, address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if _, perr := s.GetProgram(ctx, progKey); perr != nil {
				return nil, perr
			}
			return nil, vesting.ErrBeneficiaryNotFound
		}
		return nil, fmt.Errorf("vesting/redis: get beneficiary: %w", err)
	}

	rec := new(beneficiary.Record)
	if err := json.Unmarshal(payload, rec); err != nil {
		return nil, fmt.Errorf("vesting/redis: unmarshal beneficiary: %w", err)
	}
	return rec, nil
}

func (s *Store) ListBeneficiaries(ctx context.Context, progKey string, opts beneficiary.ListOpts) ([]*beneficiary.Record, error) {
	if _, err := s.GetProgram(ctx, progKey); err != nil {
		return nil, err
	}

	roster, err := s.rdb.LRange(ctx, keyRoster(progKey), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("vesting/redis: list beneficiaries: %w", err)
	}

	result := make([]*beneficiary.Record, 0, len(roster))
	for _, addr := range roster {
		rec, err := s.GetBeneficiary(ctx, progKey, addr)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return page(result, opts.Offset, opts.Limit), nil
}

// ==================== Claim Store ====================

func (s *Store) SettleClaim(ctx context.Context, rec *beneficiary.Record, receipt *claim.Receipt) error {
	prog, err := s.GetProgram(ctx, rec.ProgramKey)
	if err != nil {
		return err
	}
	if _, err := s.GetBeneficiary(ctx, rec.ProgramKey, rec.Address); err != nil {
		return err
	}

	recPayload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("vesting/redis: marshal beneficiary: %w", err)
	}
	receiptPayload, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("vesting/redis: marshal receipt: %w", err)
	}

	prog.ReleasedTotal = prog.ReleasedTotal.Add(receipt.Amount)
	prog.Touch()
	progPayload, err := json.Marshal(prog)
	if err != nil {
		return fmt.Errorf("vesting/redis: marshal program: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyRecord(rec.ProgramKey, rec.Address), recPayload, 0)
		pipe.RPush(ctx, keyReceipts(rec.ProgramKey), receiptPayload)
		pipe.Set(ctx, keyProgram(rec.ProgramKey), progPayload, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("vesting/redis: settle claim: %w", err)
	}
	return nil
}

func (s *Store) RevertClaim(ctx context.Context, prev *beneficiary.Record, receiptID id.ClaimID) error {
	prog, err := s.GetProgram(ctx, prev.ProgramKey)
	if err != nil {
		return err
	}

	raws, err := s.rdb.LRange(ctx, keyReceipts(prev.ProgramKey), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("vesting/redis: revert claim: %w", err)
	}

	var raw string
	var receipt *claim.Receipt
	for _, candidate := range raws {
		r := new(claim.Receipt)
		if err := json.Unmarshal([]byte(candidate), r); err != nil {
			return fmt.Errorf("vesting/redis: unmarshal receipt: %w", err)
		}
		if r.ID.String() == receiptID.String() {
			raw = candidate
			receipt = r
			break
		}
	}
	if receipt == nil {
		return vesting.ErrReceiptNotFound
	}

	prevPayload, err := json.Marshal(prev)
	if err != nil {
		return fmt.Errorf("vesting/redis: marshal beneficiary: %w", err)
	}

	prog.ReleasedTotal = prog.ReleasedTotal.Sub(receipt.Amount)
	prog.Touch()
	progPayload, err := json.Marshal(prog)
	if err != nil {
		return fmt.Errorf("vesting/redis: marshal program: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, keyRecord(prev.ProgramKey, prev.Address), prevPayload, 0)
		pipe.LRem(ctx, keyReceipts(prev.ProgramKey), 1, raw)
		pipe.Set(ctx, keyProgram(prev.ProgramKey), progPayload, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("vesting/redis: revert claim: %w", err)
	}
	return nil
}

func (s *Store) ListReceipts(ctx context.Context, progKey string, opts claim.ListOpts) ([]*claim.Receipt, error) {
	if _, err := s.GetProgram(ctx, progKey); err != nil {
		return nil, err
	}

	raws, err := s.rdb.LRange(ctx, keyReceipts(progKey), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("vesting/redis: list receipts: %w", err)
	}

	result := make([]*claim.Receipt, 0, len(raws))
	for _, raw := range raws {
		r := new(claim.Receipt)
		if err := json.Unmarshal([]byte(raw), r); err != nil {
			return nil, fmt.Errorf("vesting/redis: unmarshal receipt: %w", err)
		}
		if opts.Address == "" || r.Address == opts.Address {
			result = append(result, r)
		}
	}
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) TotalReleased(ctx context.Context, progKey string) (types.Amount, error) {
	prog, err := s.GetProgram(ctx, progKey)
	if err != nil {
		return types.ZeroAmount(), err
	}
	return prog.ReleasedTotal, nil
}

func (s *Store) TotalReleasedAll(ctx context.Context) (types.Amount, error) {
	progs, err := s.ListPrograms(ctx, program.ListOpts{})
	if err != nil {
		return types.ZeroAmount(), err
	}

	total := types.ZeroAmount()
	for _, p := range progs {
		total = total.Add(p.ReleasedTotal)
	}
	return total, nil
}

// ==================== Store management ====================

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// ==================== Helpers ====================

func (s *Store) writeProgram(ctx context.Context, p *program.Program) error {
	exists, err := s.rdb.Exists(ctx, keyProgram(p.Key)).Result()
	if err != nil {
		return fmt.Errorf("vesting/redis: update program: %w", err)
	}
	if exists == 0 {
		return vesting.ErrProgramNotFound
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("vesting/redis: marshal program: %w", err)
	}
	if err := s.rdb.Set(ctx, keyProgram(p.Key), payload, 0).Err(); err != nil {
		return fmt.Errorf("vesting/redis: update program: %w", err)
	}
	return nil
}

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
