// Package postgres provides a PostgreSQL-backed Store implementation using
// the Grove ORM. Multi-row commits rely on single-statement upserts; the
// engine serializes writers per program, so sequential statements observe
// the same ordering the in-memory backend guarantees under its mutex.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

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

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("vesting/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("vesting/postgres: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Program Store ====================

func (s *Store) CreateProgram(ctx context.Context, p *program.Program) error {
	m := toProgramModel(p)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	if err != nil {
		return err
	}
	return nil
}

func (s *Store) GetProgram(ctx context.Context, key string) (*program.Program, error) {
	m := new(programModel)
	err := s.pg.NewSelect(m).
		Where("key = $1", key).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vesting.ErrProgramNotFound
		}
		return nil, err
	}
	return fromProgramModel(m)
}

func (s *Store) GetProgramByID(ctx context.Context, programID id.ProgramID) (*program.Program, error) {
	m := new(programModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", programID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, vesting.ErrProgramNotFound
		}
		return nil, err
	}
	return fromProgramModel(m)
}

func (s *Store) ListPrograms(ctx context.Context, opts program.ListOpts) ([]*program.Program, error) {
	var models []programModel
	q := s.pg.NewSelect(&models)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*program.Program, len(models))
	for i := range models {
		p, err := fromProgramModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdateProgram(ctx context.Context, p *program.Program) error {
	m := toProgramModel(p)
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vesting.ErrProgramNotFound
	}
	return nil
}

// ==================== Beneficiary Store ====================

func (s *Store) PutBeneficiary(ctx context.Context, programKey string, rec *beneficiary.Record, poolRemaining types.Amount) error {
	return s.PutBeneficiaries(ctx, programKey, []*beneficiary.Record{rec}, poolRemaining)
}

// PutBeneficiaries commits the batch through a single multi-row upsert, so a
// constraint failure on any record leaves the whole batch unwritten. Replaced
// addresses keep their position; new addresses take the next free slot.
func (s *Store) PutBeneficiaries(ctx context.Context, programKey string, recs []*beneficiary.Record, poolRemaining types.Amount) error {
	if _, err := s.GetProgram(ctx, programKey); err != nil {
		return err
	}

	positions, next, err := s.rosterPositions(ctx, programKey)
	if err != nil {
		return err
	}

	models := make([]beneficiaryModel, len(recs))
	for i, rec := range recs {
		pos, known := positions[rec.Address]
		if !known {
			pos = next
			positions[rec.Address] = pos
			next++
		}
		models[i] = *toBeneficiaryModel(rec, pos)
	}

	_, err = s.pg.NewInsert(&models).
		OnConflict("(program_key, address) DO UPDATE").
		Set("id = EXCLUDED.id").
		Set("total_amount = EXCLUDED.total_amount").
		Set("amount_released = EXCLUDED.amount_released").
		Set("claimed_period_index = EXCLUDED.claimed_period_index").
		Set("created_at = EXCLUDED.created_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return err
	}

	return s.setPoolRemaining(ctx, programKey, poolRemaining)
}

func (s *Store) GetBeneficiary(ctx context.Context, programKey, address string) (*beneficiary.Record, error) {
	m := new(beneficiaryModel)
	err := s.pg.NewSelect(m).
		Where("program_key = $1", programKey).
		Where("address = $2", address).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			if _, perr := s.GetProgram(ctx, programKey); perr != nil {
				return nil, perr
			}
			return nil, vesting.ErrBeneficiaryNotFound
		}
		return nil, err
	}
	return fromBeneficiaryModel(m)
}

func (s *Store) ListBeneficiaries(ctx context.Context, programKey string, opts beneficiary.ListOpts) ([]*beneficiary.Record, error) {
	if _, err := s.GetProgram(ctx, programKey); err != nil {
		return nil, err
	}

	var models []beneficiaryModel
	q := s.pg.NewSelect(&models).Where("program_key = $1", programKey)

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("position ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*beneficiary.Record, len(models))
	for i := range models {
		rec, err := fromBeneficiaryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = rec
	}
	return result, nil
}

// ==================== Claim Store ====================

func (s *Store) SettleClaim(ctx context.Context, rec *beneficiary.Record, receipt *claim.Receipt) error {
	prog, err := s.GetProgram(ctx, rec.ProgramKey)
	if err != nil {
		return err
	}

	t := now()
	res, err := s.pg.NewUpdate((*beneficiaryModel)(nil)).
		Set("amount_released = $1", rec.AmountReleased.String()).
		Set("claimed_period_index = $2", int64(rec.ClaimedPeriodIndex)).
		Set("updated_at = $3", t).
		Where("program_key = $4", rec.ProgramKey).
		Where("address = $5", rec.Address).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vesting.ErrBeneficiaryNotFound
	}

	if _, err := s.pg.NewInsert(toClaimModel(receipt)).Exec(ctx); err != nil {
		return err
	}

	released := prog.ReleasedTotal.Add(receipt.Amount)
	return s.setReleasedTotal(ctx, rec.ProgramKey, released)
}

func (s *Store) RevertClaim(ctx context.Context, prev *beneficiary.Record, receiptID id.ClaimID) error {
	prog, err := s.GetProgram(ctx, prev.ProgramKey)
	if err != nil {
		return err
	}

	m := new(claimModel)
	err = s.pg.NewSelect(m).
		Where("id = $1", receiptID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return vesting.ErrReceiptNotFound
		}
		return err
	}
	receipt, err := fromClaimModel(m)
	if err != nil {
		return err
	}

	res, err := s.pg.NewUpdate((*beneficiaryModel)(nil)).
		Set("amount_released = $1", prev.AmountReleased.String()).
		Set("claimed_period_index = $2", int64(prev.ClaimedPeriodIndex)).
		Set("updated_at = $3", now()).
		Where("program_key = $4", prev.ProgramKey).
		Where("address = $5", prev.Address).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vesting.ErrBeneficiaryNotFound
	}

	if _, err := s.pg.NewDelete((*claimModel)(nil)).
		Where("id = $1", receiptID.String()).
		Exec(ctx); err != nil {
		return err
	}

	released := prog.ReleasedTotal.Sub(receipt.Amount)
	return s.setReleasedTotal(ctx, prev.ProgramKey, released)
}

func (s *Store) ListReceipts(ctx context.Context, programKey string, opts claim.ListOpts) ([]*claim.Receipt, error) {
	if _, err := s.GetProgram(ctx, programKey); err != nil {
		return nil, err
	}

	var models []claimModel
	q := s.pg.NewSelect(&models).Where("program_key = $1", programKey)

	argIdx := 1
	if opts.Address != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("address = $%d", argIdx), opts.Address)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("claimed_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*claim.Receipt, len(models))
	for i := range models {
		r, err := fromClaimModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

func (s *Store) TotalReleased(ctx context.Context, programKey string) (types.Amount, error) {
	prog, err := s.GetProgram(ctx, programKey)
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

// ==================== Helpers ====================

// rosterPositions returns the position of every registered address in the
// program and the next free position.
func (s *Store) rosterPositions(ctx context.Context, programKey string) (map[string]int64, int64, error) {
	var models []beneficiaryModel
	err := s.pg.NewSelect(&models).
		Where("program_key = $1", programKey).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, 0, err
	}

	positions := make(map[string]int64, len(models))
	var next int64
	for i := range models {
		positions[models[i].Address] = models[i].Position
		if models[i].Position >= next {
			next = models[i].Position + 1
		}
	}
	return positions, next, nil
}

func (s *Store) setPoolRemaining(ctx context.Context, programKey string, pool types.Amount) error {
	res, err := s.pg.NewUpdate((*programModel)(nil)).
		Set("pool_remaining = $1", pool.String()).
		Set("updated_at = $2", now()).
		Where("key = $3", programKey).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vesting.ErrProgramNotFound
	}
	return nil
}

func (s *Store) setReleasedTotal(ctx context.Context, programKey string, released types.Amount) error {
	res, err := s.pg.NewUpdate((*programModel)(nil)).
		Set("released_total = $1", released.String()).
		Set("updated_at = $2", now()).
		Where("key = $3", programKey).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return vesting.ErrProgramNotFound
	}
	return nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
