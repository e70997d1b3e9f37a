// Package mongo provides a MongoDB-backed Store implementation using the
// Grove ORM. Re-registered beneficiaries are written as remove-then-insert
// because a document's _id cannot be rewritten in place; the engine
// serializes writers per program, so readers never observe the gap racing
// a concurrent mutation.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/vesting"
	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/program"
	vestingstore "github.com/xraph/vesting/store"
	"github.com/xraph/vesting/types"
)

// Collection name constants.
const (
	colPrograms      = "vesting_programs"
	colBeneficiaries = "vesting_beneficiaries"
	colClaims        = "vesting_claims"
)

// compile-time interface check
var _ vestingstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all vesting collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vesting/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: create program: %w", err)
	}
	return nil
}

func (s *Store) GetProgram(ctx context.Context, key string) (*program.Program, error) {
	var m programModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"key": key}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vesting.ErrProgramNotFound
		}
		return nil, fmt.Errorf("vesting/mongo: get program: %w", err)
	}
	return fromProgramModel(&m)
}

func (s *Store) GetProgramByID(ctx context.Context, programID id.ProgramID) (*program.Program, error) {
	var m programModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": programID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, vesting.ErrProgramNotFound
		}
		return nil, fmt.Errorf("vesting/mongo: get program by id: %w", err)
	}
	return fromProgramModel(&m)
}

func (s *Store) ListPrograms(ctx context.Context, opts program.ListOpts) ([]*program.Program, error) {
	var models []programModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vesting/mongo: list programs: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: update program: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vesting.ErrProgramNotFound
	}
	return nil
}

// ==================== Beneficiary Store ====================

func (s *Store) PutBeneficiary(ctx context.Context, programKey string, rec *beneficiary.Record, poolRemaining types.Amount) error {
	return s.PutBeneficiaries(ctx, programKey, []*beneficiary.Record{rec}, poolRemaining)
}

// PutBeneficiaries stages positions from the stored roster, removes documents
// being replaced, and inserts the batch in one InsertMany. Replaced addresses
// keep their position; new addresses take the next free slot.
func (s *Store) PutBeneficiaries(ctx context.Context, programKey string, recs []*beneficiary.Record, poolRemaining types.Amount) error {
	if _, err := s.GetProgram(ctx, programKey); err != nil {
		return err
	}

	positions, next, err := s.rosterPositions(ctx, programKey)
	if err != nil {
		return err
	}

	addresses := make([]string, len(recs))
	models := make([]beneficiaryModel, len(recs))
	for i, rec := range recs {
		pos, known := positions[rec.Address]
		if !known {
			pos = next
			positions[rec.Address] = pos
			next++
		}
		addresses[i] = rec.Address
		models[i] = *toBeneficiaryModel(rec, pos)
	}

	_, err = s.mdb.NewDelete((*beneficiaryModel)(nil)).
		Filter(bson.M{
			"program_key": programKey,
			"address":     bson.M{"$in": addresses},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: put beneficiaries: %w", err)
	}

	if _, err := s.mdb.NewInsert(&models).Exec(ctx); err != nil {
		return fmt.Errorf("vesting/mongo: put beneficiaries: %w", err)
	}

	return s.setPoolRemaining(ctx, programKey, poolRemaining)
}

func (s *Store) GetBeneficiary(ctx context.Context, programKey, address string) (*beneficiary.Record, error) {
	var m beneficiaryModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"program_key": programKey, "address": address}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			if _, perr := s.GetProgram(ctx, programKey); perr != nil {
				return nil, perr
			}
			return nil, vesting.ErrBeneficiaryNotFound
		}
		return nil, fmt.Errorf("vesting/mongo: get beneficiary: %w", err)
	}
	return fromBeneficiaryModel(&m)
}

func (s *Store) ListBeneficiaries(ctx context.Context, programKey string, opts beneficiary.ListOpts) ([]*beneficiary.Record, error) {
	if _, err := s.GetProgram(ctx, programKey); err != nil {
		return nil, err
	}

	var models []beneficiaryModel
	q := s.mdb.NewFind(&models).
		Filter(bson.M{"program_key": programKey}).
		Sort(bson.D{{Key: "position", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vesting/mongo: list beneficiaries: %w", err)
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

	res, err := s.mdb.NewUpdate((*beneficiaryModel)(nil)).
		Filter(bson.M{"program_key": rec.ProgramKey, "address": rec.Address}).
		SetUpdate(bson.M{"$set": bson.M{
			"amount_released":      rec.AmountReleased.String(),
			"claimed_period_index": int64(rec.ClaimedPeriodIndex),
			"updated_at":           now(),
		}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: settle claim: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vesting.ErrBeneficiaryNotFound
	}

	if _, err := s.mdb.NewInsert(toClaimModel(receipt)).Exec(ctx); err != nil {
		return fmt.Errorf("vesting/mongo: settle claim: %w", err)
	}

	released := prog.ReleasedTotal.Add(receipt.Amount)
	return s.setReleasedTotal(ctx, rec.ProgramKey, released)
}

func (s *Store) RevertClaim(ctx context.Context, prev *beneficiary.Record, receiptID id.ClaimID) error {
	prog, err := s.GetProgram(ctx, prev.ProgramKey)
	if err != nil {
		return err
	}

	var m claimModel
	err = s.mdb.NewFind(&m).
		Filter(bson.M{"_id": receiptID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return vesting.ErrReceiptNotFound
		}
		return fmt.Errorf("vesting/mongo: revert claim: %w", err)
	}
	receipt, err := fromClaimModel(&m)
	if err != nil {
		return err
	}

	res, err := s.mdb.NewUpdate((*beneficiaryModel)(nil)).
		Filter(bson.M{"program_key": prev.ProgramKey, "address": prev.Address}).
		SetUpdate(bson.M{"$set": bson.M{
			"amount_released":      prev.AmountReleased.String(),
			"claimed_period_index": int64(prev.ClaimedPeriodIndex),
			"updated_at":           now(),
		}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: revert claim: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vesting.ErrBeneficiaryNotFound
	}

	if _, err := s.mdb.NewDelete((*claimModel)(nil)).
		Filter(bson.M{"_id": receiptID.String()}).
		Exec(ctx); err != nil {
		return fmt.Errorf("vesting/mongo: revert claim: %w", err)
	}

	released := prog.ReleasedTotal.Sub(receipt.Amount)
	return s.setReleasedTotal(ctx, prev.ProgramKey, released)
}

func (s *Store) ListReceipts(ctx context.Context, programKey string, opts claim.ListOpts) ([]*claim.Receipt, error) {
	if _, err := s.GetProgram(ctx, programKey); err != nil {
		return nil, err
	}

	filter := bson.M{"program_key": programKey}
	if opts.Address != "" {
		filter["address"] = opts.Address
	}

	var models []claimModel
	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "claimed_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("vesting/mongo: list receipts: %w", err)
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
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"program_key": programKey}).
		Sort(bson.D{{Key: "position", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("vesting/mongo: roster positions: %w", err)
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
	res, err := s.mdb.NewUpdate((*programModel)(nil)).
		Filter(bson.M{"key": programKey}).
		SetUpdate(bson.M{"$set": bson.M{
			"pool_remaining": pool.String(),
			"updated_at":     now(),
		}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: set pool remaining: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vesting.ErrProgramNotFound
	}
	return nil
}

func (s *Store) setReleasedTotal(ctx context.Context, programKey string, released types.Amount) error {
	res, err := s.mdb.NewUpdate((*programModel)(nil)).
		Filter(bson.M{"key": programKey}).
		SetUpdate(bson.M{"$set": bson.M{
			"released_total": released.String(),
			"updated_at":     now(),
		}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("vesting/mongo: set released total: %w", err)
	}
	if res.MatchedCount() == 0 {
		return vesting.ErrProgramNotFound
	}
	return nil
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all vesting collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPrograms: {
			{
				Keys:    bson.D{{Key: "key", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colBeneficiaries: {
			{
				Keys:    bson.D{{Key: "program_key", Value: 1}, {Key: "address", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "program_key", Value: 1}, {Key: "position", Value: 1}}},
		},
		colClaims: {
			{Keys: bson.D{{Key: "program_key", Value: 1}, {Key: "claimed_at", Value: 1}}},
			{Keys: bson.D{{Key: "program_key", Value: 1}, {Key: "address", Value: 1}}},
		},
	}
}
