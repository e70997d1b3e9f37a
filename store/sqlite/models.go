package sqlite

import (
	"encoding/json"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/vesting/beneficiary"
	"github.com/xraph/vesting/claim"
	"github.com/xraph/vesting/id"
	"github.com/xraph/vesting/program"
	"github.com/xraph/vesting/types"
)

// Amounts are persisted as TEXT in canonical decimal form; SQLite has no
// arbitrary-precision numeric type and all arithmetic happens in Go anyway.

// ==================== Program models ====================

type programModel struct {
	grove.BaseModel `grove:"table:vesting_programs"`

	ID              string     `grove:"id,pk"`
	Key             string     `grove:"key"`
	PoolTotal       string     `grove:"pool_total"`
	PoolRemaining   string     `grove:"pool_remaining"`
	ReleasedTotal   string     `grove:"released_total"`
	CliffDuration   int64      `grove:"cliff_duration"`
	VestingDuration int64      `grove:"vesting_duration"`
	TGEPercent      int        `grove:"tge_percent"`
	StartTime       *time.Time `grove:"start_time"`
	Metadata        string     `grove:"metadata"`
	CreatedAt       time.Time  `grove:"created_at"`
	UpdatedAt       time.Time  `grove:"updated_at"`
}

func toProgramModel(p *program.Program) *programModel {
	metadata, _ := json.Marshal(p.Metadata) //nolint:errcheck // best-effort

	m := &programModel{
		ID:              p.ID.String(),
		Key:             p.Key,
		PoolTotal:       p.PoolTotal.String(),
		PoolRemaining:   p.PoolRemaining.String(),
		ReleasedTotal:   p.ReleasedTotal.String(),
		CliffDuration:   int64(p.CliffDuration),
		VestingDuration: int64(p.VestingDuration),
		TGEPercent:      p.TGEPercent,
		Metadata:        string(metadata),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if !p.StartTime.IsZero() {
		t := p.StartTime
		m.StartTime = &t
	}
	return m
}

func fromProgramModel(m *programModel) (*program.Program, error) {
	programID, err := id.ParseProgramID(m.ID)
	if err != nil {
		return nil, err
	}
	poolTotal, err := types.ParseAmount(m.PoolTotal)
	if err != nil {
		return nil, err
	}
	poolRemaining, err := types.ParseAmount(m.PoolRemaining)
	if err != nil {
		return nil, err
	}
	releasedTotal, err := types.ParseAmount(m.ReleasedTotal)
	if err != nil {
		return nil, err
	}

	var metadata map[string]string
	if m.Metadata != "" && m.Metadata != "null" {
		_ = json.Unmarshal([]byte(m.Metadata), &metadata) //nolint:errcheck // best-effort
	}

	p := &program.Program{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:              programID,
		Key:             m.Key,
		PoolTotal:       poolTotal,
		PoolRemaining:   poolRemaining,
		ReleasedTotal:   releasedTotal,
		CliffDuration:   time.Duration(m.CliffDuration),
		VestingDuration: time.Duration(m.VestingDuration),
		TGEPercent:      m.TGEPercent,
		Metadata:        metadata,
	}
	if m.StartTime != nil {
		p.StartTime = *m.StartTime
	}
	return p, nil
}

// ==================== Beneficiary models ====================

// position preserves registration order; a replaced record keeps the
// position of the record it replaced.
type beneficiaryModel struct {
	grove.BaseModel `grove:"table:vesting_beneficiaries"`

	ID                 string    `grove:"id,pk"`
	ProgramKey         string    `grove:"program_key"`
	Address            string    `grove:"address"`
	TotalAmount        string    `grove:"total_amount"`
	AmountReleased     string    `grove:"amount_released"`
	ClaimedPeriodIndex int64     `grove:"claimed_period_index"`
	Position           int64     `grove:"position"`
	CreatedAt          time.Time `grove:"created_at"`
	UpdatedAt          time.Time `grove:"updated_at"`
}

func toBeneficiaryModel(rec *beneficiary.Record, position int64) *beneficiaryModel {
	return &beneficiaryModel{
		ID:                 rec.ID.String(),
		ProgramKey:         rec.ProgramKey,
		Address:            rec.Address,
		TotalAmount:        rec.TotalAmount.String(),
		AmountReleased:     rec.AmountReleased.String(),
		ClaimedPeriodIndex: int64(rec.ClaimedPeriodIndex),
		Position:           position,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
}

func fromBeneficiaryModel(m *beneficiaryModel) (*beneficiary.Record, error) {
	recID, err := id.ParseBeneficiaryID(m.ID)
	if err != nil {
		return nil, err
	}
	total, err := types.ParseAmount(m.TotalAmount)
	if err != nil {
		return nil, err
	}
	released, err := types.ParseAmount(m.AmountReleased)
	if err != nil {
		return nil, err
	}

	return &beneficiary.Record{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                 recID,
		ProgramKey:         m.ProgramKey,
		Address:            m.Address,
		TotalAmount:        total,
		AmountReleased:     released,
		ClaimedPeriodIndex: uint64(m.ClaimedPeriodIndex),
	}, nil
}

// ==================== Claim models ====================

type claimModel struct {
	grove.BaseModel `grove:"table:vesting_claims"`

	ID          string    `grove:"id,pk"`
	ProgramKey  string    `grove:"program_key"`
	Address     string    `grove:"address"`
	Amount      string    `grove:"amount"`
	PeriodIndex int64     `grove:"period_index"`
	ClaimedAt   time.Time `grove:"claimed_at"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toClaimModel(r *claim.Receipt) *claimModel {
	return &claimModel{
		ID:          r.ID.String(),
		ProgramKey:  r.ProgramKey,
		Address:     r.Address,
		Amount:      r.Amount.String(),
		PeriodIndex: int64(r.PeriodIndex),
		ClaimedAt:   r.ClaimedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromClaimModel(m *claimModel) (*claim.Receipt, error) {
	claimID, err := id.ParseClaimID(m.ID)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}

	return &claim.Receipt{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          claimID,
		ProgramKey:  m.ProgramKey,
		Address:     m.Address,
		Amount:      amount,
		PeriodIndex: uint64(m.PeriodIndex),
		ClaimedAt:   m.ClaimedAt,
	}, nil
}
