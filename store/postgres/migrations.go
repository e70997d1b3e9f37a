package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Vesting store.
var Migrations = migrate.NewGroup("vesting")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_vesting_programs",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_programs (
    id               TEXT PRIMARY KEY,
    key              TEXT NOT NULL DEFAULT '',
    pool_total       TEXT NOT NULL DEFAULT '0',
    pool_remaining   TEXT NOT NULL DEFAULT '0',
    released_total   TEXT NOT NULL DEFAULT '0',
    cliff_duration   BIGINT NOT NULL DEFAULT 0,
    vesting_duration BIGINT NOT NULL DEFAULT 0,
    tge_percent      INT NOT NULL DEFAULT 0,
    start_time       TIMESTAMPTZ,
    metadata         JSONB NOT NULL DEFAULT '{}',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_vesting_programs_key ON vesting_programs (key);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_programs`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vesting_beneficiaries",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_beneficiaries (
    id                   TEXT PRIMARY KEY,
    program_key          TEXT NOT NULL DEFAULT '',
    address              TEXT NOT NULL DEFAULT '',
    total_amount         TEXT NOT NULL DEFAULT '0',
    amount_released      TEXT NOT NULL DEFAULT '0',
    claimed_period_index BIGINT NOT NULL DEFAULT 0,
    position             BIGINT NOT NULL DEFAULT 0,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_vesting_beneficiaries_program_address ON vesting_beneficiaries (program_key, address);
CREATE INDEX IF NOT EXISTS idx_vesting_beneficiaries_roster ON vesting_beneficiaries (program_key, position);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_beneficiaries`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_vesting_claims",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS vesting_claims (
    id           TEXT PRIMARY KEY,
    program_key  TEXT NOT NULL DEFAULT '',
    address      TEXT NOT NULL DEFAULT '',
    amount       TEXT NOT NULL DEFAULT '0',
    period_index BIGINT NOT NULL DEFAULT 0,
    claimed_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vesting_claims_program ON vesting_claims (program_key, claimed_at);
CREATE INDEX IF NOT EXISTS idx_vesting_claims_address ON vesting_claims (program_key, address);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS vesting_claims`)
				return err
			},
		},
	)
}
