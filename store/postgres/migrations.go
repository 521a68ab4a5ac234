package postgres

// migrations are applied in order on Migrate. Every statement is
// idempotent, so re-running against an existing database is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS crowdfund_campaigns (
    id                  TEXT PRIMARY KEY,
    creator             TEXT NOT NULL DEFAULT '',
    name                TEXT NOT NULL DEFAULT '',
    symbol              TEXT NOT NULL DEFAULT '',
    description         TEXT NOT NULL DEFAULT '',
    total_supply        BIGINT NOT NULL DEFAULT 0,
    token_price         BIGINT NOT NULL DEFAULT 0,
    target_amount       BIGINT NOT NULL DEFAULT 0,
    currency            TEXT NOT NULL DEFAULT '',
    start_time          TIMESTAMPTZ NOT NULL DEFAULT now(),
    end_time            TIMESTAMPTZ NOT NULL DEFAULT now(),
    status              TEXT NOT NULL DEFAULT 'active',
    total_raised        BIGINT NOT NULL DEFAULT 0,
    total_tokens_sold   BIGINT NOT NULL DEFAULT 0,
    investor_count      BIGINT NOT NULL DEFAULT 0,
    funds_withdrawn     BOOLEAN NOT NULL DEFAULT FALSE,
    vesting_cliff       BIGINT NOT NULL DEFAULT 0,
    vesting_duration    BIGINT NOT NULL DEFAULT 0,
    vesting_initialized BOOLEAN NOT NULL DEFAULT FALSE,
    finalized_at        TIMESTAMPTZ,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_campaigns_creator ON crowdfund_campaigns (creator)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_campaigns_status ON crowdfund_campaigns (status)`,

	`CREATE TABLE IF NOT EXISTS crowdfund_investments (
    seq            BIGSERIAL,
    id             TEXT NOT NULL DEFAULT '',
    project_id     TEXT NOT NULL,
    investor       TEXT NOT NULL,
    amount         BIGINT NOT NULL DEFAULT 0,
    currency       TEXT NOT NULL DEFAULT '',
    tokens         BIGINT NOT NULL DEFAULT 0,
    claimed_refund BOOLEAN NOT NULL DEFAULT FALSE,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (project_id, investor)
)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_investments_project ON crowdfund_investments (project_id, seq)`,

	`CREATE TABLE IF NOT EXISTS crowdfund_schedules (
    seq            BIGSERIAL,
    id             TEXT NOT NULL DEFAULT '',
    project_id     TEXT NOT NULL,
    beneficiary    TEXT NOT NULL,
    total_amount   BIGINT NOT NULL DEFAULT 0,
    claimed_amount BIGINT NOT NULL DEFAULT 0,
    cliff_time     TIMESTAMPTZ NOT NULL DEFAULT now(),
    duration       BIGINT NOT NULL DEFAULT 0,
    is_active      BOOLEAN NOT NULL DEFAULT TRUE,
    revoked_at     TIMESTAMPTZ,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (project_id, beneficiary)
)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_schedules_project ON crowdfund_schedules (project_id, seq)`,

	`CREATE TABLE IF NOT EXISTS crowdfund_entries (
    seq           BIGSERIAL,
    project_id    TEXT PRIMARY KEY,
    creator       TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL DEFAULT '',
    symbol        TEXT NOT NULL DEFAULT '',
    target_amount BIGINT NOT NULL DEFAULT 0,
    currency      TEXT NOT NULL DEFAULT '',
    duration      BIGINT NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'active',
    is_verified   BOOLEAN NOT NULL DEFAULT FALSE,
    verified_at   TIMESTAMPTZ,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_entries_creator ON crowdfund_entries (creator, seq)`,

	`CREATE TABLE IF NOT EXISTS crowdfund_stats (
    id                   INT PRIMARY KEY CHECK (id = 1),
    projects_created     BIGINT NOT NULL DEFAULT 0,
    projects_successful  BIGINT NOT NULL DEFAULT 0,
    total_funds_raised   BIGINT NOT NULL DEFAULT 0,
    total_fees_collected BIGINT NOT NULL DEFAULT 0,
    fee_balance          BIGINT NOT NULL DEFAULT 0,
    currency             TEXT NOT NULL DEFAULT ''
)`,
	`INSERT INTO crowdfund_stats (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
}
