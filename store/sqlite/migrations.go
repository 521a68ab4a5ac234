package sqlite

// migrations are applied in order on Migrate. Every statement is
// idempotent, so re-running against an existing database is safe.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS crowdfund_campaigns (
    id                  TEXT PRIMARY KEY,
    creator             TEXT NOT NULL DEFAULT '',
    name                TEXT NOT NULL DEFAULT '',
    symbol              TEXT NOT NULL DEFAULT '',
    description         TEXT NOT NULL DEFAULT '',
    total_supply        INTEGER NOT NULL DEFAULT 0,
    token_price         INTEGER NOT NULL DEFAULT 0,
    target_amount       INTEGER NOT NULL DEFAULT 0,
    currency            TEXT NOT NULL DEFAULT '',
    start_time          TEXT NOT NULL DEFAULT '',
    end_time            TEXT NOT NULL DEFAULT '',
    status              TEXT NOT NULL DEFAULT 'active',
    total_raised        INTEGER NOT NULL DEFAULT 0,
    total_tokens_sold   INTEGER NOT NULL DEFAULT 0,
    investor_count      INTEGER NOT NULL DEFAULT 0,
    funds_withdrawn     INTEGER NOT NULL DEFAULT 0,
    vesting_cliff       INTEGER NOT NULL DEFAULT 0,
    vesting_duration    INTEGER NOT NULL DEFAULT 0,
    vesting_initialized INTEGER NOT NULL DEFAULT 0,
    finalized_at        TEXT,
    created_at          TEXT NOT NULL DEFAULT '',
    updated_at          TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_campaigns_creator ON crowdfund_campaigns (creator)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_campaigns_status ON crowdfund_campaigns (status)`,

	`CREATE TABLE IF NOT EXISTS crowdfund_investments (
    id             TEXT NOT NULL DEFAULT '',
    project_id     TEXT NOT NULL,
    investor       TEXT NOT NULL,
    amount         INTEGER NOT NULL DEFAULT 0,
    currency       TEXT NOT NULL DEFAULT '',
    tokens         INTEGER NOT NULL DEFAULT 0,
    claimed_refund INTEGER NOT NULL DEFAULT 0,
    created_at     TEXT NOT NULL DEFAULT '',
    updated_at     TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (project_id, investor)
)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_investments_project ON crowdfund_investments (project_id)`,

	`CREATE TABLE IF NOT EXISTS crowdfund_schedules (
    id             TEXT NOT NULL DEFAULT '',
    project_id     TEXT NOT NULL,
    beneficiary    TEXT NOT NULL,
    total_amount   INTEGER NOT NULL DEFAULT 0,
    claimed_amount INTEGER NOT NULL DEFAULT 0,
    cliff_time     TEXT NOT NULL DEFAULT '',
    duration       INTEGER NOT NULL DEFAULT 0,
    is_active      INTEGER NOT NULL DEFAULT 1,
    revoked_at     TEXT,
    created_at     TEXT NOT NULL DEFAULT '',
    updated_at     TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (project_id, beneficiary)
)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_schedules_project ON crowdfund_schedules (project_id)`,

	`CREATE TABLE IF NOT EXISTS crowdfund_entries (
    project_id    TEXT PRIMARY KEY,
    creator       TEXT NOT NULL DEFAULT '',
    name          TEXT NOT NULL DEFAULT '',
    symbol        TEXT NOT NULL DEFAULT '',
    target_amount INTEGER NOT NULL DEFAULT 0,
    currency      TEXT NOT NULL DEFAULT '',
    duration      INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'active',
    is_verified   INTEGER NOT NULL DEFAULT 0,
    verified_at   TEXT,
    created_at    TEXT NOT NULL DEFAULT '',
    updated_at    TEXT NOT NULL DEFAULT ''
)`,
	`CREATE INDEX IF NOT EXISTS idx_crowdfund_entries_creator ON crowdfund_entries (creator)`,

	`CREATE TABLE IF NOT EXISTS crowdfund_stats (
    id                   INTEGER PRIMARY KEY CHECK (id = 1),
    projects_created     INTEGER NOT NULL DEFAULT 0,
    projects_successful  INTEGER NOT NULL DEFAULT 0,
    total_funds_raised   INTEGER NOT NULL DEFAULT 0,
    total_fees_collected INTEGER NOT NULL DEFAULT 0,
    fee_balance          INTEGER NOT NULL DEFAULT 0,
    currency             TEXT NOT NULL DEFAULT ''
)`,
	`INSERT OR IGNORE INTO crowdfund_stats (id) VALUES (1)`,
}
