// Package postgres implements store.Store on PostgreSQL via the pgx
// stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/xraph/crowdfund"
	"github.com/xraph/crowdfund/campaign"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/registry"
	crowdfundstore "github.com/xraph/crowdfund/store"
	"github.com/xraph/crowdfund/types"
	"github.com/xraph/crowdfund/vesting"
)

// compile-time interface check
var _ crowdfundstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New connects to PostgreSQL with the given DSN.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("crowdfund/postgres: open connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("crowdfund/postgres: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open database handle.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

// DB returns the underlying database for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("crowdfund/postgres: migration failed: %w", err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// ==================== Campaign Store ====================

const campaignCols = `id, creator, name, symbol, description, total_supply, token_price,
	target_amount, currency, start_time, end_time, status, total_raised,
	total_tokens_sold, investor_count, funds_withdrawn, vesting_cliff,
	vesting_duration, vesting_initialized, finalized_at, created_at, updated_at`

func (s *Store) CreateCampaign(ctx context.Context, c *campaign.Campaign) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO crowdfund_campaigns (`+campaignCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
		c.ID.String(), c.Creator, c.Name, c.Symbol, c.Description,
		c.TotalSupply, c.TokenPrice.Amount,
		c.TargetAmount.Amount, c.TargetAmount.Currency,
		c.StartTime, c.EndTime, string(c.Status),
		c.TotalRaised.Amount, c.TotalTokensSold, c.InvestorCount,
		c.FundsWithdrawn, int64(c.VestingCliff), int64(c.VestingDuration),
		c.VestingInitialized, c.FinalizedAt, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func scanCampaign(scan func(dest ...any) error) (*campaign.Campaign, error) {
	var (
		c                     campaign.Campaign
		idStr, status         string
		price, target, raised int64
		currency              string
		cliffNs, durNs        int64
		finalized             sql.NullTime
	)
	err := scan(&idStr, &c.Creator, &c.Name, &c.Symbol, &c.Description,
		&c.TotalSupply, &price, &target, &currency, &c.StartTime, &c.EndTime,
		&status, &raised, &c.TotalTokensSold, &c.InvestorCount,
		&c.FundsWithdrawn, &cliffNs, &durNs, &c.VestingInitialized,
		&finalized, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	pid, err := id.ParseProjectID(idStr)
	if err != nil {
		return nil, err
	}
	c.ID = pid
	c.TokenPrice = types.NewMoney(price, currency)
	c.TargetAmount = types.NewMoney(target, currency)
	c.TotalRaised = types.NewMoney(raised, currency)
	c.Status = campaign.Status(status)
	c.VestingCliff = time.Duration(cliffNs)
	c.VestingDuration = time.Duration(durNs)
	if finalized.Valid {
		t := finalized.Time
		c.FinalizedAt = &t
	}
	return &c, nil
}

func (s *Store) GetCampaign(ctx context.Context, projectID id.ProjectID) (*campaign.Campaign, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+campaignCols+` FROM crowdfund_campaigns WHERE id = $1`,
		projectID.String())
	c, err := scanCampaign(row.Scan)
	if isNoRows(err) {
		return nil, crowdfund.ErrProjectNotFound
	}
	return c, err
}

func (s *Store) UpdateCampaign(ctx context.Context, c *campaign.Campaign) error {
	res, err := s.db.ExecContext(ctx, `UPDATE crowdfund_campaigns SET
		status = $1, total_raised = $2, total_tokens_sold = $3, investor_count = $4,
		funds_withdrawn = $5, vesting_initialized = $6, finalized_at = $7, updated_at = $8
		WHERE id = $9`,
		string(c.Status), c.TotalRaised.Amount, c.TotalTokensSold, c.InvestorCount,
		c.FundsWithdrawn, c.VestingInitialized, c.FinalizedAt, c.UpdatedAt,
		c.ID.String(),
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return crowdfund.ErrProjectNotFound
	}
	return nil
}

// ==================== Investment Store ====================

const investmentCols = `id, project_id, investor, amount, currency, tokens, claimed_refund, created_at, updated_at`

func (s *Store) PutInvestment(ctx context.Context, inv *campaign.Investment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO crowdfund_investments (`+investmentCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (project_id, investor) DO UPDATE SET
			amount = EXCLUDED.amount,
			tokens = EXCLUDED.tokens,
			claimed_refund = EXCLUDED.claimed_refund,
			updated_at = EXCLUDED.updated_at`,
		inv.ID.String(), inv.ProjectID.String(), inv.Investor,
		inv.AmountContributed.Amount, inv.AmountContributed.Currency,
		inv.TokensPurchased, inv.ClaimedRefund, inv.CreatedAt, inv.UpdatedAt,
	)
	return err
}

func scanInvestment(scan func(dest ...any) error) (*campaign.Investment, error) {
	var (
		inv               campaign.Investment
		idStr, projectStr string
		amount            int64
		currency          string
	)
	err := scan(&idStr, &projectStr, &inv.Investor, &amount, &currency,
		&inv.TokensPurchased, &inv.ClaimedRefund, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}

	iid, err := id.ParseInvestmentID(idStr)
	if err != nil {
		return nil, err
	}
	pid, err := id.ParseProjectID(projectStr)
	if err != nil {
		return nil, err
	}
	inv.ID = iid
	inv.ProjectID = pid
	inv.AmountContributed = types.NewMoney(amount, currency)
	return &inv, nil
}

func (s *Store) GetInvestment(ctx context.Context, projectID id.ProjectID, investor string) (*campaign.Investment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+investmentCols+` FROM crowdfund_investments
		WHERE project_id = $1 AND investor = $2`,
		projectID.String(), investor)
	inv, err := scanInvestment(row.Scan)
	if isNoRows(err) {
		return nil, crowdfund.ErrNotFound
	}
	return inv, err
}

func (s *Store) ListInvestments(ctx context.Context, projectID id.ProjectID, opts campaign.ListOpts) ([]*campaign.Investment, error) {
	q := `SELECT ` + investmentCols + ` FROM crowdfund_investments
		WHERE project_id = $1 ORDER BY seq ASC`
	args := []any{projectID.String()}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*campaign.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

// ==================== Vesting Store ====================

const scheduleCols = `id, project_id, beneficiary, total_amount, claimed_amount, cliff_time, duration, is_active, revoked_at, created_at, updated_at`

func (s *Store) CreateSchedules(ctx context.Context, schedules []*vesting.Schedule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, sch := range schedules {
		var active bool
		err := tx.QueryRowContext(ctx, `SELECT is_active FROM crowdfund_schedules
			WHERE project_id = $1 AND beneficiary = $2 FOR UPDATE`,
			sch.ProjectID.String(), sch.Beneficiary).Scan(&active)
		switch {
		case err == nil && active:
			return crowdfund.ErrDuplicateSchedule
		case err != nil && !isNoRows(err):
			return err
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO crowdfund_schedules (`+scheduleCols+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (project_id, beneficiary) DO UPDATE SET
				id = EXCLUDED.id,
				total_amount = EXCLUDED.total_amount,
				claimed_amount = EXCLUDED.claimed_amount,
				cliff_time = EXCLUDED.cliff_time,
				duration = EXCLUDED.duration,
				is_active = EXCLUDED.is_active,
				revoked_at = EXCLUDED.revoked_at,
				updated_at = EXCLUDED.updated_at`,
			sch.ID.String(), sch.ProjectID.String(), sch.Beneficiary,
			sch.TotalAmount, sch.ClaimedAmount, sch.CliffTime,
			int64(sch.Duration), sch.IsActive, sch.RevokedAt,
			sch.CreatedAt, sch.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func scanSchedule(scan func(dest ...any) error) (*vesting.Schedule, error) {
	var (
		sch               vesting.Schedule
		idStr, projectStr string
		durNs             int64
		revoked           sql.NullTime
	)
	err := scan(&idStr, &projectStr, &sch.Beneficiary, &sch.TotalAmount,
		&sch.ClaimedAmount, &sch.CliffTime, &durNs, &sch.IsActive, &revoked,
		&sch.CreatedAt, &sch.UpdatedAt)
	if err != nil {
		return nil, err
	}

	vid, err := id.ParseVestingID(idStr)
	if err != nil {
		return nil, err
	}
	pid, err := id.ParseProjectID(projectStr)
	if err != nil {
		return nil, err
	}
	sch.ID = vid
	sch.ProjectID = pid
	sch.Duration = time.Duration(durNs)
	if revoked.Valid {
		t := revoked.Time
		sch.RevokedAt = &t
	}
	return &sch, nil
}

func (s *Store) GetSchedule(ctx context.Context, projectID id.ProjectID, beneficiary string) (*vesting.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleCols+` FROM crowdfund_schedules
		WHERE project_id = $1 AND beneficiary = $2`,
		projectID.String(), beneficiary)
	sch, err := scanSchedule(row.Scan)
	if isNoRows(err) {
		return nil, crowdfund.ErrScheduleNotFound
	}
	return sch, err
}

func (s *Store) UpdateSchedule(ctx context.Context, sch *vesting.Schedule) error {
	res, err := s.db.ExecContext(ctx, `UPDATE crowdfund_schedules SET
		claimed_amount = $1, is_active = $2, revoked_at = $3, updated_at = $4
		WHERE project_id = $5 AND beneficiary = $6`,
		sch.ClaimedAmount, sch.IsActive, sch.RevokedAt, sch.UpdatedAt,
		sch.ProjectID.String(), sch.Beneficiary,
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return crowdfund.ErrScheduleNotFound
	}
	return nil
}

func (s *Store) ListSchedules(ctx context.Context, projectID id.ProjectID, opts vesting.ListOpts) ([]*vesting.Schedule, error) {
	q := `SELECT ` + scheduleCols + ` FROM crowdfund_schedules
		WHERE project_id = $1 ORDER BY seq ASC`
	args := []any{projectID.String()}
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*vesting.Schedule
	for rows.Next() {
		sch, err := scanSchedule(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, sch)
	}
	return result, rows.Err()
}

// ==================== Registry Store ====================

const entryCols = `project_id, creator, name, symbol, target_amount, currency, duration, status, is_verified, verified_at, created_at, updated_at`

func (s *Store) CreateEntry(ctx context.Context, e *registry.Entry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO crowdfund_entries (`+entryCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ProjectID.String(), e.Creator, e.Name, e.Symbol,
		e.TargetAmount.Amount, e.TargetAmount.Currency, int64(e.Duration),
		string(e.Status), e.IsVerified, e.VerifiedAt, e.CreatedAt, e.UpdatedAt,
	)
	return err
}

func scanEntry(scan func(dest ...any) error) (*registry.Entry, error) {
	var (
		e                  registry.Entry
		projectStr, status string
		target             int64
		currency           string
		durNs              int64
		verifiedAt         sql.NullTime
	)
	err := scan(&projectStr, &e.Creator, &e.Name, &e.Symbol, &target, &currency,
		&durNs, &status, &e.IsVerified, &verifiedAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	pid, err := id.ParseProjectID(projectStr)
	if err != nil {
		return nil, err
	}
	e.ProjectID = pid
	e.TargetAmount = types.NewMoney(target, currency)
	e.Duration = time.Duration(durNs)
	e.Status = campaign.Status(status)
	if verifiedAt.Valid {
		t := verifiedAt.Time
		e.VerifiedAt = &t
	}
	return &e, nil
}

func (s *Store) GetEntry(ctx context.Context, projectID id.ProjectID) (*registry.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryCols+` FROM crowdfund_entries WHERE project_id = $1`,
		projectID.String())
	e, err := scanEntry(row.Scan)
	if isNoRows(err) {
		return nil, crowdfund.ErrProjectNotFound
	}
	return e, err
}

func (s *Store) UpdateEntry(ctx context.Context, e *registry.Entry) error {
	res, err := s.db.ExecContext(ctx, `UPDATE crowdfund_entries SET
		status = $1, is_verified = $2, verified_at = $3, updated_at = $4
		WHERE project_id = $5`,
		string(e.Status), e.IsVerified, e.VerifiedAt, e.UpdatedAt,
		e.ProjectID.String(),
	)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return crowdfund.ErrProjectNotFound
	}
	return nil
}

func (s *Store) listEntries(ctx context.Context, where string, opts registry.ListOpts, whereArgs ...any) ([]*registry.Entry, error) {
	q := `SELECT ` + entryCols + ` FROM crowdfund_entries` + where + ` ORDER BY seq ASC`
	args := whereArgs
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		q += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*registry.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) ListEntries(ctx context.Context, opts registry.ListOpts) ([]*registry.Entry, error) {
	return s.listEntries(ctx, ``, opts)
}

func (s *Store) ListEntriesByCreator(ctx context.Context, creator string, opts registry.ListOpts) ([]*registry.Entry, error) {
	return s.listEntries(ctx, ` WHERE creator = $1`, opts, creator)
}

func (s *Store) CountEntries(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crowdfund_entries`).Scan(&count)
	return count, err
}

func (s *Store) GetStats(ctx context.Context) (registry.Stats, error) {
	var st registry.Stats
	err := s.db.QueryRowContext(ctx, `SELECT projects_created, projects_successful,
		total_funds_raised, total_fees_collected, fee_balance, currency
		FROM crowdfund_stats WHERE id = 1`).Scan(
		&st.ProjectsCreated, &st.ProjectsSuccessful, &st.TotalFundsRaised,
		&st.TotalFeesCollected, &st.FeeBalance, &st.Currency)
	if isNoRows(err) {
		return registry.Stats{}, nil
	}
	return st, err
}

func (s *Store) AddStats(ctx context.Context, delta registry.Stats) error {
	_, err := s.db.ExecContext(ctx, `UPDATE crowdfund_stats SET
		projects_created = projects_created + $1,
		projects_successful = projects_successful + $2,
		total_funds_raised = total_funds_raised + $3,
		total_fees_collected = total_fees_collected + $4,
		fee_balance = fee_balance + $5,
		currency = CASE WHEN $6 != '' THEN $6 ELSE currency END
		WHERE id = 1`,
		delta.ProjectsCreated, delta.ProjectsSuccessful, delta.TotalFundsRaised,
		delta.TotalFeesCollected, delta.FeeBalance, delta.Currency,
	)
	return err
}
