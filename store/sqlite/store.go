// Package sqlite implements store.Store on SQLite via the modernc
// driver (pure Go, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

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

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) a SQLite database at path with WAL
// journaling. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("crowdfund/sqlite: storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("crowdfund/sqlite: open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("crowdfund/sqlite: ping db: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already-open database handle.
func New(db *sql.DB) *Store { return &Store{db: db} }

// DB returns the underlying database for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("crowdfund/sqlite: migration failed: %w", err)
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

// ==================== helpers ====================

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func fmtNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: fmtTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isNoRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// ==================== Campaign Store ====================

const campaignCols = `id, creator, name, symbol, description, total_supply, token_price,
	target_amount, currency, start_time, end_time, status, total_raised,
	total_tokens_sold, investor_count, funds_withdrawn, vesting_cliff,
	vesting_duration, vesting_initialized, finalized_at, created_at, updated_at`

func (s *Store) CreateCampaign(ctx context.Context, c *campaign.Campaign) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO crowdfund_campaigns (`+campaignCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Creator, c.Name, c.Symbol, c.Description,
		c.TotalSupply, c.TokenPrice.Amount,
		c.TargetAmount.Amount, c.TargetAmount.Currency,
		fmtTime(c.StartTime), fmtTime(c.EndTime), string(c.Status),
		c.TotalRaised.Amount, c.TotalTokensSold, c.InvestorCount,
		boolToInt(c.FundsWithdrawn), int64(c.VestingCliff), int64(c.VestingDuration),
		boolToInt(c.VestingInitialized), fmtNullTime(c.FinalizedAt),
		fmtTime(c.CreatedAt), fmtTime(c.UpdatedAt),
	)
	return err
}

func (s *Store) scanCampaign(row *sql.Row) (*campaign.Campaign, error) {
	var (
		c                              campaign.Campaign
		idStr, status                  string
		price, target, raised          int64
		currency                       string
		startStr, endStr               string
		withdrawn, vested              int
		cliffNs, durNs                 int64
		finalized                      sql.NullString
		createdStr, updatedStr         string
	)
	err := row.Scan(&idStr, &c.Creator, &c.Name, &c.Symbol, &c.Description,
		&c.TotalSupply, &price, &target, &currency, &startStr, &endStr, &status,
		&raised, &c.TotalTokensSold, &c.InvestorCount, &withdrawn,
		&cliffNs, &durNs, &vested, &finalized, &createdStr, &updatedStr)
	if err != nil {
		if isNoRows(err) {
			return nil, crowdfund.ErrProjectNotFound
		}
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
	c.FundsWithdrawn = withdrawn != 0
	c.VestingInitialized = vested != 0
	c.VestingCliff = time.Duration(cliffNs)
	c.VestingDuration = time.Duration(durNs)
	if c.StartTime, err = parseTime(startStr); err != nil {
		return nil, err
	}
	if c.EndTime, err = parseTime(endStr); err != nil {
		return nil, err
	}
	if c.FinalizedAt, err = parseNullTime(finalized); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) GetCampaign(ctx context.Context, projectID id.ProjectID) (*campaign.Campaign, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+campaignCols+` FROM crowdfund_campaigns WHERE id = ?`,
		projectID.String())
	return s.scanCampaign(row)
}

func (s *Store) UpdateCampaign(ctx context.Context, c *campaign.Campaign) error {
	res, err := s.db.ExecContext(ctx, `UPDATE crowdfund_campaigns SET
		status = ?, total_raised = ?, total_tokens_sold = ?, investor_count = ?,
		funds_withdrawn = ?, vesting_initialized = ?, finalized_at = ?, updated_at = ?
		WHERE id = ?`,
		string(c.Status), c.TotalRaised.Amount, c.TotalTokensSold, c.InvestorCount,
		boolToInt(c.FundsWithdrawn), boolToInt(c.VestingInitialized),
		fmtNullTime(c.FinalizedAt), fmtTime(c.UpdatedAt),
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

func (s *Store) PutInvestment(ctx context.Context, inv *campaign.Investment) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO crowdfund_investments
		(id, project_id, investor, amount, currency, tokens, claimed_refund, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id, investor) DO UPDATE SET
			amount = excluded.amount,
			tokens = excluded.tokens,
			claimed_refund = excluded.claimed_refund,
			updated_at = excluded.updated_at`,
		inv.ID.String(), inv.ProjectID.String(), inv.Investor,
		inv.AmountContributed.Amount, inv.AmountContributed.Currency,
		inv.TokensPurchased, boolToInt(inv.ClaimedRefund),
		fmtTime(inv.CreatedAt), fmtTime(inv.UpdatedAt),
	)
	return err
}

func scanInvestment(scan func(dest ...any) error) (*campaign.Investment, error) {
	var (
		inv                    campaign.Investment
		idStr, projectStr      string
		amount                 int64
		currency               string
		refunded               int
		createdStr, updatedStr string
	)
	err := scan(&idStr, &projectStr, &inv.Investor, &amount, &currency,
		&inv.TokensPurchased, &refunded, &createdStr, &updatedStr)
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
	inv.ClaimedRefund = refunded != 0
	if inv.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if inv.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, err
	}
	return &inv, nil
}

const investmentCols = `id, project_id, investor, amount, currency, tokens, claimed_refund, created_at, updated_at`

func (s *Store) GetInvestment(ctx context.Context, projectID id.ProjectID, investor string) (*campaign.Investment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+investmentCols+` FROM crowdfund_investments
		WHERE project_id = ? AND investor = ?`,
		projectID.String(), investor)
	inv, err := scanInvestment(row.Scan)
	if isNoRows(err) {
		return nil, crowdfund.ErrNotFound
	}
	return inv, err
}

func (s *Store) ListInvestments(ctx context.Context, projectID id.ProjectID, opts campaign.ListOpts) ([]*campaign.Investment, error) {
	q := `SELECT ` + investmentCols + ` FROM crowdfund_investments
		WHERE project_id = ? ORDER BY rowid ASC`
	args := []any{projectID.String()}
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		q += ` LIMIT -1`
	}
	if opts.Offset > 0 {
		q += ` OFFSET ?`
		args = append(args, opts.Offset)
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
		var active int
		err := tx.QueryRowContext(ctx, `SELECT is_active FROM crowdfund_schedules
			WHERE project_id = ? AND beneficiary = ?`,
			sch.ProjectID.String(), sch.Beneficiary).Scan(&active)
		switch {
		case err == nil && active != 0:
			return crowdfund.ErrDuplicateSchedule
		case err != nil && !isNoRows(err):
			return err
		}

		_, err = tx.ExecContext(ctx, `INSERT INTO crowdfund_schedules (`+scheduleCols+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (project_id, beneficiary) DO UPDATE SET
				id = excluded.id,
				total_amount = excluded.total_amount,
				claimed_amount = excluded.claimed_amount,
				cliff_time = excluded.cliff_time,
				duration = excluded.duration,
				is_active = excluded.is_active,
				revoked_at = excluded.revoked_at,
				updated_at = excluded.updated_at`,
			sch.ID.String(), sch.ProjectID.String(), sch.Beneficiary,
			sch.TotalAmount, sch.ClaimedAmount, fmtTime(sch.CliffTime),
			int64(sch.Duration), boolToInt(sch.IsActive), fmtNullTime(sch.RevokedAt),
			fmtTime(sch.CreatedAt), fmtTime(sch.UpdatedAt),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func scanSchedule(scan func(dest ...any) error) (*vesting.Schedule, error) {
	var (
		sch                    vesting.Schedule
		idStr, projectStr      string
		cliffStr               string
		durNs                  int64
		active                 int
		revoked                sql.NullString
		createdStr, updatedStr string
	)
	err := scan(&idStr, &projectStr, &sch.Beneficiary, &sch.TotalAmount,
		&sch.ClaimedAmount, &cliffStr, &durNs, &active, &revoked,
		&createdStr, &updatedStr)
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
	sch.IsActive = active != 0
	if sch.CliffTime, err = parseTime(cliffStr); err != nil {
		return nil, err
	}
	if sch.RevokedAt, err = parseNullTime(revoked); err != nil {
		return nil, err
	}
	if sch.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if sch.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, err
	}
	return &sch, nil
}

func (s *Store) GetSchedule(ctx context.Context, projectID id.ProjectID, beneficiary string) (*vesting.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleCols+` FROM crowdfund_schedules
		WHERE project_id = ? AND beneficiary = ?`,
		projectID.String(), beneficiary)
	sch, err := scanSchedule(row.Scan)
	if isNoRows(err) {
		return nil, crowdfund.ErrScheduleNotFound
	}
	return sch, err
}

func (s *Store) UpdateSchedule(ctx context.Context, sch *vesting.Schedule) error {
	res, err := s.db.ExecContext(ctx, `UPDATE crowdfund_schedules SET
		claimed_amount = ?, is_active = ?, revoked_at = ?, updated_at = ?
		WHERE project_id = ? AND beneficiary = ?`,
		sch.ClaimedAmount, boolToInt(sch.IsActive), fmtNullTime(sch.RevokedAt),
		fmtTime(sch.UpdatedAt), sch.ProjectID.String(), sch.Beneficiary,
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
		WHERE project_id = ? ORDER BY rowid ASC`
	args := []any{projectID.String()}
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		q += ` LIMIT -1`
	}
	if opts.Offset > 0 {
		q += ` OFFSET ?`
		args = append(args, opts.Offset)
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ProjectID.String(), e.Creator, e.Name, e.Symbol,
		e.TargetAmount.Amount, e.TargetAmount.Currency, int64(e.Duration),
		string(e.Status), boolToInt(e.IsVerified), fmtNullTime(e.VerifiedAt),
		fmtTime(e.CreatedAt), fmtTime(e.UpdatedAt),
	)
	return err
}

func scanEntry(scan func(dest ...any) error) (*registry.Entry, error) {
	var (
		e                      registry.Entry
		projectStr, status     string
		target                 int64
		currency               string
		durNs                  int64
		verified               int
		verifiedAt             sql.NullString
		createdStr, updatedStr string
	)
	err := scan(&projectStr, &e.Creator, &e.Name, &e.Symbol, &target, &currency,
		&durNs, &status, &verified, &verifiedAt, &createdStr, &updatedStr)
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
	e.IsVerified = verified != 0
	if e.VerifiedAt, err = parseNullTime(verifiedAt); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) GetEntry(ctx context.Context, projectID id.ProjectID) (*registry.Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryCols+` FROM crowdfund_entries WHERE project_id = ?`,
		projectID.String())
	e, err := scanEntry(row.Scan)
	if isNoRows(err) {
		return nil, crowdfund.ErrProjectNotFound
	}
	return e, err
}

func (s *Store) UpdateEntry(ctx context.Context, e *registry.Entry) error {
	res, err := s.db.ExecContext(ctx, `UPDATE crowdfund_entries SET
		status = ?, is_verified = ?, verified_at = ?, updated_at = ?
		WHERE project_id = ?`,
		string(e.Status), boolToInt(e.IsVerified), fmtNullTime(e.VerifiedAt),
		fmtTime(e.UpdatedAt), e.ProjectID.String(),
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
	q := `SELECT ` + entryCols + ` FROM crowdfund_entries` + where + ` ORDER BY rowid ASC`
	args := whereArgs
	if opts.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		q += ` LIMIT -1`
	}
	if opts.Offset > 0 {
		q += ` OFFSET ?`
		args = append(args, opts.Offset)
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
	return s.listEntries(ctx, ` WHERE creator = ?`, opts, creator)
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
		projects_created = projects_created + ?,
		projects_successful = projects_successful + ?,
		total_funds_raised = total_funds_raised + ?,
		total_fees_collected = total_fees_collected + ?,
		fee_balance = fee_balance + ?,
		currency = CASE WHEN ? != '' THEN ? ELSE currency END
		WHERE id = 1`,
		delta.ProjectsCreated, delta.ProjectsSuccessful, delta.TotalFundsRaised,
		delta.TotalFeesCollected, delta.FeeBalance, delta.Currency, delta.Currency,
	)
	return err
}
