package mongo

import (
	"time"

	"github.com/xraph/crowdfund/campaign"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/registry"
	"github.com/xraph/crowdfund/types"
	"github.com/xraph/crowdfund/vesting"
)

// ==================== Campaign models ====================

type campaignModel struct {
	ID          string `bson:"_id"`
	Creator     string `bson:"creator"`
	Name        string `bson:"name"`
	Symbol      string `bson:"symbol"`
	Description string `bson:"description"`

	TotalSupply int64  `bson:"total_supply"`
	TokenPrice  int64  `bson:"token_price"`
	Target      int64  `bson:"target_amount"`
	Currency    string `bson:"currency"`

	StartTime time.Time `bson:"start_time"`
	EndTime   time.Time `bson:"end_time"`

	Status          string `bson:"status"`
	TotalRaised     int64  `bson:"total_raised"`
	TotalTokensSold int64  `bson:"total_tokens_sold"`
	InvestorCount   int64  `bson:"investor_count"`
	FundsWithdrawn  bool   `bson:"funds_withdrawn"`

	VestingCliff       int64 `bson:"vesting_cliff"`    // nanoseconds
	VestingDuration    int64 `bson:"vesting_duration"` // nanoseconds
	VestingInitialized bool  `bson:"vesting_initialized"`

	FinalizedAt *time.Time `bson:"finalized_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func toCampaignModel(c *campaign.Campaign) *campaignModel {
	return &campaignModel{
		ID:                 c.ID.String(),
		Creator:            c.Creator,
		Name:               c.Name,
		Symbol:             c.Symbol,
		Description:        c.Description,
		TotalSupply:        c.TotalSupply,
		TokenPrice:         c.TokenPrice.Amount,
		Target:             c.TargetAmount.Amount,
		Currency:           c.TargetAmount.Currency,
		StartTime:          c.StartTime,
		EndTime:            c.EndTime,
		Status:             string(c.Status),
		TotalRaised:        c.TotalRaised.Amount,
		TotalTokensSold:    c.TotalTokensSold,
		InvestorCount:      c.InvestorCount,
		FundsWithdrawn:     c.FundsWithdrawn,
		VestingCliff:       int64(c.VestingCliff),
		VestingDuration:    int64(c.VestingDuration),
		VestingInitialized: c.VestingInitialized,
		FinalizedAt:        c.FinalizedAt,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func fromCampaignModel(m *campaignModel) (*campaign.Campaign, error) {
	pid, err := id.ParseProjectID(m.ID)
	if err != nil {
		return nil, err
	}
	return &campaign.Campaign{
		Entity:             types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                 pid,
		Creator:            m.Creator,
		Name:               m.Name,
		Symbol:             m.Symbol,
		Description:        m.Description,
		TotalSupply:        m.TotalSupply,
		TokenPrice:         types.NewMoney(m.TokenPrice, m.Currency),
		TargetAmount:       types.NewMoney(m.Target, m.Currency),
		StartTime:          m.StartTime,
		EndTime:            m.EndTime,
		Status:             campaign.Status(m.Status),
		TotalRaised:        types.NewMoney(m.TotalRaised, m.Currency),
		TotalTokensSold:    m.TotalTokensSold,
		InvestorCount:      m.InvestorCount,
		FundsWithdrawn:     m.FundsWithdrawn,
		VestingCliff:       time.Duration(m.VestingCliff),
		VestingDuration:    time.Duration(m.VestingDuration),
		VestingInitialized: m.VestingInitialized,
		FinalizedAt:        m.FinalizedAt,
	}, nil
}

// ==================== Investment models ====================

// investmentModel is keyed by project_id:investor so contributions
// upsert in place. The invt_ TypeID in the id field is K-sortable, so
// sorting on it reproduces insertion order.
type investmentModel struct {
	Key           string    `bson:"_id"`
	InvestmentID  string    `bson:"id"`
	ProjectID     string    `bson:"project_id"`
	Investor      string    `bson:"investor"`
	Amount        int64     `bson:"amount"`
	Currency      string    `bson:"currency"`
	Tokens        int64     `bson:"tokens"`
	ClaimedRefund bool      `bson:"claimed_refund"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func investmentKey(projectID, investor string) string {
	return projectID + ":" + investor
}

func toInvestmentModel(inv *campaign.Investment) *investmentModel {
	return &investmentModel{
		Key:           investmentKey(inv.ProjectID.String(), inv.Investor),
		InvestmentID:  inv.ID.String(),
		ProjectID:     inv.ProjectID.String(),
		Investor:      inv.Investor,
		Amount:        inv.AmountContributed.Amount,
		Currency:      inv.AmountContributed.Currency,
		Tokens:        inv.TokensPurchased,
		ClaimedRefund: inv.ClaimedRefund,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func fromInvestmentModel(m *investmentModel) (*campaign.Investment, error) {
	iid, err := id.ParseInvestmentID(m.InvestmentID)
	if err != nil {
		return nil, err
	}
	pid, err := id.ParseProjectID(m.ProjectID)
	if err != nil {
		return nil, err
	}
	return &campaign.Investment{
		Entity:            types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:                iid,
		ProjectID:         pid,
		Investor:          m.Investor,
		AmountContributed: types.NewMoney(m.Amount, m.Currency),
		TokensPurchased:   m.Tokens,
		ClaimedRefund:     m.ClaimedRefund,
	}, nil
}

// ==================== Vesting models ====================

type scheduleModel struct {
	Key           string     `bson:"_id"`
	ScheduleID    string     `bson:"id"`
	ProjectID     string     `bson:"project_id"`
	Beneficiary   string     `bson:"beneficiary"`
	TotalAmount   int64      `bson:"total_amount"`
	ClaimedAmount int64      `bson:"claimed_amount"`
	CliffTime     time.Time  `bson:"cliff_time"`
	Duration      int64      `bson:"duration"` // nanoseconds
	IsActive      bool       `bson:"is_active"`
	RevokedAt     *time.Time `bson:"revoked_at,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

func scheduleKey(projectID, beneficiary string) string {
	return projectID + ":" + beneficiary
}

func toScheduleModel(s *vesting.Schedule) *scheduleModel {
	return &scheduleModel{
		Key:           scheduleKey(s.ProjectID.String(), s.Beneficiary),
		ScheduleID:    s.ID.String(),
		ProjectID:     s.ProjectID.String(),
		Beneficiary:   s.Beneficiary,
		TotalAmount:   s.TotalAmount,
		ClaimedAmount: s.ClaimedAmount,
		CliffTime:     s.CliffTime,
		Duration:      int64(s.Duration),
		IsActive:      s.IsActive,
		RevokedAt:     s.RevokedAt,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func fromScheduleModel(m *scheduleModel) (*vesting.Schedule, error) {
	vid, err := id.ParseVestingID(m.ScheduleID)
	if err != nil {
		return nil, err
	}
	pid, err := id.ParseProjectID(m.ProjectID)
	if err != nil {
		return nil, err
	}
	return &vesting.Schedule{
		Entity:        types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:            vid,
		ProjectID:     pid,
		Beneficiary:   m.Beneficiary,
		TotalAmount:   m.TotalAmount,
		ClaimedAmount: m.ClaimedAmount,
		CliffTime:     m.CliffTime,
		Duration:      time.Duration(m.Duration),
		IsActive:      m.IsActive,
		RevokedAt:     m.RevokedAt,
	}, nil
}

// ==================== Registry models ====================

type entryModel struct {
	ProjectID  string     `bson:"_id"`
	Creator    string     `bson:"creator"`
	Name       string     `bson:"name"`
	Symbol     string     `bson:"symbol"`
	Target     int64      `bson:"target_amount"`
	Currency   string     `bson:"currency"`
	Duration   int64      `bson:"duration"` // nanoseconds
	Status     string     `bson:"status"`
	IsVerified bool       `bson:"is_verified"`
	VerifiedAt *time.Time `bson:"verified_at,omitempty"`
	CreatedAt  time.Time  `bson:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at"`
}

func toEntryModel(e *registry.Entry) *entryModel {
	return &entryModel{
		ProjectID:  e.ProjectID.String(),
		Creator:    e.Creator,
		Name:       e.Name,
		Symbol:     e.Symbol,
		Target:     e.TargetAmount.Amount,
		Currency:   e.TargetAmount.Currency,
		Duration:   int64(e.Duration),
		Status:     string(e.Status),
		IsVerified: e.IsVerified,
		VerifiedAt: e.VerifiedAt,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func fromEntryModel(m *entryModel) (*registry.Entry, error) {
	pid, err := id.ParseProjectID(m.ProjectID)
	if err != nil {
		return nil, err
	}
	return &registry.Entry{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ProjectID:    pid,
		Creator:      m.Creator,
		Name:         m.Name,
		Symbol:       m.Symbol,
		TargetAmount: types.NewMoney(m.Target, m.Currency),
		Duration:     time.Duration(m.Duration),
		Status:       campaign.Status(m.Status),
		IsVerified:   m.IsVerified,
		VerifiedAt:   m.VerifiedAt,
	}, nil
}

// ==================== Stats model ====================

type statsModel struct {
	ID                 string `bson:"_id"`
	ProjectsCreated    int64  `bson:"projects_created"`
	ProjectsSuccessful int64  `bson:"projects_successful"`
	TotalFundsRaised   int64  `bson:"total_funds_raised"`
	TotalFeesCollected int64  `bson:"total_fees_collected"`
	FeeBalance         int64  `bson:"fee_balance"`
	Currency           string `bson:"currency"`
}

func fromStatsModel(m *statsModel) registry.Stats {
	return registry.Stats{
		ProjectsCreated:    m.ProjectsCreated,
		ProjectsSuccessful: m.ProjectsSuccessful,
		TotalFundsRaised:   m.TotalFundsRaised,
		TotalFeesCollected: m.TotalFeesCollected,
		FeeBalance:         m.FeeBalance,
		Currency:           m.Currency,
	}
}
