package crowdfund

import (
	"context"
	"time"

	"github.com/xraph/crowdfund/campaign"
	"github.com/xraph/crowdfund/fees"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/registry"
	"github.com/xraph/crowdfund/types"
	"github.com/xraph/crowdfund/vesting"
)

// CreateProjectParams describes a new campaign registration.
type CreateProjectParams struct {
	Creator     string
	Name        string
	Symbol      string
	Description string

	TotalSupply int64       // whole tokens
	TokenPrice  types.Money // per whole token

	TargetAmount types.Money
	Duration     time.Duration

	VestingCliff    time.Duration
	VestingDuration time.Duration

	// FeePaid is the creation fee tendered. Anything beyond the required
	// fee is returned to the creator, exactly.
	FeePaid types.Money
}

// CreateProjectResult is the outcome of a successful registration.
type CreateProjectResult struct {
	Campaign *campaign.Campaign
	// Excess is the overpaid portion of the creation fee, already
	// returned to the creator. Zero when the fee was exact.
	Excess types.Money
}

// CreateProject validates params, charges the creation fee, and
// registers a new campaign with its registry entry. The campaign starts
// Active immediately; its deadline is now + params.Duration.
func (e *Engine) CreateProject(ctx context.Context, params CreateProjectParams) (*CreateProjectResult, error) {
	if params.Creator == "" {
		return nil, ErrInvalidInput
	}
	if params.Name == "" || params.Symbol == "" {
		return nil, ErrInvalidName
	}
	if params.TotalSupply <= 0 {
		return nil, ErrInvalidSupply
	}
	if !params.TokenPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if !params.TargetAmount.IsPositive() {
		return nil, ErrInvalidTarget
	}
	if params.Duration < e.minProjectDuration {
		return nil, ErrDurationTooShort
	}
	if params.VestingDuration <= 0 {
		return nil, ValidationError{Field: "vesting_duration", Message: "must be positive"}
	}
	if params.VestingCliff < 0 {
		return nil, ValidationError{Field: "vesting_cliff", Message: "must not be negative"}
	}
	if params.TargetAmount.Currency != params.TokenPrice.Currency {
		return nil, ValidationError{Field: "token_price", Message: "currency differs from target"}
	}
	if params.TargetAmount.Currency != e.currency {
		return nil, ValidationError{Field: "target_amount", Message: "currency differs from platform"}
	}

	_, creationFee, _ := e.feePolicy()
	if params.FeePaid.Currency != creationFee.Currency {
		return nil, ValidationError{Field: "fee_paid", Message: "currency differs from creation fee"}
	}
	excess, err := fees.ValidateCreationFee(params.FeePaid, creationFee)
	if err != nil {
		return nil, err
	}

	now := e.now()
	c := &campaign.Campaign{
		Entity:          types.NewEntity(),
		ID:              id.NewProjectID(),
		Creator:         params.Creator,
		Name:            params.Name,
		Symbol:          params.Symbol,
		Description:     params.Description,
		TotalSupply:     params.TotalSupply,
		TokenPrice:      params.TokenPrice,
		TargetAmount:    params.TargetAmount,
		StartTime:       now,
		EndTime:         now.Add(params.Duration),
		Status:          campaign.StatusActive,
		TotalRaised:     types.Zero(params.TargetAmount.Currency),
		VestingCliff:    params.VestingCliff,
		VestingDuration: params.VestingDuration,
	}

	if err := e.store.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}

	entry := &registry.Entry{
		Entity:       types.NewEntity(),
		ProjectID:    c.ID,
		Creator:      c.Creator,
		Name:         c.Name,
		Symbol:       c.Symbol,
		TargetAmount: c.TargetAmount,
		Duration:     params.Duration,
		Status:       c.Status,
	}
	if err := e.store.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	// The creation fee accrues in the platform balance; only the required
	// portion counts, the excess goes straight back.
	if err := e.store.AddStats(ctx, registry.Stats{
		ProjectsCreated:    1,
		TotalFeesCollected: creationFee.Amount,
		FeeBalance:         creationFee.Amount,
		Currency:           e.currency,
	}); err != nil {
		return nil, err
	}

	if excess.IsPositive() {
		if err := e.treasury.TransferFunds(ctx, params.Creator, excess); err != nil {
			e.logger.Error("creation fee excess refund failed",
				"project_id", c.ID.String(),
				"creator", params.Creator,
				"excess", excess.String(),
				"error", err,
			)
			return nil, err
		}
	}

	e.logger.Info("project created",
		"project_id", c.ID.String(),
		"creator", c.Creator,
		"target", c.TargetAmount.String(),
		"deadline", c.EndTime,
	)

	e.plugins.EmitProjectCreated(ctx, c)
	return &CreateProjectResult{Campaign: c, Excess: excess}, nil
}

// InvestResult is the outcome of an accepted contribution.
type InvestResult struct {
	Investment     *campaign.Investment
	TokensCredited int64 // base units credited by this contribution
	// Finalized is true when this contribution filled the target exactly
	// and the campaign finalized Successful in the same operation.
	Finalized bool
}

// Invest records a contribution to an active campaign. A contribution
// that would push the raised total past the target is rejected outright;
// one that fills it exactly finalizes the campaign atomically.
func (e *Engine) Invest(ctx context.Context, projectID id.ProjectID, investor string, amount types.Money) (*InvestResult, error) {
	if investor == "" {
		return nil, ErrInvalidInput
	}

	unlock := e.lockProject(projectID)
	defer unlock()

	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	if c.IsTerminal() {
		return nil, ErrProjectNotActive
	}
	if c.Ended(now) {
		return nil, ErrProjectEnded
	}
	if amount.Currency != c.TargetAmount.Currency {
		return nil, ValidationError{Field: "amount", Message: "currency differs from target"}
	}
	if amount.LessThan(e.minInvestment) {
		return nil, ErrInvestmentOutOfRange
	}
	if e.maxInvestment.IsPositive() && amount.GreaterThan(e.maxInvestment) {
		return nil, ErrInvestmentOutOfRange
	}
	if c.TargetAmount.LessThan(c.TotalRaised.Add(amount)) {
		return nil, ErrTargetExceeded
	}

	tokens := campaign.TokensFor(amount, c.TokenPrice)

	inv, err := e.store.GetInvestment(ctx, projectID, investor)
	if IsNotFound(err) {
		inv = &campaign.Investment{
			Entity:            types.NewEntity(),
			ID:                id.NewInvestmentID(),
			ProjectID:         projectID,
			Investor:          investor,
			AmountContributed: types.Zero(amount.Currency),
		}
		c.InvestorCount++
	} else if err != nil {
		return nil, err
	}

	prevAmount := inv.AmountContributed
	prevTokens := inv.TokensPurchased

	inv.AmountContributed = inv.AmountContributed.Add(amount)
	inv.TokensPurchased += tokens
	inv.Touch()

	c.TotalRaised = c.TotalRaised.Add(amount)
	c.TotalTokensSold += tokens
	c.Touch()

	// The investment must be persisted first: finalization builds the
	// schedule batch from the stored investment list.
	if err := e.store.PutInvestment(ctx, inv); err != nil {
		return nil, err
	}

	result := &InvestResult{Investment: inv, TokensCredited: tokens}

	persist := func() error {
		if c.TargetReached() {
			// Exact fill: finalize Successful in the same operation, under
			// the same lock. No window where the campaign sits full but Active.
			result.Finalized = true
			return e.finalizeLocked(ctx, c, campaign.StatusSuccessful, now)
		}
		return e.store.UpdateCampaign(ctx, c)
	}
	if err := persist(); err != nil {
		// The campaign totals were never persisted; roll the investment
		// back so contributions and the raised total do not diverge.
		inv.AmountContributed = prevAmount
		inv.TokensPurchased = prevTokens
		inv.Touch()
		if rbErr := e.store.PutInvestment(ctx, inv); rbErr != nil {
			e.logger.Error("investment rollback failed",
				"project_id", projectID.String(),
				"investor", investor,
				"error", rbErr,
			)
		}
		return nil, err
	}

	e.logger.Info("investment accepted",
		"project_id", projectID.String(),
		"investor", investor,
		"amount", amount.String(),
		"tokens", tokens,
		"total_raised", c.TotalRaised.String(),
	)

	e.plugins.EmitInvestmentMade(ctx, inv)
	return result, nil
}

// FinalizeResult is the outcome of finalization.
type FinalizeResult struct {
	Status      campaign.Status
	TotalRaised types.Money
}

// FinalizeProject settles a campaign's funding outcome. Callable by
// anyone: before the deadline only a filled target finalizes (otherwise
// StillActive); at or after the deadline, the success threshold decides
// between Successful and Failed.
func (e *Engine) FinalizeProject(ctx context.Context, projectID id.ProjectID) (*FinalizeResult, error) {
	unlock := e.lockProject(projectID)
	defer unlock()

	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if c.IsTerminal() {
		return nil, ErrAlreadyFinalized
	}

	now := e.now()
	var outcome campaign.Status
	switch {
	case c.TargetReached():
		outcome = campaign.StatusSuccessful
	case !c.Ended(now):
		return nil, ErrStillActive
	case c.ThresholdReached():
		outcome = campaign.StatusSuccessful
	default:
		outcome = campaign.StatusFailed
	}

	if err := e.finalizeLocked(ctx, c, outcome, now); err != nil {
		return nil, err
	}

	return &FinalizeResult{Status: c.Status, TotalRaised: c.TotalRaised}, nil
}

// finalizeLocked applies a terminal funding outcome. Caller holds the
// project lock and has verified the transition is legal.
func (e *Engine) finalizeLocked(ctx context.Context, c *campaign.Campaign, outcome campaign.Status, now time.Time) error {
	c.Status = outcome
	c.FinalizedAt = &now
	c.Touch()

	if outcome == campaign.StatusSuccessful {
		if err := e.initVestingLocked(ctx, c, now); err != nil {
			return err
		}
	}

	if err := e.store.UpdateCampaign(ctx, c); err != nil {
		return err
	}
	if err := e.syncEntryStatus(ctx, c); err != nil {
		return err
	}

	if outcome == campaign.StatusSuccessful {
		if err := e.store.AddStats(ctx, registry.Stats{ProjectsSuccessful: 1}); err != nil {
			return err
		}
	}

	e.logger.Info("project finalized",
		"project_id", c.ID.String(),
		"status", string(c.Status),
		"total_raised", c.TotalRaised.String(),
		"investors", c.InvestorCount,
	)

	e.plugins.EmitProjectFinalized(ctx, c, outcome == campaign.StatusSuccessful)
	return nil
}

// initVestingLocked builds the schedule batch for a successful campaign:
// one schedule per investor, cliff anchored at finalization time.
func (e *Engine) initVestingLocked(ctx context.Context, c *campaign.Campaign, now time.Time) error {
	investments, err := e.store.ListInvestments(ctx, c.ID, campaign.ListOpts{})
	if err != nil {
		return err
	}

	schedules := make([]*vesting.Schedule, 0, len(investments))
	for _, inv := range investments {
		if inv.TokensPurchased == 0 {
			continue
		}
		schedules = append(schedules, &vesting.Schedule{
			Entity:      types.NewEntity(),
			ID:          id.NewVestingID(),
			ProjectID:   c.ID,
			Beneficiary: inv.Investor,
			TotalAmount: inv.TokensPurchased,
			CliffTime:   now.Add(c.VestingCliff),
			Duration:    c.VestingDuration,
			IsActive:    true,
		})
	}

	if len(schedules) > 0 {
		if err := e.store.CreateSchedules(ctx, schedules); err != nil {
			return err
		}
	}
	c.VestingInitialized = true

	e.plugins.EmitVestingInitialized(ctx, c.ID.String(), len(schedules))
	return nil
}

// syncEntryStatus mirrors the campaign status onto its registry entry.
func (e *Engine) syncEntryStatus(ctx context.Context, c *campaign.Campaign) error {
	entry, err := e.store.GetEntry(ctx, c.ID)
	if err != nil {
		return err
	}
	entry.Status = c.Status
	entry.Touch()
	return e.store.UpdateEntry(ctx, entry)
}

// WithdrawResult is the outcome of a creator payout.
type WithdrawResult struct {
	AmountToCreator types.Money
	FeeToRecipient  types.Money
}

// WithdrawFunds pays a successful campaign's proceeds to its creator,
// minus the platform fee, which goes to the fee recipient. The
// withdrawn flag is flipped and persisted before any transfer is
// attempted, so a second call is rejected rather than paid twice.
func (e *Engine) WithdrawFunds(ctx context.Context, projectID id.ProjectID, actor string) (*WithdrawResult, error) {
	unlock := e.lockProject(projectID)
	defer unlock()

	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if actor != c.Creator {
		return nil, ErrUnauthorized
	}
	if c.Status != campaign.StatusSuccessful {
		return nil, ErrNotSuccessful
	}
	if c.FundsWithdrawn {
		return nil, ErrFundsAlreadyWithdrawn
	}

	feeBps, _, feeRecipient := e.feePolicy()
	fee := fees.PlatformFee(c.TotalRaised, feeBps)
	net := fees.NetAmount(c.TotalRaised, feeBps)

	// Flag before transfer.
	c.FundsWithdrawn = true
	c.Touch()
	if err := e.store.UpdateCampaign(ctx, c); err != nil {
		return nil, err
	}

	if err := e.store.AddStats(ctx, registry.Stats{
		TotalFundsRaised:   c.TotalRaised.Amount,
		TotalFeesCollected: fee.Amount,
		Currency:           e.currency,
	}); err != nil {
		return nil, err
	}

	if err := e.treasury.TransferFunds(ctx, c.Creator, net); err != nil {
		e.logger.Error("creator payout transfer failed",
			"project_id", projectID.String(),
			"creator", c.Creator,
			"amount", net.String(),
			"error", err,
		)
		return nil, err
	}
	if fee.IsPositive() && feeRecipient != "" {
		if err := e.treasury.TransferFunds(ctx, feeRecipient, fee); err != nil {
			e.logger.Error("platform fee transfer failed",
				"project_id", projectID.String(),
				"recipient", feeRecipient,
				"amount", fee.String(),
				"error", err,
			)
			return nil, err
		}
	}

	e.logger.Info("funds withdrawn",
		"project_id", projectID.String(),
		"creator", c.Creator,
		"net", net.String(),
		"fee", fee.String(),
	)

	e.plugins.EmitFundsWithdrawn(ctx, projectID.String(), net, fee)
	return &WithdrawResult{AmountToCreator: net, FeeToRecipient: fee}, nil
}

// ClaimRefund returns an investor's full contribution after a campaign
// failed or was cancelled. Flag-then-transfer: the claimed flag is
// persisted before the money moves, so the refund pays at most once.
func (e *Engine) ClaimRefund(ctx context.Context, projectID id.ProjectID, investor string) (types.Money, error) {
	unlock := e.lockProject(projectID)
	defer unlock()

	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return types.Money{}, err
	}

	if !c.RefundEligible() {
		return types.Money{}, ErrRefundNotAvailable
	}

	inv, err := e.store.GetInvestment(ctx, projectID, investor)
	if err != nil {
		return types.Money{}, err
	}
	if inv.ClaimedRefund {
		return types.Money{}, ErrRefundAlreadyClaimed
	}
	if !inv.AmountContributed.IsPositive() {
		return types.Money{}, ErrNothingToRefund
	}

	refund := inv.AmountContributed

	inv.ClaimedRefund = true
	inv.Touch()
	if err := e.store.PutInvestment(ctx, inv); err != nil {
		return types.Money{}, err
	}

	if err := e.treasury.TransferFunds(ctx, investor, refund); err != nil {
		e.logger.Error("refund transfer failed",
			"project_id", projectID.String(),
			"investor", investor,
			"amount", refund.String(),
			"error", err,
		)
		return types.Money{}, err
	}

	e.logger.Info("refund claimed",
		"project_id", projectID.String(),
		"investor", investor,
		"amount", refund.String(),
	)

	e.plugins.EmitRefundClaimed(ctx, inv)
	return refund, nil
}

// CancelProject lets the creator stop an active campaign before its
// deadline. The raised amount freezes and investors refund through the
// same path as a failed campaign.
func (e *Engine) CancelProject(ctx context.Context, projectID id.ProjectID, actor string) error {
	unlock := e.lockProject(projectID)
	defer unlock()

	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return err
	}

	if actor != c.Creator {
		return ErrUnauthorized
	}
	if c.IsTerminal() {
		return ErrAlreadyFinalized
	}
	now := e.now()
	if c.Ended(now) {
		return ErrProjectEnded
	}

	c.Status = campaign.StatusCancelled
	c.FinalizedAt = &now
	c.Touch()
	if err := e.store.UpdateCampaign(ctx, c); err != nil {
		return err
	}
	if err := e.syncEntryStatus(ctx, c); err != nil {
		return err
	}

	e.logger.Info("project cancelled",
		"project_id", projectID.String(),
		"creator", c.Creator,
		"total_raised", c.TotalRaised.String(),
	)

	e.plugins.EmitProjectCancelled(ctx, c)
	return nil
}

// ──────────────────────────────────────────────────
// Read surface
// ──────────────────────────────────────────────────

// GetProjectInfo retrieves a campaign by ID.
func (e *Engine) GetProjectInfo(ctx context.Context, projectID id.ProjectID) (*campaign.Campaign, error) {
	return e.store.GetCampaign(ctx, projectID)
}

// GetInvestmentInfo retrieves one investor's position in a campaign.
func (e *Engine) GetInvestmentInfo(ctx context.Context, projectID id.ProjectID, investor string) (*campaign.Investment, error) {
	return e.store.GetInvestment(ctx, projectID, investor)
}

// GetProgress returns how much of the target has been raised, in basis
// points (10000 = 100%).
func (e *Engine) GetProgress(ctx context.Context, projectID id.ProjectID) (int64, error) {
	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return 0, err
	}
	return c.ProgressBps(), nil
}

// GetTimeRemaining returns the duration until the campaign deadline, or
// zero once it has passed or the campaign is terminal.
func (e *Engine) GetTimeRemaining(ctx context.Context, projectID id.ProjectID) (time.Duration, error) {
	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return 0, err
	}
	return c.TimeRemaining(e.now()), nil
}

// ListInvestments returns a campaign's investments in insertion order.
func (e *Engine) ListInvestments(ctx context.Context, projectID id.ProjectID, opts campaign.ListOpts) ([]*campaign.Investment, error) {
	return e.store.ListInvestments(ctx, projectID, opts)
}
