package crowdfund

import (
	"context"

	"github.com/xraph/crowdfund/fees"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/registry"
	"github.com/xraph/crowdfund/types"
)

// requireOperator rejects any actor other than the configured platform
// operator. An engine with no operator configured has no admin surface.
func (e *Engine) requireOperator(actor string) error {
	if e.operator == "" || actor != e.operator {
		return ErrUnauthorized
	}
	return nil
}

// VerifyProject marks a registry entry as verified. Operator-only and
// monotonic: a verified entry stays verified, and re-verifying fails.
func (e *Engine) VerifyProject(ctx context.Context, projectID id.ProjectID, actor string) error {
	if err := e.requireOperator(actor); err != nil {
		return err
	}

	unlock := e.lockProject(projectID)
	defer unlock()

	entry, err := e.store.GetEntry(ctx, projectID)
	if err != nil {
		return err
	}
	if entry.IsVerified {
		return ErrAlreadyVerified
	}

	now := e.now()
	entry.IsVerified = true
	entry.VerifiedAt = &now
	entry.Touch()
	if err := e.store.UpdateEntry(ctx, entry); err != nil {
		return err
	}

	e.logger.Info("project verified",
		"project_id", projectID.String(),
		"operator", actor,
	)

	e.plugins.EmitProjectVerified(ctx, projectID.String())
	return nil
}

// SetPlatformFeeBps changes the platform fee rate. Operator-only;
// rejected above the 10% cap. Applies to withdrawals settled after the
// change, never retroactively.
func (e *Engine) SetPlatformFeeBps(ctx context.Context, actor string, bps int64) error {
	if err := e.requireOperator(actor); err != nil {
		return err
	}
	if err := fees.ValidateFeeBps(bps); err != nil {
		return err
	}

	e.policyMu.Lock()
	e.platformFeeBps = bps
	e.policyMu.Unlock()

	e.logger.Info("platform fee changed", "bps", bps)
	e.plugins.EmitFeePolicyChanged(ctx, "platform_fee_bps", bps)
	return nil
}

// SetCreationFee changes the campaign registration fee. Operator-only.
func (e *Engine) SetCreationFee(ctx context.Context, actor string, fee types.Money) error {
	if err := e.requireOperator(actor); err != nil {
		return err
	}
	if fee.IsNegative() {
		return ErrInvalidInput
	}

	e.policyMu.Lock()
	e.creationFee = fee
	e.policyMu.Unlock()

	e.logger.Info("creation fee changed", "fee", fee.String())
	e.plugins.EmitFeePolicyChanged(ctx, "creation_fee", fee)
	return nil
}

// SetFeeRecipient changes where platform fees are paid. Operator-only;
// the recipient must be a non-empty identity.
func (e *Engine) SetFeeRecipient(ctx context.Context, actor, recipient string) error {
	if err := e.requireOperator(actor); err != nil {
		return err
	}
	if recipient == "" {
		return ErrInvalidRecipient
	}

	e.policyMu.Lock()
	e.feeRecipient = recipient
	e.policyMu.Unlock()

	e.logger.Info("fee recipient changed", "recipient", recipient)
	e.plugins.EmitFeePolicyChanged(ctx, "fee_recipient", recipient)
	return nil
}

// WithdrawFees pays the accrued creation-fee balance to the fee
// recipient. Operator-only; fails when nothing has accrued. The balance
// is zeroed before the transfer is attempted.
func (e *Engine) WithdrawFees(ctx context.Context, actor string) (types.Money, error) {
	if err := e.requireOperator(actor); err != nil {
		return types.Money{}, err
	}

	stats, err := e.store.GetStats(ctx)
	if err != nil {
		return types.Money{}, err
	}
	if stats.FeeBalance <= 0 {
		return types.Money{}, ErrNothingToWithdraw
	}

	currency := stats.Currency
	if currency == "" {
		currency = e.currency
	}
	amount := types.NewMoney(stats.FeeBalance, currency)
	_, _, recipient := e.feePolicy()
	if recipient == "" {
		return types.Money{}, ErrInvalidRecipient
	}

	if err := e.store.AddStats(ctx, registry.Stats{FeeBalance: -stats.FeeBalance}); err != nil {
		return types.Money{}, err
	}

	if err := e.treasury.TransferFunds(ctx, recipient, amount); err != nil {
		e.logger.Error("fee withdrawal transfer failed",
			"recipient", recipient,
			"amount", amount.String(),
			"error", err,
		)
		return types.Money{}, err
	}

	e.logger.Info("fees withdrawn",
		"recipient", recipient,
		"amount", amount.String(),
	)

	e.plugins.EmitFeesWithdrawn(ctx, recipient, amount)
	return amount, nil
}

// GetPlatformStats returns the platform's running totals.
func (e *Engine) GetPlatformStats(ctx context.Context) (registry.Stats, error) {
	return e.store.GetStats(ctx)
}

// GetProjectsPaginated returns registry entries in stable insertion
// order. An offset beyond the entry count is rejected; an offset equal
// to the count returns an empty page.
func (e *Engine) GetProjectsPaginated(ctx context.Context, offset, limit int) ([]*registry.Entry, error) {
	if offset < 0 || limit < 0 {
		return nil, ErrInvalidInput
	}

	count, err := e.store.CountEntries(ctx)
	if err != nil {
		return nil, err
	}
	if offset > count {
		return nil, ErrOffsetOutOfBounds
	}

	return e.store.ListEntries(ctx, registry.ListOpts{Offset: offset, Limit: limit})
}

// GetProjectsByCreator returns one creator's registry entries in
// insertion order.
func (e *Engine) GetProjectsByCreator(ctx context.Context, creator string, opts registry.ListOpts) ([]*registry.Entry, error) {
	if creator == "" {
		return nil, ErrInvalidInput
	}
	return e.store.ListEntriesByCreator(ctx, creator, opts)
}

// GetRegistryEntry returns the registry's record of one campaign.
func (e *Engine) GetRegistryEntry(ctx context.Context, projectID id.ProjectID) (*registry.Entry, error) {
	return e.store.GetEntry(ctx, projectID)
}

// CountProjects returns the total number of registered campaigns.
func (e *Engine) CountProjects(ctx context.Context) (int, error) {
	return e.store.CountEntries(ctx)
}
