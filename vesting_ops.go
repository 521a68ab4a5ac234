package crowdfund

import (
	"context"

	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/types"
	"github.com/xraph/crowdfund/vesting"
)

// CreateVestingSchedules batch-creates schedules for a campaign outside
// the automatic finalization path (team allocations, advisors). The
// batch is all-or-nothing: any invalid element rejects the whole call.
// Cliff and duration come from the campaign's vesting terms, anchored
// at the current time.
func (e *Engine) CreateVestingSchedules(ctx context.Context, projectID id.ProjectID, actor string, beneficiaries []string, amounts []int64) error {
	unlock := e.lockProject(projectID)
	defer unlock()

	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return err
	}
	if actor != c.Creator && actor != e.operator {
		return ErrUnauthorized
	}

	if len(beneficiaries) == 0 {
		return ErrEmptyBatch
	}
	if len(beneficiaries) != len(amounts) {
		return ErrBatchMismatch
	}

	now := e.now()
	seen := make(map[string]bool, len(beneficiaries))
	schedules := make([]*vesting.Schedule, 0, len(beneficiaries))
	for i, b := range beneficiaries {
		if b == "" {
			return ErrInvalidRecipient
		}
		if amounts[i] <= 0 {
			return ErrZeroAmount
		}
		if seen[b] {
			return ErrDuplicateSchedule
		}
		seen[b] = true

		schedules = append(schedules, &vesting.Schedule{
			Entity:      types.NewEntity(),
			ID:          id.NewVestingID(),
			ProjectID:   projectID,
			Beneficiary: b,
			TotalAmount: amounts[i],
			CliffTime:   now.Add(c.VestingCliff),
			Duration:    c.VestingDuration,
			IsActive:    true,
		})
	}

	if err := e.store.CreateSchedules(ctx, schedules); err != nil {
		return err
	}

	e.logger.Info("vesting schedules created",
		"project_id", projectID.String(),
		"count", len(schedules),
	)

	e.plugins.EmitVestingInitialized(ctx, projectID.String(), len(schedules))
	return nil
}

// ClaimTokens releases a beneficiary's vested, unclaimed tokens. Any
// caller may trigger the claim, but tokens always flow to the
// beneficiary. The claimed amount is persisted before the transfer.
func (e *Engine) ClaimTokens(ctx context.Context, projectID id.ProjectID, beneficiary string) (int64, error) {
	unlock := e.lockProject(projectID)
	defer unlock()

	s, err := e.store.GetSchedule(ctx, projectID, beneficiary)
	if err != nil {
		return 0, err
	}
	if !s.IsActive {
		return 0, ErrNoActiveSchedule
	}

	claimable := s.ClaimableAt(e.now())
	if claimable == 0 {
		return 0, ErrNothingToClaim
	}

	s.ClaimedAmount += claimable
	s.Touch()
	if err := e.store.UpdateSchedule(ctx, s); err != nil {
		return 0, err
	}

	if err := e.treasury.TransferTokens(ctx, projectID, beneficiary, claimable); err != nil {
		e.logger.Error("token claim transfer failed",
			"project_id", projectID.String(),
			"beneficiary", beneficiary,
			"amount", claimable,
			"error", err,
		)
		return 0, err
	}

	e.logger.Info("tokens claimed",
		"project_id", projectID.String(),
		"beneficiary", beneficiary,
		"amount", claimable,
		"claimed_total", s.ClaimedAmount,
	)

	e.plugins.EmitTokensClaimed(ctx, s, claimable)
	return claimable, nil
}

// RevokeVesting deactivates a beneficiary's schedule. The unclaimed
// remainder, vested or not, returns to the campaign creator; further
// claims on the schedule fail.
func (e *Engine) RevokeVesting(ctx context.Context, projectID id.ProjectID, beneficiary, actor string) (int64, error) {
	unlock := e.lockProject(projectID)
	defer unlock()

	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if actor != c.Creator && actor != e.operator {
		return 0, ErrUnauthorized
	}

	s, err := e.store.GetSchedule(ctx, projectID, beneficiary)
	if err != nil {
		return 0, err
	}
	if !s.IsActive {
		return 0, ErrNoActiveSchedule
	}

	returned := s.Remaining()
	now := e.now()

	s.IsActive = false
	s.RevokedAt = &now
	s.Touch()
	if err := e.store.UpdateSchedule(ctx, s); err != nil {
		return 0, err
	}

	if returned > 0 {
		if err := e.treasury.TransferTokens(ctx, projectID, c.Creator, returned); err != nil {
			e.logger.Error("revocation return transfer failed",
				"project_id", projectID.String(),
				"beneficiary", beneficiary,
				"amount", returned,
				"error", err,
			)
			return 0, err
		}
	}

	e.logger.Info("vesting revoked",
		"project_id", projectID.String(),
		"beneficiary", beneficiary,
		"returned", returned,
	)

	e.plugins.EmitVestingRevoked(ctx, s, returned)
	return returned, nil
}

// EmergencyWithdrawTokens sweeps undistributed balances from schedules
// whose grace period has elapsed. Schedules still inside their window
// are left alone; if none are sweepable the call fails. Swept schedules
// are deactivated so late claims cannot double-pay.
func (e *Engine) EmergencyWithdrawTokens(ctx context.Context, projectID id.ProjectID, actor, recipient string) (int64, error) {
	if recipient == "" {
		return 0, ErrInvalidRecipient
	}

	unlock := e.lockProject(projectID)
	defer unlock()

	c, err := e.store.GetCampaign(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if actor != c.Creator && actor != e.operator {
		return 0, ErrUnauthorized
	}

	schedules, err := e.store.ListSchedules(ctx, projectID, vesting.ListOpts{})
	if err != nil {
		return 0, err
	}

	now := e.now()
	var total int64
	for _, s := range schedules {
		if !s.IsActive || s.Remaining() == 0 {
			continue
		}
		if now.Before(s.SweepTime()) {
			continue
		}

		amount := s.Remaining()
		s.IsActive = false
		s.Touch()
		if err := e.store.UpdateSchedule(ctx, s); err != nil {
			return 0, err
		}
		total += amount

		e.plugins.EmitEmergencySweep(ctx, s, recipient, amount)
	}

	if total == 0 {
		return 0, ErrGracePeriodActive
	}

	if err := e.treasury.TransferTokens(ctx, projectID, recipient, total); err != nil {
		e.logger.Error("emergency sweep transfer failed",
			"project_id", projectID.String(),
			"recipient", recipient,
			"amount", total,
			"error", err,
		)
		return 0, err
	}

	e.logger.Info("emergency sweep",
		"project_id", projectID.String(),
		"recipient", recipient,
		"amount", total,
	)

	return total, nil
}

// VestingInfo is a point-in-time view of one beneficiary's schedule.
type VestingInfo struct {
	Schedule  *vesting.Schedule
	Vested    int64
	Claimable int64
}

// GetVestingInfo returns a beneficiary's schedule with its vested and
// claimable amounts as of now.
func (e *Engine) GetVestingInfo(ctx context.Context, projectID id.ProjectID, beneficiary string) (*VestingInfo, error) {
	s, err := e.store.GetSchedule(ctx, projectID, beneficiary)
	if err != nil {
		return nil, err
	}

	now := e.now()
	return &VestingInfo{
		Schedule:  s,
		Vested:    s.VestedAt(now),
		Claimable: s.ClaimableAt(now),
	}, nil
}

// ListVestingSchedules returns a campaign's schedules in insertion order.
func (e *Engine) ListVestingSchedules(ctx context.Context, projectID id.ProjectID, opts vesting.ListOpts) ([]*vesting.Schedule, error) {
	return e.store.ListSchedules(ctx, projectID, opts)
}
