// Package plugin provides an extensible plugin system for Crowdfund.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, e interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Project lifecycle hooks
// ──────────────────────────────────────────────────

// OnProjectCreated is called when a new project is registered.
type OnProjectCreated interface {
	Plugin
	OnProjectCreated(ctx context.Context, c interface{}) error
}

// OnProjectVerified is called when the operator verifies a project.
type OnProjectVerified interface {
	Plugin
	OnProjectVerified(ctx context.Context, projectID string) error
}

// OnProjectFinalized is called when a project reaches a terminal funding
// outcome (successful or failed).
type OnProjectFinalized interface {
	Plugin
	OnProjectFinalized(ctx context.Context, c interface{}, successful bool) error
}

// OnProjectCancelled is called when a creator cancels a project early.
type OnProjectCancelled interface {
	Plugin
	OnProjectCancelled(ctx context.Context, c interface{}) error
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnInvestmentMade is called when a contribution is accepted.
type OnInvestmentMade interface {
	Plugin
	OnInvestmentMade(ctx context.Context, inv interface{}) error
}

// OnFundsWithdrawn is called when a creator collects a successful
// project's proceeds.
type OnFundsWithdrawn interface {
	Plugin
	OnFundsWithdrawn(ctx context.Context, projectID string, net, fee interface{}) error
}

// OnRefundClaimed is called when an investor claims a refund.
type OnRefundClaimed interface {
	Plugin
	OnRefundClaimed(ctx context.Context, inv interface{}) error
}

// ──────────────────────────────────────────────────
// Vesting hooks
// ──────────────────────────────────────────────────

// OnVestingInitialized is called when a project's schedule batch is created.
type OnVestingInitialized interface {
	Plugin
	OnVestingInitialized(ctx context.Context, projectID string, count int) error
}

// OnTokensClaimed is called when a beneficiary claims vested tokens.
type OnTokensClaimed interface {
	Plugin
	OnTokensClaimed(ctx context.Context, s interface{}, amount int64) error
}

// OnVestingRevoked is called when a schedule is revoked.
type OnVestingRevoked interface {
	Plugin
	OnVestingRevoked(ctx context.Context, s interface{}, returned int64) error
}

// OnEmergencySweep is called when an expired schedule's remainder is swept.
type OnEmergencySweep interface {
	Plugin
	OnEmergencySweep(ctx context.Context, s interface{}, recipient string, amount int64) error
}

// ──────────────────────────────────────────────────
// Platform administration hooks
// ──────────────────────────────────────────────────

// OnFeesWithdrawn is called when the operator withdraws accrued fees.
type OnFeesWithdrawn interface {
	Plugin
	OnFeesWithdrawn(ctx context.Context, recipient string, amount interface{}) error
}

// OnFeePolicyChanged is called when the operator changes the platform fee
// rate, the creation fee, or the fee recipient.
type OnFeePolicyChanged interface {
	Plugin
	OnFeePolicyChanged(ctx context.Context, field string, value interface{}) error
}
