// Package observability provides a metrics extension for Crowdfund that
// records lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/crowdfund/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnProjectCreated     = (*MetricsExtension)(nil)
	_ plugin.OnProjectVerified    = (*MetricsExtension)(nil)
	_ plugin.OnProjectFinalized   = (*MetricsExtension)(nil)
	_ plugin.OnProjectCancelled   = (*MetricsExtension)(nil)
	_ plugin.OnInvestmentMade     = (*MetricsExtension)(nil)
	_ plugin.OnFundsWithdrawn     = (*MetricsExtension)(nil)
	_ plugin.OnRefundClaimed      = (*MetricsExtension)(nil)
	_ plugin.OnVestingInitialized = (*MetricsExtension)(nil)
	_ plugin.OnTokensClaimed      = (*MetricsExtension)(nil)
	_ plugin.OnVestingRevoked     = (*MetricsExtension)(nil)
	_ plugin.OnEmergencySweep     = (*MetricsExtension)(nil)
	_ plugin.OnFeesWithdrawn      = (*MetricsExtension)(nil)
	_ plugin.OnFeePolicyChanged   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Crowdfund plugin to automatically track platform metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Project metrics
	ProjectCreated   Counter
	ProjectVerified  Counter
	ProjectSucceeded Counter
	ProjectFailed    Counter
	ProjectCancelled Counter

	// Funding metrics
	InvestmentsMade  Counter
	FundsWithdrawals Counter
	RefundsClaimed   Counter

	// Vesting metrics
	VestingBatchesCreated Counter
	VestingBatchSize      Histogram
	TokenClaims           Counter
	TokensClaimedTotal    Counter
	VestingRevocations    Counter
	EmergencySweeps       Counter
	SweptTokensTotal      Counter

	// Fee metrics
	FeeWithdrawals   Counter
	FeePolicyChanges Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Project metrics
		ProjectCreated:   factory.Counter("crowdfund.project.created"),
		ProjectVerified:  factory.Counter("crowdfund.project.verified"),
		ProjectSucceeded: factory.Counter("crowdfund.project.succeeded"),
		ProjectFailed:    factory.Counter("crowdfund.project.failed"),
		ProjectCancelled: factory.Counter("crowdfund.project.cancelled"),

		// Funding metrics
		InvestmentsMade:  factory.Counter("crowdfund.investment.made"),
		FundsWithdrawals: factory.Counter("crowdfund.funds.withdrawn"),
		RefundsClaimed:   factory.Counter("crowdfund.refund.claimed"),

		// Vesting metrics
		VestingBatchesCreated: factory.Counter("crowdfund.vesting.batches.created"),
		VestingBatchSize:      factory.Histogram("crowdfund.vesting.batch.size"),
		TokenClaims:           factory.Counter("crowdfund.vesting.claims"),
		TokensClaimedTotal:    factory.Counter("crowdfund.vesting.tokens.claimed"),
		VestingRevocations:    factory.Counter("crowdfund.vesting.revocations"),
		EmergencySweeps:       factory.Counter("crowdfund.vesting.sweeps"),
		SweptTokensTotal:      factory.Counter("crowdfund.vesting.tokens.swept"),

		// Fee metrics
		FeeWithdrawals:   factory.Counter("crowdfund.fees.withdrawals"),
		FeePolicyChanges: factory.Counter("crowdfund.fees.policy.changes"),

		// Error metrics
		StoreErrors:  factory.Counter("crowdfund.store.errors"),
		PluginErrors: factory.Counter("crowdfund.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Project lifecycle hooks
// ──────────────────────────────────────────────────

// OnProjectCreated implements plugin.OnProjectCreated.
func (m *MetricsExtension) OnProjectCreated(_ context.Context, _ interface{}) error {
	m.ProjectCreated.Inc()
	return nil
}

// OnProjectVerified implements plugin.OnProjectVerified.
func (m *MetricsExtension) OnProjectVerified(_ context.Context, _ string) error {
	m.ProjectVerified.Inc()
	return nil
}

// OnProjectFinalized implements plugin.OnProjectFinalized.
func (m *MetricsExtension) OnProjectFinalized(_ context.Context, _ interface{}, successful bool) error {
	if successful {
		m.ProjectSucceeded.Inc()
	} else {
		m.ProjectFailed.Inc()
	}
	return nil
}

// OnProjectCancelled implements plugin.OnProjectCancelled.
func (m *MetricsExtension) OnProjectCancelled(_ context.Context, _ interface{}) error {
	m.ProjectCancelled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnInvestmentMade implements plugin.OnInvestmentMade.
func (m *MetricsExtension) OnInvestmentMade(_ context.Context, _ interface{}) error {
	m.InvestmentsMade.Inc()
	return nil
}

// OnFundsWithdrawn implements plugin.OnFundsWithdrawn.
func (m *MetricsExtension) OnFundsWithdrawn(_ context.Context, _ string, _, _ interface{}) error {
	m.FundsWithdrawals.Inc()
	return nil
}

// OnRefundClaimed implements plugin.OnRefundClaimed.
func (m *MetricsExtension) OnRefundClaimed(_ context.Context, _ interface{}) error {
	m.RefundsClaimed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Vesting hooks
// ──────────────────────────────────────────────────

// OnVestingInitialized implements plugin.OnVestingInitialized.
func (m *MetricsExtension) OnVestingInitialized(_ context.Context, _ string, count int) error {
	m.VestingBatchesCreated.Inc()
	m.VestingBatchSize.Observe(float64(count))
	return nil
}

// OnTokensClaimed implements plugin.OnTokensClaimed.
func (m *MetricsExtension) OnTokensClaimed(_ context.Context, _ interface{}, amount int64) error {
	m.TokenClaims.Inc()
	m.TokensClaimedTotal.Add(float64(amount))
	return nil
}

// OnVestingRevoked implements plugin.OnVestingRevoked.
func (m *MetricsExtension) OnVestingRevoked(_ context.Context, _ interface{}, _ int64) error {
	m.VestingRevocations.Inc()
	return nil
}

// OnEmergencySweep implements plugin.OnEmergencySweep.
func (m *MetricsExtension) OnEmergencySweep(_ context.Context, _ interface{}, _ string, amount int64) error {
	m.EmergencySweeps.Inc()
	m.SweptTokensTotal.Add(float64(amount))
	return nil
}

// ──────────────────────────────────────────────────
// Platform administration hooks
// ──────────────────────────────────────────────────

// OnFeesWithdrawn implements plugin.OnFeesWithdrawn.
func (m *MetricsExtension) OnFeesWithdrawn(_ context.Context, _ string, _ interface{}) error {
	m.FeeWithdrawals.Inc()
	return nil
}

// OnFeePolicyChanged implements plugin.OnFeePolicyChanged.
func (m *MetricsExtension) OnFeePolicyChanged(_ context.Context, _ string, _ interface{}) error {
	m.FeePolicyChanges.Inc()
	return nil
}
