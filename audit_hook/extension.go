// Package audithook bridges Crowdfund lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/crowdfund/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnProjectCreated     = (*Extension)(nil)
	_ plugin.OnProjectVerified    = (*Extension)(nil)
	_ plugin.OnProjectFinalized   = (*Extension)(nil)
	_ plugin.OnProjectCancelled   = (*Extension)(nil)
	_ plugin.OnInvestmentMade     = (*Extension)(nil)
	_ plugin.OnFundsWithdrawn     = (*Extension)(nil)
	_ plugin.OnRefundClaimed      = (*Extension)(nil)
	_ plugin.OnVestingInitialized = (*Extension)(nil)
	_ plugin.OnTokensClaimed      = (*Extension)(nil)
	_ plugin.OnVestingRevoked     = (*Extension)(nil)
	_ plugin.OnEmergencySweep     = (*Extension)(nil)
	_ plugin.OnFeesWithdrawn      = (*Extension)(nil)
	_ plugin.OnFeePolicyChanged   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Crowdfund lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Project lifecycle hooks
// ──────────────────────────────────────────────────

// OnProjectCreated implements plugin.OnProjectCreated.
func (e *Extension) OnProjectCreated(ctx context.Context, _ interface{}) error {
	// Would extract campaign details from the interface
	return e.record(ctx, ActionProjectCreated, SeverityInfo, OutcomeSuccess,
		ResourceProject, "", CategoryFunding, nil,
		"event", "project_created",
	)
}

// OnProjectVerified implements plugin.OnProjectVerified.
func (e *Extension) OnProjectVerified(ctx context.Context, projectID string) error {
	return e.record(ctx, ActionProjectVerified, SeverityInfo, OutcomeSuccess,
		ResourceProject, projectID, CategoryGovernance, nil,
		"project_id", projectID,
	)
}

// OnProjectFinalized implements plugin.OnProjectFinalized.
func (e *Extension) OnProjectFinalized(ctx context.Context, _ interface{}, successful bool) error {
	action := ActionProjectSucceeded
	outcome := OutcomeSuccess
	if !successful {
		action = ActionProjectFailed
		outcome = OutcomeFailure
	}

	return e.record(ctx, action, SeverityInfo, outcome,
		ResourceProject, "", CategoryFunding, nil,
		"event", "project_finalized",
		"successful", successful,
	)
}

// OnProjectCancelled implements plugin.OnProjectCancelled.
func (e *Extension) OnProjectCancelled(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionProjectCancelled, SeverityWarning, OutcomeSuccess,
		ResourceProject, "", CategoryFunding, nil,
		"event", "project_cancelled",
	)
}

// ──────────────────────────────────────────────────
// Funding hooks
// ──────────────────────────────────────────────────

// OnInvestmentMade implements plugin.OnInvestmentMade.
func (e *Extension) OnInvestmentMade(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionInvestmentMade, SeverityInfo, OutcomeSuccess,
		ResourceInvestment, "", CategoryFunding, nil,
		"event", "investment_made",
	)
}

// OnFundsWithdrawn implements plugin.OnFundsWithdrawn.
func (e *Extension) OnFundsWithdrawn(ctx context.Context, projectID string, _, _ interface{}) error {
	return e.record(ctx, ActionFundsWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceProject, projectID, CategoryPayout, nil,
		"project_id", projectID,
	)
}

// OnRefundClaimed implements plugin.OnRefundClaimed.
func (e *Extension) OnRefundClaimed(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionRefundClaimed, SeverityInfo, OutcomeSuccess,
		ResourceInvestment, "", CategoryPayout, nil,
		"event", "refund_claimed",
	)
}

// ──────────────────────────────────────────────────
// Vesting hooks
// ──────────────────────────────────────────────────

// OnVestingInitialized implements plugin.OnVestingInitialized.
func (e *Extension) OnVestingInitialized(ctx context.Context, projectID string, count int) error {
	return e.record(ctx, ActionVestingInitialized, SeverityInfo, OutcomeSuccess,
		ResourceVesting, projectID, CategoryVesting, nil,
		"project_id", projectID,
		"schedules", count,
	)
}

// OnTokensClaimed implements plugin.OnTokensClaimed.
func (e *Extension) OnTokensClaimed(ctx context.Context, _ interface{}, amount int64) error {
	return e.record(ctx, ActionTokensClaimed, SeverityInfo, OutcomeSuccess,
		ResourceVesting, "", CategoryVesting, nil,
		"event", "tokens_claimed",
		"amount", amount,
	)
}

// OnVestingRevoked implements plugin.OnVestingRevoked.
func (e *Extension) OnVestingRevoked(ctx context.Context, _ interface{}, returned int64) error {
	return e.record(ctx, ActionVestingRevoked, SeverityWarning, OutcomeSuccess,
		ResourceVesting, "", CategoryVesting, nil,
		"event", "vesting_revoked",
		"returned", returned,
	)
}

// OnEmergencySweep implements plugin.OnEmergencySweep.
func (e *Extension) OnEmergencySweep(ctx context.Context, _ interface{}, recipient string, amount int64) error {
	return e.record(ctx, ActionEmergencySweep, SeverityCritical, OutcomeSuccess,
		ResourceVesting, "", CategoryVesting, nil,
		"event", "emergency_sweep",
		"recipient", recipient,
		"amount", amount,
	)
}

// ──────────────────────────────────────────────────
// Fee administration hooks
// ──────────────────────────────────────────────────

// OnFeesWithdrawn implements plugin.OnFeesWithdrawn.
func (e *Extension) OnFeesWithdrawn(ctx context.Context, recipient string, _ interface{}) error {
	return e.record(ctx, ActionFeesWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceFees, "", CategoryGovernance, nil,
		"recipient", recipient,
	)
}

// OnFeePolicyChanged implements plugin.OnFeePolicyChanged.
func (e *Extension) OnFeePolicyChanged(ctx context.Context, field string, value interface{}) error {
	return e.record(ctx, ActionFeePolicyChanged, SeverityWarning, OutcomeSuccess,
		ResourceFees, "", CategoryGovernance, nil,
		"field", field,
		"value", value,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
