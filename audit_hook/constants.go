package audithook

// Action constants for audit events.
const (
	// Project actions
	ActionProjectCreated   = "project.created"
	ActionProjectVerified  = "project.verified"
	ActionProjectSucceeded = "project.succeeded"
	ActionProjectFailed    = "project.failed"
	ActionProjectCancelled = "project.cancelled"

	// Funding actions
	ActionInvestmentMade = "investment.made"
	ActionFundsWithdrawn = "funds.withdrawn"
	ActionRefundClaimed  = "refund.claimed"

	// Vesting actions
	ActionVestingInitialized = "vesting.initialized"
	ActionTokensClaimed      = "tokens.claimed"
	ActionVestingRevoked     = "vesting.revoked"
	ActionEmergencySweep     = "vesting.swept"

	// Fee actions
	ActionFeesWithdrawn    = "fees.withdrawn"
	ActionFeePolicyChanged = "fees.policy_changed"
)

// Resource constants for audit events.
const (
	ResourceProject    = "project"
	ResourceInvestment = "investment"
	ResourceVesting    = "vesting"
	ResourceFees       = "fees"
)

// Category constants for audit events.
const (
	CategoryFunding    = "funding"
	CategoryVesting    = "vesting"
	CategoryPayout     = "payout"
	CategoryGovernance = "governance"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
