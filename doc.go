// Package crowdfund provides a composable crowdfunding engine for Go applications.
//
// Crowdfund is designed as a library, not a service. Import it directly into
// your Go application and wire it to your own transport and settlement layers.
// It provides:
//
//   - A per-campaign accounting state machine (invest, finalize, withdraw, refund)
//   - Target-based and deadline/threshold-based finalization
//   - Cliff-plus-linear token vesting with batch creation, revocation, and
//     emergency recovery
//   - A platform registry with fee policy, verification, pagination, and
//     running aggregate statistics
//   - Pluggable lifecycle hooks for observability and audit
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/crowdfund"
//	    "github.com/xraph/crowdfund/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	e := crowdfund.New(store, crowdfund.WithOperator("ops@platform"))
//
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// A creator registers a campaign with funding terms and token economics:
//
//	res, err := e.CreateProject(ctx, crowdfund.CreateProjectParams{
//	    Creator:         "alice",
//	    Name:            "Solar Widget",
//	    Symbol:          "SOL",
//	    TotalSupply:     1_000_000,
//	    TokenPrice:      crowdfund.USD(100),     // $1.00 per token
//	    TargetAmount:    crowdfund.USD(10_000_000),
//	    Duration:        30 * 24 * time.Hour,
//	    VestingCliff:    90 * 24 * time.Hour,
//	    VestingDuration: 365 * 24 * time.Hour,
//	    FeePaid:         crowdfund.USD(10_000),
//	})
//
// Investors contribute until the target fills; filling it exactly finalizes
// the campaign in the same call:
//
//	inv, err := e.Invest(ctx, projectID, "bob", crowdfund.USD(500_000))
//
// After the deadline anyone may settle the outcome; at least 30% of target
// raised means Successful, otherwise Failed and investors refund:
//
//	out, err := e.FinalizeProject(ctx, projectID)
//
// On success the engine creates one vesting schedule per investor, tokens
// release linearly after the cliff, and the creator withdraws the proceeds
// minus the platform fee:
//
//	claimed, err := e.ClaimTokens(ctx, projectID, "bob")
//	payout, err := e.WithdrawFunds(ctx, projectID, "alice")
//
// # Integrity
//
// All monetary and token calculations use integer arithmetic to avoid
// floating-point precision issues. The Money type represents amounts in the
// smallest currency unit; token amounts are carried in base units. Proportional
// math goes through a 128-bit intermediate, so vesting interpolation and fee
// splits never overflow or drift. Payouts follow flag-then-transfer ordering:
// the gating state is persisted before any value moves, so a repeated call is
// rejected rather than paid twice.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	proj_01h2xcejqtf2nbrexx3vqjhp41  // Project ID
//	invt_01h2xcejqtf2nbrexx3vqjhp41  // Investment ID
//	vest_01h455vb4pex5vsknk084sn02q  // Vesting schedule ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package crowdfund
