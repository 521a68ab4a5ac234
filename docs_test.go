package crowdfund_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/crowdfund"
	"github.com/xraph/crowdfund/store/memory"
	"github.com/xraph/crowdfund/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize the engine
		cf := crowdfund.New(store,
			crowdfund.WithLogger(slog.Default()),
			crowdfund.WithOperator("platform-admin"),
			crowdfund.WithPlatformFeeBps(250),
			crowdfund.WithCreationFee(types.USD(10_000)),
		)

		// Start the engine
		ctx := context.Background()
		if err := cf.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer cf.Stop()

		// Register a campaign
		res, err := cf.CreateProject(ctx, crowdfund.CreateProjectParams{
			Creator:         "founder_1",
			Name:            "Solar Farm",
			Symbol:          "SOLR",
			Description:     "Community solar project",
			TotalSupply:     1_000_000,
			TokenPrice:      types.USD(100),  // $1.00 per token
			TargetAmount:    types.USD(5_000_000), // $50,000.00
			Duration:        30 * 24 * time.Hour,
			VestingCliff:    90 * 24 * time.Hour,
			VestingDuration: 365 * 24 * time.Hour,
			FeePaid:         types.USD(10_000), // $100.00
		})
		if err != nil {
			t.Fatal(err)
		}
		project := res.Campaign

		// Accept a contribution
		inv, err := cf.Invest(ctx, project.ID, "investor_42", types.USD(100_000))
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("credited %d token base units\n", inv.TokensCredited)

		// Track progress
		bps, err := cf.GetProgress(ctx, project.ID)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("funded %d bps of target\n", bps)
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.USD(4900)   // $49.00
		_ = types.EUR(9900)   // €99.00
		_ = types.Zero("usd") // $0.00

		// Arithmetic
		m1 := types.USD(100)
		m2 := types.USD(200)
		_ = m1.Add(m2)

		// Basis points, floored
		_ = types.USD(100_000).Bps(250) // 2.5% = $25.00

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "$1.00"
		_ = m1.FormatMajor() // "1.00"
	})
}
