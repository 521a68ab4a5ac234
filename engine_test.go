package crowdfund_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	crowdfund "github.com/xraph/crowdfund"
	"github.com/xraph/crowdfund/campaign"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/registry"
	"github.com/xraph/crowdfund/store"
	"github.com/xraph/crowdfund/store/memory"
	"github.com/xraph/crowdfund/types"
	"github.com/xraph/crowdfund/vesting"
)

// ──────────────────────────────────────────────────
// Test fixtures
// ──────────────────────────────────────────────────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeTreasury records every transfer so tests can assert on totals.
type fakeTreasury struct {
	mu     sync.Mutex
	funds  map[string]int64 // recipient -> total smallest units
	tokens map[string]int64 // recipient -> total base units
}

func newFakeTreasury() *fakeTreasury {
	return &fakeTreasury{
		funds:  make(map[string]int64),
		tokens: make(map[string]int64),
	}
}

func (f *fakeTreasury) TransferFunds(_ context.Context, recipient string, amount types.Money) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.funds[recipient] += amount.Amount
	return nil
}

func (f *fakeTreasury) TransferTokens(_ context.Context, _ id.ProjectID, recipient string, baseUnits int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[recipient] += baseUnits
	return nil
}

func (f *fakeTreasury) fundsTo(recipient string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.funds[recipient]
}

func (f *fakeTreasury) tokensTo(recipient string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[recipient]
}

func newTestEngine(t *testing.T, opts ...crowdfund.Option) (*crowdfund.Engine, *fakeTreasury, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	treasury := newFakeTreasury()

	base := []crowdfund.Option{
		crowdfund.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		crowdfund.WithClock(clock.Now),
		crowdfund.WithTreasury(treasury),
		crowdfund.WithOperator("operator"),
	}
	e := crowdfund.New(memory.New(), append(base, opts...)...)

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e, treasury, clock
}

// defaultParams registers a campaign with a $1,000.00 target at $1.00
// per token, 30-day window, 90-day cliff, one-year vesting.
func defaultParams(target int64) crowdfund.CreateProjectParams {
	return crowdfund.CreateProjectParams{
		Creator:         "alice",
		Name:            "Widget Factory",
		Symbol:          "WID",
		Description:     "Build widgets",
		TotalSupply:     1_000_000,
		TokenPrice:      types.USD(100),
		TargetAmount:    types.USD(target),
		Duration:        30 * 24 * time.Hour,
		VestingCliff:    90 * 24 * time.Hour,
		VestingDuration: 365 * 24 * time.Hour,
		FeePaid:         types.USD(10_000),
	}
}

func mustCreateProject(t *testing.T, e *crowdfund.Engine, target int64) *campaign.Campaign {
	t.Helper()
	res, err := e.CreateProject(context.Background(), defaultParams(target))
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return res.Campaign
}

// ──────────────────────────────────────────────────
// Project creation
// ──────────────────────────────────────────────────

func TestCreateProjectValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*crowdfund.CreateProjectParams)
		wantErr error
	}{
		{"empty creator", func(p *crowdfund.CreateProjectParams) { p.Creator = "" }, crowdfund.ErrInvalidInput},
		{"empty name", func(p *crowdfund.CreateProjectParams) { p.Name = "" }, crowdfund.ErrInvalidName},
		{"empty symbol", func(p *crowdfund.CreateProjectParams) { p.Symbol = "" }, crowdfund.ErrInvalidName},
		{"zero supply", func(p *crowdfund.CreateProjectParams) { p.TotalSupply = 0 }, crowdfund.ErrInvalidSupply},
		{"zero price", func(p *crowdfund.CreateProjectParams) { p.TokenPrice = types.Zero("usd") }, crowdfund.ErrInvalidPrice},
		{"zero target", func(p *crowdfund.CreateProjectParams) { p.TargetAmount = types.Zero("usd") }, crowdfund.ErrInvalidTarget},
		{"short duration", func(p *crowdfund.CreateProjectParams) { p.Duration = time.Hour }, crowdfund.ErrDurationTooShort},
		{"short fee", func(p *crowdfund.CreateProjectParams) { p.FeePaid = types.USD(9_999) }, crowdfund.ErrInsufficientFee},
		{"zero vesting duration", func(p *crowdfund.CreateProjectParams) { p.VestingDuration = 0 }, nil},
		{"negative cliff", func(p *crowdfund.CreateProjectParams) { p.VestingCliff = -time.Hour }, nil},
		{"currency mismatch", func(p *crowdfund.CreateProjectParams) { p.TokenPrice = types.EUR(100) }, nil},
		{"foreign currency target", func(p *crowdfund.CreateProjectParams) {
			p.TargetAmount = types.EUR(100_000)
			p.TokenPrice = types.EUR(100)
		}, nil},
		{"foreign currency fee", func(p *crowdfund.CreateProjectParams) { p.FeePaid = types.EUR(10_000) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := defaultParams(100_000)
			tt.mutate(&params)

			_, err := e.CreateProject(ctx, params)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if !crowdfund.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateProjectFeeAccounting(t *testing.T) {
	ctx := context.Background()

	t.Run("exact fee accrues", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		mustCreateProject(t, e, 100_000)

		stats, err := e.GetPlatformStats(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if stats.ProjectsCreated != 1 {
			t.Errorf("ProjectsCreated = %d, want 1", stats.ProjectsCreated)
		}
		if stats.TotalFeesCollected != 10_000 {
			t.Errorf("TotalFeesCollected = %d, want 10000", stats.TotalFeesCollected)
		}
		if stats.FeeBalance != 10_000 {
			t.Errorf("FeeBalance = %d, want 10000", stats.FeeBalance)
		}
	})

	t.Run("excess returned exactly", func(t *testing.T) {
		e, treasury, _ := newTestEngine(t)

		params := defaultParams(100_000)
		params.FeePaid = types.USD(20_000)
		res, err := e.CreateProject(ctx, params)
		if err != nil {
			t.Fatal(err)
		}

		if res.Excess.Amount != 10_000 {
			t.Errorf("Excess = %d, want 10000", res.Excess.Amount)
		}
		if got := treasury.fundsTo("alice"); got != 10_000 {
			t.Errorf("refunded %d to creator, want 10000", got)
		}

		// Only the required portion accrues.
		stats, _ := e.GetPlatformStats(ctx)
		if stats.FeeBalance != 10_000 {
			t.Errorf("FeeBalance = %d, want 10000", stats.FeeBalance)
		}
	})
}

func TestOptionBounds(t *testing.T) {
	t.Run("fee rate outside the cap keeps the default", func(t *testing.T) {
		for _, bps := range []int64{-1, 1001, 20_000} {
			e, _, _ := newTestEngine(t, crowdfund.WithPlatformFeeBps(bps))
			if got := e.PlatformFeeBps(); got != crowdfund.DefaultPlatformFeeBps {
				t.Errorf("WithPlatformFeeBps(%d): rate = %d, want default %d",
					bps, got, crowdfund.DefaultPlatformFeeBps)
			}
		}
	})

	t.Run("valid fee rate applies", func(t *testing.T) {
		e, _, _ := newTestEngine(t, crowdfund.WithPlatformFeeBps(1000))
		if got := e.PlatformFeeBps(); got != 1000 {
			t.Errorf("rate = %d, want 1000", got)
		}
	})

	t.Run("negative creation fee keeps the default", func(t *testing.T) {
		e, _, _ := newTestEngine(t, crowdfund.WithCreationFee(types.USD(-5)))
		if got := e.CreationFee(); !got.Equal(crowdfund.DefaultCreationFee) {
			t.Errorf("creation fee = %s, want default", got.String())
		}
	})
}

// ──────────────────────────────────────────────────
// Investing
// ──────────────────────────────────────────────────

func TestInvest(t *testing.T) {
	ctx := context.Background()

	t.Run("contributions accumulate per investor", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(10_000)); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(5_000)); err != nil {
			t.Fatal(err)
		}

		inv, err := e.GetInvestmentInfo(ctx, c.ID, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if inv.AmountContributed.Amount != 15_000 {
			t.Errorf("AmountContributed = %d, want 15000", inv.AmountContributed.Amount)
		}
		// $150 at $1.00/token = 150 whole tokens = 150e6 base units.
		if inv.TokensPurchased != 150*campaign.TokenScale {
			t.Errorf("TokensPurchased = %d, want %d", inv.TokensPurchased, 150*campaign.TokenScale)
		}

		got, err := e.GetProjectInfo(ctx, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.InvestorCount != 1 {
			t.Errorf("InvestorCount = %d, want 1", got.InvestorCount)
		}
		if got.TotalRaised.Amount != 15_000 {
			t.Errorf("TotalRaised = %d, want 15000", got.TotalRaised.Amount)
		}
	})

	t.Run("below minimum rejected", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		_, err := e.Invest(ctx, c.ID, "bob", types.USD(99))
		if !errors.Is(err, crowdfund.ErrInvestmentOutOfRange) {
			t.Fatalf("got %v, want ErrInvestmentOutOfRange", err)
		}
	})

	t.Run("overshoot rejected, exact fill finalizes", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(95_000)); err != nil {
			t.Fatal(err)
		}

		// 95k raised: 10k would overshoot and must be rejected outright.
		_, err := e.Invest(ctx, c.ID, "carol", types.USD(10_000))
		if !errors.Is(err, crowdfund.ErrTargetExceeded) {
			t.Fatalf("got %v, want ErrTargetExceeded", err)
		}

		// Rejection leaves the raised total untouched.
		got, _ := e.GetProjectInfo(ctx, c.ID)
		if got.TotalRaised.Amount != 95_000 {
			t.Errorf("TotalRaised = %d after rejection, want 95000", got.TotalRaised.Amount)
		}

		// 5k fills exactly and finalizes in the same call.
		res, err := e.Invest(ctx, c.ID, "carol", types.USD(5_000))
		if err != nil {
			t.Fatal(err)
		}
		if !res.Finalized {
			t.Error("exact fill should finalize")
		}

		got, _ = e.GetProjectInfo(ctx, c.ID)
		if got.Status != campaign.StatusSuccessful {
			t.Errorf("Status = %s, want successful", got.Status)
		}
		if !got.VestingInitialized {
			t.Error("vesting should be initialized on success")
		}

		// One schedule per investor, sized by their token holdings.
		schedules, err := e.ListVestingSchedules(ctx, c.ID, vesting.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(schedules) != 2 {
			t.Fatalf("got %d schedules, want 2", len(schedules))
		}
		if schedules[0].Beneficiary != "bob" || schedules[0].TotalAmount != 950*campaign.TokenScale {
			t.Errorf("schedule[0] = %s/%d", schedules[0].Beneficiary, schedules[0].TotalAmount)
		}
		if schedules[1].Beneficiary != "carol" || schedules[1].TotalAmount != 50*campaign.TokenScale {
			t.Errorf("schedule[1] = %s/%d", schedules[1].Beneficiary, schedules[1].TotalAmount)
		}
	})

	t.Run("after deadline rejected", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		clock.Advance(31 * 24 * time.Hour)
		_, err := e.Invest(ctx, c.ID, "bob", types.USD(1_000))
		if !errors.Is(err, crowdfund.ErrProjectEnded) {
			t.Fatalf("got %v, want ErrProjectEnded", err)
		}
	})

	t.Run("terminal campaign rejected", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		if err := e.CancelProject(ctx, c.ID, "alice"); err != nil {
			t.Fatal(err)
		}
		_, err := e.Invest(ctx, c.ID, "bob", types.USD(1_000))
		if !errors.Is(err, crowdfund.ErrProjectNotActive) {
			t.Fatalf("got %v, want ErrProjectNotActive", err)
		}
	})
}

// flakyStore behaves like the durable backends: reads return fresh
// copies, and a campaign update can be made to fail once.
type flakyStore struct {
	store.Store
	failNextUpdate bool
}

func (s *flakyStore) GetCampaign(ctx context.Context, projectID id.ProjectID) (*campaign.Campaign, error) {
	c, err := s.Store.GetCampaign(ctx, projectID)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (s *flakyStore) UpdateCampaign(ctx context.Context, c *campaign.Campaign) error {
	if s.failNextUpdate {
		s.failNextUpdate = false
		return crowdfund.ErrTransactionFailed
	}
	return s.Store.UpdateCampaign(ctx, c)
}

func TestInvestRollsBackOnCampaignWriteFailure(t *testing.T) {
	ctx := context.Background()

	clock := newFakeClock()
	fs := &flakyStore{Store: memory.New()}
	e := crowdfund.New(fs,
		crowdfund.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		crowdfund.WithClock(clock.Now),
		crowdfund.WithOperator("operator"),
	)
	if err := e.Start(ctx); err != nil {
		t.Fatal(err)
	}
	c := mustCreateProject(t, e, 100_000)

	if _, err := e.Invest(ctx, c.ID, "bob", types.USD(10_000)); err != nil {
		t.Fatal(err)
	}

	fs.failNextUpdate = true
	if _, err := e.Invest(ctx, c.ID, "bob", types.USD(5_000)); !errors.Is(err, crowdfund.ErrTransactionFailed) {
		t.Fatalf("got %v, want ErrTransactionFailed", err)
	}

	// The failed contribution left no trace: the stored investment and
	// the stored campaign totals still agree.
	inv, err := e.GetInvestmentInfo(ctx, c.ID, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if inv.AmountContributed.Amount != 10_000 {
		t.Errorf("AmountContributed = %d after failed update, want 10000", inv.AmountContributed.Amount)
	}
	got, err := e.GetProjectInfo(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TotalRaised.Amount != 10_000 {
		t.Errorf("TotalRaised = %d after failed update, want 10000", got.TotalRaised.Amount)
	}
	if inv.AmountContributed.Amount != got.TotalRaised.Amount {
		t.Error("contributions and raised total diverged")
	}

	// The next attempt goes through cleanly.
	if _, err := e.Invest(ctx, c.ID, "bob", types.USD(5_000)); err != nil {
		t.Fatal(err)
	}
	got, _ = e.GetProjectInfo(ctx, c.ID)
	if got.TotalRaised.Amount != 15_000 {
		t.Errorf("TotalRaised = %d, want 15000", got.TotalRaised.Amount)
	}
}

// ──────────────────────────────────────────────────
// Finalization
// ──────────────────────────────────────────────────

func TestFinalizeProject(t *testing.T) {
	ctx := context.Background()

	t.Run("before deadline under target", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(50_000)); err != nil {
			t.Fatal(err)
		}
		_, err := e.FinalizeProject(ctx, c.ID)
		if !errors.Is(err, crowdfund.ErrStillActive) {
			t.Fatalf("got %v, want ErrStillActive", err)
		}
	})

	t.Run("threshold boundary at deadline", func(t *testing.T) {
		tests := []struct {
			name   string
			raised int64
			want   campaign.Status
		}{
			{"exactly 30 percent succeeds", 30_000, campaign.StatusSuccessful},
			{"one unit short fails", 29_999, campaign.StatusFailed},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				e, _, clock := newTestEngine(t)
				c := mustCreateProject(t, e, 100_000)

				if _, err := e.Invest(ctx, c.ID, "bob", types.USD(tt.raised)); err != nil {
					t.Fatal(err)
				}
				clock.Advance(30 * 24 * time.Hour)

				res, err := e.FinalizeProject(ctx, c.ID)
				if err != nil {
					t.Fatal(err)
				}
				if res.Status != tt.want {
					t.Errorf("Status = %s, want %s", res.Status, tt.want)
				}
			})
		}
	})

	t.Run("double finalize rejected", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		clock.Advance(30 * 24 * time.Hour)
		if _, err := e.FinalizeProject(ctx, c.ID); err != nil {
			t.Fatal(err)
		}
		_, err := e.FinalizeProject(ctx, c.ID)
		if !errors.Is(err, crowdfund.ErrAlreadyFinalized) {
			t.Fatalf("got %v, want ErrAlreadyFinalized", err)
		}
	})

	t.Run("registry entry mirrors outcome", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		clock.Advance(30 * 24 * time.Hour)
		if _, err := e.FinalizeProject(ctx, c.ID); err != nil {
			t.Fatal(err)
		}

		entry, err := e.GetRegistryEntry(ctx, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if entry.Status != campaign.StatusFailed {
			t.Errorf("entry status = %s, want failed", entry.Status)
		}
	})
}

// ──────────────────────────────────────────────────
// Payouts
// ──────────────────────────────────────────────────

func TestWithdrawFunds(t *testing.T) {
	ctx := context.Background()

	succeed := func(t *testing.T, e *crowdfund.Engine) *campaign.Campaign {
		t.Helper()
		c := mustCreateProject(t, e, 100_000)
		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(100_000)); err != nil {
			t.Fatal(err)
		}
		return c
	}

	t.Run("fee plus net conserves the raised total", func(t *testing.T) {
		e, treasury, _ := newTestEngine(t)
		c := succeed(t, e)

		res, err := e.WithdrawFunds(ctx, c.ID, "alice")
		if err != nil {
			t.Fatal(err)
		}

		// 2.5% of 100000 = 2500.
		if res.FeeToRecipient.Amount != 2_500 {
			t.Errorf("fee = %d, want 2500", res.FeeToRecipient.Amount)
		}
		if res.AmountToCreator.Amount != 97_500 {
			t.Errorf("net = %d, want 97500", res.AmountToCreator.Amount)
		}
		if res.AmountToCreator.Amount+res.FeeToRecipient.Amount != 100_000 {
			t.Error("net + fee must equal the raised total")
		}

		if got := treasury.fundsTo("alice"); got != 97_500 {
			t.Errorf("creator received %d, want 97500", got)
		}
		if got := treasury.fundsTo("operator"); got != 2_500 {
			t.Errorf("fee recipient received %d, want 2500", got)
		}

		stats, _ := e.GetPlatformStats(ctx)
		if stats.TotalFundsRaised != 100_000 {
			t.Errorf("TotalFundsRaised = %d, want 100000", stats.TotalFundsRaised)
		}
		// Creation fee + platform fee.
		if stats.TotalFeesCollected != 12_500 {
			t.Errorf("TotalFeesCollected = %d, want 12500", stats.TotalFeesCollected)
		}
	})

	t.Run("pays at most once", func(t *testing.T) {
		e, treasury, _ := newTestEngine(t)
		c := succeed(t, e)

		if _, err := e.WithdrawFunds(ctx, c.ID, "alice"); err != nil {
			t.Fatal(err)
		}
		_, err := e.WithdrawFunds(ctx, c.ID, "alice")
		if !errors.Is(err, crowdfund.ErrFundsAlreadyWithdrawn) {
			t.Fatalf("got %v, want ErrFundsAlreadyWithdrawn", err)
		}
		if got := treasury.fundsTo("alice"); got != 97_500 {
			t.Errorf("creator received %d after double withdraw, want 97500", got)
		}
	})

	t.Run("creator only", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := succeed(t, e)

		_, err := e.WithdrawFunds(ctx, c.ID, "mallory")
		if !errors.Is(err, crowdfund.ErrUnauthorized) {
			t.Fatalf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("requires success", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		clock.Advance(30 * 24 * time.Hour)
		if _, err := e.FinalizeProject(ctx, c.ID); err != nil {
			t.Fatal(err)
		}
		_, err := e.WithdrawFunds(ctx, c.ID, "alice")
		if !errors.Is(err, crowdfund.ErrNotSuccessful) {
			t.Fatalf("got %v, want ErrNotSuccessful", err)
		}
	})
}

func TestClaimRefund(t *testing.T) {
	ctx := context.Background()

	t.Run("failed campaign refunds exactly what was contributed", func(t *testing.T) {
		e, treasury, clock := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(12_000)); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Invest(ctx, c.ID, "carol", types.USD(8_000)); err != nil {
			t.Fatal(err)
		}
		clock.Advance(30 * 24 * time.Hour)
		if _, err := e.FinalizeProject(ctx, c.ID); err != nil {
			t.Fatal(err)
		}

		refund, err := e.ClaimRefund(ctx, c.ID, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if refund.Amount != 12_000 {
			t.Errorf("refund = %d, want 12000", refund.Amount)
		}
		if _, err := e.ClaimRefund(ctx, c.ID, "carol"); err != nil {
			t.Fatal(err)
		}

		// Conservation: refunds total exactly the raised amount.
		if total := treasury.fundsTo("bob") + treasury.fundsTo("carol"); total != 20_000 {
			t.Errorf("refund total = %d, want 20000", total)
		}
	})

	t.Run("pays at most once", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(5_000)); err != nil {
			t.Fatal(err)
		}
		clock.Advance(30 * 24 * time.Hour)
		if _, err := e.FinalizeProject(ctx, c.ID); err != nil {
			t.Fatal(err)
		}

		if _, err := e.ClaimRefund(ctx, c.ID, "bob"); err != nil {
			t.Fatal(err)
		}
		_, err := e.ClaimRefund(ctx, c.ID, "bob")
		if !errors.Is(err, crowdfund.ErrRefundAlreadyClaimed) {
			t.Fatalf("got %v, want ErrRefundAlreadyClaimed", err)
		}
	})

	t.Run("not available while active or successful", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(5_000)); err != nil {
			t.Fatal(err)
		}
		_, err := e.ClaimRefund(ctx, c.ID, "bob")
		if !errors.Is(err, crowdfund.ErrRefundNotAvailable) {
			t.Fatalf("got %v, want ErrRefundNotAvailable", err)
		}
	})
}

func TestCancelProject(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel opens the refund path", func(t *testing.T) {
		e, treasury, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(5_000)); err != nil {
			t.Fatal(err)
		}
		if err := e.CancelProject(ctx, c.ID, "alice"); err != nil {
			t.Fatal(err)
		}

		if _, err := e.ClaimRefund(ctx, c.ID, "bob"); err != nil {
			t.Fatal(err)
		}
		if got := treasury.fundsTo("bob"); got != 5_000 {
			t.Errorf("refund = %d, want 5000", got)
		}
	})

	t.Run("creator only", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		if err := e.CancelProject(ctx, c.ID, "mallory"); !errors.Is(err, crowdfund.ErrUnauthorized) {
			t.Fatalf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("not after the deadline", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		clock.Advance(30 * 24 * time.Hour)
		if err := e.CancelProject(ctx, c.ID, "alice"); !errors.Is(err, crowdfund.ErrProjectEnded) {
			t.Fatalf("got %v, want ErrProjectEnded", err)
		}
	})
}

// ──────────────────────────────────────────────────
// Vesting
// ──────────────────────────────────────────────────

// succeedWithSoleInvestor fills a $1,000.00 target from one investor at
// $1.00 per token: a 1000-token schedule with a 90-day cliff and
// one-year release.
func succeedWithSoleInvestor(t *testing.T, e *crowdfund.Engine) *campaign.Campaign {
	t.Helper()
	ctx := context.Background()
	c := mustCreateProject(t, e, 100_000)
	if _, err := e.Invest(ctx, c.ID, "bob", types.USD(100_000)); err != nil {
		t.Fatal(err)
	}
	return c
}

func TestVestingClaims(t *testing.T) {
	ctx := context.Background()
	total := 1000 * campaign.TokenScale

	t.Run("nothing before the cliff", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		c := succeedWithSoleInvestor(t, e)

		clock.Advance(89 * 24 * time.Hour)
		_, err := e.ClaimTokens(ctx, c.ID, "bob")
		if !errors.Is(err, crowdfund.ErrNothingToClaim) {
			t.Fatalf("got %v, want ErrNothingToClaim", err)
		}
	})

	t.Run("midpoint releases half", func(t *testing.T) {
		e, treasury, clock := newTestEngine(t)
		c := succeedWithSoleInvestor(t, e)

		// Cliff plus half the release window.
		clock.Advance(90*24*time.Hour + 365*12*time.Hour)
		claimed, err := e.ClaimTokens(ctx, c.ID, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if claimed != total/2 {
			t.Errorf("claimed = %d, want %d", claimed, total/2)
		}
		if got := treasury.tokensTo("bob"); got != claimed {
			t.Errorf("treasury moved %d, want %d", got, claimed)
		}

		// Immediately claiming again yields nothing.
		if _, err := e.ClaimTokens(ctx, c.ID, "bob"); !errors.Is(err, crowdfund.ErrNothingToClaim) {
			t.Fatalf("got %v, want ErrNothingToClaim", err)
		}
	})

	t.Run("claims never exceed the total", func(t *testing.T) {
		e, treasury, clock := newTestEngine(t)
		c := succeedWithSoleInvestor(t, e)

		var sum int64
		for _, step := range []time.Duration{
			100 * 24 * time.Hour,
			100 * 24 * time.Hour,
			100 * 24 * time.Hour,
			200 * 24 * time.Hour, // past the end
		} {
			clock.Advance(step)
			claimed, err := e.ClaimTokens(ctx, c.ID, "bob")
			if err != nil {
				t.Fatal(err)
			}
			sum += claimed
		}

		if sum != total {
			t.Errorf("claim total = %d, want %d", sum, total)
		}
		if got := treasury.tokensTo("bob"); got != total {
			t.Errorf("treasury total = %d, want %d", got, total)
		}

		// Fully vested and fully claimed.
		info, err := e.GetVestingInfo(ctx, c.ID, "bob")
		if err != nil {
			t.Fatal(err)
		}
		if info.Claimable != 0 || info.Schedule.Remaining() != 0 {
			t.Errorf("claimable = %d, remaining = %d, want 0/0", info.Claimable, info.Schedule.Remaining())
		}
	})
}

func TestRevokeVesting(t *testing.T) {
	ctx := context.Background()
	total := 1000 * campaign.TokenScale

	e, treasury, clock := newTestEngine(t)
	c := succeedWithSoleInvestor(t, e)

	// Claim half at the midpoint, then revoke.
	clock.Advance(90*24*time.Hour + 365*12*time.Hour)
	if _, err := e.ClaimTokens(ctx, c.ID, "bob"); err != nil {
		t.Fatal(err)
	}

	returned, err := e.RevokeVesting(ctx, c.ID, "bob", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if returned != total/2 {
		t.Errorf("returned = %d, want %d", returned, total/2)
	}
	if got := treasury.tokensTo("alice"); got != total/2 {
		t.Errorf("creator received %d, want %d", got, total/2)
	}

	// Revoked schedules pay nothing further.
	if _, err := e.ClaimTokens(ctx, c.ID, "bob"); !errors.Is(err, crowdfund.ErrNoActiveSchedule) {
		t.Fatalf("got %v, want ErrNoActiveSchedule", err)
	}
	if _, err := e.RevokeVesting(ctx, c.ID, "bob", "alice"); !errors.Is(err, crowdfund.ErrNoActiveSchedule) {
		t.Fatalf("got %v, want ErrNoActiveSchedule", err)
	}

	// Beneficiary keeps exactly what was already claimed.
	if got := treasury.tokensTo("bob"); got != total/2 {
		t.Errorf("beneficiary kept %d, want %d", got, total/2)
	}
}

func TestEmergencyWithdrawTokens(t *testing.T) {
	ctx := context.Background()
	total := 1000 * campaign.TokenScale

	t.Run("blocked inside the grace period", func(t *testing.T) {
		e, _, clock := newTestEngine(t)
		c := succeedWithSoleInvestor(t, e)

		// Fully vested but only 29 days past the end.
		clock.Advance(90*24*time.Hour + 365*24*time.Hour + 29*24*time.Hour)
		_, err := e.EmergencyWithdrawTokens(ctx, c.ID, "alice", "recovery")
		if !errors.Is(err, crowdfund.ErrGracePeriodActive) {
			t.Fatalf("got %v, want ErrGracePeriodActive", err)
		}
	})

	t.Run("sweeps the unclaimed remainder after the grace period", func(t *testing.T) {
		e, treasury, clock := newTestEngine(t)
		c := succeedWithSoleInvestor(t, e)

		clock.Advance(90*24*time.Hour + 365*24*time.Hour + 30*24*time.Hour)
		swept, err := e.EmergencyWithdrawTokens(ctx, c.ID, "alice", "recovery")
		if err != nil {
			t.Fatal(err)
		}
		if swept != total {
			t.Errorf("swept = %d, want %d", swept, total)
		}
		if got := treasury.tokensTo("recovery"); got != total {
			t.Errorf("recovery received %d, want %d", got, total)
		}

		// Swept schedules cannot be claimed or swept again.
		if _, err := e.ClaimTokens(ctx, c.ID, "bob"); !errors.Is(err, crowdfund.ErrNoActiveSchedule) {
			t.Fatalf("got %v, want ErrNoActiveSchedule", err)
		}
		if _, err := e.EmergencyWithdrawTokens(ctx, c.ID, "alice", "recovery"); !errors.Is(err, crowdfund.ErrGracePeriodActive) {
			t.Fatalf("got %v, want ErrGracePeriodActive", err)
		}
	})

	t.Run("requires a recipient and authorization", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := succeedWithSoleInvestor(t, e)

		if _, err := e.EmergencyWithdrawTokens(ctx, c.ID, "alice", ""); !errors.Is(err, crowdfund.ErrInvalidRecipient) {
			t.Fatalf("got %v, want ErrInvalidRecipient", err)
		}
		if _, err := e.EmergencyWithdrawTokens(ctx, c.ID, "mallory", "recovery"); !errors.Is(err, crowdfund.ErrUnauthorized) {
			t.Fatalf("got %v, want ErrUnauthorized", err)
		}
	})
}

func TestCreateVestingSchedules(t *testing.T) {
	ctx := context.Background()

	t.Run("batch validation", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		tests := []struct {
			name          string
			actor         string
			beneficiaries []string
			amounts       []int64
			wantErr       error
		}{
			{"unauthorized", "mallory", []string{"x"}, []int64{1}, crowdfund.ErrUnauthorized},
			{"empty batch", "alice", nil, nil, crowdfund.ErrEmptyBatch},
			{"length mismatch", "alice", []string{"x", "y"}, []int64{1}, crowdfund.ErrBatchMismatch},
			{"empty beneficiary", "alice", []string{""}, []int64{1}, crowdfund.ErrInvalidRecipient},
			{"zero amount", "alice", []string{"x"}, []int64{0}, crowdfund.ErrZeroAmount},
			{"duplicate in batch", "alice", []string{"x", "x"}, []int64{1, 2}, crowdfund.ErrDuplicateSchedule},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := e.CreateVestingSchedules(ctx, c.ID, tt.actor, tt.beneficiaries, tt.amounts)
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
			})
		}

		// All-or-nothing: no schedule from any failed batch survives.
		schedules, err := e.ListVestingSchedules(ctx, c.ID, vesting.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(schedules) != 0 {
			t.Errorf("got %d schedules after failed batches, want 0", len(schedules))
		}
	})

	t.Run("valid batch creates all schedules", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)

		err := e.CreateVestingSchedules(ctx, c.ID, "alice",
			[]string{"team", "advisor"}, []int64{500 * campaign.TokenScale, 100 * campaign.TokenScale})
		if err != nil {
			t.Fatal(err)
		}

		schedules, err := e.ListVestingSchedules(ctx, c.ID, vesting.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(schedules) != 2 {
			t.Fatalf("got %d schedules, want 2", len(schedules))
		}

		// A second batch for an already-scheduled beneficiary fails.
		err = e.CreateVestingSchedules(ctx, c.ID, "alice", []string{"team"}, []int64{1})
		if !errors.Is(err, crowdfund.ErrDuplicateSchedule) {
			t.Fatalf("got %v, want ErrDuplicateSchedule", err)
		}
	})
}

// ──────────────────────────────────────────────────
// Administration and registry
// ──────────────────────────────────────────────────

func TestVerifyProject(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)
	c := mustCreateProject(t, e, 100_000)

	if err := e.VerifyProject(ctx, c.ID, "mallory"); !errors.Is(err, crowdfund.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}

	if err := e.VerifyProject(ctx, c.ID, "operator"); err != nil {
		t.Fatal(err)
	}
	entry, err := e.GetRegistryEntry(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !entry.IsVerified || entry.VerifiedAt == nil {
		t.Error("entry should be verified with a timestamp")
	}

	// Verification is monotonic.
	if err := e.VerifyProject(ctx, c.ID, "operator"); !errors.Is(err, crowdfund.ErrAlreadyVerified) {
		t.Fatalf("got %v, want ErrAlreadyVerified", err)
	}
}

func TestFeePolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("rate capped at ten percent", func(t *testing.T) {
		e, _, _ := newTestEngine(t)

		if err := e.SetPlatformFeeBps(ctx, "operator", 1001); !errors.Is(err, crowdfund.ErrFeeTooHigh) {
			t.Fatalf("got %v, want ErrFeeTooHigh", err)
		}
		if err := e.SetPlatformFeeBps(ctx, "operator", 1000); err != nil {
			t.Fatal(err)
		}
		if got := e.PlatformFeeBps(); got != 1000 {
			t.Errorf("PlatformFeeBps = %d, want 1000", got)
		}
	})

	t.Run("operator only", func(t *testing.T) {
		e, _, _ := newTestEngine(t)

		if err := e.SetPlatformFeeBps(ctx, "mallory", 100); !errors.Is(err, crowdfund.ErrUnauthorized) {
			t.Fatalf("got %v, want ErrUnauthorized", err)
		}
		if err := e.SetCreationFee(ctx, "mallory", types.USD(1)); !errors.Is(err, crowdfund.ErrUnauthorized) {
			t.Fatalf("got %v, want ErrUnauthorized", err)
		}
		if err := e.SetFeeRecipient(ctx, "mallory", "x"); !errors.Is(err, crowdfund.ErrUnauthorized) {
			t.Fatalf("got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("rate change applies to later withdrawals only", func(t *testing.T) {
		e, _, _ := newTestEngine(t)
		c := mustCreateProject(t, e, 100_000)
		if _, err := e.Invest(ctx, c.ID, "bob", types.USD(100_000)); err != nil {
			t.Fatal(err)
		}

		if err := e.SetPlatformFeeBps(ctx, "operator", 500); err != nil {
			t.Fatal(err)
		}
		res, err := e.WithdrawFunds(ctx, c.ID, "alice")
		if err != nil {
			t.Fatal(err)
		}
		// 5% of 100000.
		if res.FeeToRecipient.Amount != 5_000 {
			t.Errorf("fee = %d, want 5000", res.FeeToRecipient.Amount)
		}
	})
}

func TestWithdrawFees(t *testing.T) {
	ctx := context.Background()
	e, treasury, _ := newTestEngine(t)
	mustCreateProject(t, e, 100_000)

	if _, err := e.WithdrawFees(ctx, "mallory"); !errors.Is(err, crowdfund.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}

	amount, err := e.WithdrawFees(ctx, "operator")
	if err != nil {
		t.Fatal(err)
	}
	if amount.Amount != 10_000 {
		t.Errorf("withdrawn = %d, want 10000", amount.Amount)
	}
	if got := treasury.fundsTo("operator"); got != 10_000 {
		t.Errorf("recipient received %d, want 10000", got)
	}

	// Balance is zeroed; a second withdrawal has nothing to pay.
	if _, err := e.WithdrawFees(ctx, "operator"); !errors.Is(err, crowdfund.ErrNothingToWithdraw) {
		t.Fatalf("got %v, want ErrNothingToWithdraw", err)
	}

	stats, _ := e.GetPlatformStats(ctx)
	if stats.FeeBalance != 0 {
		t.Errorf("FeeBalance = %d after withdrawal, want 0", stats.FeeBalance)
	}
	// The lifetime total is untouched.
	if stats.TotalFeesCollected != 10_000 {
		t.Errorf("TotalFeesCollected = %d, want 10000", stats.TotalFeesCollected)
	}
}

func TestPagination(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t)

	var ids []string
	for i := 0; i < 3; i++ {
		c := mustCreateProject(t, e, 100_000)
		ids = append(ids, c.ID.String())
	}

	t.Run("stable insertion order", func(t *testing.T) {
		entries, err := e.GetProjectsPaginated(ctx, 1, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if entries[0].ProjectID.String() != ids[1] || entries[1].ProjectID.String() != ids[2] {
			t.Error("entries out of insertion order")
		}
	})

	t.Run("offset equal to count yields empty page", func(t *testing.T) {
		entries, err := e.GetProjectsPaginated(ctx, 3, 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("got %d entries, want 0", len(entries))
		}
	})

	t.Run("offset past count rejected", func(t *testing.T) {
		if _, err := e.GetProjectsPaginated(ctx, 4, 10); !errors.Is(err, crowdfund.ErrOffsetOutOfBounds) {
			t.Fatalf("got %v, want ErrOffsetOutOfBounds", err)
		}
	})

	t.Run("negative arguments rejected", func(t *testing.T) {
		if _, err := e.GetProjectsPaginated(ctx, -1, 10); !errors.Is(err, crowdfund.ErrInvalidInput) {
			t.Fatalf("got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("by creator", func(t *testing.T) {
		entries, err := e.GetProjectsByCreator(ctx, "alice", registry.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 3 {
			t.Errorf("got %d entries for creator, want 3", len(entries))
		}
	})

	t.Run("count", func(t *testing.T) {
		n, err := e.CountProjects(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if n != 3 {
			t.Errorf("CountProjects = %d, want 3", n)
		}
	})
}

func TestProgressAndTimeRemaining(t *testing.T) {
	ctx := context.Background()
	e, _, clock := newTestEngine(t)
	c := mustCreateProject(t, e, 100_000)

	if _, err := e.Invest(ctx, c.ID, "bob", types.USD(25_000)); err != nil {
		t.Fatal(err)
	}

	bps, err := e.GetProgress(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if bps != 2500 {
		t.Errorf("progress = %d bps, want 2500", bps)
	}

	clock.Advance(29 * 24 * time.Hour)
	remaining, err := e.GetTimeRemaining(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 24*time.Hour {
		t.Errorf("remaining = %s, want 24h", remaining)
	}

	clock.Advance(2 * 24 * time.Hour)
	remaining, err = e.GetTimeRemaining(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 0 {
		t.Errorf("remaining = %s after deadline, want 0", remaining)
	}
}
