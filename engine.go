package crowdfund

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/crowdfund/fees"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/plugin"
	"github.com/xraph/crowdfund/store"
	"github.com/xraph/crowdfund/types"
)

// Default platform policy. All of these are adjustable: the fee policy
// at runtime by the operator, the rest via Options at construction.
const (
	DefaultPlatformFeeBps     int64 = 250 // 2.5%
	DefaultMinProjectDuration       = 24 * time.Hour
)

// DefaultCreationFee is the up-front fee to register a campaign.
var DefaultCreationFee = types.USD(10_000) // $100.00

// DefaultMinInvestment is the smallest accepted contribution.
var DefaultMinInvestment = types.USD(100) // $1.00

// Treasury moves real value in and out of the platform. The engine
// records accounting state first and then calls the treasury, so a
// transfer is attempted at most once per payout. The default treasury
// is a no-op for deployments that settle externally.
type Treasury interface {
	// TransferFunds moves money from the platform to a recipient.
	TransferFunds(ctx context.Context, recipient string, amount types.Money) error
	// TransferTokens moves token base units of a project's token to a recipient.
	TransferTokens(ctx context.Context, projectID id.ProjectID, recipient string, baseUnits int64) error
}

type noopTreasury struct{}

func (noopTreasury) TransferFunds(context.Context, string, types.Money) error { return nil }
func (noopTreasury) TransferTokens(context.Context, id.ProjectID, string, int64) error {
	return nil
}

// Engine is the main crowdfunding engine.
type Engine struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	treasury Treasury
	now      func() time.Time

	// Per-project locks. Every mutation of a campaign and its dependent
	// records (investments, schedules, registry entry) runs under the
	// owning project's lock, so invariants hold without store-level
	// transactions.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// Platform fee policy, mutable at runtime by the operator.
	policyMu       sync.RWMutex
	platformFeeBps int64
	creationFee    types.Money
	feeRecipient   string

	// Construction-time configuration
	operator           string
	currency           string
	minInvestment      types.Money
	maxInvestment      types.Money // zero amount means uncapped
	minProjectDuration time.Duration
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:              s,
		plugins:            plugin.NewRegistry(),
		logger:             slog.Default(),
		treasury:           noopTreasury{},
		now:                time.Now,
		locks:              make(map[string]*sync.Mutex),
		platformFeeBps:     DefaultPlatformFeeBps,
		creationFee:        DefaultCreationFee,
		currency:           "usd",
		minInvestment:      DefaultMinInvestment,
		maxInvestment:      types.Zero("usd"),
		minProjectDuration: DefaultMinProjectDuration,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.feeRecipient == "" {
		e.feeRecipient = e.operator
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithTreasury sets the value-transfer backend.
func WithTreasury(t Treasury) Option {
	return func(e *Engine) {
		e.treasury = t
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithOperator sets the platform operator identity. Only the operator
// may verify projects, change fee policy, and withdraw accrued fees.
func WithOperator(operator string) Option {
	return func(e *Engine) {
		e.operator = operator
	}
}

// WithFeeRecipient sets where platform fees are paid. Defaults to the
// operator.
func WithFeeRecipient(recipient string) Option {
	return func(e *Engine) {
		e.feeRecipient = recipient
	}
}

// WithPlatformFeeBps sets the platform fee rate in basis points. Rates
// outside [0, MaxPlatformFeeBps] are ignored and the default kept, the
// same bound the runtime setter enforces.
func WithPlatformFeeBps(bps int64) Option {
	return func(e *Engine) {
		if fees.ValidateFeeBps(bps) != nil {
			return
		}
		e.platformFeeBps = bps
	}
}

// WithCreationFee sets the up-front campaign registration fee. A
// negative fee is ignored and the default kept.
func WithCreationFee(fee types.Money) Option {
	return func(e *Engine) {
		if fee.IsNegative() {
			return
		}
		e.creationFee = fee
	}
}

// WithCurrency sets the platform currency (ISO 4217 lowercase).
func WithCurrency(currency string) Option {
	return func(e *Engine) {
		e.currency = currency
	}
}

// WithInvestmentLimits bounds accepted contributions. A zero-amount max
// means uncapped.
func WithInvestmentLimits(minAmt, maxAmt types.Money) Option {
	return func(e *Engine) {
		e.minInvestment = minAmt
		e.maxInvestment = maxAmt
	}
}

// WithMinProjectDuration sets the shortest allowed funding window.
func WithMinProjectDuration(d time.Duration) Option {
	return func(e *Engine) {
		e.minProjectDuration = d
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.policyMu.RLock()
	feeBps, creationFee := e.platformFeeBps, e.creationFee
	e.policyMu.RUnlock()

	e.logger.Info("crowdfund engine started",
		"platform_fee_bps", feeBps,
		"creation_fee", creationFee.String(),
		"currency", e.currency,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// lockProject acquires the per-project mutex and returns its unlock.
// Lock entries are created on demand and kept for the engine's lifetime.
func (e *Engine) lockProject(projectID id.ProjectID) func() {
	key := projectID.String()

	e.locksMu.Lock()
	l, ok := e.locks[key]
	if !ok {
		l = &sync.Mutex{}
		e.locks[key] = l
	}
	e.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// feePolicy returns a consistent snapshot of the mutable fee policy.
func (e *Engine) feePolicy() (bps int64, creationFee types.Money, recipient string) {
	e.policyMu.RLock()
	defer e.policyMu.RUnlock()
	return e.platformFeeBps, e.creationFee, e.feeRecipient
}

// PlatformFeeBps returns the current platform fee rate.
func (e *Engine) PlatformFeeBps() int64 {
	bps, _, _ := e.feePolicy()
	return bps
}

// CreationFee returns the current campaign registration fee.
func (e *Engine) CreationFee() types.Money {
	_, fee, _ := e.feePolicy()
	return fee
}

// FeeRecipient returns where platform fees are currently paid.
func (e *Engine) FeeRecipient() string {
	_, _, recipient := e.feePolicy()
	return recipient
}

// MaxPlatformFeeBps is re-exported for callers configuring fee policy.
const MaxPlatformFeeBps = fees.MaxPlatformFeeBps
