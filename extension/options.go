package extension

import (
	"time"

	crowdfund "github.com/xraph/crowdfund"
	"github.com/xraph/crowdfund/plugin"
	"github.com/xraph/crowdfund/store"
)

// Option configures the Crowdfund Forge extension.
type Option func(*Extension)

// WithStore sets the store for the crowdfund engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a crowdfund.Option through to the underlying engine.
func WithEngineOption(opt crowdfund.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a crowdfund plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, crowdfund.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithOperator sets the platform operator identity.
func WithOperator(operator string) Option {
	return func(e *Extension) { e.config.Operator = operator }
}

// WithFeeRecipient sets the platform fee recipient.
func WithFeeRecipient(recipient string) Option {
	return func(e *Extension) { e.config.FeeRecipient = recipient }
}

// WithPlatformFeeBps sets the platform fee in basis points.
func WithPlatformFeeBps(bps int64) Option {
	return func(e *Extension) { e.config.PlatformFeeBps = bps }
}

// WithCreationFee sets the flat project creation fee in the smallest
// currency unit.
func WithCreationFee(amount int64) Option {
	return func(e *Extension) { e.config.CreationFee = amount }
}

// WithCurrency sets the ISO currency code for platform amounts.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithInvestmentLimits sets the per-investor contribution bounds in the
// smallest currency unit. A zero max means uncapped.
func WithInvestmentLimits(minAmount, maxAmount int64) Option {
	return func(e *Extension) {
		e.config.MinInvestment = minAmount
		e.config.MaxInvestment = maxAmount
	}
}

// WithMinProjectDuration sets the shortest allowed funding window.
func WithMinProjectDuration(d time.Duration) Option {
	return func(e *Extension) { e.config.MinProjectDuration = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
