package extension

import "time"

// Config holds the Crowdfund extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.crowdfund" or "crowdfund" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Operator is the platform operator identity authorized for admin
	// operations (verification, fee policy, fee withdrawal).
	Operator string `json:"operator" mapstructure:"operator" yaml:"operator"`

	// FeeRecipient receives platform fees. Defaults to Operator when empty.
	FeeRecipient string `json:"fee_recipient" mapstructure:"fee_recipient" yaml:"fee_recipient"`

	// PlatformFeeBps is the platform fee in basis points taken from
	// successful projects (default: 250 = 2.5%, capped at 1000).
	PlatformFeeBps int64 `json:"platform_fee_bps" mapstructure:"platform_fee_bps" yaml:"platform_fee_bps"`

	// CreationFee is the flat project creation fee in the smallest
	// currency unit (default: 10000).
	CreationFee int64 `json:"creation_fee" mapstructure:"creation_fee" yaml:"creation_fee"`

	// Currency is the ISO currency code for platform amounts (default: "USD").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// MinInvestment is the smallest accepted contribution in the smallest
	// currency unit (default: 100).
	MinInvestment int64 `json:"min_investment" mapstructure:"min_investment" yaml:"min_investment"`

	// MaxInvestment caps a single investor's total contribution per project.
	// Zero means uncapped.
	MaxInvestment int64 `json:"max_investment" mapstructure:"max_investment" yaml:"max_investment"`

	// MinProjectDuration is the shortest allowed funding window (default: 24h).
	MinProjectDuration time.Duration `json:"min_project_duration" mapstructure:"min_project_duration" yaml:"min_project_duration"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PlatformFeeBps:     250,
		CreationFee:        10_000,
		Currency:           "USD",
		MinInvestment:      100,
		MinProjectDuration: 24 * time.Hour,
	}
}
