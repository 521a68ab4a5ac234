// Package extension provides the Forge extension adapter for Crowdfund.
//
// It implements the forge.Extension interface to integrate Crowdfund
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.crowdfund" or
// "crowdfund" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	crowdfund "github.com/xraph/crowdfund"
	"github.com/xraph/crowdfund/store"
	"github.com/xraph/crowdfund/store/memory"
	"github.com/xraph/crowdfund/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "crowdfund"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Crowdfunding campaign and vesting engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Crowdfund as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *crowdfund.Engine
	store      store.Store
	engineOpts []crowdfund.Option
}

// New creates a new Crowdfund Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Crowdfund instance.
// This is nil until Register is called.
func (e *Extension) Engine() *crowdfund.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the crowdfund engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build engine options from resolved config.
	opts := e.buildEngineOpts()

	eng := crowdfund.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*crowdfund.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("crowdfund: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("crowdfund: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs crowdfund.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []crowdfund.Option {
	opts := make([]crowdfund.Option, 0, len(e.engineOpts)+7)

	currency := e.config.Currency
	if currency == "" {
		currency = DefaultConfig().Currency
	}
	opts = append(opts, crowdfund.WithCurrency(currency))

	if e.config.Operator != "" {
		opts = append(opts, crowdfund.WithOperator(e.config.Operator))
	}
	if e.config.FeeRecipient != "" {
		opts = append(opts, crowdfund.WithFeeRecipient(e.config.FeeRecipient))
	}
	if e.config.PlatformFeeBps > 0 {
		opts = append(opts, crowdfund.WithPlatformFeeBps(e.config.PlatformFeeBps))
	}
	if e.config.CreationFee > 0 {
		opts = append(opts, crowdfund.WithCreationFee(types.NewMoney(e.config.CreationFee, currency)))
	}
	if e.config.MinInvestment > 0 {
		minAmt := types.NewMoney(e.config.MinInvestment, currency)
		maxAmt := types.Zero(currency)
		if e.config.MaxInvestment > 0 {
			maxAmt = types.NewMoney(e.config.MaxInvestment, currency)
		}
		opts = append(opts, crowdfund.WithInvestmentLimits(minAmt, maxAmt))
	}
	if e.config.MinProjectDuration > 0 {
		opts = append(opts, crowdfund.WithMinProjectDuration(e.config.MinProjectDuration))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("crowdfund: configuration is required but not found in config files; " +
				"ensure 'extensions.crowdfund' or 'crowdfund' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("crowdfund: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("operator", e.config.Operator),
		forge.F("platform_fee_bps", e.config.PlatformFeeBps),
		forge.F("creation_fee", e.config.CreationFee),
		forge.F("currency", e.config.Currency),
		forge.F("min_investment", e.config.MinInvestment),
		forge.F("min_project_duration", e.config.MinProjectDuration),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.crowdfund" first (namespaced pattern).
	if cm.IsSet("extensions.crowdfund") {
		if err := cm.Bind("extensions.crowdfund", &cfg); err == nil {
			e.Logger().Debug("crowdfund: loaded config from file",
				forge.F("key", "extensions.crowdfund"),
			)
			return cfg, true
		}
		e.Logger().Warn("crowdfund: failed to bind extensions.crowdfund config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "crowdfund" key.
	if cm.IsSet("crowdfund") {
		if err := cm.Bind("crowdfund", &cfg); err == nil {
			e.Logger().Debug("crowdfund: loaded config from file",
				forge.F("key", "crowdfund"),
			)
			return cfg, true
		}
		e.Logger().Warn("crowdfund: failed to bind crowdfund config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.PlatformFeeBps == 0 {
		cfg.PlatformFeeBps = defaults.PlatformFeeBps
	}
	if cfg.CreationFee == 0 {
		cfg.CreationFee = defaults.CreationFee
	}
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.MinInvestment == 0 {
		cfg.MinInvestment = defaults.MinInvestment
	}
	if cfg.MinProjectDuration == 0 {
		cfg.MinProjectDuration = defaults.MinProjectDuration
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Operator == "" && programmaticConfig.Operator != "" {
		yamlConfig.Operator = programmaticConfig.Operator
	}
	if yamlConfig.FeeRecipient == "" && programmaticConfig.FeeRecipient != "" {
		yamlConfig.FeeRecipient = programmaticConfig.FeeRecipient
	}
	if yamlConfig.Currency == "" && programmaticConfig.Currency != "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}

	// Numeric fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.PlatformFeeBps == 0 && programmaticConfig.PlatformFeeBps != 0 {
		yamlConfig.PlatformFeeBps = programmaticConfig.PlatformFeeBps
	}
	if yamlConfig.CreationFee == 0 && programmaticConfig.CreationFee != 0 {
		yamlConfig.CreationFee = programmaticConfig.CreationFee
	}
	if yamlConfig.MinInvestment == 0 && programmaticConfig.MinInvestment != 0 {
		yamlConfig.MinInvestment = programmaticConfig.MinInvestment
	}
	if yamlConfig.MaxInvestment == 0 && programmaticConfig.MaxInvestment != 0 {
		yamlConfig.MaxInvestment = programmaticConfig.MaxInvestment
	}
	if yamlConfig.MinProjectDuration == 0 && programmaticConfig.MinProjectDuration != 0 {
		yamlConfig.MinProjectDuration = programmaticConfig.MinProjectDuration
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
