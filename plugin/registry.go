package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onProjectCreated     []OnProjectCreated
	onProjectVerified    []OnProjectVerified
	onProjectFinalized   []OnProjectFinalized
	onProjectCancelled   []OnProjectCancelled
	onInvestmentMade     []OnInvestmentMade
	onFundsWithdrawn     []OnFundsWithdrawn
	onRefundClaimed      []OnRefundClaimed
	onVestingInitialized []OnVestingInitialized
	onTokensClaimed      []OnTokensClaimed
	onVestingRevoked     []OnVestingRevoked
	onEmergencySweep     []OnEmergencySweep
	onFeesWithdrawn      []OnFeesWithdrawn
	onFeePolicyChanged   []OnFeePolicyChanged
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnProjectCreated); ok {
		r.onProjectCreated = append(r.onProjectCreated, v)
	}
	if v, ok := p.(OnProjectVerified); ok {
		r.onProjectVerified = append(r.onProjectVerified, v)
	}
	if v, ok := p.(OnProjectFinalized); ok {
		r.onProjectFinalized = append(r.onProjectFinalized, v)
	}
	if v, ok := p.(OnProjectCancelled); ok {
		r.onProjectCancelled = append(r.onProjectCancelled, v)
	}
	if v, ok := p.(OnInvestmentMade); ok {
		r.onInvestmentMade = append(r.onInvestmentMade, v)
	}
	if v, ok := p.(OnFundsWithdrawn); ok {
		r.onFundsWithdrawn = append(r.onFundsWithdrawn, v)
	}
	if v, ok := p.(OnRefundClaimed); ok {
		r.onRefundClaimed = append(r.onRefundClaimed, v)
	}
	if v, ok := p.(OnVestingInitialized); ok {
		r.onVestingInitialized = append(r.onVestingInitialized, v)
	}
	if v, ok := p.(OnTokensClaimed); ok {
		r.onTokensClaimed = append(r.onTokensClaimed, v)
	}
	if v, ok := p.(OnVestingRevoked); ok {
		r.onVestingRevoked = append(r.onVestingRevoked, v)
	}
	if v, ok := p.(OnEmergencySweep); ok {
		r.onEmergencySweep = append(r.onEmergencySweep, v)
	}
	if v, ok := p.(OnFeesWithdrawn); ok {
		r.onFeesWithdrawn = append(r.onFeesWithdrawn, v)
	}
	if v, ok := p.(OnFeePolicyChanged); ok {
		r.onFeePolicyChanged = append(r.onFeePolicyChanged, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnProjectCreated)(nil)).Elem(), "OnProjectCreated")
	checkInterface(reflect.TypeOf((*OnProjectFinalized)(nil)).Elem(), "OnProjectFinalized")
	checkInterface(reflect.TypeOf((*OnInvestmentMade)(nil)).Elem(), "OnInvestmentMade")
	checkInterface(reflect.TypeOf((*OnFundsWithdrawn)(nil)).Elem(), "OnFundsWithdrawn")
	checkInterface(reflect.TypeOf((*OnRefundClaimed)(nil)).Elem(), "OnRefundClaimed")
	checkInterface(reflect.TypeOf((*OnVestingInitialized)(nil)).Elem(), "OnVestingInitialized")
	checkInterface(reflect.TypeOf((*OnTokensClaimed)(nil)).Elem(), "OnTokensClaimed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProjectCreated emits a project created event.
func (r *Registry) EmitProjectCreated(ctx context.Context, c interface{}) {
	r.mu.RLock()
	plugins := r.onProjectCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProjectCreated(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnProjectCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProjectVerified emits a project verified event.
func (r *Registry) EmitProjectVerified(ctx context.Context, projectID string) {
	r.mu.RLock()
	plugins := r.onProjectVerified
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProjectVerified(ctx, projectID)
		}); err != nil {
			r.logger.Warn("plugin OnProjectVerified failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProjectFinalized emits a project finalized event.
func (r *Registry) EmitProjectFinalized(ctx context.Context, c interface{}, successful bool) {
	r.mu.RLock()
	plugins := r.onProjectFinalized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProjectFinalized(ctx, c, successful)
		}); err != nil {
			r.logger.Warn("plugin OnProjectFinalized failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProjectCancelled emits a project cancelled event.
func (r *Registry) EmitProjectCancelled(ctx context.Context, c interface{}) {
	r.mu.RLock()
	plugins := r.onProjectCancelled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProjectCancelled(ctx, c)
		}); err != nil {
			r.logger.Warn("plugin OnProjectCancelled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvestmentMade emits an investment made event.
func (r *Registry) EmitInvestmentMade(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInvestmentMade
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvestmentMade(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvestmentMade failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFundsWithdrawn emits a funds withdrawn event.
func (r *Registry) EmitFundsWithdrawn(ctx context.Context, projectID string, net, fee interface{}) {
	r.mu.RLock()
	plugins := r.onFundsWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundsWithdrawn(ctx, projectID, net, fee)
		}); err != nil {
			r.logger.Warn("plugin OnFundsWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRefundClaimed emits a refund claimed event.
func (r *Registry) EmitRefundClaimed(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onRefundClaimed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRefundClaimed(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnRefundClaimed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitVestingInitialized emits a vesting initialized event.
func (r *Registry) EmitVestingInitialized(ctx context.Context, projectID string, count int) {
	r.mu.RLock()
	plugins := r.onVestingInitialized
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnVestingInitialized(ctx, projectID, count)
		}); err != nil {
			r.logger.Warn("plugin OnVestingInitialized failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTokensClaimed emits a tokens claimed event.
func (r *Registry) EmitTokensClaimed(ctx context.Context, s interface{}, amount int64) {
	r.mu.RLock()
	plugins := r.onTokensClaimed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTokensClaimed(ctx, s, amount)
		}); err != nil {
			r.logger.Warn("plugin OnTokensClaimed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitVestingRevoked emits a vesting revoked event.
func (r *Registry) EmitVestingRevoked(ctx context.Context, s interface{}, returned int64) {
	r.mu.RLock()
	plugins := r.onVestingRevoked
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnVestingRevoked(ctx, s, returned)
		}); err != nil {
			r.logger.Warn("plugin OnVestingRevoked failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitEmergencySweep emits an emergency sweep event.
func (r *Registry) EmitEmergencySweep(ctx context.Context, s interface{}, recipient string, amount int64) {
	r.mu.RLock()
	plugins := r.onEmergencySweep
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnEmergencySweep(ctx, s, recipient, amount)
		}); err != nil {
			r.logger.Warn("plugin OnEmergencySweep failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFeesWithdrawn emits a fees withdrawn event.
func (r *Registry) EmitFeesWithdrawn(ctx context.Context, recipient string, amount interface{}) {
	r.mu.RLock()
	plugins := r.onFeesWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFeesWithdrawn(ctx, recipient, amount)
		}); err != nil {
			r.logger.Warn("plugin OnFeesWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFeePolicyChanged emits a fee policy changed event.
func (r *Registry) EmitFeePolicyChanged(ctx context.Context, field string, value interface{}) {
	r.mu.RLock()
	plugins := r.onFeePolicyChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFeePolicyChanged(ctx, field, value)
		}); err != nil {
			r.logger.Warn("plugin OnFeePolicyChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the funding pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
