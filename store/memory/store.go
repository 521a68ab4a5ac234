// Package memory provides an in-memory Store for tests and ephemeral use.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/crowdfund"
	"github.com/xraph/crowdfund/campaign"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/registry"
	"github.com/xraph/crowdfund/vesting"
)

type Store struct {
	mu sync.RWMutex

	// Campaign storage
	campaigns map[string]*campaign.Campaign

	// Investment storage, keyed by projectID:investor, with a per-project
	// insertion-order index for deterministic listings
	investments     map[string]*campaign.Investment
	investmentOrder map[string][]string

	// Vesting storage, same keying scheme
	schedules     map[string]*vesting.Schedule
	scheduleOrder map[string][]string

	// Registry storage
	entries    map[string]*registry.Entry
	entryOrder []string
	stats      registry.Stats
}

func New() *Store {
	return &Store{
		campaigns:       make(map[string]*campaign.Campaign),
		investments:     make(map[string]*campaign.Investment),
		investmentOrder: make(map[string][]string),
		schedules:       make(map[string]*vesting.Schedule),
		scheduleOrder:   make(map[string][]string),
		entries:         make(map[string]*registry.Entry),
		entryOrder:      make([]string, 0),
	}
}

func scopedKey(projectID id.ProjectID, who string) string {
	return projectID.String() + ":" + who
}

// paginate clips an insertion-ordered slice to offset/limit. Limit 0
// means no limit.
func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Campaign Store implementation

func (s *Store) CreateCampaign(_ context.Context, c *campaign.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[c.ID.String()]; exists {
		return crowdfund.ErrAlreadyExists
	}
	s.campaigns[c.ID.String()] = c
	return nil
}

func (s *Store) GetCampaign(_ context.Context, projectID id.ProjectID) (*campaign.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.campaigns[projectID.String()]; ok {
		return c, nil
	}
	return nil, crowdfund.ErrProjectNotFound
}

func (s *Store) UpdateCampaign(_ context.Context, c *campaign.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.campaigns[c.ID.String()]; !exists {
		return crowdfund.ErrProjectNotFound
	}
	s.campaigns[c.ID.String()] = c
	return nil
}

// Investment Store implementation

func (s *Store) PutInvestment(_ context.Context, inv *campaign.Investment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopedKey(inv.ProjectID, inv.Investor)
	if _, exists := s.investments[key]; !exists {
		pid := inv.ProjectID.String()
		s.investmentOrder[pid] = append(s.investmentOrder[pid], key)
	}
	s.investments[key] = inv
	return nil
}

func (s *Store) GetInvestment(_ context.Context, projectID id.ProjectID, investor string) (*campaign.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.investments[scopedKey(projectID, investor)]; ok {
		return inv, nil
	}
	return nil, crowdfund.ErrNotFound
}

func (s *Store) ListInvestments(_ context.Context, projectID id.ProjectID, opts campaign.ListOpts) ([]*campaign.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.investmentOrder[projectID.String()]
	result := make([]*campaign.Investment, 0, len(keys))
	for _, key := range keys {
		result = append(result, s.investments[key])
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Vesting Store implementation

func (s *Store) CreateSchedules(_ context.Context, schedules []*vesting.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// All-or-nothing: check every key before writing any.
	for _, sch := range schedules {
		if existing, exists := s.schedules[scopedKey(sch.ProjectID, sch.Beneficiary)]; exists && existing.IsActive {
			return crowdfund.ErrDuplicateSchedule
		}
	}
	for _, sch := range schedules {
		key := scopedKey(sch.ProjectID, sch.Beneficiary)
		if _, exists := s.schedules[key]; !exists {
			pid := sch.ProjectID.String()
			s.scheduleOrder[pid] = append(s.scheduleOrder[pid], key)
		}
		s.schedules[key] = sch
	}
	return nil
}

func (s *Store) GetSchedule(_ context.Context, projectID id.ProjectID, beneficiary string) (*vesting.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sch, ok := s.schedules[scopedKey(projectID, beneficiary)]; ok {
		return sch, nil
	}
	return nil, crowdfund.ErrScheduleNotFound
}

func (s *Store) UpdateSchedule(_ context.Context, sch *vesting.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopedKey(sch.ProjectID, sch.Beneficiary)
	if _, exists := s.schedules[key]; !exists {
		return crowdfund.ErrScheduleNotFound
	}
	s.schedules[key] = sch
	return nil
}

func (s *Store) ListSchedules(_ context.Context, projectID id.ProjectID, opts vesting.ListOpts) ([]*vesting.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.scheduleOrder[projectID.String()]
	result := make([]*vesting.Schedule, 0, len(keys))
	for _, key := range keys {
		result = append(result, s.schedules[key])
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

// Registry Store implementation

func (s *Store) CreateEntry(_ context.Context, e *registry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.ProjectID.String()
	if _, exists := s.entries[key]; exists {
		return crowdfund.ErrAlreadyExists
	}
	s.entries[key] = e
	s.entryOrder = append(s.entryOrder, key)
	return nil
}

func (s *Store) GetEntry(_ context.Context, projectID id.ProjectID) (*registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[projectID.String()]; ok {
		return e, nil
	}
	return nil, crowdfund.ErrProjectNotFound
}

func (s *Store) UpdateEntry(_ context.Context, e *registry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.ProjectID.String()
	if _, exists := s.entries[key]; !exists {
		return crowdfund.ErrProjectNotFound
	}
	s.entries[key] = e
	return nil
}

func (s *Store) ListEntries(_ context.Context, opts registry.ListOpts) ([]*registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*registry.Entry, 0, len(s.entryOrder))
	for _, key := range s.entryOrder {
		result = append(result, s.entries[key])
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ListEntriesByCreator(_ context.Context, creator string, opts registry.ListOpts) ([]*registry.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*registry.Entry, 0)
	for _, key := range s.entryOrder {
		if e := s.entries[key]; e.Creator == creator {
			result = append(result, e)
		}
	}
	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountEntries(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entryOrder), nil
}

func (s *Store) GetStats(_ context.Context) (registry.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats, nil
}

func (s *Store) AddStats(_ context.Context, delta registry.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.ProjectsCreated += delta.ProjectsCreated
	s.stats.ProjectsSuccessful += delta.ProjectsSuccessful
	s.stats.TotalFundsRaised += delta.TotalFundsRaised
	s.stats.TotalFeesCollected += delta.TotalFeesCollected
	s.stats.FeeBalance += delta.FeeBalance
	if delta.Currency != "" {
		s.stats.Currency = delta.Currency
	}
	return nil
}

// Store management

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
