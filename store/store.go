package store

import (
	"context"

	"github.com/xraph/crowdfund/campaign"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/registry"
	"github.com/xraph/crowdfund/vesting"
)

// Store is the unified storage interface for all Crowdfund entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Campaign methods
	CreateCampaign(ctx context.Context, c *campaign.Campaign) error
	GetCampaign(ctx context.Context, projectID id.ProjectID) (*campaign.Campaign, error)
	UpdateCampaign(ctx context.Context, c *campaign.Campaign) error

	// Investment methods
	PutInvestment(ctx context.Context, inv *campaign.Investment) error
	GetInvestment(ctx context.Context, projectID id.ProjectID, investor string) (*campaign.Investment, error)
	ListInvestments(ctx context.Context, projectID id.ProjectID, opts campaign.ListOpts) ([]*campaign.Investment, error)

	// Vesting methods
	CreateSchedules(ctx context.Context, schedules []*vesting.Schedule) error
	GetSchedule(ctx context.Context, projectID id.ProjectID, beneficiary string) (*vesting.Schedule, error)
	UpdateSchedule(ctx context.Context, s *vesting.Schedule) error
	ListSchedules(ctx context.Context, projectID id.ProjectID, opts vesting.ListOpts) ([]*vesting.Schedule, error)

	// Registry methods
	CreateEntry(ctx context.Context, e *registry.Entry) error
	GetEntry(ctx context.Context, projectID id.ProjectID) (*registry.Entry, error)
	UpdateEntry(ctx context.Context, e *registry.Entry) error
	ListEntries(ctx context.Context, opts registry.ListOpts) ([]*registry.Entry, error)
	ListEntriesByCreator(ctx context.Context, creator string, opts registry.ListOpts) ([]*registry.Entry, error)
	CountEntries(ctx context.Context) (int, error)
	GetStats(ctx context.Context) (registry.Stats, error)
	AddStats(ctx context.Context, delta registry.Stats) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
