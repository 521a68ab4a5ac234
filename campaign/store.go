package campaign

import (
	"context"

	"github.com/xraph/crowdfund/id"
)

// Store is the campaign-scoped persistence interface. The unified
// store.Store declares the same methods under prefixed names.
type Store interface {
	Create(ctx context.Context, c *Campaign) error
	Get(ctx context.Context, projectID id.ProjectID) (*Campaign, error)
	Update(ctx context.Context, c *Campaign) error

	PutInvestment(ctx context.Context, inv *Investment) error
	GetInvestment(ctx context.Context, projectID id.ProjectID, investor string) (*Investment, error)
	ListInvestments(ctx context.Context, projectID id.ProjectID, opts ListOpts) ([]*Investment, error)
}

// ListOpts controls paginated investment listings. Results are in
// insertion order; Limit 0 means no limit.
type ListOpts struct {
	Limit  int
	Offset int
}
