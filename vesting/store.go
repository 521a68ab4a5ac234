package vesting

import (
	"context"

	"github.com/xraph/crowdfund/id"
)

// Store is the vesting-scoped persistence interface. CreateBatch must be
// all-or-nothing: either every schedule is recorded or none are.
type Store interface {
	CreateBatch(ctx context.Context, schedules []*Schedule) error
	Get(ctx context.Context, projectID id.ProjectID, beneficiary string) (*Schedule, error)
	Update(ctx context.Context, s *Schedule) error
	List(ctx context.Context, projectID id.ProjectID, opts ListOpts) ([]*Schedule, error)
}

// ListOpts controls paginated schedule listings, insertion-ordered.
type ListOpts struct {
	Limit  int
	Offset int
}
