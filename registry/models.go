// Package registry defines the platform-wide campaign index: one entry
// per campaign, appended at creation and never removed, plus the running
// aggregate statistics.
package registry

import (
	"context"
	"time"

	"github.com/xraph/crowdfund/campaign"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/types"
)

// Entry is the registry's record of a campaign. Status mirrors the
// campaign and is updated on every transition; IsVerified flips at most
// once, by the platform operator.
type Entry struct {
	types.Entity
	ProjectID    id.ProjectID    `json:"project_id"`
	Creator      string          `json:"creator"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	TargetAmount types.Money     `json:"target_amount"`
	Duration     time.Duration   `json:"duration"`
	Status       campaign.Status `json:"status"`
	IsVerified   bool            `json:"is_verified"`
	VerifiedAt   *time.Time      `json:"verified_at,omitempty"`
}

// Stats are the platform's running totals. They are only ever updated by
// deltas on the create/finalize/withdraw paths, never recomputed by
// scanning campaigns.
type Stats struct {
	ProjectsCreated    int64  `json:"projects_created"`
	ProjectsSuccessful int64  `json:"projects_successful"`
	TotalFundsRaised   int64  `json:"total_funds_raised"`   // smallest currency unit
	TotalFeesCollected int64  `json:"total_fees_collected"` // smallest currency unit
	FeeBalance         int64  `json:"fee_balance"`          // accrued creation fees awaiting withdrawal
	Currency           string `json:"currency"`
}

// ListOpts controls registry pagination. Entries come back in insertion
// order; Limit 0 means no limit.
type ListOpts struct {
	Offset int
	Limit  int
}

// Store is the registry-scoped persistence interface.
type Store interface {
	CreateEntry(ctx context.Context, e *Entry) error
	GetEntry(ctx context.Context, projectID id.ProjectID) (*Entry, error)
	UpdateEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, opts ListOpts) ([]*Entry, error)
	ListEntriesByCreator(ctx context.Context, creator string, opts ListOpts) ([]*Entry, error)
	CountEntries(ctx context.Context) (int, error)

	GetStats(ctx context.Context) (Stats, error)
	AddStats(ctx context.Context, delta Stats) error
}
