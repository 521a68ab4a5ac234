// Package mongo implements store.Store on MongoDB via the official v2
// driver.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/crowdfund"
	"github.com/xraph/crowdfund/campaign"
	"github.com/xraph/crowdfund/id"
	"github.com/xraph/crowdfund/registry"
	crowdfundstore "github.com/xraph/crowdfund/store"
	"github.com/xraph/crowdfund/vesting"
)

// Collection name constants.
const (
	colCampaigns   = "crowdfund_campaigns"
	colInvestments = "crowdfund_investments"
	colSchedules   = "crowdfund_schedules"
	colEntries     = "crowdfund_entries"
	colStats       = "crowdfund_stats"
)

// statsDocID is the _id of the singleton platform stats document.
const statsDocID = "platform"

// compile-time interface check
var _ crowdfundstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	// ownsClient is set when the store opened the connection itself and
	// should disconnect on Close.
	ownsClient bool
}

// Connect dials MongoDB and returns a store bound to the named database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("crowdfund/mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("crowdfund/mongo: ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database), ownsClient: true}, nil
}

// New wraps an already-connected database handle. Close will not
// disconnect the client.
func New(db *mongo.Database) *Store {
	return &Store{client: db.Client(), db: db}
}

// DB returns the underlying database for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates indexes for all crowdfund collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colCampaigns: {
			{Keys: bson.D{{Key: "creator", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		colInvestments: {
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "id", Value: 1}}},
		},
		colSchedules: {
			{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "id", Value: 1}}},
		},
		colEntries: {
			{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "_id", Value: 1}}},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("crowdfund/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client when this store owns it.
func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func isNoDocuments(err error) bool { return errors.Is(err, mongo.ErrNoDocuments) }

// ==================== Campaign Store ====================

func (s *Store) CreateCampaign(ctx context.Context, c *campaign.Campaign) error {
	_, err := s.db.Collection(colCampaigns).InsertOne(ctx, toCampaignModel(c))
	if mongo.IsDuplicateKeyError(err) {
		return crowdfund.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("crowdfund/mongo: create campaign: %w", err)
	}
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, projectID id.ProjectID) (*campaign.Campaign, error) {
	var m campaignModel
	err := s.db.Collection(colCampaigns).
		FindOne(ctx, bson.M{"_id": projectID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, crowdfund.ErrProjectNotFound
		}
		return nil, fmt.Errorf("crowdfund/mongo: get campaign: %w", err)
	}
	return fromCampaignModel(&m)
}

func (s *Store) UpdateCampaign(ctx context.Context, c *campaign.Campaign) error {
	m := toCampaignModel(c)
	res, err := s.db.Collection(colCampaigns).
		ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("crowdfund/mongo: update campaign: %w", err)
	}
	if res.MatchedCount == 0 {
		return crowdfund.ErrProjectNotFound
	}
	return nil
}

// ==================== Investment Store ====================

func (s *Store) PutInvestment(ctx context.Context, inv *campaign.Investment) error {
	m := toInvestmentModel(inv)
	_, err := s.db.Collection(colInvestments).
		ReplaceOne(ctx, bson.M{"_id": m.Key}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("crowdfund/mongo: put investment: %w", err)
	}
	return nil
}

func (s *Store) GetInvestment(ctx context.Context, projectID id.ProjectID, investor string) (*campaign.Investment, error) {
	var m investmentModel
	err := s.db.Collection(colInvestments).
		FindOne(ctx, bson.M{"_id": investmentKey(projectID.String(), investor)}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, crowdfund.ErrNotFound
		}
		return nil, fmt.Errorf("crowdfund/mongo: get investment: %w", err)
	}
	return fromInvestmentModel(&m)
}

func (s *Store) ListInvestments(ctx context.Context, projectID id.ProjectID, opts campaign.ListOpts) ([]*campaign.Investment, error) {
	// The invt_ TypeID is K-sortable, so sorting on it gives stable
	// insertion order.
	findOpts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colInvestments).
		Find(ctx, bson.M{"project_id": projectID.String()}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("crowdfund/mongo: list investments: %w", err)
	}
	defer cur.Close(ctx)

	var result []*campaign.Investment
	for cur.Next(ctx) {
		var m investmentModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		inv, err := fromInvestmentModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, cur.Err()
}

// ==================== Vesting Store ====================

func (s *Store) CreateSchedules(ctx context.Context, schedules []*vesting.Schedule) error {
	// All-or-nothing: check every key for an active schedule before
	// writing any document.
	for _, sch := range schedules {
		var existing scheduleModel
		err := s.db.Collection(colSchedules).
			FindOne(ctx, bson.M{"_id": scheduleKey(sch.ProjectID.String(), sch.Beneficiary)}).
			Decode(&existing)
		switch {
		case err == nil && existing.IsActive:
			return crowdfund.ErrDuplicateSchedule
		case err != nil && !isNoDocuments(err):
			return fmt.Errorf("crowdfund/mongo: check schedule: %w", err)
		}
	}

	for _, sch := range schedules {
		m := toScheduleModel(sch)
		_, err := s.db.Collection(colSchedules).
			ReplaceOne(ctx, bson.M{"_id": m.Key}, m, options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("crowdfund/mongo: create schedule: %w", err)
		}
	}
	return nil
}

func (s *Store) GetSchedule(ctx context.Context, projectID id.ProjectID, beneficiary string) (*vesting.Schedule, error) {
	var m scheduleModel
	err := s.db.Collection(colSchedules).
		FindOne(ctx, bson.M{"_id": scheduleKey(projectID.String(), beneficiary)}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, crowdfund.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("crowdfund/mongo: get schedule: %w", err)
	}
	return fromScheduleModel(&m)
}

func (s *Store) UpdateSchedule(ctx context.Context, sch *vesting.Schedule) error {
	m := toScheduleModel(sch)
	res, err := s.db.Collection(colSchedules).
		ReplaceOne(ctx, bson.M{"_id": m.Key}, m)
	if err != nil {
		return fmt.Errorf("crowdfund/mongo: update schedule: %w", err)
	}
	if res.MatchedCount == 0 {
		return crowdfund.ErrScheduleNotFound
	}
	return nil
}

func (s *Store) ListSchedules(ctx context.Context, projectID id.ProjectID, opts vesting.ListOpts) ([]*vesting.Schedule, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colSchedules).
		Find(ctx, bson.M{"project_id": projectID.String()}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("crowdfund/mongo: list schedules: %w", err)
	}
	defer cur.Close(ctx)

	var result []*vesting.Schedule
	for cur.Next(ctx) {
		var m scheduleModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		sch, err := fromScheduleModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, sch)
	}
	return result, cur.Err()
}

// ==================== Registry Store ====================

func (s *Store) CreateEntry(ctx context.Context, e *registry.Entry) error {
	_, err := s.db.Collection(colEntries).InsertOne(ctx, toEntryModel(e))
	if mongo.IsDuplicateKeyError(err) {
		return crowdfund.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("crowdfund/mongo: create entry: %w", err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, projectID id.ProjectID) (*registry.Entry, error) {
	var m entryModel
	err := s.db.Collection(colEntries).
		FindOne(ctx, bson.M{"_id": projectID.String()}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, crowdfund.ErrProjectNotFound
		}
		return nil, fmt.Errorf("crowdfund/mongo: get entry: %w", err)
	}
	return fromEntryModel(&m)
}

func (s *Store) UpdateEntry(ctx context.Context, e *registry.Entry) error {
	m := toEntryModel(e)
	res, err := s.db.Collection(colEntries).
		ReplaceOne(ctx, bson.M{"_id": m.ProjectID}, m)
	if err != nil {
		return fmt.Errorf("crowdfund/mongo: update entry: %w", err)
	}
	if res.MatchedCount == 0 {
		return crowdfund.ErrProjectNotFound
	}
	return nil
}

func (s *Store) listEntries(ctx context.Context, filter bson.M, opts registry.ListOpts) ([]*registry.Entry, error) {
	// proj_ TypeIDs are K-sortable; _id order is insertion order.
	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colEntries).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("crowdfund/mongo: list entries: %w", err)
	}
	defer cur.Close(ctx)

	var result []*registry.Entry
	for cur.Next(ctx) {
		var m entryModel
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		e, err := fromEntryModel(&m)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, cur.Err()
}

func (s *Store) ListEntries(ctx context.Context, opts registry.ListOpts) ([]*registry.Entry, error) {
	return s.listEntries(ctx, bson.M{}, opts)
}

func (s *Store) ListEntriesByCreator(ctx context.Context, creator string, opts registry.ListOpts) ([]*registry.Entry, error) {
	return s.listEntries(ctx, bson.M{"creator": creator}, opts)
}

func (s *Store) CountEntries(ctx context.Context) (int, error) {
	count, err := s.db.Collection(colEntries).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("crowdfund/mongo: count entries: %w", err)
	}
	return int(count), nil
}

func (s *Store) GetStats(ctx context.Context) (registry.Stats, error) {
	var m statsModel
	err := s.db.Collection(colStats).
		FindOne(ctx, bson.M{"_id": statsDocID}).
		Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return registry.Stats{}, nil
		}
		return registry.Stats{}, fmt.Errorf("crowdfund/mongo: get stats: %w", err)
	}
	return fromStatsModel(&m), nil
}

func (s *Store) AddStats(ctx context.Context, delta registry.Stats) error {
	update := bson.M{
		"$inc": bson.M{
			"projects_created":     delta.ProjectsCreated,
			"projects_successful":  delta.ProjectsSuccessful,
			"total_funds_raised":   delta.TotalFundsRaised,
			"total_fees_collected": delta.TotalFeesCollected,
			"fee_balance":          delta.FeeBalance,
		},
	}
	if delta.Currency != "" {
		update["$set"] = bson.M{"currency": delta.Currency}
	}

	_, err := s.db.Collection(colStats).
		UpdateOne(ctx, bson.M{"_id": statsDocID}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("crowdfund/mongo: add stats: %w", err)
	}
	return nil
}
