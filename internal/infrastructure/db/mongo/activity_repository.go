package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
)

const collectionActivities = "activities"

// activityRetention is the TTL on audit entries, enforced by Mongo.
const activityRetention = 90 * 24 * time.Hour

// ActivityRepository implements ports.ActivityRepository using MongoDB.
type ActivityRepository struct {
	col *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionActivities)}
}

type activityDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Action    string             `bson:"action"`
	Category  string             `bson:"category"`
	Status    string             `bson:"status"`
	IPAddress string             `bson:"ip_address,omitempty"`
	UserAgent string             `bson:"user_agent,omitempty"`
	Details   map[string]any     `bson:"details,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *ActivityRepository) Insert(ctx context.Context, activity *domain.Activity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := activityDoc{
		UserID:    activity.UserID,
		Action:    activity.Action,
		Category:  string(activity.Category),
		Status:    string(activity.Status),
		IPAddress: activity.IPAddress,
		UserAgent: activity.UserAgent,
		Details:   activity.Details,
		CreatedAt: activity.CreatedAt.UTC(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, userID string, filter domain.ActivityFilter) ([]domain.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{"user_id": userID}
	if filter.Category != "" {
		query["category"] = string(filter.Category)
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(filter.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer cur.Close(ctx)

	var activities []domain.Activity
	for cur.Next(ctx) {
		var d activityDoc
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode activity: %w", err)
		}
		activities = append(activities, domain.Activity{
			ID:        d.ID.Hex(),
			UserID:    d.UserID,
			Action:    d.Action,
			Category:  domain.ActivityCategory(d.Category),
			Status:    domain.ActivityStatus(d.Status),
			IPAddress: d.IPAddress,
			UserAgent: d.UserAgent,
			Details:   d.Details,
			CreatedAt: d.CreatedAt,
		})
	}
	return activities, cur.Err()
}

// Stats aggregates the audit trail per category: entry count and most recent
// activity, most active category first.
func (r *ActivityRepository) Stats(ctx context.Context, userID string) ([]domain.CategoryStat, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$category",
			"count":         bson.M{"$sum": 1},
			"last_activity": bson.M{"$max": "$created_at"},
		}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("activity stats: %w", err)
	}
	defer cur.Close(ctx)

	var stats []domain.CategoryStat
	for cur.Next(ctx) {
		var row struct {
			Category     string    `bson:"_id"`
			Count        int64     `bson:"count"`
			LastActivity time.Time `bson:"last_activity"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode activity stat: %w", err)
		}
		stats = append(stats, domain.CategoryStat{
			Category:     domain.ActivityCategory(row.Category),
			Count:        row.Count,
			LastActivity: row.LastActivity,
		})
	}
	return stats, cur.Err()
}

func (r *ActivityRepository) Clear(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID}); err != nil {
		return fmt.Errorf("clear activities: %w", err)
	}
	return nil
}

// EnsureIndexes creates the query indexes and the retention TTL index.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(activityRetention / time.Second)),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
