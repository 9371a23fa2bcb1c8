package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var leaderboardFields = map[domain.LeaderboardMetric]string{
	domain.LeaderboardVolume:   "total_volume",
	domain.LeaderboardWorkouts: "total_workouts",
	domain.LeaderboardStreak:   "current_streak",
}

type MongoUserStatsRepository struct {
	collection *mongo.Collection
}

func NewMongoUserStatsRepository(db *mongo.Database) *MongoUserStatsRepository {
	coll := db.Collection("user_stats")

	models := make([]mongo.IndexModel, 0, len(leaderboardFields))
	for _, field := range leaderboardFields {
		models = append(models, mongo.IndexModel{Keys: bson.D{{Key: field, Value: -1}}})
	}
	ensureIndexes(coll, models...)

	return &MongoUserStatsRepository{
		collection: coll,
	}
}

func (r *MongoUserStatsRepository) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	var stats domain.UserStats
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&stats)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return &domain.UserStats{UserID: userID}, nil
		}
		return nil, fmt.Errorf("get user stats: %w", err)
	}
	return &stats, nil
}

func (r *MongoUserStatsRepository) Put(ctx context.Context, stats *domain.UserStats) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": stats.UserID}, stats, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoUserStatsRepository) IncrementPersonalRecords(ctx context.Context, userID string, delta int64) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"personal_record_count": delta}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoUserStatsRepository) Top(ctx context.Context, metric domain.LeaderboardMetric, limit int) ([]*domain.UserStats, error) {
	field, ok := leaderboardFields[metric]
	if !ok {
		return nil, domain.NewValidationError("metric", "is not a known leaderboard")
	}

	return r.find(ctx, bson.M{}, field, limit)
}

func (r *MongoUserStatsRepository) TopStreaks(ctx context.Context, activeSince time.Time, limit int) ([]*domain.UserStats, error) {
	filter := bson.M{
		"current_streak":  bson.M{"$gt": 0},
		"last_workout_at": bson.M{"$gte": activeSince},
	}
	return r.find(ctx, filter, leaderboardFields[domain.LeaderboardStreak], limit)
}

func (r *MongoUserStatsRepository) find(ctx context.Context, filter bson.M, sortField string, limit int) ([]*domain.UserStats, error) {
	opts := options.Find().SetSort(bson.D{{Key: sortField, Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var top []*domain.UserStats
	if err := cursor.All(ctx, &top); err != nil {
		return nil, err
	}
	return top, nil
}
