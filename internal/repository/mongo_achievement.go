package repository

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var achievementOrder = bson.D{
	{Key: "category", Value: 1},
	{Key: "threshold", Value: 1},
	{Key: "code", Value: 1},
}

type MongoAchievementRepository struct {
	collection *mongo.Collection
}

func NewMongoAchievementRepository(db *mongo.Database) *MongoAchievementRepository {
	coll := db.Collection("achievements")

	ensureIndexes(coll,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{Keys: achievementOrder},
	)

	return &MongoAchievementRepository{
		collection: coll,
	}
}

func (r *MongoAchievementRepository) Create(ctx context.Context, a *domain.Achievement) error {
	_, err := r.collection.InsertOne(ctx, a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create achievement: %w", err)
	}
	return nil
}

func (r *MongoAchievementRepository) ListByCategories(ctx context.Context, categories ...domain.AchievementCategory) ([]*domain.Achievement, error) {
	return r.find(ctx, bson.M{"category": bson.M{"$in": categories}})
}

func (r *MongoAchievementRepository) List(ctx context.Context) ([]*domain.Achievement, error) {
	return r.find(ctx, bson.M{})
}

func (r *MongoAchievementRepository) find(ctx context.Context, filter bson.M) ([]*domain.Achievement, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(achievementOrder))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var achievements []*domain.Achievement
	if err := cursor.All(ctx, &achievements); err != nil {
		return nil, err
	}
	return achievements, nil
}

type MongoUserAchievementRepository struct {
	collection *mongo.Collection
}

func NewMongoUserAchievementRepository(db *mongo.Database) *MongoUserAchievementRepository {
	coll := db.Collection("user_achievements")

	ensureIndexes(coll, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "achievement_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoUserAchievementRepository{
		collection: coll,
	}
}

func (r *MongoUserAchievementRepository) Exists(ctx context.Context, userID, achievementID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"user_id": userID, "achievement_id": achievementID},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *MongoUserAchievementRepository) Create(ctx context.Context, ua *domain.UserAchievement) error {
	_, err := r.collection.InsertOne(ctx, ua)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("achievement %s already earned: %w", ua.AchievementID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to award achievement: %w", err)
	}
	return nil
}

func (r *MongoUserAchievementRepository) ListByUser(ctx context.Context, userID string) ([]*domain.UserAchievement, error) {
	opts := options.Find().SetSort(bson.D{{Key: "earned_at", Value: 1}, {Key: "achievement_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var earned []*domain.UserAchievement
	if err := cursor.All(ctx, &earned); err != nil {
		return nil, err
	}
	return earned, nil
}
