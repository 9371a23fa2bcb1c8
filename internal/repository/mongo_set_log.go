package repository

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoSetLogRepository struct {
	collection *mongo.Collection
}

func NewMongoSetLogRepository(db *mongo.Database) *MongoSetLogRepository {
	coll := db.Collection("workout_sets")

	ensureIndexes(coll,
		mongo.IndexModel{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "exercise_id", Value: 1}, {Key: "set_number", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
	)

	return &MongoSetLogRepository{
		collection: coll,
	}
}

func (r *MongoSetLogRepository) Create(ctx context.Context, set *domain.WorkoutSet) error {
	if _, err := r.collection.InsertOne(ctx, set); err != nil {
		return fmt.Errorf("failed to create set: %w", err)
	}
	return nil
}

func (r *MongoSetLogRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutSet, error) {
	var set domain.WorkoutSet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&set)
	if err != nil {
		return nil, findErr("get set", err, domain.ErrSetNotFound)
	}
	return &set, nil
}

func (r *MongoSetLogRepository) ListBySession(ctx context.Context, sessionID string) ([]*domain.WorkoutSet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sets := []*domain.WorkoutSet{}
	if err := cursor.All(ctx, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (r *MongoSetLogRepository) CountBySessionAndExercise(ctx context.Context, sessionID, exerciseID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"session_id": sessionID, "exercise_id": exerciseID})
}

func (r *MongoSetLogRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete set: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrSetNotFound
	}
	return nil
}

func (r *MongoSetLogRepository) ShiftSetNumbers(ctx context.Context, sessionID, exerciseID string, above int) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"session_id": sessionID, "exercise_id": exerciseID, "set_number": bson.M{"$gt": above}},
		bson.M{"$inc": bson.M{"set_number": -1}},
	)
	return err
}

func (r *MongoSetLogRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"session_id": sessionID})
	return err
}

func (r *MongoSetLogRepository) SumWorking(ctx context.Context, filter domain.SetFilter) (domain.SetTotals, error) {
	match := bson.M{"user_id": filter.UserID, "is_warmup": false}
	if filter.ExerciseID != "" {
		match["exercise_id"] = filter.ExerciseID
	}
	if window := timeRange(filter.From, filter.To); window != nil {
		match["created_at"] = window
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"sets":   bson.M{"$sum": 1},
			"volume": bson.M{"$sum": "$volume"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.SetTotals{}, err
	}
	defer cursor.Close(ctx)

	var totals domain.SetTotals
	if cursor.Next(ctx) {
		if err := cursor.Decode(&totals); err != nil {
			return domain.SetTotals{}, err
		}
	}
	return totals, cursor.Err()
}
