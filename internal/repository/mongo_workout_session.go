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

type MongoWorkoutSessionRepository struct {
	collection *mongo.Collection
}

func NewMongoWorkoutSessionRepository(db *mongo.Database) *MongoWorkoutSessionRepository {
	coll := db.Collection("workout_sessions")

	// At most one active session per user
	ensureIndexes(coll,
		mongo.IndexModel{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("one_active_session_per_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.SessionStatusActive}),
		},
		mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "completed_at", Value: -1}}},
	)

	return &MongoWorkoutSessionRepository{
		collection: coll,
	}
}

func (r *MongoWorkoutSessionRepository) Create(ctx context.Context, session *domain.WorkoutSession) error {
	_, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrSessionAlreadyActive
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *MongoWorkoutSessionRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		return nil, findErr("get session", err, domain.ErrSessionNotFound)
	}
	return &session, nil
}

func (r *MongoWorkoutSessionRepository) GetActiveByUser(ctx context.Context, userID string) (*domain.WorkoutSession, error) {
	var session domain.WorkoutSession
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "status": domain.SessionStatusActive}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("get active session: %w", err)
	}
	return &session, nil
}

func (r *MongoWorkoutSessionRepository) MarkCompleted(ctx context.Context, session *domain.WorkoutSession) error {
	update := bson.M{
		"$set": bson.M{
			"status":           session.Status,
			"completed_at":     session.CompletedAt,
			"duration_seconds": session.DurationSeconds,
			"notes":            session.Notes,
			"mood_rating":      session.MoodRating,
			"updated_at":       session.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": session.ID, "status": domain.SessionStatusActive},
		update,
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, session.ID); err != nil {
			return err
		}
		return domain.ErrSessionCompleted
	}
	return nil
}

func (r *MongoWorkoutSessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *MongoWorkoutSessionRepository) ListCompletedTimes(ctx context.Context, userID string) ([]time.Time, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}}).
		SetProjection(bson.M{"completed_at": 1})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "status": domain.SessionStatusCompleted}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		CompletedAt time.Time `bson:"completed_at"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	times := make([]time.Time, len(rows))
	for i, row := range rows {
		times[i] = row.CompletedAt
	}
	return times, nil
}

func (r *MongoWorkoutSessionRepository) CountCompleted(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	filter := bson.M{"user_id": userID, "status": domain.SessionStatusCompleted}
	if window := timeRange(from, to); window != nil {
		filter["completed_at"] = window
	}
	return r.collection.CountDocuments(ctx, filter)
}

// timeRange builds an inclusive range filter; zero bounds are left open.
func timeRange(from, to time.Time) bson.M {
	if from.IsZero() && to.IsZero() {
		return nil
	}
	window := bson.M{}
	if !from.IsZero() {
		window["$gte"] = from
	}
	if !to.IsZero() {
		window["$lte"] = to
	}
	return window
}
