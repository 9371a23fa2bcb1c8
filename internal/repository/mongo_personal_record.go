package repository

import (
	"context"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoPersonalRecordRepository struct {
	collection *mongo.Collection
}

func NewMongoPersonalRecordRepository(db *mongo.Database) *MongoPersonalRecordRepository {
	coll := db.Collection("personal_records")

	ensureIndexes(coll, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "exercise_id", Value: 1}, {Key: "record_type", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return &MongoPersonalRecordRepository{
		collection: coll,
	}
}

func (r *MongoPersonalRecordRepository) Get(ctx context.Context, userID, exerciseID string, recordType domain.RecordType) (*domain.PersonalRecord, error) {
	var rec domain.PersonalRecord
	err := r.collection.FindOne(ctx, bson.M{
		"user_id":     userID,
		"exercise_id": exerciseID,
		"record_type": recordType,
	}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // No record exists yet
		}
		return nil, err
	}
	return &rec, nil
}

// Put upserts on the (user, exercise, type) key. The document id is fixed on
// first insert.
func (r *MongoPersonalRecordRepository) Put(ctx context.Context, rec *domain.PersonalRecord) error {
	update := bson.M{
		"$set": bson.M{
			"value":         rec.Value,
			"weight":        rec.Weight,
			"reps":          rec.Reps,
			"time_seconds":  rec.TimeSeconds,
			"source_set_id": rec.SourceSetID,
			"session_id":    rec.SessionID,
			"achieved_at":   rec.AchievedAt,
			"updated_at":    rec.UpdatedAt,
		},
		"$setOnInsert": bson.M{"_id": rec.ID},
	}

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": rec.UserID, "exercise_id": rec.ExerciseID, "record_type": rec.RecordType},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoPersonalRecordRepository) ListByUser(ctx context.Context, userID string) ([]*domain.PersonalRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "exercise_id", Value: 1}, {Key: "record_type", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*domain.PersonalRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
