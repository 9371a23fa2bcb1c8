package repository

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoChallengeRepository struct {
	collection *mongo.Collection
}

func NewMongoChallengeRepository(db *mongo.Database) *MongoChallengeRepository {
	return &MongoChallengeRepository{
		collection: db.Collection("challenges"),
	}
}

func (r *MongoChallengeRepository) Create(ctx context.Context, c *domain.Challenge) error {
	if _, err := r.collection.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (r *MongoChallengeRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	var c domain.Challenge
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		return nil, findErr("get challenge", err, domain.ErrChallengeNotFound)
	}
	return &c, nil
}

func (r *MongoChallengeRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Challenge, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var challenges []*domain.Challenge
	if err := cursor.All(ctx, &challenges); err != nil {
		return nil, err
	}
	return challenges, nil
}

// ReserveSeat takes one seat with a filtered $inc. Concurrent joins either
// match the filter in turn or hit a write conflict, so the count never passes
// the cap.
func (r *MongoChallengeRepository) ReserveSeat(ctx context.Context, c *domain.Challenge) error {
	filter := bson.M{"_id": c.ID}
	if c.MaxParticipants > 0 {
		filter["$or"] = bson.A{
			bson.M{"participant_count": bson.M{"$lt": c.MaxParticipants}},
			bson.M{"participant_count": bson.M{"$exists": false}},
		}
	}

	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"participant_count": 1}})
	if err != nil {
		return fmt.Errorf("failed to reserve seat: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return err
		}
		return domain.ErrChallengeFull
	}
	c.ParticipantCount++
	return nil
}

type MongoChallengeParticipantRepository struct {
	collection *mongo.Collection
}

func NewMongoChallengeParticipantRepository(db *mongo.Database) *MongoChallengeParticipantRepository {
	coll := db.Collection("challenge_participants")

	ensureIndexes(coll,
		mongo.IndexModel{
			Keys:    bson.D{{Key: "challenge_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "challenge_id", Value: 1}, {Key: "progress", Value: -1}, {Key: "joined_at", Value: 1}}},
	)

	return &MongoChallengeParticipantRepository{
		collection: coll,
	}
}

func (r *MongoChallengeParticipantRepository) Create(ctx context.Context, p *domain.ChallengeParticipant) error {
	_, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyJoined
		}
		return fmt.Errorf("failed to join challenge: %w", err)
	}
	return nil
}

func (r *MongoChallengeParticipantRepository) ListByUser(ctx context.Context, userID string) ([]*domain.ChallengeParticipant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "challenge_id", Value: 1}})
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

func (r *MongoChallengeParticipantRepository) ListByChallenge(ctx context.Context, challengeID string, limit int) ([]*domain.ChallengeParticipant, error) {
	opts := options.Find().SetSort(bson.D{{Key: "progress", Value: -1}, {Key: "joined_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"challenge_id": challengeID}, opts)
}

func (r *MongoChallengeParticipantRepository) Update(ctx context.Context, p *domain.ChallengeParticipant) error {
	update := bson.M{
		"$set": bson.M{
			"progress":     p.Progress,
			"completed_at": p.CompletedAt,
			"updated_at":   p.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"challenge_id": p.ChallengeID, "user_id": p.UserID}, update)
	if err != nil {
		return fmt.Errorf("failed to update participant: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("challenge participant: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *MongoChallengeParticipantRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.ChallengeParticipant, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var participants []*domain.ChallengeParticipant
	if err := cursor.All(ctx, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}
