package repository

import (
	"context"
	"fmt"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoPlanRepository stores plan days with their planned exercises embedded.
type MongoPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoPlanRepository(db *mongo.Database) *MongoPlanRepository {
	return &MongoPlanRepository{
		collection: db.Collection("plan_days"),
	}
}

func (r *MongoPlanRepository) Create(ctx context.Context, day *domain.PlanDay) error {
	if _, err := r.collection.InsertOne(ctx, day); err != nil {
		return fmt.Errorf("failed to create plan day: %w", err)
	}
	return nil
}

func (r *MongoPlanRepository) GetPlanDay(ctx context.Context, id string) (*domain.PlanDay, error) {
	var day domain.PlanDay
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&day)
	if err != nil {
		return nil, findErr("get plan day", err, domain.ErrPlanDayNotFound)
	}
	return &day, nil
}
