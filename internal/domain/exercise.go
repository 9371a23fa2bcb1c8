package domain

import (
	"context"
	"time"
)

// ExerciseShape fixes which value fields a set of the exercise carries.
type ExerciseShape string

const (
	ShapeTimed        ExerciseShape = "TIMED"          // plank, run: time_seconds
	ShapeRepBased     ExerciseShape = "REP_BASED"      // push-up, pull-up: reps
	ShapeRepAndWeight ExerciseShape = "REP_AND_WEIGHT" // bench, squat: reps + weight
)

// Valid reports whether s is one of the known shapes.
func (s ExerciseShape) Valid() bool {
	switch s {
	case ShapeTimed, ShapeRepBased, ShapeRepAndWeight:
		return true
	}
	return false
}

// Exercise represents a move in the global library
type Exercise struct {
	ID          string        `json:"id" bson:"_id"`
	Name        string        `json:"name" bson:"name"`                 // Unique Index
	MuscleGroup string        `json:"muscle_group" bson:"muscle_group"` // e.g., "Legs", "Chest"
	Equipment   string        `json:"equipment" bson:"equipment"`       // e.g., "Barbell", "Dumbbell"
	Shape       ExerciseShape `json:"shape" bson:"shape"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
}

// ExerciseRepository is the read side of the exercise catalog. Create exists for
// seeding only.
type ExerciseRepository interface {
	Create(ctx context.Context, exercise *Exercise) error
	GetByID(ctx context.Context, id string) (*Exercise, error)
	List(ctx context.Context) ([]*Exercise, error)
}
