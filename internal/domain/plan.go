package domain

import "context"

// PlanDay is one day of a training plan. Targets are hints for the client when
// logging sets and are never enforced.
type PlanDay struct {
	ID        string             `json:"id" bson:"_id"`
	PlanID    string             `json:"plan_id" bson:"plan_id"`
	Name      string             `json:"name" bson:"name"`
	Exercises []*PlannedExercise `json:"exercises" bson:"exercises"`
}

type PlannedExercise struct {
	ExerciseID        string   `json:"exercise_id" bson:"exercise_id"`
	Order             int      `json:"order" bson:"order"`
	TargetSets        int      `json:"target_sets" bson:"target_sets"`
	TargetReps        *int     `json:"target_reps,omitempty" bson:"target_reps,omitempty"`
	TargetWeight      *float64 `json:"target_weight,omitempty" bson:"target_weight,omitempty"`
	TargetTimeSeconds *int     `json:"target_time_seconds,omitempty" bson:"target_time_seconds,omitempty"`
	RestSeconds       int      `json:"rest_seconds" bson:"rest_seconds"`
}

// PlanRepository is the read side of the plan catalog.
type PlanRepository interface {
	Create(ctx context.Context, day *PlanDay) error
	GetPlanDay(ctx context.Context, id string) (*PlanDay, error)
}
