package domain

import (
	"context"
	"time"
)

const (
	MinRPE = 6.0
	MaxRPE = 10.0
)

// WorkoutSet is one logged set, stored as a standalone document in the
// workout_sets collection so that appends never rewrite the parent session.
type WorkoutSet struct {
	ID          string    `json:"id" bson:"_id"`
	SessionID   string    `json:"session_id" bson:"session_id"`
	UserID      string    `json:"user_id" bson:"user_id"` // For PR and challenge aggregation
	ExerciseID  string    `json:"exercise_id" bson:"exercise_id"`
	SetNumber   int       `json:"set_number" bson:"set_number"` // 1-based per exercise per session
	Reps        *int      `json:"reps,omitempty" bson:"reps,omitempty"`
	TimeSeconds *int      `json:"time_seconds,omitempty" bson:"time_seconds,omitempty"`
	Weight      *float64  `json:"weight,omitempty" bson:"weight,omitempty"`
	RPE         *float64  `json:"rpe,omitempty" bson:"rpe,omitempty"`
	IsWarmup    bool      `json:"is_warmup" bson:"is_warmup"`
	IsDropset   bool      `json:"is_dropset" bson:"is_dropset"`
	Volume      float64   `json:"volume" bson:"volume"` // 0 for warmups
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// SetValues carries the measured fields of a set before it is persisted.
type SetValues struct {
	Reps        *int
	TimeSeconds *int
	Weight      *float64
	RPE         *float64
}

func (v SetValues) weight() float64 {
	if v.Weight == nil {
		return 0
	}
	return *v.Weight
}

// Validate checks the shape-independent rules: exactly one of reps/time, positive
// metrics, non-negative weight and RPE range.
func (v SetValues) Validate() error {
	if (v.Reps == nil) == (v.TimeSeconds == nil) {
		return NewValidationError("reps", "exactly one of reps or time_seconds is required")
	}
	if v.Reps != nil && *v.Reps <= 0 {
		return NewValidationError("reps", "must be positive")
	}
	if v.TimeSeconds != nil && *v.TimeSeconds <= 0 {
		return NewValidationError("time_seconds", "must be positive")
	}
	if v.Weight != nil && *v.Weight < 0 {
		return NewValidationError("weight", "must not be negative")
	}
	if v.RPE != nil && (*v.RPE < MinRPE || *v.RPE > MaxRPE) {
		return NewValidationError("rpe", "must be between 6 and 10")
	}
	return nil
}

// ValidateFor checks that the values match the exercise's fixed shape.
func (v SetValues) ValidateFor(shape ExerciseShape) error {
	switch shape {
	case ShapeTimed:
		if v.TimeSeconds == nil {
			return NewValidationError("time_seconds", "is required for timed exercises")
		}
	case ShapeRepBased, ShapeRepAndWeight:
		if v.Reps == nil {
			return NewValidationError("reps", "is required for rep-based exercises")
		}
	default:
		return NewValidationError("shape", "unknown exercise shape "+string(shape))
	}
	return nil
}

// Volume is the set's contribution to volume totals. Warmups contribute nothing.
func Volume(shape ExerciseShape, v SetValues, isWarmup bool) float64 {
	if isWarmup {
		return 0
	}
	switch shape {
	case ShapeRepAndWeight:
		return v.weight() * float64(deref(v.Reps))
	case ShapeRepBased:
		if w := v.weight(); w > 0 {
			return w * float64(deref(v.Reps))
		}
		return float64(deref(v.Reps))
	case ShapeTimed:
		if w := v.weight(); w > 0 {
			return w * float64(deref(v.TimeSeconds))
		}
		return float64(deref(v.TimeSeconds))
	}
	return 0
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// SetFilter selects working sets for aggregation.
type SetFilter struct {
	UserID     string
	ExerciseID string    // optional
	From       time.Time // optional, inclusive
	To         time.Time // optional, inclusive
}

// SetTotals is the result of aggregating working (non-warmup) sets.
type SetTotals struct {
	Sets   int64   `json:"sets" bson:"sets"`
	Volume float64 `json:"volume" bson:"volume"`
}

// WorkoutSetRepository handles the workout_sets collection
type WorkoutSetRepository interface {
	Create(ctx context.Context, set *WorkoutSet) error
	// GetByID returns ErrSetNotFound when missing.
	GetByID(ctx context.Context, id string) (*WorkoutSet, error)
	// ListBySession returns sets ordered by created_at.
	ListBySession(ctx context.Context, sessionID string) ([]*WorkoutSet, error)
	CountBySessionAndExercise(ctx context.Context, sessionID, exerciseID string) (int64, error)
	Delete(ctx context.Context, id string) error
	// ShiftSetNumbers decrements set_number of the exercise's sets above setNumber.
	ShiftSetNumbers(ctx context.Context, sessionID, exerciseID string, above int) error
	// DeleteBySession removes all sets of a session (cascade on discard).
	DeleteBySession(ctx context.Context, sessionID string) error
	// SumWorking aggregates non-warmup sets matching the filter.
	SumWorking(ctx context.Context, filter SetFilter) (SetTotals, error)
}
