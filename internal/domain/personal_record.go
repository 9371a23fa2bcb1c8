package domain

import (
	"context"
	"time"
)

type RecordType string

const (
	RecordMaxWeight RecordType = "MAX_WEIGHT"
	RecordMaxReps   RecordType = "MAX_REPS"
	RecordMaxTime   RecordType = "MAX_TIME"
	RecordMaxVolume RecordType = "MAX_VOLUME"
)

// Valid reports whether r is one of the known record types.
func (r RecordType) Valid() bool {
	switch r {
	case RecordMaxWeight, RecordMaxReps, RecordMaxTime, RecordMaxVolume:
		return true
	}
	return false
}

// PersonalRecord is the best value of one metric for a user and exercise.
// Value never decreases: a write only happens when a new candidate is strictly
// greater than the stored one.
type PersonalRecord struct {
	ID          string     `json:"id" bson:"_id"`
	UserID      string     `json:"user_id" bson:"user_id"`
	ExerciseID  string     `json:"exercise_id" bson:"exercise_id"`
	RecordType  RecordType `json:"record_type" bson:"record_type"`
	Value       float64    `json:"value" bson:"value"`
	Weight      *float64   `json:"weight,omitempty" bson:"weight,omitempty"`
	Reps        *int       `json:"reps,omitempty" bson:"reps,omitempty"`
	TimeSeconds *int       `json:"time_seconds,omitempty" bson:"time_seconds,omitempty"`
	SourceSetID string     `json:"source_set_id" bson:"source_set_id"`
	SessionID   string     `json:"session_id" bson:"session_id"` // Session where the record was set
	AchievedAt  time.Time  `json:"achieved_at" bson:"achieved_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// RecordCandidate is one metric value derived from a logged set.
type RecordCandidate struct {
	Type  RecordType
	Value float64
}

// PrimaryRecordType is the metric surfaced to the caller for a shape.
func PrimaryRecordType(shape ExerciseShape) RecordType {
	switch shape {
	case ShapeRepAndWeight:
		return RecordMaxVolume
	case ShapeRepBased:
		return RecordMaxReps
	case ShapeTimed:
		return RecordMaxTime
	}
	return RecordMaxVolume
}

// RecordCandidates derives every applicable record value from a working set,
// in a stable order with the shape's primary type first. Warmups yield none,
// and non-positive values are never records.
func RecordCandidates(shape ExerciseShape, v SetValues, isWarmup bool) []RecordCandidate {
	if isWarmup {
		return nil
	}
	volume := Volume(shape, v, false)

	var out []RecordCandidate
	switch shape {
	case ShapeRepAndWeight:
		out = []RecordCandidate{
			{Type: RecordMaxVolume, Value: volume},
			{Type: RecordMaxWeight, Value: v.weight()},
			{Type: RecordMaxReps, Value: float64(deref(v.Reps))},
		}
	case ShapeRepBased:
		out = []RecordCandidate{
			{Type: RecordMaxReps, Value: float64(deref(v.Reps))},
			{Type: RecordMaxVolume, Value: volume},
		}
	case ShapeTimed:
		out = []RecordCandidate{
			{Type: RecordMaxTime, Value: float64(deref(v.TimeSeconds))},
			{Type: RecordMaxVolume, Value: volume},
		}
	}

	filtered := out[:0]
	for _, c := range out {
		if c.Value > 0 {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// Beats reports whether candidate replaces the current record. Ties do not.
func (c RecordCandidate) Beats(current *PersonalRecord) bool {
	return current == nil || c.Value > current.Value
}

// PersonalRecordRepository is the personal record index
type PersonalRecordRepository interface {
	// Get returns nil, nil when no record exists yet.
	Get(ctx context.Context, userID, exerciseID string, recordType RecordType) (*PersonalRecord, error)
	// Put creates or replaces the record for its (user, exercise, type) key.
	Put(ctx context.Context, record *PersonalRecord) error
	ListByUser(ctx context.Context, userID string) ([]*PersonalRecord, error)
}
