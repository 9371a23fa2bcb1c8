package domain

import (
	"context"
	"time"
)

type ChallengeMetric string

const (
	MetricTotalWorkouts    ChallengeMetric = "TOTAL_WORKOUTS"
	MetricTotalVolume      ChallengeMetric = "TOTAL_VOLUME"
	MetricTotalSets        ChallengeMetric = "TOTAL_SETS"
	MetricWorkoutStreak    ChallengeMetric = "WORKOUT_STREAK"
	MetricSpecificExercise ChallengeMetric = "SPECIFIC_EXERCISE"
)

// Valid reports whether m is one of the known metric types.
func (m ChallengeMetric) Valid() bool {
	switch m {
	case MetricTotalWorkouts, MetricTotalVolume, MetricTotalSets, MetricWorkoutStreak, MetricSpecificExercise:
		return true
	}
	return false
}

// Challenge defines a target over a time window.
type Challenge struct {
	ID               string          `json:"id" bson:"_id"`
	Name             string          `json:"name" bson:"name"`
	Description      string          `json:"description" bson:"description"`
	MetricType       ChallengeMetric `json:"metric_type" bson:"metric_type"`
	ExerciseID       string          `json:"exercise_id,omitempty" bson:"exercise_id,omitempty"` // SPECIFIC_EXERCISE only
	TargetValue      float64         `json:"target_value" bson:"target_value"`
	StartDate        time.Time       `json:"start_date" bson:"start_date"`
	EndDate          time.Time       `json:"end_date" bson:"end_date"`
	MaxParticipants  int             `json:"max_participants" bson:"max_participants"`   // 0 = unlimited
	ParticipantCount int             `json:"participant_count" bson:"participant_count"` // seats taken, only ReserveSeat moves it
	CreatedAt        time.Time       `json:"created_at" bson:"created_at"`
}

// IsActive reports whether now falls inside the challenge window.
func (c *Challenge) IsActive(now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// Validate checks a catalog entry before it is stored.
func (c *Challenge) Validate() error {
	if c.Name == "" {
		return NewValidationError("name", "is required")
	}
	if !c.MetricType.Valid() {
		return NewValidationError("metric_type", "is not a known metric")
	}
	if c.MetricType == MetricSpecificExercise && c.ExerciseID == "" {
		return NewValidationError("exercise_id", "is required for exercise challenges")
	}
	if c.TargetValue <= 0 {
		return NewValidationError("target_value", "must be positive")
	}
	if !c.EndDate.After(c.StartDate) {
		return NewValidationError("end_date", "must be after start_date")
	}
	if c.MaxParticipants < 0 {
		return NewValidationError("max_participants", "must not be negative")
	}
	return nil
}

// ChallengeParticipant tracks one user's progress in a challenge. Progress never
// decreases and CompletedAt is set once.
type ChallengeParticipant struct {
	ID          string     `json:"id" bson:"_id"`
	ChallengeID string     `json:"challenge_id" bson:"challenge_id"`
	UserID      string     `json:"user_id" bson:"user_id"`
	Progress    float64    `json:"progress" bson:"progress"`
	JoinedAt    time.Time  `json:"joined_at" bson:"joined_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

// Advance applies a recomputed progress value. It returns true when the row
// changed; lower values are ignored.
func (p *ChallengeParticipant) Advance(progress, target float64, now time.Time) (changed, completed bool) {
	if progress > p.Progress {
		p.Progress = progress
		p.UpdatedAt = now
		changed = true
	}
	if p.CompletedAt == nil && p.Progress >= target {
		p.CompletedAt = &now
		p.UpdatedAt = now
		changed = true
		completed = true
	}
	return changed, completed
}

// ChallengeEnrollment pairs a participant row with its challenge.
type ChallengeEnrollment struct {
	Challenge   *Challenge            `json:"challenge"`
	Participant *ChallengeParticipant `json:"participant"`
}

// ChallengeStanding is one ranked row of a challenge.
type ChallengeStanding struct {
	Rank        int        `json:"rank"`
	UserID      string     `json:"user_id"`
	Progress    float64    `json:"progress"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *Challenge) error
	GetByID(ctx context.Context, id string) (*Challenge, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Challenge, error)
	// ReserveSeat increments ParticipantCount in a single conditional write and
	// returns ErrChallengeFull when MaxParticipants is already reached.
	ReserveSeat(ctx context.Context, challenge *Challenge) error
}

type ChallengeParticipantRepository interface {
	// Create inserts a participant; a duplicate (challenge, user) is ErrAlreadyJoined.
	Create(ctx context.Context, p *ChallengeParticipant) error
	ListByUser(ctx context.Context, userID string) ([]*ChallengeParticipant, error)
	// ListByChallenge returns participants ordered by progress desc, joined_at asc.
	ListByChallenge(ctx context.Context, challengeID string, limit int) ([]*ChallengeParticipant, error)
	Update(ctx context.Context, p *ChallengeParticipant) error
}
