package domain

import (
	"context"
	"time"
)

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

const (
	MinMoodRating   = 1
	MaxMoodRating   = 5
	MaxSessionNotes = 2000
)

// WorkoutSession is one workout attempt. A user has at most one session with
// CompletedAt == nil; the store backs this with a unique partial index on
// (user_id) where status == "active".
type WorkoutSession struct {
	ID              string        `json:"id" bson:"_id"`
	UserID          string        `json:"user_id" bson:"user_id"`
	PlanID          string        `json:"plan_id,omitempty" bson:"plan_id,omitempty"`
	PlanDayID       string        `json:"plan_day_id,omitempty" bson:"plan_day_id,omitempty"`
	Status          SessionStatus `json:"status" bson:"status"`
	StartedAt       time.Time     `json:"started_at" bson:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	DurationSeconds int64         `json:"duration_seconds" bson:"duration_seconds"`
	Notes           string        `json:"notes,omitempty" bson:"notes,omitempty"`
	MoodRating      *int          `json:"mood_rating,omitempty" bson:"mood_rating,omitempty"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" bson:"updated_at"`
}

// IsActive reports whether the session still accepts sets.
func (s *WorkoutSession) IsActive() bool {
	return s.CompletedAt == nil
}

// Complete moves the session to its terminal completed state.
func (s *WorkoutSession) Complete(now time.Time, notes string, mood *int) {
	s.Status = SessionStatusCompleted
	s.CompletedAt = &now
	s.DurationSeconds = int64(now.Sub(s.StartedAt).Seconds())
	if s.DurationSeconds < 0 {
		s.DurationSeconds = 0
	}
	s.Notes = notes
	s.MoodRating = mood
	s.UpdatedAt = now
}

// ValidateCompletion checks the notes and mood supplied to completeSession.
func ValidateCompletion(notes string, mood *int) error {
	if len(notes) > MaxSessionNotes {
		return NewValidationError("notes", "must be at most 2000 characters")
	}
	if mood != nil && (*mood < MinMoodRating || *mood > MaxMoodRating) {
		return NewValidationError("mood_rating", "must be between 1 and 5")
	}
	return nil
}

// ActiveSessionView is what the client needs to resume an in-progress workout.
type ActiveSessionView struct {
	Session *WorkoutSession `json:"session"`
	Sets    []*WorkoutSet   `json:"sets"`
	PlanDay *PlanDay        `json:"plan_day,omitempty"`
}

type WorkoutSessionRepository interface {
	// Create inserts an active session. Returns ErrSessionAlreadyActive when the
	// user already has one.
	Create(ctx context.Context, session *WorkoutSession) error
	// GetByID returns ErrSessionNotFound when missing.
	GetByID(ctx context.Context, id string) (*WorkoutSession, error)
	// GetActiveByUser returns nil, nil when the user has no active session.
	GetActiveByUser(ctx context.Context, userID string) (*WorkoutSession, error)
	// MarkCompleted persists completion fields of an active session.
	MarkCompleted(ctx context.Context, session *WorkoutSession) error
	Delete(ctx context.Context, id string) error
	// ListCompletedTimes returns completed_at of the user's completed sessions,
	// most recent first.
	ListCompletedTimes(ctx context.Context, userID string) ([]time.Time, error)
	// CountCompleted counts completed sessions with completed_at in [from, to].
	// A zero from/to leaves that side open.
	CountCompleted(ctx context.Context, userID string, from, to time.Time) (int64, error)
}
