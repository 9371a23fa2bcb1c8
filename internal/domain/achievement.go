package domain

import (
	"context"
	"time"
)

type AchievementCategory string

const (
	CategoryTotalWorkouts    AchievementCategory = "TOTAL_WORKOUTS"
	CategoryStreak           AchievementCategory = "STREAK"
	CategoryPersonalRecord   AchievementCategory = "PERSONAL_RECORD"
	CategoryVolume           AchievementCategory = "VOLUME"
	CategoryExerciseSpecific AchievementCategory = "EXERCISE_SPECIFIC"
)

// Valid reports whether c is one of the known categories.
func (c AchievementCategory) Valid() bool {
	switch c {
	case CategoryTotalWorkouts, CategoryStreak, CategoryPersonalRecord, CategoryVolume, CategoryExerciseSpecific:
		return true
	}
	return false
}

type Rarity string

const (
	RarityCommon    Rarity = "COMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
)

// Achievement is a catalog entry. The catalog is edited by admins only and is
// read-only to the progress engine.
type Achievement struct {
	ID          string              `json:"id" bson:"_id"`
	Code        string              `json:"code" bson:"code"` // Unique Index
	Name        string              `json:"name" bson:"name"`
	Description string              `json:"description" bson:"description"`
	Category    AchievementCategory `json:"category" bson:"category"`
	Rarity      Rarity              `json:"rarity" bson:"rarity"`
	Icon        string              `json:"icon" bson:"icon"`
	Threshold   float64             `json:"threshold" bson:"threshold"`
	ExerciseID  string              `json:"exercise_id,omitempty" bson:"exercise_id,omitempty"` // EXERCISE_SPECIFIC only
	RecordType  RecordType          `json:"record_type,omitempty" bson:"record_type,omitempty"` // EXERCISE_SPECIFIC only
	IsHidden    bool                `json:"is_hidden" bson:"is_hidden"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at"`
}

// Validate checks a catalog entry before it is stored.
func (a *Achievement) Validate() error {
	if a.Code == "" {
		return NewValidationError("code", "is required")
	}
	if a.Name == "" {
		return NewValidationError("name", "is required")
	}
	if !a.Category.Valid() {
		return NewValidationError("category", "is not a known category")
	}
	if a.Threshold <= 0 {
		return NewValidationError("threshold", "must be positive")
	}
	if a.Category == CategoryExerciseSpecific && a.ExerciseID == "" {
		return NewValidationError("exercise_id", "is required for exercise-specific achievements")
	}
	if a.RecordType != "" && !a.RecordType.Valid() {
		return NewValidationError("record_type", "is not a known record type")
	}
	if a.Rarity == "" {
		a.Rarity = RarityCommon
	}
	return nil
}

// UserAchievement records that a user earned an achievement. Earning is
// permanent: rows are never updated or deleted.
type UserAchievement struct {
	ID            string    `json:"id" bson:"_id"`
	UserID        string    `json:"user_id" bson:"user_id"`
	AchievementID string    `json:"achievement_id" bson:"achievement_id"`
	EarnedAt      time.Time `json:"earned_at" bson:"earned_at"`
}

// AchievementWithStatus is the per-user view of the catalog.
type AchievementWithStatus struct {
	Achievement
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// Masked hides the details of an unearned hidden achievement.
func (a AchievementWithStatus) Masked() AchievementWithStatus {
	if !a.IsHidden || a.Earned {
		return a
	}
	a.Name = "Hidden achievement"
	a.Description = ""
	a.Icon = ""
	a.Threshold = 0
	a.ExerciseID = ""
	a.RecordType = ""
	return a
}

type AchievementRepository interface {
	Create(ctx context.Context, achievement *Achievement) error
	// ListByCategories returns catalog entries ordered by (category, threshold, code).
	ListByCategories(ctx context.Context, categories ...AchievementCategory) ([]*Achievement, error)
	List(ctx context.Context) ([]*Achievement, error)
}

type UserAchievementRepository interface {
	// Exists reports whether the user already earned the achievement.
	Exists(ctx context.Context, userID, achievementID string) (bool, error)
	// Create inserts a row; a duplicate (user, achievement) is ErrConflict.
	Create(ctx context.Context, ua *UserAchievement) error
	ListByUser(ctx context.Context, userID string) ([]*UserAchievement, error)
}
