package domain

import (
	"context"
	"time"
)

type LeaderboardMetric string

const (
	LeaderboardVolume   LeaderboardMetric = "volume"
	LeaderboardWorkouts LeaderboardMetric = "workouts"
	LeaderboardStreak   LeaderboardMetric = "streak"
)

// Valid reports whether m is one of the known leaderboard metrics.
func (m LeaderboardMetric) Valid() bool {
	switch m {
	case LeaderboardVolume, LeaderboardWorkouts, LeaderboardStreak:
		return true
	}
	return false
}

// Score extracts the metric value from a user's stats.
func (m LeaderboardMetric) Score(s *UserStats) float64 {
	switch m {
	case LeaderboardVolume:
		return s.TotalVolume
	case LeaderboardWorkouts:
		return float64(s.TotalWorkouts)
	case LeaderboardStreak:
		return float64(s.CurrentStreak)
	}
	return 0
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank   int     `json:"rank"`
	UserID string  `json:"user_id"`
	Score  float64 `json:"score"`
}

// ProgressSummary is everything the profile page shows about a user's progress.
type ProgressSummary struct {
	Stats           *UserStats             `json:"stats"`
	PersonalRecords []*PersonalRecord      `json:"personal_records"`
	Achievements    []*UserAchievement     `json:"achievements"`
	Challenges      []*ChallengeEnrollment `json:"challenges"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// CacheRepository defines the read-model cache. A miss returns nil, nil.
type CacheRepository interface {
	GetUserStats(ctx context.Context, userID string) (*UserStats, error)
	SetUserStats(ctx context.Context, stats *UserStats, ttl time.Duration) error
	InvalidateUser(ctx context.Context, userID string) error
	// SetLeaderboardScores writes the user's score on every leaderboard.
	SetLeaderboardScores(ctx context.Context, stats *UserStats) error
	// TopScores returns the leaderboard, highest first; empty when not yet built.
	TopScores(ctx context.Context, metric LeaderboardMetric, limit int) ([]LeaderboardEntry, error)
	// TopStreaks drops lapsed streaks (last workout before activeSince) from the
	// streak board and returns what is left.
	TopStreaks(ctx context.Context, activeSince time.Time, limit int) ([]LeaderboardEntry, error)
}
