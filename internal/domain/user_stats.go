package domain

import (
	"context"
	"sort"
	"time"
)

// UserStats is the materialized set of counters the fan-out recomputes on every
// event. CurrentStreak is re-derived on read so a closed empty week shows as 0
// even when no new event arrived.
type UserStats struct {
	UserID              string     `json:"user_id" bson:"_id"`
	TotalWorkouts       int64      `json:"total_workouts" bson:"total_workouts"`
	TotalSets           int64      `json:"total_sets" bson:"total_sets"`
	TotalVolume         float64    `json:"total_volume" bson:"total_volume"` // Weight * Reps summed over working sets
	PersonalRecordCount int64      `json:"personal_record_count" bson:"personal_record_count"`
	CurrentStreak       int        `json:"current_streak" bson:"current_streak"` // consecutive weeks
	LongestStreak       int        `json:"longest_streak" bson:"longest_streak"`
	LastWorkoutAt       *time.Time `json:"last_workout_at,omitempty" bson:"last_workout_at,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at" bson:"updated_at"`
}

// UserStatsRepository handles the user_stats collection
type UserStatsRepository interface {
	// Get returns zeroed stats for a user that has none yet.
	Get(ctx context.Context, userID string) (*UserStats, error)
	Put(ctx context.Context, stats *UserStats) error
	IncrementPersonalRecords(ctx context.Context, userID string, delta int64) error
	// Top returns the best users for a leaderboard metric.
	Top(ctx context.Context, metric LeaderboardMetric, limit int) ([]*UserStats, error)
	// TopStreaks ranks users by CurrentStreak, skipping zero streaks and users
	// whose last workout is before activeSince.
	TopStreaks(ctx context.Context, activeSince time.Time, limit int) ([]*UserStats, error)
}

// StreakAt returns CurrentStreak as seen at now: once the week after the last
// workout has closed empty, the streak is 0 without a new event.
func (s *UserStats) StreakAt(now time.Time) int {
	if s.LastWorkoutAt == nil || s.CurrentStreak == 0 {
		return 0
	}
	if s.LastWorkoutAt.Before(StreakActiveSince(now)) {
		return 0
	}
	return s.CurrentStreak
}

// StreakActiveSince is the Monday of the week before now's week. A streak whose
// last workout is earlier than that has lapsed.
func StreakActiveSince(now time.Time) time.Time {
	return WeekStart(now).AddDate(0, 0, -7)
}

// WeekStart returns Monday 00:00 UTC of the ISO week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}

// WeeklyStreak computes the current and longest run of consecutive weeks with at
// least one completed workout. The current streak survives while the week after
// the last workout is still open; once that week closes empty it is 0.
func WeeklyStreak(completions []time.Time, now time.Time) (current, longest int) {
	if len(completions) == 0 {
		return 0, 0
	}

	seen := make(map[time.Time]bool, len(completions))
	weeks := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		w := WeekStart(c)
		if !seen[w] {
			seen[w] = true
			weeks = append(weeks, w)
		}
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	run := 0
	for i, w := range weeks {
		if i > 0 && weeks[i-1].AddDate(0, 0, 7).Equal(w) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	latest := weeks[len(weeks)-1]
	thisWeek := WeekStart(now)
	if latest.Before(thisWeek.AddDate(0, 0, -7)) {
		return 0, longest
	}
	for w := latest; seen[w]; w = w.AddDate(0, 0, -7) {
		current++
	}
	return current, longest
}
