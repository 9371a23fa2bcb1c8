package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
)

var (
	setLoggedCategories = []domain.AchievementCategory{
		domain.CategoryPersonalRecord,
		domain.CategoryVolume,
		domain.CategoryExerciseSpecific,
	}
	sessionCompletedCategories = []domain.AchievementCategory{
		domain.CategoryTotalWorkouts,
		domain.CategoryStreak,
	}
	allCategories = append(append([]domain.AchievementCategory{}, setLoggedCategories...), sessionCompletedCategories...)
)

// FanOutResult is what one event changed. Callers use it after commit for
// metrics, logs and read-model refreshes.
type FanOutResult struct {
	Stats               *domain.UserStats     `json:"stats"`
	Awarded             []*domain.Achievement `json:"awarded_achievements"`
	CompletedChallenges []string              `json:"completed_challenges"`
}

// ProgressEvaluator propagates a logged set or a completed session into the
// derived aggregates. Every method must run inside the caller's transaction;
// any error it returns aborts the triggering write as well.
type ProgressEvaluator struct {
	store *domain.Store
	now   func() time.Time
}

func NewProgressEvaluator(store *domain.Store, now func() time.Time) *ProgressEvaluator {
	if now == nil {
		now = time.Now
	}
	return &ProgressEvaluator{store: store, now: now}
}

// OnSetLogged runs the set-logged fan-out for a working or warmup set.
func (e *ProgressEvaluator) OnSetLogged(ctx context.Context, set *domain.WorkoutSet, exercise *domain.Exercise) (*FanOutResult, error) {
	stats, err := e.RefreshCounters(ctx, set.UserID, false)
	if err != nil {
		return nil, err
	}

	awarded, err := e.awardAchievements(ctx, set.UserID, stats, setLoggedCategories, exercise)
	if err != nil {
		return nil, err
	}

	completed, err := e.advanceChallenges(ctx, set.UserID, func(c *domain.Challenge) bool {
		switch c.MetricType {
		case domain.MetricTotalVolume, domain.MetricTotalSets:
			return true
		case domain.MetricSpecificExercise:
			return c.ExerciseID == set.ExerciseID
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	return &FanOutResult{Stats: stats, Awarded: awarded, CompletedChallenges: completed}, nil
}

// OnSessionCompleted runs the session-completed fan-out, the only event that
// recomputes the streak.
func (e *ProgressEvaluator) OnSessionCompleted(ctx context.Context, session *domain.WorkoutSession) (*FanOutResult, error) {
	stats, err := e.RefreshCounters(ctx, session.UserID, true)
	if err != nil {
		return nil, err
	}

	awarded, err := e.awardAchievements(ctx, session.UserID, stats, sessionCompletedCategories, nil)
	if err != nil {
		return nil, err
	}

	completed, err := e.advanceChallenges(ctx, session.UserID, func(c *domain.Challenge) bool {
		return c.MetricType == domain.MetricTotalWorkouts || c.MetricType == domain.MetricWorkoutStreak
	})
	if err != nil {
		return nil, err
	}

	return &FanOutResult{Stats: stats, Awarded: awarded, CompletedChallenges: completed}, nil
}

// RecalculateUser rebuilds the user's counters, awards any achievement of any
// category the rebuilt counters now reach, and re-evaluates every active
// challenge they joined. Progress is still never lowered.
func (e *ProgressEvaluator) RecalculateUser(ctx context.Context, userID string) (*FanOutResult, error) {
	var result *FanOutResult
	err := e.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		stats, err := e.RefreshCounters(ctx, userID, true)
		if err != nil {
			return err
		}
		awarded, err := e.awardAchievements(ctx, userID, stats, allCategories, nil)
		if err != nil {
			return err
		}
		completed, err := e.advanceChallenges(ctx, userID, func(*domain.Challenge) bool { return true })
		if err != nil {
			return err
		}
		result = &FanOutResult{Stats: stats, Awarded: awarded, CompletedChallenges: completed}
		return nil
	})
	if err != nil {
		return nil, domain.WrapStore("recalculate user", err)
	}
	return result, nil
}

// RefreshCounters recomputes the materialized counters from the set and session
// collections. The streak is only recomputed when withStreak is set.
func (e *ProgressEvaluator) RefreshCounters(ctx context.Context, userID string, withStreak bool) (*domain.UserStats, error) {
	stats, err := e.store.Stats.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}

	workouts, err := e.store.Sessions.CountCompleted(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("count workouts: %w", err)
	}
	totals, err := e.store.Sets.SumWorking(ctx, domain.SetFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("sum sets: %w", err)
	}

	stats.UserID = userID
	stats.TotalWorkouts = workouts
	stats.TotalSets = totals.Sets
	stats.TotalVolume = totals.Volume

	if withStreak {
		completions, err := e.store.Sessions.ListCompletedTimes(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list completions: %w", err)
		}
		stats.CurrentStreak, stats.LongestStreak = domain.WeeklyStreak(completions, e.now())
		if len(completions) > 0 {
			last := completions[0]
			stats.LastWorkoutAt = &last
		}
	}

	stats.UpdatedAt = e.now()
	if err := e.store.Stats.Put(ctx, stats); err != nil {
		return nil, fmt.Errorf("save stats: %w", err)
	}
	return stats, nil
}

// awardAchievements grants every not yet earned achievement of the given
// categories whose counter reached its threshold. With a nil exercise every
// EXERCISE_SPECIFIC achievement is checked, otherwise only that exercise's.
func (e *ProgressEvaluator) awardAchievements(ctx context.Context, userID string, stats *domain.UserStats, categories []domain.AchievementCategory, exercise *domain.Exercise) ([]*domain.Achievement, error) {
	catalog, err := e.store.Achievements.ListByCategories(ctx, categories...)
	if err != nil {
		return nil, fmt.Errorf("load achievements: %w", err)
	}

	var awarded []*domain.Achievement
	for _, a := range catalog {
		if a.Category == domain.CategoryExerciseSpecific && exercise != nil && a.ExerciseID != exercise.ID {
			continue
		}

		value, err := e.achievementCounter(ctx, userID, a, stats, exercise)
		if err != nil {
			return nil, err
		}
		if value < a.Threshold {
			continue
		}

		earned, err := e.store.UserAchievements.Exists(ctx, userID, a.ID)
		if err != nil {
			return nil, fmt.Errorf("check achievement %s: %w", a.Code, err)
		}
		if earned {
			continue
		}

		ua := &domain.UserAchievement{
			ID:            generateULID(),
			UserID:        userID,
			AchievementID: a.ID,
			EarnedAt:      e.now(),
		}
		if err := e.store.UserAchievements.Create(ctx, ua); err != nil {
			return nil, fmt.Errorf("award achievement %s: %w", a.Code, err)
		}
		awarded = append(awarded, a)
	}
	return awarded, nil
}

func (e *ProgressEvaluator) achievementCounter(ctx context.Context, userID string, a *domain.Achievement, stats *domain.UserStats, exercise *domain.Exercise) (float64, error) {
	switch a.Category {
	case domain.CategoryTotalWorkouts:
		return float64(stats.TotalWorkouts), nil
	case domain.CategoryStreak:
		return float64(stats.CurrentStreak), nil
	case domain.CategoryPersonalRecord:
		return float64(stats.PersonalRecordCount), nil
	case domain.CategoryVolume:
		return stats.TotalVolume, nil
	case domain.CategoryExerciseSpecific:
		recordType := a.RecordType
		if recordType == "" {
			if exercise == nil || exercise.ID != a.ExerciseID {
				ex, err := e.store.Exercises.GetByID(ctx, a.ExerciseID)
				if errors.Is(err, domain.ErrNotFound) {
					return 0, nil
				}
				if err != nil {
					return 0, fmt.Errorf("load exercise %s: %w", a.ExerciseID, err)
				}
				exercise = ex
			}
			recordType = domain.PrimaryRecordType(exercise.Shape)
		}
		rec, err := e.store.Records.Get(ctx, userID, a.ExerciseID, recordType)
		if err != nil {
			return 0, fmt.Errorf("load record: %w", err)
		}
		if rec == nil {
			return 0, nil
		}
		return rec.Value, nil
	}
	return 0, nil
}

// advanceChallenges recomputes progress of the user's active challenges that
// match, and returns the ids of challenges completed by this call.
func (e *ProgressEvaluator) advanceChallenges(ctx context.Context, userID string, match func(*domain.Challenge) bool) ([]string, error) {
	participations, err := e.store.Participants.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load participations: %w", err)
	}
	if len(participations) == 0 {
		return nil, nil
	}

	ids := make([]string, len(participations))
	for i, p := range participations {
		ids[i] = p.ChallengeID
	}
	challenges, err := e.store.Challenges.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load challenges: %w", err)
	}
	byID := make(map[string]*domain.Challenge, len(challenges))
	for _, c := range challenges {
		byID[c.ID] = c
	}

	now := e.now()
	var completed []string
	for _, p := range participations {
		c, ok := byID[p.ChallengeID]
		if !ok || !c.IsActive(now) || !match(c) {
			continue
		}

		progress, err := e.ChallengeProgress(ctx, userID, c)
		if err != nil {
			return nil, err
		}
		changed, done := p.Advance(progress, c.TargetValue, now)
		if !changed {
			continue
		}
		if err := e.store.Participants.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("update challenge %s: %w", c.ID, err)
		}
		if done {
			completed = append(completed, c.ID)
		}
	}
	return completed, nil
}

// ChallengeProgress aggregates the challenge metric over its window.
func (e *ProgressEvaluator) ChallengeProgress(ctx context.Context, userID string, c *domain.Challenge) (float64, error) {
	switch c.MetricType {
	case domain.MetricTotalWorkouts:
		n, err := e.store.Sessions.CountCompleted(ctx, userID, c.StartDate, c.EndDate)
		if err != nil {
			return 0, fmt.Errorf("count workouts: %w", err)
		}
		return float64(n), nil

	case domain.MetricTotalVolume, domain.MetricTotalSets, domain.MetricSpecificExercise:
		filter := domain.SetFilter{UserID: userID, From: c.StartDate, To: c.EndDate}
		if c.MetricType == domain.MetricSpecificExercise {
			filter.ExerciseID = c.ExerciseID
		}
		totals, err := e.store.Sets.SumWorking(ctx, filter)
		if err != nil {
			return 0, fmt.Errorf("sum sets: %w", err)
		}
		if c.MetricType == domain.MetricTotalSets {
			return float64(totals.Sets), nil
		}
		return totals.Volume, nil

	case domain.MetricWorkoutStreak:
		completions, err := e.store.Sessions.ListCompletedTimes(ctx, userID)
		if err != nil {
			return 0, fmt.Errorf("list completions: %w", err)
		}
		var inWindow []time.Time
		for _, t := range completions {
			if !t.Before(c.StartDate) && !t.After(c.EndDate) {
				inWindow = append(inWindow, t)
			}
		}
		_, longest := domain.WeeklyStreak(inWindow, e.now())
		return float64(longest), nil
	}
	return 0, nil
}
