package service

import (
	"context"
	"testing"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const oneWeek = 7 * 24 * time.Hour

func TestWorkoutStreakChallenge_CompletesInThirdWeek(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.achievement(t, &domain.Achievement{Code: "STREAK_3", Category: domain.CategoryStreak, Threshold: 3})
	c := h.challenge(t, &domain.Challenge{
		MetricType:  domain.MetricWorkoutStreak,
		TargetValue: 3,
		EndDate:     h.clock.Now().Add(60 * 24 * time.Hour),
	})
	_, err := h.challenges.Join(ctx, c.ID, "alice")
	require.NoError(t, err)

	for i, want := range []float64{1, 2, 3} {
		if i > 0 {
			h.clock.Advance(oneWeek)
		}
		res := h.complete(t, h.start(t, "alice"))
		assert.Equal(t, want, h.participant(t, c.ID, "alice").Progress, "week %d", i+1)

		if want < 3 {
			assert.Empty(t, res.CompletedChallenges)
			assert.Empty(t, res.Awarded)
			continue
		}
		assert.Equal(t, []string{c.ID}, res.CompletedChallenges)
		require.Len(t, res.Awarded, 1)
		assert.Equal(t, "STREAK_3", res.Awarded[0].Code)
	}
	assert.NotNil(t, h.participant(t, c.ID, "alice").CompletedAt)
}

func TestWorkoutStreakChallenge_GapWeekKeepsLongestRun(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	c := h.challenge(t, &domain.Challenge{
		MetricType:  domain.MetricWorkoutStreak,
		TargetValue: 5,
		EndDate:     h.clock.Now().Add(60 * 24 * time.Hour),
	})
	_, err := h.challenges.Join(ctx, c.ID, "bob")
	require.NoError(t, err)

	h.complete(t, h.start(t, "bob"))
	h.clock.Advance(oneWeek)
	h.complete(t, h.start(t, "bob"))
	assert.Equal(t, 2.0, h.participant(t, c.ID, "bob").Progress)

	// Week three is skipped, so the next workout starts a new run of one.
	h.clock.Advance(2 * oneWeek)
	h.complete(t, h.start(t, "bob"))
	assert.Equal(t, 2.0, h.participant(t, c.ID, "bob").Progress)

	stats, err := h.stats.GetUserStats(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CurrentStreak)
	assert.Equal(t, 2, stats.LongestStreak)

	h.clock.Advance(oneWeek)
	h.complete(t, h.start(t, "bob"))
	assert.Equal(t, 2.0, h.participant(t, c.ID, "bob").Progress)
	h.clock.Advance(oneWeek)
	h.complete(t, h.start(t, "bob"))
	assert.Equal(t, 3.0, h.participant(t, c.ID, "bob").Progress)
	assert.Nil(t, h.participant(t, c.ID, "bob").CompletedAt)
}

func TestStreakLeaderboard_DropsLapsedStreaks(t *testing.T) {
	for _, tc := range []struct {
		name      string
		withCache bool
	}{
		{name: "redis", withCache: true},
		{name: "store only"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var cache domain.CacheRepository
			if tc.withCache {
				cache, _ = newRedisCache(t)
			}
			h := newHarness(t, cache)
			ctx := context.Background()

			h.complete(t, h.start(t, "alice"))
			h.clock.Advance(oneWeek)
			h.complete(t, h.start(t, "alice"))

			board, err := h.stats.GetLeaderboard(ctx, domain.LeaderboardStreak, 10)
			require.NoError(t, err)
			assert.Equal(t, []domain.LeaderboardEntry{{Rank: 1, UserID: "alice", Score: 2}}, board)

			h.clock.Advance(5 * oneWeek)

			stats, err := h.stats.GetUserStats(ctx, "alice")
			require.NoError(t, err)
			assert.Zero(t, stats.CurrentStreak)

			board, err = h.stats.GetLeaderboard(ctx, domain.LeaderboardStreak, 10)
			require.NoError(t, err)
			assert.Empty(t, board)

			h.complete(t, h.start(t, "bob"))
			board, err = h.stats.GetLeaderboard(ctx, domain.LeaderboardStreak, 10)
			require.NoError(t, err)
			assert.Equal(t, []domain.LeaderboardEntry{{Rank: 1, UserID: "bob", Score: 1}}, board)
		})
	}
}

func TestRecalculateUser_AwardsAchievementsAddedLater(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)

	session := h.start(t, "u1")
	h.lift(t, session, bench, 100, 5)
	h.complete(t, session)
	h.complete(t, h.start(t, "u1"))

	h.achievement(t, &domain.Achievement{Code: "WORKOUTS_2", Category: domain.CategoryTotalWorkouts, Threshold: 2})
	h.achievement(t, &domain.Achievement{Code: "VOLUME_500", Category: domain.CategoryVolume, Threshold: 500})
	h.achievement(t, &domain.Achievement{
		Code:       "BENCH_500",
		Category:   domain.CategoryExerciseSpecific,
		ExerciseID: bench.ID,
		Threshold:  500,
	})
	h.achievement(t, &domain.Achievement{Code: "WORKOUTS_10", Category: domain.CategoryTotalWorkouts, Threshold: 10})

	res, err := h.evaluator.RecalculateUser(ctx, "u1")
	require.NoError(t, err)
	codes := make([]string, 0, len(res.Awarded))
	for _, a := range res.Awarded {
		codes = append(codes, a.Code)
	}
	assert.ElementsMatch(t, []string{"WORKOUTS_2", "VOLUME_500", "BENCH_500"}, codes)

	again, err := h.evaluator.RecalculateUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, again.Awarded)

	earned, err := h.store.UserAchievements.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, earned, 3)
}
