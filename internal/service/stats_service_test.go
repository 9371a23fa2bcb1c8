package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*repository.RedisCacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewRedisCacheRepository(client), mr
}

func TestTotalWorkoutsAchievement_AwardedOnce(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.achievement(t, &domain.Achievement{Code: "WORKOUTS_3", Category: domain.CategoryTotalWorkouts, Threshold: 3})

	var awarded []string
	for i := 0; i < 5; i++ {
		res := h.complete(t, h.start(t, "u1"))
		for _, a := range res.Awarded {
			awarded = append(awarded, a.Code)
		}
		if i == 2 {
			assert.Len(t, res.Awarded, 1)
		}
	}
	assert.Equal(t, []string{"WORKOUTS_3"}, awarded)

	earned, err := h.store.UserAchievements.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, earned, 1)
}

func TestListAchievements_MasksHiddenUntilEarned(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.achievement(t, &domain.Achievement{Code: "FIRST_WORKOUT", Category: domain.CategoryTotalWorkouts, Threshold: 1})
	h.achievement(t, &domain.Achievement{
		Code:        "SECRET_TEN",
		Name:        "Ten Sessions",
		Description: "Complete ten workouts",
		Category:    domain.CategoryTotalWorkouts,
		Threshold:   10,
		IsHidden:    true,
	})
	h.complete(t, h.start(t, "u1"))

	list, err := h.stats.ListAchievements(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "FIRST_WORKOUT", list[0].Code)
	assert.True(t, list[0].Earned)
	assert.NotNil(t, list[0].EarnedAt)

	assert.Equal(t, "SECRET_TEN", list[1].Code)
	assert.False(t, list[1].Earned)
	assert.Equal(t, "Hidden achievement", list[1].Name)
	assert.Empty(t, list[1].Description)
	assert.Zero(t, list[1].Threshold)
}

func TestGetProgressSummary(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)
	h.achievement(t, &domain.Achievement{Code: "FIRST_WORKOUT", Category: domain.CategoryTotalWorkouts, Threshold: 1})
	c := h.challenge(t, &domain.Challenge{MetricType: domain.MetricTotalSets, TargetValue: 10})
	_, err := h.challenges.Join(ctx, c.ID, "u1")
	require.NoError(t, err)

	session := h.start(t, "u1")
	h.lift(t, session, bench, 100, 5)
	h.complete(t, session)

	summary, err := h.stats.GetProgressSummary(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.Stats.TotalWorkouts)
	assert.Len(t, summary.PersonalRecords, 3)
	assert.Len(t, summary.Achievements, 1)
	require.Len(t, summary.Challenges, 1)
	assert.Equal(t, c.ID, summary.Challenges[0].Challenge.ID)
	assert.Equal(t, 1.0, summary.Challenges[0].Participant.Progress)

	empty, err := h.stats.GetProgressSummary(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty.PersonalRecords)
	assert.NotNil(t, empty.Challenges)
	assert.Zero(t, empty.Stats.TotalWorkouts)
}

func TestGetUserStats_ReadThroughCache(t *testing.T) {
	cache, mr := newRedisCache(t)
	h := newHarness(t, cache)
	ctx := context.Background()
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)
	session := h.start(t, "u1")
	h.lift(t, session, bench, 100, 5)

	stats, err := h.stats.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalSets)
	assert.True(t, mr.Exists("ironlog:stats:u1"))

	// A committed write drops the cached copy.
	h.lift(t, session, bench, 100, 5)
	assert.False(t, mr.Exists("ironlog:stats:u1"))

	stats, err = h.stats.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalSets)
}

func TestGetLeaderboard(t *testing.T) {
	cache, mr := newRedisCache(t)
	h := newHarness(t, cache)
	ctx := context.Background()
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)

	s1 := h.start(t, "u1")
	h.lift(t, s1, bench, 100, 5)
	s2 := h.start(t, "u2")
	h.lift(t, s2, bench, 100, 10)
	h.complete(t, s1)

	board, err := h.stats.GetLeaderboard(ctx, domain.LeaderboardVolume, 0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, domain.LeaderboardEntry{Rank: 1, UserID: "u2", Score: 1000}, board[0])
	assert.Equal(t, domain.LeaderboardEntry{Rank: 2, UserID: "u1", Score: 500}, board[1])

	board, err = h.stats.GetLeaderboard(ctx, domain.LeaderboardWorkouts, 1)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, "u1", board[0].UserID)

	t.Run("rebuilds from the store when redis is empty", func(t *testing.T) {
		mr.FlushAll()
		board, err := h.stats.GetLeaderboard(ctx, domain.LeaderboardVolume, 10)
		require.NoError(t, err)
		require.Len(t, board, 2)
		assert.Equal(t, "u2", board[0].UserID)
		assert.True(t, mr.Exists("ironlog:leaderboard:volume"))
	})

	t.Run("unknown metric", func(t *testing.T) {
		_, err := h.stats.GetLeaderboard(ctx, "calories", 10)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestGetLeaderboard_WithoutCache(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	for _, user := range []string{"u1", "u2", "u2"} {
		h.complete(t, h.start(t, user))
	}

	board, err := h.stats.GetLeaderboard(ctx, domain.LeaderboardWorkouts, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, domain.LeaderboardEntry{Rank: 1, UserID: "u2", Score: 2}, board[0])
}

func TestCatalog_RequiresAdmin(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	member := domain.Actor{UserID: "u1", Roles: []string{domain.RoleMember}}

	_, err := h.catalog.CreateAchievement(ctx, member, &domain.Achievement{Code: "X", Name: "X", Category: domain.CategoryVolume, Threshold: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = h.catalog.CreateChallenge(ctx, member, &domain.Challenge{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = h.catalog.CreateExercise(ctx, member, &domain.Exercise{Name: "Row", Shape: domain.ShapeRepAndWeight})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	all, err := h.store.Achievements.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCatalog_Validation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.achievement(t, &domain.Achievement{Code: "VOLUME_1K", Category: domain.CategoryVolume, Threshold: 1000})
	_, err := h.catalog.CreateAchievement(ctx, admin, &domain.Achievement{Code: "VOLUME_1K", Name: "Again", Category: domain.CategoryVolume, Threshold: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateCode)

	_, err = h.catalog.CreateAchievement(ctx, admin, &domain.Achievement{
		Code:       "BENCH",
		Name:       "Bench",
		Category:   domain.CategoryExerciseSpecific,
		ExerciseID: "missing",
		Threshold:  100,
	})
	assert.ErrorIs(t, err, domain.ErrExerciseNotFound)

	_, err = h.catalog.CreateExercise(ctx, admin, &domain.Exercise{Name: "Row", Shape: "HEAVY"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	h.exercise(t, "Row", domain.ShapeRepAndWeight)
	_, err = h.catalog.CreateExercise(ctx, admin, &domain.Exercise{Name: "Row", Shape: domain.ShapeRepAndWeight})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
