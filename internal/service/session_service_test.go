package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSession_OnlyOneActivePerUser(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	first := h.start(t, "u1")
	assert.Equal(t, domain.SessionStatusActive, first.Status)

	_, err := h.sessions.StartSession(ctx, "u1", "")
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyActive)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Other users are unaffected.
	h.start(t, "u2")
}

func TestStartSession_Concurrent(t *testing.T) {
	h := newHarness(t, nil)

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.sessions.StartSession(context.Background(), "u1", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrSessionAlreadyActive)
	}
	assert.Equal(t, 1, succeeded)
}

func TestStartSession_FromPlanDay(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)

	day, err := h.catalog.CreatePlanDay(ctx, admin, &domain.PlanDay{
		PlanID: "plan-1",
		Name:   "Push",
		Exercises: []*domain.PlannedExercise{
			{ExerciseID: bench.ID, Order: 1, TargetSets: 3, TargetReps: intPtr(8)},
		},
	})
	require.NoError(t, err)

	session, err := h.sessions.StartSession(ctx, "u1", day.ID)
	require.NoError(t, err)
	assert.Equal(t, "plan-1", session.PlanID)

	view, err := h.sessions.GetActiveSession(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, view.PlanDay)
	assert.Equal(t, "Push", view.PlanDay.Name)

	_, err = h.sessions.StartSession(ctx, "u2", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetActiveSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)

	view, err := h.sessions.GetActiveSession(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, view)

	session := h.start(t, "u1")
	h.lift(t, session, bench, 60, 10)
	h.lift(t, session, bench, 70, 8)

	view, err = h.sessions.GetActiveSession(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, session.ID, view.Session.ID)
	assert.Len(t, view.Sets, 2)
}

func TestCompleteSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	session := h.start(t, "u1")

	h.clock.Advance(45 * time.Minute)
	res, err := h.sessions.CompleteSession(ctx, CompleteSessionInput{
		SessionID:  session.ID,
		UserID:     "u1",
		Notes:      "felt strong",
		MoodRating: intPtr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusCompleted, res.Session.Status)
	assert.EqualValues(t, 45*60, res.Session.DurationSeconds)
	assert.EqualValues(t, 1, res.Stats.TotalWorkouts)
	assert.Equal(t, 1, res.Stats.CurrentStreak)

	// The user may start a new session right away.
	h.start(t, "u1")

	t.Run("twice is a conflict", func(t *testing.T) {
		_, err := h.sessions.CompleteSession(ctx, CompleteSessionInput{SessionID: session.ID, UserID: "u1"})
		assert.ErrorIs(t, err, domain.ErrSessionCompleted)
	})

	t.Run("other user sees not found", func(t *testing.T) {
		other := h.start(t, "u2")
		_, err := h.sessions.CompleteSession(ctx, CompleteSessionInput{SessionID: other.ID, UserID: "u1"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCompleteSession_Validation(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	session := h.start(t, "u1")

	_, err := h.sessions.CompleteSession(ctx, CompleteSessionInput{SessionID: session.ID, UserID: "u1", MoodRating: intPtr(6)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.sessions.CompleteSession(ctx, CompleteSessionInput{
		SessionID: session.ID,
		UserID:    "u1",
		Notes:     strings.Repeat("x", domain.MaxSessionNotes+1),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	active, err := h.store.Sessions.GetActiveByUser(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, active)
}

func TestCompleteSession_RollsBackFanOutFailure(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.achievement(t, &domain.Achievement{Code: "FIRST_WORKOUT", Category: domain.CategoryTotalWorkouts, Threshold: 1})
	session := h.start(t, "u1")

	h.mem.FailNext("user_achievements.create", assert.AnError)
	_, err := h.sessions.CompleteSession(ctx, CompleteSessionInput{SessionID: session.ID, UserID: "u1"})
	require.ErrorIs(t, err, domain.ErrStore)
	assert.ErrorIs(t, err, assert.AnError)

	stored, err := h.store.Sessions.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive())
	stats, err := h.store.Stats.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalWorkouts)

	res := h.complete(t, session)
	require.Len(t, res.Awarded, 1)
	assert.Equal(t, "FIRST_WORKOUT", res.Awarded[0].Code)
}

func TestDiscardSession(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)
	session := h.start(t, "u1")
	h.lift(t, session, bench, 100, 5)

	t.Run("other user sees not found and nothing changes", func(t *testing.T) {
		err := h.sessions.DiscardSession(ctx, session.ID, "u2")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		sets, err := h.store.Sets.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		assert.Len(t, sets, 1)
	})

	require.NoError(t, h.sessions.DiscardSession(ctx, session.ID, "u1"))

	_, err := h.store.Sessions.GetByID(ctx, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	sets, err := h.store.Sets.ListBySession(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, sets)

	stats, err := h.store.Stats.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSets)
	assert.Zero(t, stats.TotalVolume)

	t.Run("completed session cannot be discarded", func(t *testing.T) {
		done := h.start(t, "u1")
		h.complete(t, done)
		err := h.sessions.DiscardSession(ctx, done.ID, "u1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStreak_DecaysOnRead(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.achievement(t, &domain.Achievement{Code: "STREAK_3", Category: domain.CategoryStreak, Threshold: 3})

	var last *CompleteSessionResult
	for week := 0; week < 3; week++ {
		last = h.complete(t, h.start(t, "u1"))
		h.clock.Advance(7 * 24 * time.Hour)
	}
	assert.Equal(t, 3, last.Stats.CurrentStreak)
	assert.Equal(t, 3, last.Stats.LongestStreak)
	require.Len(t, last.Awarded, 1)
	assert.Equal(t, "STREAK_3", last.Awarded[0].Code)

	// The week after the last workout is still open.
	stats, err := h.stats.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CurrentStreak)

	h.clock.Advance(7 * 24 * time.Hour)
	stats, err = h.stats.GetUserStats(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, stats.CurrentStreak)
	assert.Equal(t, 3, stats.LongestStreak)
}
