package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) challenge(t *testing.T, c *domain.Challenge) *domain.Challenge {
	t.Helper()
	now := h.clock.Now()
	if c.Name == "" {
		c.Name = string(c.MetricType)
	}
	if c.StartDate.IsZero() {
		c.StartDate = now.Add(-time.Hour)
	}
	if c.EndDate.IsZero() {
		c.EndDate = now.Add(7 * 24 * time.Hour)
	}
	created, err := h.catalog.CreateChallenge(context.Background(), admin, c)
	require.NoError(t, err)
	return created
}

func (h *harness) participant(t *testing.T, challengeID, userID string) *domain.ChallengeParticipant {
	t.Helper()
	list, err := h.store.Participants.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	for _, p := range list {
		if p.ChallengeID == challengeID {
			return p
		}
	}
	t.Fatalf("user %s has not joined challenge %s", userID, challengeID)
	return nil
}

func TestJoin(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	c := h.challenge(t, &domain.Challenge{MetricType: domain.MetricTotalWorkouts, TargetValue: 3, MaxParticipants: 1})

	enrollment, err := h.challenges.Join(ctx, c.ID, "u1")
	require.NoError(t, err)
	assert.Zero(t, enrollment.Participant.Progress)
	assert.Nil(t, enrollment.Participant.CompletedAt)

	_, err = h.challenges.Join(ctx, c.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrAlreadyJoined)

	_, err = h.challenges.Join(ctx, c.ID, "u2")
	assert.ErrorIs(t, err, domain.ErrChallengeFull)

	_, err = h.challenges.Join(ctx, "missing", "u1")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestJoin_ConcurrentJoinsNeverPassTheCap(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	c := h.challenge(t, &domain.Challenge{MetricType: domain.MetricTotalWorkouts, TargetValue: 3, MaxParticipants: 3})

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		full   int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.challenges.Join(ctx, c.ID, string(rune('a'+i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case errors.Is(err, domain.ErrChallengeFull):
				full++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, joined)
	assert.Equal(t, 7, full)

	stored, err := h.store.Challenges.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.ParticipantCount)
	standings, err := h.stats.GetChallengeStandings(ctx, c.ID, 100)
	require.NoError(t, err)
	assert.Len(t, standings, 3)
}

func TestJoin_FailedJoinReleasesSeat(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	c := h.challenge(t, &domain.Challenge{MetricType: domain.MetricTotalWorkouts, TargetValue: 3, MaxParticipants: 1})

	h.mem.FailNext("challenge_participants.create", errors.New("disk full"))
	_, err := h.challenges.Join(ctx, c.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrStore)

	stored, err := h.store.Challenges.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.ParticipantCount)

	_, err = h.challenges.Join(ctx, c.ID, "u2")
	require.NoError(t, err)
}

func TestJoin_ClosedChallenge(t *testing.T) {
	h := newHarness(t, nil)
	now := h.clock.Now()
	c := h.challenge(t, &domain.Challenge{
		MetricType:  domain.MetricTotalSets,
		TargetValue: 10,
		StartDate:   now.Add(-14 * 24 * time.Hour),
		EndDate:     now.Add(-7 * 24 * time.Hour),
	})

	_, err := h.challenges.Join(context.Background(), c.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrChallengeClosed)
}

func TestJoin_CountsWorkInsideWindow(t *testing.T) {
	h := newHarness(t, nil)
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)

	// Logged before the challenge starts, so it does not count.
	session := h.start(t, "u1")
	h.lift(t, session, bench, 100, 5)
	h.clock.Advance(2 * time.Hour)

	c := h.challenge(t, &domain.Challenge{MetricType: domain.MetricTotalVolume, TargetValue: 1000})
	h.lift(t, session, bench, 100, 10)

	enrollment, err := h.challenges.Join(context.Background(), c.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, enrollment.Participant.Progress)
	assert.NotNil(t, enrollment.Participant.CompletedAt)
}

func TestChallengeProgress_TotalVolume(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)
	c := h.challenge(t, &domain.Challenge{MetricType: domain.MetricTotalVolume, TargetValue: 1000})
	_, err := h.challenges.Join(ctx, c.ID, "u1")
	require.NoError(t, err)

	session := h.start(t, "u1")
	h.lift(t, session, bench, 100, 5)
	assert.Equal(t, 500.0, h.participant(t, c.ID, "u1").Progress)

	last := h.lift(t, session, bench, 100, 5)
	p := h.participant(t, c.ID, "u1")
	assert.Equal(t, 1000.0, p.Progress)
	require.NotNil(t, p.CompletedAt)
	completedAt := *p.CompletedAt

	t.Run("recalculation is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			res, err := h.evaluator.RecalculateUser(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, res.CompletedChallenges)
		}
		p := h.participant(t, c.ID, "u1")
		assert.Equal(t, 1000.0, p.Progress)
		assert.True(t, completedAt.Equal(*p.CompletedAt))
	})

	t.Run("deleting a set never lowers progress", func(t *testing.T) {
		require.NoError(t, h.sets.DeleteSet(ctx, last.Set.ID, "u1"))
		p := h.participant(t, c.ID, "u1")
		assert.Equal(t, 1000.0, p.Progress)
		assert.NotNil(t, p.CompletedAt)
	})
}

func TestChallengeProgress_OnlyMatchingMetricsAdvance(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	bench := h.exercise(t, "Bench Press", domain.ShapeRepAndWeight)
	squat := h.exercise(t, "Squat", domain.ShapeRepAndWeight)

	workouts := h.challenge(t, &domain.Challenge{MetricType: domain.MetricTotalWorkouts, TargetValue: 2})
	sets := h.challenge(t, &domain.Challenge{MetricType: domain.MetricTotalSets, TargetValue: 2})
	squats := h.challenge(t, &domain.Challenge{MetricType: domain.MetricSpecificExercise, ExerciseID: squat.ID, TargetValue: 1000})
	for _, c := range []*domain.Challenge{workouts, sets, squats} {
		_, err := h.challenges.Join(ctx, c.ID, "u1")
		require.NoError(t, err)
	}

	session := h.start(t, "u1")
	h.lift(t, session, bench, 100, 5)
	h.lift(t, session, squat, 140, 5)

	assert.Zero(t, h.participant(t, workouts.ID, "u1").Progress)
	assert.Equal(t, 2.0, h.participant(t, sets.ID, "u1").Progress)
	assert.NotNil(t, h.participant(t, sets.ID, "u1").CompletedAt)
	assert.Equal(t, 700.0, h.participant(t, squats.ID, "u1").Progress)

	res := h.complete(t, session)
	assert.Empty(t, res.CompletedChallenges)
	assert.Equal(t, 1.0, h.participant(t, workouts.ID, "u1").Progress)

	res = h.complete(t, h.start(t, "u1"))
	assert.Equal(t, []string{workouts.ID}, res.CompletedChallenges)
}

func TestChallengeProgress_IgnoresEndedChallenges(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	c := h.challenge(t, &domain.Challenge{
		MetricType:  domain.MetricTotalWorkouts,
		TargetValue: 5,
		EndDate:     h.clock.Now().Add(time.Hour),
	})
	_, err := h.challenges.Join(ctx, c.ID, "u1")
	require.NoError(t, err)

	h.complete(t, h.start(t, "u1"))
	assert.Equal(t, 1.0, h.participant(t, c.ID, "u1").Progress)

	h.clock.Advance(2 * time.Hour)
	h.complete(t, h.start(t, "u1"))
	assert.Equal(t, 1.0, h.participant(t, c.ID, "u1").Progress)
}

func TestChallengeStandings(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	c := h.challenge(t, &domain.Challenge{MetricType: domain.MetricTotalWorkouts, TargetValue: 2})

	for _, user := range []string{"u1", "u2", "u3"} {
		_, err := h.challenges.Join(ctx, c.ID, user)
		require.NoError(t, err)
		h.clock.Advance(time.Minute)
	}
	h.complete(t, h.start(t, "u3"))
	h.complete(t, h.start(t, "u3"))
	h.complete(t, h.start(t, "u2"))

	standings, err := h.stats.GetChallengeStandings(ctx, c.ID, 0)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	assert.Equal(t, "u3", standings[0].UserID)
	assert.NotNil(t, standings[0].CompletedAt)
	assert.Equal(t, "u2", standings[1].UserID)
	assert.Equal(t, 3, standings[2].Rank)
	assert.Equal(t, "u1", standings[2].UserID)

	_, err = h.stats.GetChallengeStandings(ctx, "missing", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
