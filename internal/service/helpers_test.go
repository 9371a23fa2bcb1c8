package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/repository/memstore"
	"github.com/stretchr/testify/require"
)

var admin = domain.Actor{UserID: "admin", Roles: []string{domain.RoleAdmin}}

// fakeClock starts on Wednesday 2026-03-04 10:00 UTC.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	mem        *memstore.Store
	store      *domain.Store
	clock      *fakeClock
	evaluator  *ProgressEvaluator
	sessions   *SessionService
	sets       *SetService
	challenges *ChallengeService
	catalog    *CatalogService
	stats      *StatsService
}

func newHarness(t *testing.T, cache domain.CacheRepository) *harness {
	t.Helper()
	mem := memstore.New()
	store := mem.Domain()
	clock := newFakeClock()
	evaluator := NewProgressEvaluator(store, clock.Now)

	return &harness{
		mem:        mem,
		store:      store,
		clock:      clock,
		evaluator:  evaluator,
		sessions:   NewSessionService(store, evaluator, cache, nil, clock.Now),
		sets:       NewSetService(store, evaluator, cache, nil, clock.Now),
		challenges: NewChallengeService(store, evaluator, nil, clock.Now),
		catalog:    NewCatalogService(store, clock.Now),
		stats:      NewStatsService(store, cache, time.Minute, clock.Now),
	}
}

func (h *harness) exercise(t *testing.T, name string, shape domain.ExerciseShape) *domain.Exercise {
	t.Helper()
	ex, err := h.catalog.CreateExercise(context.Background(), admin, &domain.Exercise{Name: name, Shape: shape})
	require.NoError(t, err)
	return ex
}

func (h *harness) achievement(t *testing.T, a *domain.Achievement) *domain.Achievement {
	t.Helper()
	if a.Name == "" {
		a.Name = a.Code
	}
	created, err := h.catalog.CreateAchievement(context.Background(), admin, a)
	require.NoError(t, err)
	return created
}

func (h *harness) start(t *testing.T, userID string) *domain.WorkoutSession {
	t.Helper()
	session, err := h.sessions.StartSession(context.Background(), userID, "")
	require.NoError(t, err)
	return session
}

func (h *harness) complete(t *testing.T, session *domain.WorkoutSession) *CompleteSessionResult {
	t.Helper()
	res, err := h.sessions.CompleteSession(context.Background(), CompleteSessionInput{
		SessionID: session.ID,
		UserID:    session.UserID,
	})
	require.NoError(t, err)
	return res
}

func (h *harness) lift(t *testing.T, session *domain.WorkoutSession, ex *domain.Exercise, weight float64, reps int) *LogSetResult {
	t.Helper()
	h.clock.Advance(30 * time.Second)
	res, err := h.sets.LogSet(context.Background(), LogSetInput{
		SessionID:  session.ID,
		UserID:     session.UserID,
		ExerciseID: ex.ID,
		Weight:     &weight,
		Reps:       &reps,
	})
	require.NoError(t, err)
	return res
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
