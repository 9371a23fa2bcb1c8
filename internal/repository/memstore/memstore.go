// Package memstore is an in-process record store with the same transactional
// contract as the Mongo store: one writer at a time, and every write made inside
// a failed transaction is rolled back.
package memstore

import (
	"context"
	"sync"

	"github.com/mansoorceksport/ironlog/internal/domain"
)

type txKey struct{}

type recordKey struct {
	userID     string
	exerciseID string
	recordType domain.RecordType
}

type uaKey struct {
	userID        string
	achievementID string
}

type participantKey struct {
	challengeID string
	userID      string
}

// state holds pointers to values that are never mutated in place, so a shallow
// copy of every map is a consistent snapshot.
type state struct {
	sessions         map[string]*domain.WorkoutSession
	sets             map[string]*domain.WorkoutSet
	records          map[recordKey]*domain.PersonalRecord
	exercises        map[string]*domain.Exercise
	planDays         map[string]*domain.PlanDay
	achievements     map[string]*domain.Achievement
	userAchievements map[uaKey]*domain.UserAchievement
	challenges       map[string]*domain.Challenge
	participants     map[participantKey]*domain.ChallengeParticipant
	stats            map[string]*domain.UserStats
}

func newState() *state {
	return &state{
		sessions:         map[string]*domain.WorkoutSession{},
		sets:             map[string]*domain.WorkoutSet{},
		records:          map[recordKey]*domain.PersonalRecord{},
		exercises:        map[string]*domain.Exercise{},
		planDays:         map[string]*domain.PlanDay{},
		achievements:     map[string]*domain.Achievement{},
		userAchievements: map[uaKey]*domain.UserAchievement{},
		challenges:       map[string]*domain.Challenge{},
		participants:     map[participantKey]*domain.ChallengeParticipant{},
		stats:            map[string]*domain.UserStats{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (st *state) clone() *state {
	return &state{
		sessions:         cloneMap(st.sessions),
		sets:             cloneMap(st.sets),
		records:          cloneMap(st.records),
		exercises:        cloneMap(st.exercises),
		planDays:         cloneMap(st.planDays),
		achievements:     cloneMap(st.achievements),
		userAchievements: cloneMap(st.userAchievements),
		challenges:       cloneMap(st.challenges),
		participants:     cloneMap(st.participants),
		stats:            cloneMap(st.stats),
	}
}

// Store is the in-memory backend. The zero value is not usable; call New.
type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
}

func New() *Store {
	return &Store{st: newState(), failures: map[string]error{}}
}

// Domain exposes the store through the domain repository interfaces.
func (s *Store) Domain() *domain.Store {
	return &domain.Store{
		Tx:               s,
		Sessions:         sessionRepo{s},
		Sets:             setRepo{s},
		Records:          recordRepo{s},
		Exercises:        exerciseRepo{s},
		Plans:            planRepo{s},
		Achievements:     achievementRepo{s},
		UserAchievements: userAchievementRepo{s},
		Challenges:       challengeRepo{s},
		Participants:     participantRepo{s},
		Stats:            statsRepo{s},
	}
}

// WithinTx serializes fn against every other store access and restores the
// previous state if fn fails or panics. Nested calls join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txKey{}) == s {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if r := recover(); r != nil {
			s.st = snapshot
			panic(r)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, s))
}

// lock takes the store mutex unless ctx already runs inside this store's
// transaction, in which case the caller holds it.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) == s {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// FailNext makes the next call of op return err. Ops are named
// "<collection>.<method>", e.g. "user_achievements.create".
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// injected must be called with the mutex held.
func (s *Store) injected(op string) error {
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}
