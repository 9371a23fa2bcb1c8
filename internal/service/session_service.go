package service

import (
	"context"
	"errors"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/telemetry"
)

// SessionService owns the lifecycle of a workout session:
// NONE -> ACTIVE -> COMPLETED, or ACTIVE -> discarded.
type SessionService struct {
	store     *domain.Store
	evaluator *ProgressEvaluator
	sync      readModels
	now       func() time.Time
}

func NewSessionService(
	store *domain.Store,
	evaluator *ProgressEvaluator,
	cache domain.CacheRepository,
	metrics *telemetry.Metrics,
	now func() time.Time,
) *SessionService {
	if now == nil {
		now = time.Now
	}
	return &SessionService{
		store:     store,
		evaluator: evaluator,
		sync:      readModels{cache: cache, metrics: metrics},
		now:       now,
	}
}

// CompleteSessionInput carries the optional wrap-up fields of a workout.
type CompleteSessionInput struct {
	SessionID  string
	UserID     string
	Notes      string
	MoodRating *int
}

// CompleteSessionResult is the completed session plus what the fan-out changed.
type CompleteSessionResult struct {
	Session *domain.WorkoutSession `json:"session"`
	*FanOutResult
}

// StartSession opens a session for the user, optionally from a plan day.
func (s *SessionService) StartSession(ctx context.Context, userID, planDayID string) (*domain.WorkoutSession, error) {
	var session *domain.WorkoutSession
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var planID string
		if planDayID != "" {
			day, err := s.store.Plans.GetPlanDay(ctx, planDayID)
			if err != nil {
				return err
			}
			planID = day.PlanID
		}

		active, err := s.store.Sessions.GetActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		if active != nil {
			return domain.ErrSessionAlreadyActive
		}

		now := s.now()
		session = &domain.WorkoutSession{
			ID:        generateULID(),
			UserID:    userID,
			PlanID:    planID,
			PlanDayID: planDayID,
			Status:    domain.SessionStatusActive,
			StartedAt: now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.store.Sessions.Create(ctx, session)
	})
	if err != nil {
		return nil, domain.WrapStore("start session", err)
	}
	return session, nil
}

// GetActiveSession returns nil, nil when the user has no active session.
func (s *SessionService) GetActiveSession(ctx context.Context, userID string) (*domain.ActiveSessionView, error) {
	var view *domain.ActiveSessionView
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		session, err := s.store.Sessions.GetActiveByUser(ctx, userID)
		if err != nil || session == nil {
			return err
		}

		sets, err := s.store.Sets.ListBySession(ctx, session.ID)
		if err != nil {
			return err
		}
		view = &domain.ActiveSessionView{Session: session, Sets: sets}

		if session.PlanDayID != "" {
			day, err := s.store.Plans.GetPlanDay(ctx, session.PlanDayID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			view.PlanDay = day
		}
		return nil
	})
	if err != nil {
		return nil, domain.WrapStore("get active session", err)
	}
	return view, nil
}

// CompleteSession closes the session and runs the session-completed fan-out in
// the same transaction.
func (s *SessionService) CompleteSession(ctx context.Context, in CompleteSessionInput) (*CompleteSessionResult, error) {
	if err := domain.ValidateCompletion(in.Notes, in.MoodRating); err != nil {
		return nil, err
	}

	var result *CompleteSessionResult
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		session, err := s.ownedSession(ctx, in.SessionID, in.UserID)
		if err != nil {
			return err
		}
		if !session.IsActive() {
			return domain.ErrSessionCompleted
		}

		session.Complete(s.now(), in.Notes, in.MoodRating)
		if err := s.store.Sessions.MarkCompleted(ctx, session); err != nil {
			return err
		}

		fan, err := s.evaluator.OnSessionCompleted(ctx, session)
		if err != nil {
			return err
		}
		result = &CompleteSessionResult{Session: session, FanOutResult: fan}
		return nil
	})
	if err != nil {
		return nil, domain.WrapStore("complete session", err)
	}

	s.sync.fanOutCommitted(ctx, in.UserID, result.FanOutResult)
	return result, nil
}

// DiscardSession deletes an active session and its sets. Completed sessions are
// history and cannot be discarded.
func (s *SessionService) DiscardSession(ctx context.Context, sessionID, userID string) error {
	var stats *domain.UserStats
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		session, err := s.ownedSession(ctx, sessionID, userID)
		if err != nil {
			return err
		}
		if !session.IsActive() {
			return domain.ErrSessionNotFound
		}

		if err := s.store.Sets.DeleteBySession(ctx, session.ID); err != nil {
			return err
		}
		if err := s.store.Sessions.Delete(ctx, session.ID); err != nil {
			return err
		}

		// Discarded sets no longer count toward set and volume totals.
		stats, err = s.evaluator.RefreshCounters(ctx, userID, false)
		return err
	})
	if err != nil {
		return domain.WrapStore("discard session", err)
	}

	s.sync.statsChanged(ctx, stats)
	return nil
}

// ownedSession hides sessions of other users behind the not-found error.
func (s *SessionService) ownedSession(ctx context.Context, sessionID, userID string) (*domain.WorkoutSession, error) {
	session, err := s.store.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
