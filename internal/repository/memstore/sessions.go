package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
)

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(ctx context.Context, session *domain.WorkoutSession) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("workout_sessions.create"); err != nil {
		return err
	}
	for _, existing := range r.s.st.sessions {
		if existing.UserID == session.UserID && existing.Status == domain.SessionStatusActive {
			return domain.ErrSessionAlreadyActive
		}
	}
	cp := *session
	r.s.st.sessions[session.ID] = &cp
	return nil
}

func (r sessionRepo) GetByID(ctx context.Context, id string) (*domain.WorkoutSession, error) {
	defer r.s.lock(ctx)()
	session, ok := r.s.st.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (r sessionRepo) GetActiveByUser(ctx context.Context, userID string) (*domain.WorkoutSession, error) {
	defer r.s.lock(ctx)()
	for _, session := range r.s.st.sessions {
		if session.UserID == userID && session.Status == domain.SessionStatusActive {
			cp := *session
			return &cp, nil
		}
	}
	return nil, nil
}

func (r sessionRepo) MarkCompleted(ctx context.Context, session *domain.WorkoutSession) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("workout_sessions.mark_completed"); err != nil {
		return err
	}
	existing, ok := r.s.st.sessions[session.ID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if existing.Status != domain.SessionStatusActive {
		return domain.ErrSessionCompleted
	}
	cp := *session
	r.s.st.sessions[session.ID] = &cp
	return nil
}

func (r sessionRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(r.s.st.sessions, id)
	return nil
}

func (r sessionRepo) ListCompletedTimes(ctx context.Context, userID string) ([]time.Time, error) {
	defer r.s.lock(ctx)()
	var out []time.Time
	for _, session := range r.s.st.sessions {
		if session.UserID == userID && session.CompletedAt != nil {
			out = append(out, *session.CompletedAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out, nil
}

func (r sessionRepo) CountCompleted(ctx context.Context, userID string, from, to time.Time) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for _, session := range r.s.st.sessions {
		if session.UserID != userID || session.CompletedAt == nil {
			continue
		}
		if inWindow(*session.CompletedAt, from, to) {
			n++
		}
	}
	return n, nil
}

func inWindow(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}
