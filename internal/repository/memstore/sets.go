package memstore

import (
	"context"
	"sort"

	"github.com/mansoorceksport/ironlog/internal/domain"
)

type setRepo struct{ s *Store }

func (r setRepo) Create(ctx context.Context, set *domain.WorkoutSet) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("workout_sets.create"); err != nil {
		return err
	}
	cp := *set
	r.s.st.sets[set.ID] = &cp
	return nil
}

func (r setRepo) GetByID(ctx context.Context, id string) (*domain.WorkoutSet, error) {
	defer r.s.lock(ctx)()
	set, ok := r.s.st.sets[id]
	if !ok {
		return nil, domain.ErrSetNotFound
	}
	cp := *set
	return &cp, nil
}

func (r setRepo) ListBySession(ctx context.Context, sessionID string) ([]*domain.WorkoutSet, error) {
	defer r.s.lock(ctx)()
	var out []*domain.WorkoutSet
	for _, set := range r.s.st.sets {
		if set.SessionID == sessionID {
			cp := *set
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r setRepo) CountBySessionAndExercise(ctx context.Context, sessionID, exerciseID string) (int64, error) {
	defer r.s.lock(ctx)()
	var n int64
	for _, set := range r.s.st.sets {
		if set.SessionID == sessionID && set.ExerciseID == exerciseID {
			n++
		}
	}
	return n, nil
}

func (r setRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.st.sets[id]; !ok {
		return domain.ErrSetNotFound
	}
	delete(r.s.st.sets, id)
	return nil
}

func (r setRepo) ShiftSetNumbers(ctx context.Context, sessionID, exerciseID string, above int) error {
	defer r.s.lock(ctx)()
	for id, set := range r.s.st.sets {
		if set.SessionID == sessionID && set.ExerciseID == exerciseID && set.SetNumber > above {
			cp := *set
			cp.SetNumber--
			r.s.st.sets[id] = &cp
		}
	}
	return nil
}

func (r setRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("workout_sets.delete_by_session"); err != nil {
		return err
	}
	for id, set := range r.s.st.sets {
		if set.SessionID == sessionID {
			delete(r.s.st.sets, id)
		}
	}
	return nil
}

func (r setRepo) SumWorking(ctx context.Context, filter domain.SetFilter) (domain.SetTotals, error) {
	defer r.s.lock(ctx)()
	var totals domain.SetTotals
	for _, set := range r.s.st.sets {
		if set.UserID != filter.UserID || set.IsWarmup {
			continue
		}
		if filter.ExerciseID != "" && set.ExerciseID != filter.ExerciseID {
			continue
		}
		if !inWindow(set.CreatedAt, filter.From, filter.To) {
			continue
		}
		totals.Sets++
		totals.Volume += set.Volume
	}
	return totals, nil
}
