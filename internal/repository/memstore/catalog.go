package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/mansoorceksport/ironlog/internal/domain"
)

type recordRepo struct{ s *Store }

func (r recordRepo) Get(ctx context.Context, userID, exerciseID string, recordType domain.RecordType) (*domain.PersonalRecord, error) {
	defer r.s.lock(ctx)()
	rec, ok := r.s.st.records[recordKey{userID, exerciseID, recordType}]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (r recordRepo) Put(ctx context.Context, record *domain.PersonalRecord) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("personal_records.put"); err != nil {
		return err
	}
	cp := *record
	r.s.st.records[recordKey{record.UserID, record.ExerciseID, record.RecordType}] = &cp
	return nil
}

func (r recordRepo) ListByUser(ctx context.Context, userID string) ([]*domain.PersonalRecord, error) {
	defer r.s.lock(ctx)()
	var out []*domain.PersonalRecord
	for k, rec := range r.s.st.records {
		if k.userID == userID {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExerciseID != out[j].ExerciseID {
			return out[i].ExerciseID < out[j].ExerciseID
		}
		return out[i].RecordType < out[j].RecordType
	})
	return out, nil
}

type exerciseRepo struct{ s *Store }

func (r exerciseRepo) Create(ctx context.Context, exercise *domain.Exercise) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.st.exercises {
		if existing.Name == exercise.Name {
			return fmt.Errorf("exercise %q already exists: %w", exercise.Name, domain.ErrConflict)
		}
	}
	cp := *exercise
	r.s.st.exercises[exercise.ID] = &cp
	return nil
}

func (r exerciseRepo) GetByID(ctx context.Context, id string) (*domain.Exercise, error) {
	defer r.s.lock(ctx)()
	ex, ok := r.s.st.exercises[id]
	if !ok {
		return nil, domain.ErrExerciseNotFound
	}
	cp := *ex
	return &cp, nil
}

func (r exerciseRepo) List(ctx context.Context) ([]*domain.Exercise, error) {
	defer r.s.lock(ctx)()
	out := make([]*domain.Exercise, 0, len(r.s.st.exercises))
	for _, ex := range r.s.st.exercises {
		cp := *ex
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type planRepo struct{ s *Store }

func (r planRepo) Create(ctx context.Context, day *domain.PlanDay) error {
	defer r.s.lock(ctx)()
	cp := *day
	r.s.st.planDays[day.ID] = &cp
	return nil
}

func (r planRepo) GetPlanDay(ctx context.Context, id string) (*domain.PlanDay, error) {
	defer r.s.lock(ctx)()
	day, ok := r.s.st.planDays[id]
	if !ok {
		return nil, domain.ErrPlanDayNotFound
	}
	cp := *day
	return &cp, nil
}

type achievementRepo struct{ s *Store }

func (r achievementRepo) Create(ctx context.Context, achievement *domain.Achievement) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.st.achievements {
		if existing.Code == achievement.Code {
			return domain.ErrDuplicateCode
		}
	}
	cp := *achievement
	r.s.st.achievements[achievement.ID] = &cp
	return nil
}

func (r achievementRepo) ListByCategories(ctx context.Context, categories ...domain.AchievementCategory) ([]*domain.Achievement, error) {
	defer r.s.lock(ctx)()
	want := make(map[domain.AchievementCategory]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	var out []*domain.Achievement
	for _, a := range r.s.st.achievements {
		if want[a.Category] {
			cp := *a
			out = append(out, &cp)
		}
	}
	sortAchievements(out)
	return out, nil
}

func (r achievementRepo) List(ctx context.Context) ([]*domain.Achievement, error) {
	defer r.s.lock(ctx)()
	out := make([]*domain.Achievement, 0, len(r.s.st.achievements))
	for _, a := range r.s.st.achievements {
		cp := *a
		out = append(out, &cp)
	}
	sortAchievements(out)
	return out, nil
}

func sortAchievements(list []*domain.Achievement) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Threshold != b.Threshold {
			return a.Threshold < b.Threshold
		}
		return a.Code < b.Code
	})
}

type challengeRepo struct{ s *Store }

func (r challengeRepo) Create(ctx context.Context, challenge *domain.Challenge) error {
	defer r.s.lock(ctx)()
	cp := *challenge
	r.s.st.challenges[challenge.ID] = &cp
	return nil
}

func (r challengeRepo) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.st.challenges[id]
	if !ok {
		return nil, domain.ErrChallengeNotFound
	}
	cp := *c
	return &cp, nil
}

func (r challengeRepo) ReserveSeat(ctx context.Context, challenge *domain.Challenge) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("challenges.reserve_seat"); err != nil {
		return err
	}
	c, ok := r.s.st.challenges[challenge.ID]
	if !ok {
		return domain.ErrChallengeNotFound
	}
	if c.MaxParticipants > 0 && c.ParticipantCount >= c.MaxParticipants {
		return domain.ErrChallengeFull
	}
	cp := *c
	cp.ParticipantCount++
	r.s.st.challenges[challenge.ID] = &cp
	challenge.ParticipantCount = cp.ParticipantCount
	return nil
}

func (r challengeRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Challenge, error) {
	defer r.s.lock(ctx)()
	var out []*domain.Challenge
	for _, id := range ids {
		if c, ok := r.s.st.challenges[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}
