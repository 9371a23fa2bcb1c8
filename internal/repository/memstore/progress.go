package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
)

type userAchievementRepo struct{ s *Store }

func (r userAchievementRepo) Exists(ctx context.Context, userID, achievementID string) (bool, error) {
	defer r.s.lock(ctx)()
	_, ok := r.s.st.userAchievements[uaKey{userID, achievementID}]
	return ok, nil
}

func (r userAchievementRepo) Create(ctx context.Context, ua *domain.UserAchievement) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("user_achievements.create"); err != nil {
		return err
	}
	key := uaKey{ua.UserID, ua.AchievementID}
	if _, ok := r.s.st.userAchievements[key]; ok {
		return fmt.Errorf("user achievement %s/%s: %w", ua.UserID, ua.AchievementID, domain.ErrConflict)
	}
	cp := *ua
	r.s.st.userAchievements[key] = &cp
	return nil
}

func (r userAchievementRepo) ListByUser(ctx context.Context, userID string) ([]*domain.UserAchievement, error) {
	defer r.s.lock(ctx)()
	var out []*domain.UserAchievement
	for k, ua := range r.s.st.userAchievements {
		if k.userID == userID {
			cp := *ua
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EarnedAt.Equal(out[j].EarnedAt) {
			return out[i].EarnedAt.Before(out[j].EarnedAt)
		}
		return out[i].AchievementID < out[j].AchievementID
	})
	return out, nil
}

type participantRepo struct{ s *Store }

func (r participantRepo) Create(ctx context.Context, p *domain.ChallengeParticipant) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("challenge_participants.create"); err != nil {
		return err
	}
	key := participantKey{p.ChallengeID, p.UserID}
	if _, ok := r.s.st.participants[key]; ok {
		return domain.ErrAlreadyJoined
	}
	cp := *p
	r.s.st.participants[key] = &cp
	return nil
}

func (r participantRepo) ListByUser(ctx context.Context, userID string) ([]*domain.ChallengeParticipant, error) {
	defer r.s.lock(ctx)()
	var out []*domain.ChallengeParticipant
	for k, p := range r.s.st.participants {
		if k.userID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChallengeID < out[j].ChallengeID })
	return out, nil
}

func (r participantRepo) ListByChallenge(ctx context.Context, challengeID string, limit int) ([]*domain.ChallengeParticipant, error) {
	defer r.s.lock(ctx)()
	var out []*domain.ChallengeParticipant
	for k, p := range r.s.st.participants {
		if k.challengeID == challengeID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Progress != out[j].Progress {
			return out[i].Progress > out[j].Progress
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r participantRepo) Update(ctx context.Context, p *domain.ChallengeParticipant) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("challenge_participants.update"); err != nil {
		return err
	}
	key := participantKey{p.ChallengeID, p.UserID}
	if _, ok := r.s.st.participants[key]; !ok {
		return fmt.Errorf("challenge participant: %w", domain.ErrNotFound)
	}
	cp := *p
	r.s.st.participants[key] = &cp
	return nil
}

type statsRepo struct{ s *Store }

func (r statsRepo) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	defer r.s.lock(ctx)()
	stats, ok := r.s.st.stats[userID]
	if !ok {
		return &domain.UserStats{UserID: userID}, nil
	}
	cp := *stats
	return &cp, nil
}

func (r statsRepo) Put(ctx context.Context, stats *domain.UserStats) error {
	defer r.s.lock(ctx)()
	if err := r.s.injected("user_stats.put"); err != nil {
		return err
	}
	cp := *stats
	r.s.st.stats[stats.UserID] = &cp
	return nil
}

func (r statsRepo) IncrementPersonalRecords(ctx context.Context, userID string, delta int64) error {
	defer r.s.lock(ctx)()
	cp := domain.UserStats{UserID: userID}
	if existing, ok := r.s.st.stats[userID]; ok {
		cp = *existing
	}
	cp.PersonalRecordCount += delta
	r.s.st.stats[userID] = &cp
	return nil
}

func (r statsRepo) Top(ctx context.Context, metric domain.LeaderboardMetric, limit int) ([]*domain.UserStats, error) {
	return r.top(ctx, metric, limit, func(*domain.UserStats) bool { return true })
}

func (r statsRepo) TopStreaks(ctx context.Context, activeSince time.Time, limit int) ([]*domain.UserStats, error) {
	return r.top(ctx, domain.LeaderboardStreak, limit, func(s *domain.UserStats) bool {
		return s.CurrentStreak > 0 && s.LastWorkoutAt != nil && !s.LastWorkoutAt.Before(activeSince)
	})
}

func (r statsRepo) top(ctx context.Context, metric domain.LeaderboardMetric, limit int, keep func(*domain.UserStats) bool) ([]*domain.UserStats, error) {
	defer r.s.lock(ctx)()
	out := make([]*domain.UserStats, 0, len(r.s.st.stats))
	for _, stats := range r.s.st.stats {
		if !keep(stats) {
			continue
		}
		cp := *stats
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := metric.Score(out[i]), metric.Score(out[j])
		if si != sj {
			return si > sj
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
