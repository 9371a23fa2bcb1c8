package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// StatsService serves the read side: stats, progress summaries, achievement
// lists, leaderboards and challenge standings. It never writes to the store.
type StatsService struct {
	store    *domain.Store
	cache    domain.CacheRepository
	statsTTL time.Duration
	now      func() time.Time
}

func NewStatsService(store *domain.Store, cache domain.CacheRepository, statsTTL time.Duration, now func() time.Time) *StatsService {
	if now == nil {
		now = time.Now
	}
	return &StatsService{store: store, cache: cache, statsTTL: statsTTL, now: now}
}

// GetUserStats reads through the Redis cache.
func (s *StatsService) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	stats := s.cachedStats(ctx, userID)
	if stats == nil {
		var err error
		stats, err = s.store.Stats.Get(ctx, userID)
		if err != nil {
			return nil, domain.WrapStore("get user stats", err)
		}
		if s.cache != nil {
			if err := s.cache.SetUserStats(ctx, stats, s.statsTTL); err != nil {
				slog.WarnContext(ctx, "stats cache write failed", "user_id", userID, "error", err)
			}
		}
	}

	out := *stats
	out.CurrentStreak = stats.StreakAt(s.now())
	return &out, nil
}

func (s *StatsService) cachedStats(ctx context.Context, userID string) *domain.UserStats {
	if s.cache == nil {
		return nil
	}
	stats, err := s.cache.GetUserStats(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "stats cache read failed", "user_id", userID, "error", err)
		return nil
	}
	return stats
}

// GetProgressSummary loads the profile view concurrently.
func (s *StatsService) GetProgressSummary(ctx context.Context, userID string) (*domain.ProgressSummary, error) {
	summary := &domain.ProgressSummary{
		PersonalRecords: []*domain.PersonalRecord{},
		Achievements:    []*domain.UserAchievement{},
		Challenges:      []*domain.ChallengeEnrollment{},
		GeneratedAt:     s.now(),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.GetUserStats(gCtx, userID)
		if err != nil {
			return err
		}
		summary.Stats = stats
		return nil
	})

	g.Go(func() error {
		records, err := s.store.Records.ListByUser(gCtx, userID)
		if err != nil {
			return err
		}
		if records != nil {
			summary.PersonalRecords = records
		}
		return nil
	})

	g.Go(func() error {
		earned, err := s.store.UserAchievements.ListByUser(gCtx, userID)
		if err != nil {
			return err
		}
		if earned != nil {
			summary.Achievements = earned
		}
		return nil
	})

	g.Go(func() error {
		enrollments, err := s.enrollments(gCtx, userID)
		if err != nil {
			return err
		}
		summary.Challenges = enrollments
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, domain.WrapStore("get progress summary", err)
	}
	return summary, nil
}

func (s *StatsService) enrollments(ctx context.Context, userID string) ([]*domain.ChallengeEnrollment, error) {
	participations, err := s.store.Participants.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ChallengeEnrollment, 0, len(participations))
	if len(participations) == 0 {
		return out, nil
	}

	ids := make([]string, len(participations))
	for i, p := range participations {
		ids[i] = p.ChallengeID
	}
	challenges, err := s.store.Challenges.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Challenge, len(challenges))
	for _, c := range challenges {
		byID[c.ID] = c
	}
	for _, p := range participations {
		if c, ok := byID[p.ChallengeID]; ok {
			out = append(out, &domain.ChallengeEnrollment{Challenge: c, Participant: p})
		}
	}
	return out, nil
}

// ListAchievements returns the whole catalog with the user's earned status.
// Hidden entries the user has not earned are masked.
func (s *StatsService) ListAchievements(ctx context.Context, userID string) ([]domain.AchievementWithStatus, error) {
	catalog, err := s.store.Achievements.List(ctx)
	if err != nil {
		return nil, domain.WrapStore("list achievements", err)
	}
	earned, err := s.store.UserAchievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.WrapStore("list achievements", err)
	}

	earnedAt := make(map[string]time.Time, len(earned))
	for _, ua := range earned {
		earnedAt[ua.AchievementID] = ua.EarnedAt
	}

	out := make([]domain.AchievementWithStatus, 0, len(catalog))
	for _, a := range catalog {
		item := domain.AchievementWithStatus{Achievement: *a}
		if at, ok := earnedAt[a.ID]; ok {
			item.Earned = true
			item.EarnedAt = &at
		}
		out = append(out, item.Masked())
	}
	return out, nil
}

// GetLeaderboard serves from the Redis sorted sets and falls back to the store
// when they are empty, warming them on the way. The streak board only lists
// streaks that are still alive at now.
func (s *StatsService) GetLeaderboard(ctx context.Context, metric domain.LeaderboardMetric, limit int) ([]domain.LeaderboardEntry, error) {
	if !metric.Valid() {
		return nil, domain.NewValidationError("metric", "must be volume, workouts or streak")
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	activeSince := domain.StreakActiveSince(s.now())

	if s.cache != nil {
		var entries []domain.LeaderboardEntry
		var err error
		if metric == domain.LeaderboardStreak {
			entries, err = s.cache.TopStreaks(ctx, activeSince, limit)
		} else {
			entries, err = s.cache.TopScores(ctx, metric, limit)
		}
		if err != nil {
			slog.WarnContext(ctx, "leaderboard cache read failed", "metric", metric, "error", err)
		} else if len(entries) > 0 {
			return entries, nil
		}
	}

	var top []*domain.UserStats
	var err error
	if metric == domain.LeaderboardStreak {
		top, err = s.store.Stats.TopStreaks(ctx, activeSince, limit)
	} else {
		top, err = s.store.Stats.Top(ctx, metric, limit)
	}
	if err != nil {
		return nil, domain.WrapStore("get leaderboard", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(top))
	for i, stats := range top {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:   i + 1,
			UserID: stats.UserID,
			Score:  metric.Score(stats),
		})
		if s.cache != nil {
			if err := s.cache.SetLeaderboardScores(ctx, stats); err != nil {
				slog.WarnContext(ctx, "leaderboard warm failed", "user_id", stats.UserID, "error", err)
			}
		}
	}
	return entries, nil
}

// GetChallengeStandings ranks participants by progress, earliest joiner first
// on ties.
func (s *StatsService) GetChallengeStandings(ctx context.Context, challengeID string, limit int) ([]domain.ChallengeStanding, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	if _, err := s.store.Challenges.GetByID(ctx, challengeID); err != nil {
		return nil, domain.WrapStore("get challenge standings", err)
	}
	participants, err := s.store.Participants.ListByChallenge(ctx, challengeID, limit)
	if err != nil {
		return nil, domain.WrapStore("get challenge standings", err)
	}

	out := make([]domain.ChallengeStanding, 0, len(participants))
	for i, p := range participants {
		out = append(out, domain.ChallengeStanding{
			Rank:        i + 1,
			UserID:      p.UserID,
			Progress:    p.Progress,
			CompletedAt: p.CompletedAt,
		})
	}
	return out, nil
}
