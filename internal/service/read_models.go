package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/telemetry"
	"github.com/oklog/ulid/v2"
)

// generateULID creates a new ULID string
func generateULID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// readModels refreshes the Redis projections once a transaction has committed.
// The store stays the source of truth, so failures here are logged and dropped.
type readModels struct {
	cache   domain.CacheRepository
	metrics *telemetry.Metrics
}

func (r readModels) statsChanged(ctx context.Context, stats *domain.UserStats) {
	if r.cache == nil || stats == nil {
		return
	}
	if err := r.cache.InvalidateUser(ctx, stats.UserID); err != nil {
		slog.WarnContext(ctx, "stats cache invalidation failed", "user_id", stats.UserID, "error", err)
	}
	if err := r.cache.SetLeaderboardScores(ctx, stats); err != nil {
		slog.WarnContext(ctx, "leaderboard refresh failed", "user_id", stats.UserID, "error", err)
	}
}

func (r readModels) fanOutCommitted(ctx context.Context, userID string, fan *FanOutResult) {
	if fan == nil {
		return
	}
	r.statsChanged(ctx, fan.Stats)

	for _, a := range fan.Awarded {
		slog.InfoContext(ctx, "achievement earned", "user_id", userID, "code", a.Code, "category", a.Category)
	}
	for _, id := range fan.CompletedChallenges {
		slog.InfoContext(ctx, "challenge completed", "user_id", userID, "challenge_id", id)
	}
	r.metrics.AchievementsAwarded(ctx, len(fan.Awarded))
	r.metrics.ChallengesCompleted(ctx, len(fan.CompletedChallenges))
}
