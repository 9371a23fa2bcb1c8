package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	userStatsKeyPrefix   = "ironlog:stats:"
	leaderboardKeyPrefix = "ironlog:leaderboard:"

	// streakLastWorkoutKey scores each streak board member by its last workout
	// (unix seconds) so lapsed streaks can be pruned without loading stats.
	streakLastWorkoutKey = leaderboardKeyPrefix + "streak:last_workout"
)

// pruneLapsedStreaks removes every member of the streak board (KEYS[1]) whose
// last workout in KEYS[2] is older than ARGV[1]. Returns how many were removed.
var pruneLapsedStreaks = redis.NewScript(`
local lapsed = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', '(' .. ARGV[1])
for _, member in ipairs(lapsed) do
	redis.call('ZREM', KEYS[1], member)
	redis.call('ZREM', KEYS[2], member)
end
return #lapsed
`)

// counterLeaderboards rank plain counters; the streak board is kept separately.
var counterLeaderboards = []domain.LeaderboardMetric{
	domain.LeaderboardVolume,
	domain.LeaderboardWorkouts,
}

// RedisCacheRepository implements domain.CacheRepository using Redis
type RedisCacheRepository struct {
	client *redis.Client
}

// NewRedisCacheRepository creates a new Redis cache repository
func NewRedisCacheRepository(client *redis.Client) *RedisCacheRepository {
	return &RedisCacheRepository{
		client: client,
	}
}

// GetUserStats returns the cached stats, or nil on a miss
func (r *RedisCacheRepository) GetUserStats(ctx context.Context, userID string) (*domain.UserStats, error) {
	var stats domain.UserStats
	if err := r.Get(ctx, userStatsKeyPrefix+userID, &stats); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

func (r *RedisCacheRepository) SetUserStats(ctx context.Context, stats *domain.UserStats, ttl time.Duration) error {
	return r.Set(ctx, userStatsKeyPrefix+stats.UserID, stats, ttl)
}

func (r *RedisCacheRepository) InvalidateUser(ctx context.Context, userID string) error {
	return r.Delete(ctx, userStatsKeyPrefix+userID)
}

// SetLeaderboardScores writes the user's score on every leaderboard in one pipeline
func (r *RedisCacheRepository) SetLeaderboardScores(ctx context.Context, stats *domain.UserStats) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.ZAdd",
		trace.WithAttributes(attribute.String("leaderboard.user_id", stats.UserID)),
	)
	defer span.End()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, metric := range counterLeaderboards {
			pipe.ZAdd(ctx, leaderboardKeyPrefix+string(metric), redis.Z{
				Score:  metric.Score(stats),
				Member: stats.UserID,
			})
		}

		// A zero streak has no place on the streak board.
		streakKey := leaderboardKeyPrefix + string(domain.LeaderboardStreak)
		if stats.CurrentStreak <= 0 || stats.LastWorkoutAt == nil {
			pipe.ZRem(ctx, streakKey, stats.UserID)
			pipe.ZRem(ctx, streakLastWorkoutKey, stats.UserID)
			return nil
		}
		pipe.ZAdd(ctx, streakKey, redis.Z{Score: float64(stats.CurrentStreak), Member: stats.UserID})
		pipe.ZAdd(ctx, streakLastWorkoutKey, redis.Z{Score: float64(stats.LastWorkoutAt.Unix()), Member: stats.UserID})
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis zadd error: %w", err)
	}
	return nil
}

// TopScores ranks users highest first; ties share the order Redis gives them
func (r *RedisCacheRepository) TopScores(ctx context.Context, metric domain.LeaderboardMetric, limit int) ([]domain.LeaderboardEntry, error) {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.ZRevRange",
		trace.WithAttributes(
			attribute.String("leaderboard.metric", string(metric)),
			attribute.Int("leaderboard.limit", limit),
		),
	)
	defer span.End()

	zs, err := r.client.ZRevRangeWithScores(ctx, leaderboardKeyPrefix+string(metric), 0, int64(limit-1)).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("redis zrevrange error: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(zs))
	for i, z := range zs {
		member, _ := z.Member.(string)
		entries = append(entries, domain.LeaderboardEntry{
			Rank:   i + 1,
			UserID: member,
			Score:  z.Score,
		})
	}
	return entries, nil
}

// TopStreaks prunes lapsed streaks from the board before ranking it
func (r *RedisCacheRepository) TopStreaks(ctx context.Context, activeSince time.Time, limit int) ([]domain.LeaderboardEntry, error) {
	tracer := otel.Tracer("redis")
	pruneCtx, span := tracer.Start(ctx, "redis.EvalSha",
		trace.WithAttributes(attribute.String("leaderboard.metric", string(domain.LeaderboardStreak))),
	)
	keys := []string{leaderboardKeyPrefix + string(domain.LeaderboardStreak), streakLastWorkoutKey}
	removed, err := pruneLapsedStreaks.Run(pruneCtx, r.client, keys, activeSince.Unix()).Int()
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, fmt.Errorf("redis prune streaks error: %w", err)
	}
	span.SetAttributes(attribute.Int("leaderboard.pruned", removed))
	span.End()

	return r.TopScores(ctx, domain.LeaderboardStreak, limit)
}

// =============================================================================
// Generic Cache Operations with OpenTelemetry Tracing
// =============================================================================

var ErrCacheMiss = fmt.Errorf("cache miss")

// Get retrieves a value from cache by key with OTel tracing
func (r *RedisCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Get",
		trace.WithAttributes(attribute.String("cache.key", key)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			span.SetAttributes(attribute.String("cache.result", "miss"))
			return ErrCacheMiss
		}
		span.RecordError(err)
		return fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("cache.result", "hit"))
	if err := json.Unmarshal(data, dest); err != nil {
		span.RecordError(err)
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Set stores a value in cache with TTL and OTel tracing
func (r *RedisCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Set",
		trace.WithAttributes(
			attribute.String("cache.key", key),
			attribute.Int64("cache.ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	data, err := json.Marshal(value)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// Delete removes keys from cache with OTel tracing
func (r *RedisCacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tracer := otel.Tracer("redis")
	ctx, span := tracer.Start(ctx, "redis.Delete",
		trace.WithAttributes(attribute.Int("cache.key_count", len(keys))),
	)
	defer span.End()

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis delete error: %w", err)
	}

	return nil
}
