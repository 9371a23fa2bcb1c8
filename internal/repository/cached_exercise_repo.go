package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
)

const (
	exerciseByIDKeyPrefix = "ironlog:exercise:"
	exerciseCacheTTL      = 10 * time.Minute
)

// CachedExerciseRepository wraps an ExerciseRepository with Redis caching.
// Every logSet resolves its exercise, so lookups by id are cached.
type CachedExerciseRepository struct {
	next  domain.ExerciseRepository
	cache *RedisCacheRepository
}

// NewCachedExerciseRepository creates a new cached exercise repository
func NewCachedExerciseRepository(next domain.ExerciseRepository, cache *RedisCacheRepository) *CachedExerciseRepository {
	return &CachedExerciseRepository{
		next:  next,
		cache: cache,
	}
}

// GetByID retrieves an exercise with caching
func (r *CachedExerciseRepository) GetByID(ctx context.Context, id string) (*domain.Exercise, error) {
	key := exerciseByIDKeyPrefix + id

	// Try cache first
	var ex domain.Exercise
	if err := r.cache.Get(ctx, key, &ex); err == nil {
		return &ex, nil
	}

	result, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Store in cache (ignore cache errors)
	_ = r.cache.Set(ctx, key, result, exerciseCacheTTL)

	return result, nil
}

// Create inserts the exercise and drops any stale cache entry for its id
func (r *CachedExerciseRepository) Create(ctx context.Context, ex *domain.Exercise) error {
	if err := r.next.Create(ctx, ex); err != nil {
		return err
	}
	_ = r.cache.Delete(ctx, exerciseByIDKeyPrefix+ex.ID)
	return nil
}

func (r *CachedExerciseRepository) List(ctx context.Context) ([]*domain.Exercise, error) {
	return r.next.List(ctx)
}
