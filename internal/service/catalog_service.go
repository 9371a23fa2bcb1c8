package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
)

// CatalogService manages the admin-owned catalogs: exercises, plan days,
// achievements and challenges.
type CatalogService struct {
	store *domain.Store
	now   func() time.Time
}

func NewCatalogService(store *domain.Store, now func() time.Time) *CatalogService {
	if now == nil {
		now = time.Now
	}
	return &CatalogService{store: store, now: now}
}

func (s *CatalogService) CreateExercise(ctx context.Context, actor domain.Actor, ex *domain.Exercise) (*domain.Exercise, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	ex.Name = strings.TrimSpace(ex.Name)
	if ex.Name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if !ex.Shape.Valid() {
		return nil, domain.NewValidationError("shape", "must be TIMED, REP_BASED or REP_AND_WEIGHT")
	}

	now := s.now()
	if ex.ID == "" {
		ex.ID = generateULID()
	}
	ex.CreatedAt = now
	ex.UpdatedAt = now

	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.store.Exercises.Create(ctx, ex)
	})
	if err != nil {
		return nil, domain.WrapStore("create exercise", err)
	}
	return ex, nil
}

func (s *CatalogService) CreatePlanDay(ctx context.Context, actor domain.Actor, day *domain.PlanDay) (*domain.PlanDay, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	if day.PlanID == "" {
		return nil, domain.NewValidationError("plan_id", "is required")
	}
	if day.Name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if day.ID == "" {
		day.ID = generateULID()
	}

	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		for i, pe := range day.Exercises {
			if _, err := s.store.Exercises.GetByID(ctx, pe.ExerciseID); err != nil {
				return fmt.Errorf("exercises[%d]: %w", i, err)
			}
		}
		return s.store.Plans.Create(ctx, day)
	})
	if err != nil {
		return nil, domain.WrapStore("create plan day", err)
	}
	return day, nil
}

func (s *CatalogService) CreateAchievement(ctx context.Context, actor domain.Actor, a *domain.Achievement) (*domain.Achievement, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if a.ID == "" {
		a.ID = generateULID()
	}
	a.CreatedAt = s.now()

	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if a.ExerciseID != "" {
			if _, err := s.store.Exercises.GetByID(ctx, a.ExerciseID); err != nil {
				return err
			}
		}
		return s.store.Achievements.Create(ctx, a)
	})
	if err != nil {
		return nil, domain.WrapStore("create achievement", err)
	}
	return a, nil
}

func (s *CatalogService) CreateChallenge(ctx context.Context, actor domain.Actor, c *domain.Challenge) (*domain.Challenge, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAdminRequired
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.ID == "" {
		c.ID = generateULID()
	}
	c.ParticipantCount = 0
	c.CreatedAt = s.now()

	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if c.ExerciseID != "" {
			if _, err := s.store.Exercises.GetByID(ctx, c.ExerciseID); err != nil {
				return err
			}
		}
		return s.store.Challenges.Create(ctx, c)
	})
	if err != nil {
		return nil, domain.WrapStore("create challenge", err)
	}
	return c, nil
}
