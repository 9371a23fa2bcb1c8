package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/telemetry"
)

// ChallengeService handles enrollment in time-boxed challenges.
type ChallengeService struct {
	store     *domain.Store
	evaluator *ProgressEvaluator
	metrics   *telemetry.Metrics
	now       func() time.Time
}

func NewChallengeService(store *domain.Store, evaluator *ProgressEvaluator, metrics *telemetry.Metrics, now func() time.Time) *ChallengeService {
	if now == nil {
		now = time.Now
	}
	return &ChallengeService{store: store, evaluator: evaluator, metrics: metrics, now: now}
}

// Join enrolls the user. Work already logged inside the window counts, so a
// participant can be complete from the moment they join.
func (s *ChallengeService) Join(ctx context.Context, challengeID, userID string) (*domain.ChallengeEnrollment, error) {
	var enrollment *domain.ChallengeEnrollment
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		challenge, err := s.store.Challenges.GetByID(ctx, challengeID)
		if err != nil {
			return err
		}
		now := s.now()
		if now.After(challenge.EndDate) {
			return domain.ErrChallengeClosed
		}

		joined, err := s.store.Participants.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, p := range joined {
			if p.ChallengeID == challenge.ID {
				return domain.ErrAlreadyJoined
			}
		}

		if err := s.store.Challenges.ReserveSeat(ctx, challenge); err != nil {
			return err
		}

		participant := &domain.ChallengeParticipant{
			ID:          generateULID(),
			ChallengeID: challenge.ID,
			UserID:      userID,
			JoinedAt:    now,
			UpdatedAt:   now,
		}
		if challenge.IsActive(now) {
			progress, err := s.evaluator.ChallengeProgress(ctx, userID, challenge)
			if err != nil {
				return err
			}
			participant.Advance(progress, challenge.TargetValue, now)
		}
		if err := s.store.Participants.Create(ctx, participant); err != nil {
			return err
		}

		enrollment = &domain.ChallengeEnrollment{Challenge: challenge, Participant: participant}
		return nil
	})
	if err != nil {
		return nil, domain.WrapStore("join challenge", err)
	}

	slog.InfoContext(ctx, "challenge joined",
		"user_id", userID,
		"challenge_id", challengeID,
		"progress", enrollment.Participant.Progress,
	)
	if enrollment.Participant.CompletedAt != nil {
		s.metrics.ChallengesCompleted(ctx, 1)
	}
	return enrollment, nil
}
