package domain

import "context"

// TxManager runs fn inside one store transaction. Repositories called with the
// ctx passed to fn take part in that transaction. If fn returns an error, every
// write made through ctx is rolled back. Implementations never retry.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store bundles the repositories of one record store backend.
type Store struct {
	Tx               TxManager
	Sessions         WorkoutSessionRepository
	Sets             WorkoutSetRepository
	Records          PersonalRecordRepository
	Exercises        ExerciseRepository
	Plans            PlanRepository
	Achievements     AchievementRepository
	UserAchievements UserAchievementRepository
	Challenges       ChallengeRepository
	Participants     ChallengeParticipantRepository
	Stats            UserStatsRepository
}
