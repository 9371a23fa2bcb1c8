package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"github.com/mansoorceksport/ironlog/internal/telemetry"
)

// SetService logs sets and detects personal records at logging time.
type SetService struct {
	store     *domain.Store
	evaluator *ProgressEvaluator
	sync      readModels
	now       func() time.Time
}

func NewSetService(
	store *domain.Store,
	evaluator *ProgressEvaluator,
	cache domain.CacheRepository,
	metrics *telemetry.Metrics,
	now func() time.Time,
) *SetService {
	if now == nil {
		now = time.Now
	}
	return &SetService{
		store:     store,
		evaluator: evaluator,
		sync:      readModels{cache: cache, metrics: metrics},
		now:       now,
	}
}

type LogSetInput struct {
	SessionID   string
	UserID      string
	ExerciseID  string
	Reps        *int
	TimeSeconds *int
	Weight      *float64
	RPE         *float64
	IsWarmup    bool
	IsDropset   bool
}

func (in LogSetInput) values() domain.SetValues {
	return domain.SetValues{Reps: in.Reps, TimeSeconds: in.TimeSeconds, Weight: in.Weight, RPE: in.RPE}
}

// LogSetResult reports the stored set and the outcome of PR detection. IsNewPR
// and PreviousRecord describe the exercise's primary record type; every record
// that improved is listed in UpdatedRecords.
type LogSetResult struct {
	Set            *domain.WorkoutSet       `json:"set"`
	IsNewPR        bool                     `json:"is_new_pr"`
	RecordType     domain.RecordType        `json:"record_type,omitempty"`
	PreviousRecord *domain.PersonalRecord   `json:"previous_record,omitempty"`
	UpdatedRecords []*domain.PersonalRecord `json:"updated_records"`
	Awarded        []*domain.Achievement    `json:"awarded_achievements"`
}

// LogSet appends a set to an active session, updates personal records and runs
// the set-logged fan-out, all in one transaction.
func (s *SetService) LogSet(ctx context.Context, in LogSetInput) (*LogSetResult, error) {
	values := in.values()
	if err := values.Validate(); err != nil {
		return nil, err
	}

	var (
		result *LogSetResult
		fan    *FanOutResult
	)
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		session, err := s.store.Sessions.GetByID(ctx, in.SessionID)
		if err != nil {
			return err
		}
		if session.UserID != in.UserID {
			return domain.ErrSessionNotFound
		}
		if !session.IsActive() {
			return domain.ErrSessionCompleted
		}

		exercise, err := s.store.Exercises.GetByID(ctx, in.ExerciseID)
		if err != nil {
			return err
		}
		if err := values.ValidateFor(exercise.Shape); err != nil {
			return err
		}

		count, err := s.store.Sets.CountBySessionAndExercise(ctx, session.ID, exercise.ID)
		if err != nil {
			return err
		}

		set := &domain.WorkoutSet{
			ID:          generateULID(),
			SessionID:   session.ID,
			UserID:      in.UserID,
			ExerciseID:  exercise.ID,
			SetNumber:   int(count) + 1,
			Reps:        in.Reps,
			TimeSeconds: in.TimeSeconds,
			Weight:      in.Weight,
			RPE:         in.RPE,
			IsWarmup:    in.IsWarmup,
			IsDropset:   in.IsDropset,
			Volume:      domain.Volume(exercise.Shape, values, in.IsWarmup),
			CreatedAt:   s.now(),
		}
		if err := s.store.Sets.Create(ctx, set); err != nil {
			return err
		}

		result = &LogSetResult{Set: set, UpdatedRecords: []*domain.PersonalRecord{}}
		if err := s.detectRecords(ctx, result, exercise, values); err != nil {
			return err
		}

		fan, err = s.evaluator.OnSetLogged(ctx, set, exercise)
		if err != nil {
			return err
		}
		result.Awarded = fan.Awarded
		return nil
	})
	if err != nil {
		return nil, domain.WrapStore("log set", err)
	}

	s.sync.metrics.SetLogged(ctx, in.IsWarmup)
	s.sync.metrics.PersonalRecordsSet(ctx, len(result.UpdatedRecords))
	if result.IsNewPR {
		slog.InfoContext(ctx, "personal record",
			"user_id", in.UserID,
			"exercise_id", in.ExerciseID,
			"record_type", result.RecordType,
			"value", result.UpdatedRecords[0].Value,
		)
	}
	s.sync.fanOutCommitted(ctx, in.UserID, fan)
	return result, nil
}

// detectRecords compares every candidate metric of the set with the stored
// record and writes the ones that strictly improve. Warmups have no candidates.
func (s *SetService) detectRecords(ctx context.Context, result *LogSetResult, exercise *domain.Exercise, values domain.SetValues) error {
	set := result.Set
	candidates := domain.RecordCandidates(exercise.Shape, values, set.IsWarmup)
	if len(candidates) == 0 {
		return nil
	}

	primary := domain.PrimaryRecordType(exercise.Shape)
	result.RecordType = primary

	for _, c := range candidates {
		current, err := s.store.Records.Get(ctx, set.UserID, exercise.ID, c.Type)
		if err != nil {
			return err
		}
		if !c.Beats(current) {
			continue
		}

		rec := &domain.PersonalRecord{
			ID:          generateULID(),
			UserID:      set.UserID,
			ExerciseID:  exercise.ID,
			RecordType:  c.Type,
			Value:       c.Value,
			Weight:      set.Weight,
			Reps:        set.Reps,
			TimeSeconds: set.TimeSeconds,
			SourceSetID: set.ID,
			SessionID:   set.SessionID,
			AchievedAt:  set.CreatedAt,
			UpdatedAt:   set.CreatedAt,
		}
		if current != nil {
			rec.ID = current.ID
		}
		if err := s.store.Records.Put(ctx, rec); err != nil {
			return err
		}
		if err := s.store.Stats.IncrementPersonalRecords(ctx, set.UserID, 1); err != nil {
			return err
		}

		result.UpdatedRecords = append(result.UpdatedRecords, rec)
		if c.Type == primary {
			result.IsNewPR = true
			result.PreviousRecord = current
		}
	}
	return nil
}

// DeleteSet removes a set from an active session and closes the gap in its
// exercise's numbering. Records and achievements it produced are kept.
func (s *SetService) DeleteSet(ctx context.Context, setID, userID string) error {
	var stats *domain.UserStats
	err := s.store.Tx.WithinTx(ctx, func(ctx context.Context) error {
		set, err := s.store.Sets.GetByID(ctx, setID)
		if err != nil {
			return err
		}
		session, err := s.store.Sessions.GetByID(ctx, set.SessionID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrSetNotFound
			}
			return err
		}
		if session.UserID != userID {
			return domain.ErrSetNotFound
		}
		if !session.IsActive() {
			return domain.ErrSessionCompleted
		}

		if err := s.store.Sets.Delete(ctx, set.ID); err != nil {
			return err
		}
		if err := s.store.Sets.ShiftSetNumbers(ctx, set.SessionID, set.ExerciseID, set.SetNumber); err != nil {
			return err
		}

		stats, err = s.evaluator.RefreshCounters(ctx, userID, false)
		return err
	})
	if err != nil {
		return domain.WrapStore("delete set", err)
	}

	s.sync.statsChanged(ctx, stats)
	return nil
}
