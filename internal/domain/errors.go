package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine wraps exactly one of these,
// so callers classify with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("record not found")
	ErrStore      = errors.New("store failure")
	ErrForbidden  = errors.New("access forbidden")
)

var (
	ErrSessionNotFound      = fmt.Errorf("workout session: %w", ErrNotFound)
	ErrSetNotFound          = fmt.Errorf("workout set: %w", ErrNotFound)
	ErrExerciseNotFound     = fmt.Errorf("exercise: %w", ErrNotFound)
	ErrPlanDayNotFound      = fmt.Errorf("plan day: %w", ErrNotFound)
	ErrChallengeNotFound    = fmt.Errorf("challenge: %w", ErrNotFound)
	ErrAchievementNotFound  = fmt.Errorf("achievement: %w", ErrNotFound)
	ErrSessionAlreadyActive = fmt.Errorf("user already has an active session: %w", ErrConflict)
	ErrSessionCompleted     = fmt.Errorf("workout session already completed: %w", ErrConflict)
	ErrChallengeFull        = fmt.Errorf("challenge is full: %w", ErrConflict)
	ErrChallengeClosed      = fmt.Errorf("challenge has ended: %w", ErrConflict)
	ErrAlreadyJoined        = fmt.Errorf("already joined challenge: %w", ErrConflict)
	ErrDuplicateCode        = fmt.Errorf("achievement code already exists: %w", ErrConflict)
	ErrAdminRequired        = fmt.Errorf("admin capability required: %w", ErrForbidden)
)

// ValidationError reports malformed input. It is always returned before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// StoreError wraps a transaction or connectivity failure of the record store.
// The request layer may retry it; the engine never does.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

// WrapStore wraps err as a StoreError unless it already carries an error kind.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsKnown(err) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsKnown reports whether err already carries one of the error kinds.
func IsKnown(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStore) ||
		errors.Is(err, ErrForbidden)
}
