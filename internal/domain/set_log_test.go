package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetValuesValidate(t *testing.T) {
	tests := []struct {
		name    string
		values  SetValues
		shape   ExerciseShape
		wantErr string // field name, empty when valid
	}{
		{name: "reps only", values: SetValues{Reps: intPtr(5)}, shape: ShapeRepAndWeight},
		{name: "time only", values: SetValues{TimeSeconds: intPtr(30)}, shape: ShapeTimed},
		{name: "both reps and time", values: SetValues{Reps: intPtr(5), TimeSeconds: intPtr(30)}, shape: ShapeRepBased, wantErr: "reps"},
		{name: "neither reps nor time", values: SetValues{}, shape: ShapeRepBased, wantErr: "reps"},
		{name: "zero reps", values: SetValues{Reps: intPtr(0)}, shape: ShapeRepBased, wantErr: "reps"},
		{name: "negative time", values: SetValues{TimeSeconds: intPtr(-1)}, shape: ShapeTimed, wantErr: "time_seconds"},
		{name: "negative weight", values: SetValues{Reps: intPtr(5), Weight: floatPtr(-2.5)}, shape: ShapeRepAndWeight, wantErr: "weight"},
		{name: "rpe below range", values: SetValues{Reps: intPtr(5), RPE: floatPtr(5.5)}, shape: ShapeRepAndWeight, wantErr: "rpe"},
		{name: "rpe above range", values: SetValues{Reps: intPtr(5), RPE: floatPtr(10.5)}, shape: ShapeRepAndWeight, wantErr: "rpe"},
		{name: "rpe at bounds", values: SetValues{Reps: intPtr(5), RPE: floatPtr(10)}, shape: ShapeRepAndWeight},
		{name: "timed exercise given reps", values: SetValues{Reps: intPtr(5)}, shape: ShapeTimed, wantErr: "time_seconds"},
		{name: "rep exercise given time", values: SetValues{TimeSeconds: intPtr(30)}, shape: ShapeRepAndWeight, wantErr: "reps"},
		{name: "unknown shape", values: SetValues{Reps: intPtr(5)}, shape: ExerciseShape("SWIM"), wantErr: "shape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.values.Validate()
			if err == nil {
				err = tt.values.ValidateFor(tt.shape)
			}
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			if assert.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err) {
				assert.Equal(t, tt.wantErr, verr.Field)
			}
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestVolume(t *testing.T) {
	assert.Equal(t, 500.0, Volume(ShapeRepAndWeight, SetValues{Reps: intPtr(5), Weight: floatPtr(100)}, false))
	assert.Equal(t, 0.0, Volume(ShapeRepAndWeight, SetValues{Reps: intPtr(5), Weight: floatPtr(100)}, true))
	assert.Equal(t, 15.0, Volume(ShapeRepBased, SetValues{Reps: intPtr(15)}, false))
	assert.Equal(t, 45.0, Volume(ShapeTimed, SetValues{TimeSeconds: intPtr(45)}, false))
}

func TestStoreErrorClassification(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapStore("insert set", cause)

	assert.ErrorIs(t, err, ErrStore)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrConflict)

	// Known kinds pass through untouched.
	assert.Equal(t, ErrSessionCompleted, WrapStore("log set", ErrSessionCompleted))
	assert.NoError(t, WrapStore("noop", nil))
}
