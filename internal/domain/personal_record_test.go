package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestRecordCandidates(t *testing.T) {
	tests := []struct {
		name     string
		shape    ExerciseShape
		values   SetValues
		warmup   bool
		expected []RecordCandidate
	}{
		{
			name:   "weighted set yields volume first",
			shape:  ShapeRepAndWeight,
			values: SetValues{Reps: intPtr(5), Weight: floatPtr(100)},
			expected: []RecordCandidate{
				{Type: RecordMaxVolume, Value: 500},
				{Type: RecordMaxWeight, Value: 100},
				{Type: RecordMaxReps, Value: 5},
			},
		},
		{
			name:   "weighted shape without weight only tracks reps",
			shape:  ShapeRepAndWeight,
			values: SetValues{Reps: intPtr(12)},
			expected: []RecordCandidate{
				{Type: RecordMaxReps, Value: 12},
			},
		},
		{
			name:   "bodyweight set uses raw reps as volume",
			shape:  ShapeRepBased,
			values: SetValues{Reps: intPtr(20)},
			expected: []RecordCandidate{
				{Type: RecordMaxReps, Value: 20},
				{Type: RecordMaxVolume, Value: 20},
			},
		},
		{
			name:   "weighted pull-up multiplies added load",
			shape:  ShapeRepBased,
			values: SetValues{Reps: intPtr(8), Weight: floatPtr(10)},
			expected: []RecordCandidate{
				{Type: RecordMaxReps, Value: 8},
				{Type: RecordMaxVolume, Value: 80},
			},
		},
		{
			name:   "timed set",
			shape:  ShapeTimed,
			values: SetValues{TimeSeconds: intPtr(90)},
			expected: []RecordCandidate{
				{Type: RecordMaxTime, Value: 90},
				{Type: RecordMaxVolume, Value: 90},
			},
		},
		{
			name:   "timed weighted carry",
			shape:  ShapeTimed,
			values: SetValues{TimeSeconds: intPtr(60), Weight: floatPtr(40)},
			expected: []RecordCandidate{
				{Type: RecordMaxTime, Value: 60},
				{Type: RecordMaxVolume, Value: 2400},
			},
		},
		{
			name:     "warmups never produce records",
			shape:    ShapeRepAndWeight,
			values:   SetValues{Reps: intPtr(5), Weight: floatPtr(200)},
			warmup:   true,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecordCandidates(tt.shape, tt.values, tt.warmup)
			assert.Equal(t, tt.expected, got)
			if len(got) > 0 && tt.values.Weight != nil && *tt.values.Weight > 0 {
				assert.Equal(t, PrimaryRecordType(tt.shape), got[0].Type)
			}
		})
	}
}

func TestRecordCandidateBeats(t *testing.T) {
	current := &PersonalRecord{Value: 500}

	assert.True(t, RecordCandidate{Value: 1}.Beats(nil), "first value is always a record")
	assert.True(t, RecordCandidate{Value: 550}.Beats(current))
	assert.False(t, RecordCandidate{Value: 500}.Beats(current), "ties never replace")
	assert.False(t, RecordCandidate{Value: 400}.Beats(current))
}
