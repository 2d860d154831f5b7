package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenSets(t *testing.T) {
	groups := []SetGroup{
		{Sets: 2, Reps: 10, Weight: 3},
		{Sets: 1, Reps: 8, Weight: 5},
	}

	flat := FlattenSets(groups)

	assert.Equal(t, []PerformedSet{
		{Reps: 10, Weight: 3},
		{Reps: 10, Weight: 3},
		{Reps: 8, Weight: 5},
	}, flat)
}

func TestReconstructSets_KeepsPositionalOrder(t *testing.T) {
	flat := []PerformedSet{
		{Reps: 10, Weight: 3},
		{Reps: 10, Weight: 5},
		{Reps: 10, Weight: 3},
	}

	groups := ReconstructSets(flat)

	require.Len(t, groups, 3)
	assert.Equal(t, SetGroup{Sets: 1, Reps: 10, Weight: 3}, groups[0])
	assert.Equal(t, SetGroup{Sets: 1, Reps: 10, Weight: 5}, groups[1])
	assert.Equal(t, SetGroup{Sets: 1, Reps: 10, Weight: 3}, groups[2])
}

func TestSetsRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		groups []SetGroup
	}{
		{"empty", []SetGroup{}},
		{"single", []SetGroup{{Sets: 4, Reps: 12, Weight: 20}}},
		{"pyramid", []SetGroup{
			{Sets: 1, Reps: 12, Weight: 40},
			{Sets: 2, Reps: 10, Weight: 50},
			{Sets: 1, Reps: 8, Weight: 60},
			{Sets: 1, Reps: 10, Weight: 50},
		}},
		{"same reps different weight", []SetGroup{
			{Sets: 3, Reps: 10, Weight: 3},
			{Sets: 3, Reps: 10, Weight: 5},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.groups, ReconstructSets(FlattenSets(tc.groups)))
		})
	}
}

func TestSetsRoundTrip_AdjacentDuplicatesCollapse(t *testing.T) {
	groups := []SetGroup{
		{Sets: 1, Reps: 10, Weight: 3},
		{Sets: 2, Reps: 10, Weight: 3},
	}

	got := ReconstructSets(FlattenSets(groups))

	assert.Equal(t, []SetGroup{{Sets: 3, Reps: 10, Weight: 3}}, got)
	// the flat view is still identical
	assert.Equal(t, FlattenSets(groups), FlattenSets(got))
}

func TestValidateSets(t *testing.T) {
	assert.NoError(t, ValidateSets([]SetGroup{{Sets: 1, Reps: 0, Weight: 0}}))
	assert.ErrorIs(t, ValidateSets([]SetGroup{{Sets: 0, Reps: 5, Weight: 10}}), ErrInvalidSets)
	assert.ErrorIs(t, ValidateSets([]SetGroup{{Sets: 1, Reps: -1, Weight: 10}}), ErrInvalidSets)
}
