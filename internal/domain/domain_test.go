package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func genderPtr(g Gender) *Gender { return &g }

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &Profile{}, false},
		{"valid", &Profile{Age: intPtr(30), Gender: genderPtr(GenderFemale), Weight: floatPtr(62.5), Height: floatPtr(170), BodyFat: floatPtr(22)}, false},
		{"zero values are ignored", &Profile{Age: intPtr(0), Weight: floatPtr(0)}, false},
		{"too young", &Profile{Age: intPtr(7)}, true},
		{"too old", &Profile{Age: intPtr(100)}, true},
		{"bad gender", &Profile{Gender: genderPtr("robot")}, true},
		{"too heavy", &Profile{Weight: floatPtr(601)}, true},
		{"too tall", &Profile{Height: floatPtr(301)}, true},
		{"body fat", &Profile{BodyFat: floatPtr(51)}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.profile.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProfile)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProfileIsEmpty(t *testing.T) {
	assert.True(t, (*Profile)(nil).IsEmpty())
	assert.True(t, (&Profile{Age: intPtr(0), Weight: floatPtr(0)}).IsEmpty())
	assert.False(t, (&Profile{Height: floatPtr(180)}).IsEmpty())
}

func TestPostDateFor(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, now, PostDateFor(true, now))
	assert.Equal(t, int64(0), PostDateFor(false, now).Unix())
}

func TestNewWorkout(t *testing.T) {
	now := time.Now()
	ex := Exercise{CatalogID: "0001", Name: "squat", Sets: []SetGroup{{Sets: 3, Reps: 5, Weight: 100}}}

	w := NewWorkout("Leg Day", []Exercise{ex}, now)

	assert.False(t, w.ID.IsZero())
	assert.False(t, w.Public)
	assert.Empty(t, w.Likes)
	assert.Empty(t, w.Comments)
	assert.Empty(t, w.Saves)
	require.Len(t, w.Exercises, 1)
	assert.False(t, w.Exercises[0].ID.IsZero())
	assert.NotNil(t, w.Exercises[0].Instructions)
	assert.Equal(t, ex.Sets, w.Exercises[0].Sets)
}

func TestWorkoutCloneFor(t *testing.T) {
	now := time.Now()
	orig := NewWorkout("Leg Day", []Exercise{{CatalogID: "0001", Name: "squat"}}, now)
	orig.Public = true
	orig.Likes = []string{"u2"}
	orig.Comments = []Comment{{Text: "nice", UserID: "u2"}}
	orig.Saves = []string{"u3"}

	clone := orig.CloneFor("Alice", now)

	assert.Equal(t, "Alice's Leg Day", clone.Name)
	assert.NotEqual(t, orig.ID, clone.ID)
	assert.NotEqual(t, orig.Exercises[0].ID, clone.Exercises[0].ID)
	assert.False(t, clone.Public)
	assert.Empty(t, clone.Likes)
	assert.Empty(t, clone.Comments)
	assert.Empty(t, clone.Saves)
}

func TestUserLookups(t *testing.T) {
	w := NewWorkout("Push", nil, time.Now())
	u := &User{
		UserID:       "u1",
		Workouts:     []Workout{w},
		FavExercises: []string{"0042"},
	}

	got, ok := u.FindWorkout(w.ID)
	require.True(t, ok)
	assert.Equal(t, "Push", got.Name)
	assert.True(t, u.HasWorkoutNamed("Push"))
	assert.False(t, u.HasWorkoutNamed("push"))
	assert.True(t, u.HasFavExercise("0042"))
	assert.False(t, u.HasSavedWorkout(w.ID))
}
