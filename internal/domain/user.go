package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Gender of the profile owner.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Profile ranges. Values outside of them are rejected before reaching the store.
const (
	MinAge     = 8
	MaxAge     = 99
	MinWeight  = 1.0
	MaxWeight  = 600.0 // kilograms
	MinHeight  = 1.0
	MaxHeight  = 300.0 // centimeters
	MinBodyFat = 1.0
	MaxBodyFat = 50.0 // percent
)

var ErrInvalidProfile = errors.New("invalid profile")

// User is the single persisted document. Workouts, histories and bookmarks
// are embedded and have no lifecycle of their own.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"userId" json:"userId"` // identity-provider subject, unique
	Name           string             `bson:"name" json:"name"`
	Profile        *Profile           `bson:"profile,omitempty" json:"profile,omitempty"`
	WeightHistory  []MetricEntry      `bson:"weightHistory" json:"weightHistory"`
	BodyFatHistory []MetricEntry      `bson:"bodyFatHistory" json:"bodyFatHistory"`
	Workouts       []Workout          `bson:"workouts" json:"workouts"`
	SavedWorkouts  []SavedWorkout     `bson:"savedWorkouts" json:"savedWorkouts"`
	FavExercises   []string           `bson:"favExercises" json:"favExercises"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Profile holds the body metrics. A nil field has not been provided yet,
// which is different from zero.
type Profile struct {
	Age       *int     `bson:"age,omitempty" json:"age,omitempty"`
	Gender    *Gender  `bson:"gender,omitempty" json:"gender,omitempty"`
	Weight    *float64 `bson:"weight,omitempty" json:"weight,omitempty"`
	Height    *float64 `bson:"height,omitempty" json:"height,omitempty"`
	BodyFat   *float64 `bson:"bodyFat,omitempty" json:"bodyFat,omitempty"`
	AvatarKey string   `bson:"avatarKey,omitempty" json:"-"`
}

// MetricEntry is one point of a weight or body-fat history.
type MetricEntry struct {
	Date  time.Time `bson:"date" json:"date"`
	Value float64   `bson:"value" json:"value"`
}

// SavedWorkout bookmarks a workout owned by another user.
type SavedWorkout struct {
	WorkoutID primitive.ObjectID `bson:"workoutId" json:"workoutId"`
}

// Validate checks the ranges of every provided field.
func (p *Profile) Validate() error {
	if p == nil {
		return nil
	}
	if p.Age != nil && *p.Age != 0 && (*p.Age < MinAge || *p.Age > MaxAge) {
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidProfile, MinAge, MaxAge)
	}
	if p.Gender != nil && *p.Gender != "" && !p.Gender.Valid() {
		return fmt.Errorf("%w: gender must be one of male, female, other", ErrInvalidProfile)
	}
	if err := checkRange("weight", p.Weight, MinWeight, MaxWeight); err != nil {
		return err
	}
	if err := checkRange("height", p.Height, MinHeight, MaxHeight); err != nil {
		return err
	}
	return checkRange("bodyFat", p.BodyFat, MinBodyFat, MaxBodyFat)
}

// IsEmpty reports whether no truthy field is set.
func (p *Profile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return !truthyInt(p.Age) && (p.Gender == nil || *p.Gender == "") &&
		!truthyFloat(p.Weight) && !truthyFloat(p.Height) && !truthyFloat(p.BodyFat)
}

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// HasSavedWorkout reports whether workoutID is bookmarked by the user.
func (u *User) HasSavedWorkout(workoutID primitive.ObjectID) bool {
	for _, s := range u.SavedWorkouts {
		if s.WorkoutID == workoutID {
			return true
		}
	}
	return false
}

// HasFavExercise reports whether the catalog exercise is in the user's favorites.
func (u *User) HasFavExercise(exerciseID string) bool {
	for _, id := range u.FavExercises {
		if id == exerciseID {
			return true
		}
	}
	return false
}

// FindWorkout returns the embedded workout with the given id.
func (u *User) FindWorkout(workoutID primitive.ObjectID) (*Workout, bool) {
	for i := range u.Workouts {
		if u.Workouts[i].ID == workoutID {
			return &u.Workouts[i], true
		}
	}
	return nil, false
}

// HasWorkoutNamed reports whether the user already owns a workout with exactly this name.
func (u *User) HasWorkoutNamed(name string) bool {
	for _, w := range u.Workouts {
		if w.Name == name {
			return true
		}
	}
	return false
}

func checkRange(field string, v *float64, lo, hi float64) error {
	if !truthyFloat(v) {
		return nil
	}
	if *v < lo || *v > hi {
		return fmt.Errorf("%w: %s must be between %g and %g", ErrInvalidProfile, field, lo, hi)
	}
	return nil
}

func truthyInt(v *int) bool { return v != nil && *v != 0 }

func truthyFloat(v *float64) bool { return v != nil && *v != 0 }
