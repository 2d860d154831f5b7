package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxWorkoutNameLength = 100

// Workout is embedded in its owner's workouts array. Its _id is only unique
// inside that array.
type Workout struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Exercises []Exercise         `bson:"exercises" json:"exercises"`
	Public    bool               `bson:"public" json:"public"`
	PostDate  time.Time          `bson:"postDate" json:"postDate"` // epoch zero while private
	Likes     []string           `bson:"likes" json:"likes"`
	Comments  []Comment          `bson:"comments" json:"comments"`
	Saves     []string           `bson:"saves" json:"saves"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Comment on a workout. Name and PfpImageURL are filled in by the feed only.
type Comment struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Text        string             `bson:"text" json:"text"`
	UserID      string             `bson:"userId" json:"userId"`
	Name        string             `bson:"-" json:"name,omitempty"`
	PfpImageURL string             `bson:"-" json:"pfpImageUrl,omitempty"`
}

// FeedWorkout is one row of the social feed: the owner's identity next to the workout.
type FeedWorkout struct {
	UserID      string  `json:"userId"`
	Name        string  `json:"name"`
	PfpImageURL string  `json:"pfpImageUrl"`
	Workout     Workout `json:"workout"`
}

// PostDateFor returns the postDate a workout gets when its visibility changes.
func PostDateFor(public bool, now time.Time) time.Time {
	if public {
		return now.UTC()
	}
	return time.Unix(0, 0).UTC()
}

// NewWorkout prepares a workout for insertion: fresh identifiers, empty
// social fields, private.
func NewWorkout(name string, exercises []Exercise, now time.Time) Workout {
	w := Workout{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Exercises: make([]Exercise, 0, len(exercises)),
		Public:    false,
		PostDate:  PostDateFor(false, now),
		Likes:     []string{},
		Comments:  []Comment{},
		Saves:     []string{},
		CreatedAt: now.UTC(),
	}
	for _, ex := range exercises {
		w.Exercises = append(w.Exercises, ex.Fresh())
	}
	return w
}

// CloneFor copies a workout from another user's feed into a private workout
// whose name is prefixed with the original owner's name.
func (w Workout) CloneFor(ownerName string, now time.Time) Workout {
	return NewWorkout(SavedWorkoutName(ownerName, w.Name), w.Exercises, now)
}

// SavedWorkoutName composes the name of a workout saved from the feed.
func SavedWorkoutName(ownerName, workoutName string) string {
	return fmt.Sprintf("%s's %s", ownerName, workoutName)
}

// FindExercise returns the embedded exercise with the given id.
func (w *Workout) FindExercise(exerciseID primitive.ObjectID) (*Exercise, bool) {
	for i := range w.Exercises {
		if w.Exercises[i].ID == exerciseID {
			return &w.Exercises[i], true
		}
	}
	return nil, false
}

// HasComment reports whether the same user already posted the same text.
func (w *Workout) HasComment(userID, text string) bool {
	for _, c := range w.Comments {
		if c.UserID == userID && c.Text == text {
			return true
		}
	}
	return false
}

// FindComment returns the comment with the given id.
func (w *Workout) FindComment(commentID primitive.ObjectID) (*Comment, bool) {
	for i := range w.Comments {
		if w.Comments[i].ID == commentID {
			return &w.Comments[i], true
		}
	}
	return nil, false
}

func (w *Workout) LikeCount() int { return len(w.Likes) }
