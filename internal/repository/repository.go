package repository

import (
	"alcyxob/fitness-social/internal/domain" // Import our defined domain models
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound    = RepositoryError("not found")
	ErrDuplicate   = RepositoryError("duplicate")
	ErrNotModified = RepositoryError("not modified") // matched the parent but nothing changed
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProfileUpdate describes a partial profile update. Only non-nil profile
// fields are written; a non-empty Name replaces the display name.
type ProfileUpdate struct {
	Name         string
	Profile      domain.Profile
	WeightEntry  *domain.MetricEntry // appended to weightHistory when set
	BodyFatEntry *domain.MetricEntry // appended to bodyFatHistory when set
}

// WorkoutPatch carries the fields of a workout update that are present in the request.
// A nil Comments slice leaves the comments alone, an empty one clears them.
type WorkoutPatch struct {
	Name            *string
	Public          *bool
	PostDate        time.Time // written together with Public
	Comments        []domain.Comment
	AppendExercises []domain.Exercise
}

// IsEmpty reports whether the patch would change nothing.
func (p WorkoutPatch) IsEmpty() bool {
	return p.Name == nil && p.Public == nil && p.Comments == nil && len(p.AppendExercises) == 0
}

// Commenter is the identity joined onto a comment by the feed.
type Commenter struct {
	UserID    string `bson:"userId"`
	Name      string `bson:"name"`
	AvatarKey string `bson:"avatarKey"`
}

// FeedRow is one unwound public workout with its owner's identity and the
// users that commented on it.
type FeedRow struct {
	UserID     string         `bson:"userId"`
	Name       string         `bson:"name"`
	AvatarKey  string         `bson:"avatarKey"`
	Workout    domain.Workout `bson:"workout"`
	Commenters []Commenter    `bson:"commenters"`
}

// UserRepository defines the interface for the user document and its
// profile-level embedded data. Users are addressed by their identity-provider id.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error
	SetAvatarKey(ctx context.Context, userID, objectKey string) error
	DeleteByUserID(ctx context.Context, userID string) error
	AddFavExercise(ctx context.Context, userID, exerciseID string) error
	RemoveFavExercise(ctx context.Context, userID, exerciseID string) error
	AddSavedWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID) error
	RemoveSavedWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID) error
}

// WorkoutRepository defines owner-scoped operations on the embedded workouts
// array. Every mutation is a single conditional update on the owner document.
type WorkoutRepository interface {
	Append(ctx context.Context, userID string, workout domain.Workout) (*domain.Workout, error)
	// AppendIfNameAbsent returns ErrDuplicate when the user already has a workout with that name.
	AppendIfNameAbsent(ctx context.Context, userID string, workout domain.Workout) (*domain.Workout, error)
	Update(ctx context.Context, userID string, workoutID primitive.ObjectID, patch WorkoutPatch) (*domain.Workout, error)
	SetExerciseSets(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID, sets []domain.SetGroup) error
	PullExercise(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID) error
	Delete(ctx context.Context, userID string, workoutID primitive.ObjectID) error
	DeleteAll(ctx context.Context, userID string) error

	// FindOwner scans all users for the one whose workouts contain workoutID.
	FindOwner(ctx context.Context, workoutID primitive.ObjectID) (*domain.User, error)
	AddLike(ctx context.Context, ownerID string, workoutID primitive.ObjectID, likerID string) (*domain.Workout, error)
	RemoveLike(ctx context.Context, ownerID string, workoutID primitive.ObjectID, likerID string) (*domain.Workout, error)
	AddComment(ctx context.Context, ownerID string, workoutID primitive.ObjectID, comment domain.Comment) (*domain.Workout, error)
	RemoveComment(ctx context.Context, ownerID string, workoutID, commentID primitive.ObjectID) error
	AddSave(ctx context.Context, ownerID string, workoutID primitive.ObjectID, saverID string) error
	RemoveSave(ctx context.Context, ownerID string, workoutID primitive.ObjectID, saverID string) error
}

// FeedRepository reads the public workouts of every user, newest first.
type FeedRepository interface {
	PublicWorkouts(ctx context.Context, page, itemsPerPage int) ([]FeedRow, error)
}
