package service

import (
	"alcyxob/fitness-social/internal/domain"
	"alcyxob/fitness-social/internal/metrics"
	"alcyxob/fitness-social/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SocialService covers interactions with workouts owned by other users.
// Every operation first resolves the acting user, then the workout owner.
type SocialService interface {
	LikeWorkout(ctx context.Context, actingUserID string, workoutID primitive.ObjectID) (int, error)
	UnlikeWorkout(ctx context.Context, actingUserID string, workoutID primitive.ObjectID) (int, error)
	AddComment(ctx context.Context, actingUserID string, workoutID primitive.ObjectID, text string) (bool, error)
	RemoveComment(ctx context.Context, actingUserID string, workoutID, commentID primitive.ObjectID) error
	SaveWorkoutFromFeed(ctx context.Context, actingUserID string, workoutID primitive.ObjectID) (bool, *domain.Workout, error)
	UnsaveWorkout(ctx context.Context, actingUserID string, workoutID primitive.ObjectID) error
}

// socialService implements the SocialService interface.
type socialService struct {
	userRepo    repository.UserRepository
	workoutRepo repository.WorkoutRepository
	metrics     *metrics.Manager
}

// NewSocialService creates a new social service.
func NewSocialService(userRepo repository.UserRepository, workoutRepo repository.WorkoutRepository, metricsManager *metrics.Manager) SocialService {
	return &socialService{
		userRepo:    userRepo,
		workoutRepo: workoutRepo,
		metrics:     metricsManager,
	}
}

// target is a resolved social action: who acts, and on whose workout.
type target struct {
	acting  *domain.User
	owner   *domain.User
	workout *domain.Workout
}

func (s *socialService) resolve(ctx context.Context, op, actingUserID string, workoutID primitive.ObjectID) (*target, error) {
	if actingUserID == "" {
		return nil, validationErr("userId is required")
	}
	fields := log.Fields{"userId": actingUserID, "workoutId": workoutID.Hex()}

	acting, err := s.userRepo.GetByUserID(ctx, actingUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrActingUserNotFound
		}
		return nil, internalErr(op, err, fields)
	}

	owner, err := s.findOwner(ctx, op, workoutID)
	if err != nil {
		return nil, err
	}
	workout, ok := owner.FindWorkout(workoutID)
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	return &target{acting: acting, owner: owner, workout: workout}, nil
}

// resolveVisible is resolve for actions that read the workout's content.
// Private workouts of other users answer not found so their ids reveal nothing.
func (s *socialService) resolveVisible(ctx context.Context, op, actingUserID string, workoutID primitive.ObjectID) (*target, error) {
	t, err := s.resolve(ctx, op, actingUserID, workoutID)
	if err != nil {
		return nil, err
	}
	if !t.workout.Public && t.owner.UserID != t.acting.UserID {
		log.WithFields(log.Fields{"userId": actingUserID, "workoutId": workoutID.Hex(), "op": op}).
			Debug("workout is private")
		return nil, ErrWorkoutNotFound
	}
	return t, nil
}

// count increments a social counter when metrics are configured.
func (s *socialService) count(pick func(m *metrics.Manager) prometheus.Counter) {
	if s.metrics != nil {
		pick(s.metrics).Inc()
	}
}

func (s *socialService) findOwner(ctx context.Context, op string, workoutID primitive.ObjectID) (*domain.User, error) {
	owner, err := s.workoutRepo.FindOwner(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, internalErr(op, err, log.Fields{"workoutId": workoutID.Hex()})
	}
	return owner, nil
}

// socialErr maps a failed update on the owner's workout. Not found here means
// the workout vanished after it was resolved.
func socialErr(op string, t *target, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrWorkoutNotFound
	}
	return internalErr(op, err, log.Fields{
		"userId":    t.acting.UserID,
		"ownerId":   t.owner.UserID,
		"workoutId": t.workout.ID.Hex(),
	})
}

// LikeWorkout adds the acting user to the likes set and returns the like count.
func (s *socialService) LikeWorkout(ctx context.Context, actingUserID string, workoutID primitive.ObjectID) (int, error) {
	t, err := s.resolve(ctx, "LikeWorkout", actingUserID, workoutID)
	if err != nil {
		return 0, err
	}
	before := t.workout.LikeCount()

	updated, err := s.workoutRepo.AddLike(ctx, t.owner.UserID, workoutID, actingUserID)
	if err != nil {
		return 0, socialErr("LikeWorkout", t, err)
	}
	if updated.LikeCount() > before {
		s.count(func(m *metrics.Manager) prometheus.Counter { return m.CounterLikes })
	}
	return updated.LikeCount(), nil
}

// UnlikeWorkout is a no-op success when the user never liked the workout.
func (s *socialService) UnlikeWorkout(ctx context.Context, actingUserID string, workoutID primitive.ObjectID) (int, error) {
	t, err := s.resolve(ctx, "UnlikeWorkout", actingUserID, workoutID)
	if err != nil {
		return 0, err
	}
	updated, err := s.workoutRepo.RemoveLike(ctx, t.owner.UserID, workoutID, actingUserID)
	if err != nil {
		return 0, socialErr("UnlikeWorkout", t, err)
	}
	return updated.LikeCount(), nil
}

// AddComment answers false for blank text without touching the store. The
// same text from the same user is stored once.
func (s *socialService) AddComment(ctx context.Context, actingUserID string, workoutID primitive.ObjectID, text string) (bool, error) {
	fields := log.Fields{"userId": actingUserID, "workoutId": workoutID.Hex()}
	if strings.TrimSpace(text) == "" {
		return rejected("AddComment", ErrEmptyComment, fields), nil
	}

	t, err := s.resolveVisible(ctx, "AddComment", actingUserID, workoutID)
	if err != nil {
		return false, err
	}
	if t.workout.HasComment(actingUserID, text) {
		return true, nil
	}

	comment := domain.Comment{ID: primitive.NewObjectID(), Text: text, UserID: actingUserID}
	if _, err := s.workoutRepo.AddComment(ctx, t.owner.UserID, workoutID, comment); err != nil {
		return false, socialErr("AddComment", t, err)
	}
	s.count(func(m *metrics.Manager) prometheus.Counter { return m.CounterComments })
	return true, nil
}

// RemoveComment pulls a comment by id from whichever workout holds it. With an
// acting user, only the comment's author or the workout's owner may remove it;
// an empty actingUserID skips that check.
func (s *socialService) RemoveComment(ctx context.Context, actingUserID string, workoutID, commentID primitive.ObjectID) error {
	owner, err := s.findOwner(ctx, "RemoveComment", workoutID)
	if err != nil {
		return err
	}
	if actingUserID != "" && actingUserID != owner.UserID {
		workout, ok := owner.FindWorkout(workoutID)
		if !ok {
			return ErrWorkoutNotFound
		}
		comment, ok := workout.FindComment(commentID)
		if !ok {
			return ErrCommentNotFound
		}
		if comment.UserID != actingUserID {
			return ErrForbidden
		}
	}
	err = s.workoutRepo.RemoveComment(ctx, owner.UserID, workoutID, commentID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotModified):
		return ErrCommentNotFound
	case errors.Is(err, repository.ErrNotFound):
		return ErrWorkoutNotFound
	default:
		return internalErr("RemoveComment", err, log.Fields{
			"ownerId": owner.UserID, "workoutId": workoutID.Hex(), "commentId": commentID.Hex(),
		})
	}
}

// SaveWorkoutFromFeed registers the save on the original workout, bookmarks
// it, and clones it into the acting user's library as a private workout
// named "<owner>'s <name>". It answers false when a workout with that name
// already exists; the name check and the insert are one conditional update.
func (s *socialService) SaveWorkoutFromFeed(ctx context.Context, actingUserID string, workoutID primitive.ObjectID) (bool, *domain.Workout, error) {
	t, err := s.resolveVisible(ctx, "SaveWorkoutFromFeed", actingUserID, workoutID)
	if err != nil {
		return false, nil, err
	}

	if err := s.workoutRepo.AddSave(ctx, t.owner.UserID, workoutID, actingUserID); err != nil {
		return false, nil, socialErr("SaveWorkoutFromFeed", t, err)
	}
	if err := s.userRepo.AddSavedWorkout(ctx, actingUserID, workoutID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil, ErrActingUserNotFound
		}
		return false, nil, socialErr("SaveWorkoutFromFeed", t, err)
	}

	clone := t.workout.CloneFor(t.owner.Name, time.Now())
	created, err := s.workoutRepo.AppendIfNameAbsent(ctx, actingUserID, clone)
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return rejected("SaveWorkoutFromFeed", ErrDuplicateWorkoutName, log.Fields{
			"userId": actingUserID, "name": clone.Name,
		}), nil, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil, ErrActingUserNotFound
	case err != nil:
		return false, nil, socialErr("SaveWorkoutFromFeed", t, err)
	}

	s.count(func(m *metrics.Manager) prometheus.Counter { return m.CounterSaves })
	return true, created, nil
}

// UnsaveWorkout drops the bookmark and the save registration. The clone in
// the user's library is left alone.
func (s *socialService) UnsaveWorkout(ctx context.Context, actingUserID string, workoutID primitive.ObjectID) error {
	if actingUserID == "" {
		return validationErr("userId is required")
	}
	fields := log.Fields{"userId": actingUserID, "workoutId": workoutID.Hex()}

	if err := s.userRepo.RemoveSavedWorkout(ctx, actingUserID, workoutID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrActingUserNotFound
		}
		return internalErr("UnsaveWorkout", err, fields)
	}

	owner, err := s.findOwner(ctx, "UnsaveWorkout", workoutID)
	if err != nil {
		return err
	}
	if err := s.workoutRepo.RemoveSave(ctx, owner.UserID, workoutID, actingUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrWorkoutNotFound
		}
		return internalErr("UnsaveWorkout", err, fields)
	}
	return nil
}
