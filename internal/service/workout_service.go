package service

import (
	"alcyxob/fitness-social/internal/domain"
	"alcyxob/fitness-social/internal/repository"
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutInput is the payload of a new workout.
type WorkoutInput struct {
	Name      string
	Exercises []domain.Exercise
}

// WorkoutUpdate holds the fields present in an update request. Nil means
// absent; an empty, non-nil Comments slice clears the comments.
type WorkoutUpdate struct {
	Name        *string
	Public      *bool
	Comments    []domain.Comment
	ExerciseArr []domain.Exercise
}

// WorkoutService manages the workouts a user owns.
type WorkoutService interface {
	ListWorkouts(ctx context.Context, userID string) ([]domain.Workout, error)
	GetWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID) (*domain.Workout, error)
	CreateWorkout(ctx context.Context, userID string, input WorkoutInput) (*domain.Workout, error)
	UpdateWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID, update WorkoutUpdate) (*domain.Workout, error)
	SetPublic(ctx context.Context, userID string, workoutID primitive.ObjectID, public bool) (*domain.Workout, error)

	ExerciseSets(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID) ([]domain.SetGroup, error)
	UpdateExerciseSets(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID, sets []domain.SetGroup) error
	RemoveExercise(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID) error

	DeleteWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID) error
	DeleteAllWorkouts(ctx context.Context, userID string) (int, error)
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	userRepo    repository.UserRepository
	workoutRepo repository.WorkoutRepository
}

// NewWorkoutService creates a new workout service.
func NewWorkoutService(userRepo repository.UserRepository, workoutRepo repository.WorkoutRepository) WorkoutService {
	return &workoutService{
		userRepo:    userRepo,
		workoutRepo: workoutRepo,
	}
}

func (s *workoutService) ListWorkouts(ctx context.Context, userID string) ([]domain.Workout, error) {
	user, err := s.owner(ctx, "ListWorkouts", userID)
	if err != nil {
		return nil, err
	}
	if user.Workouts == nil {
		return []domain.Workout{}, nil
	}
	return user.Workouts, nil
}

func (s *workoutService) GetWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID) (*domain.Workout, error) {
	user, err := s.owner(ctx, "GetWorkout", userID)
	if err != nil {
		return nil, err
	}
	workout, ok := user.FindWorkout(workoutID)
	if !ok {
		return nil, ErrWorkoutNotFound
	}
	return workout, nil
}

// CreateWorkout appends a private workout with fresh ids and returns it as stored.
func (s *workoutService) CreateWorkout(ctx context.Context, userID string, input WorkoutInput) (*domain.Workout, error) {
	if userID == "" {
		return nil, validationErr("userId is required")
	}
	name, err := validateWorkoutName(input.Name)
	if err != nil {
		return nil, err
	}
	if err := validateExercises(input.Exercises); err != nil {
		return nil, err
	}

	workout := domain.NewWorkout(name, input.Exercises, time.Now())
	created, err := s.workoutRepo.Append(ctx, userID, workout)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalErr("CreateWorkout", err, log.Fields{"userId": userID})
	}
	return created, nil
}

// UpdateWorkout applies the present fields in one conditional update.
func (s *workoutService) UpdateWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID, update WorkoutUpdate) (*domain.Workout, error) {
	patch := repository.WorkoutPatch{Public: update.Public}
	if update.Name != nil {
		name, err := validateWorkoutName(*update.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if update.Public != nil {
		patch.PostDate = domain.PostDateFor(*update.Public, time.Now())
	}
	if update.Comments != nil {
		patch.Comments = make([]domain.Comment, 0, len(update.Comments))
		for _, c := range update.Comments {
			if c.ID.IsZero() {
				c.ID = primitive.NewObjectID()
			}
			patch.Comments = append(patch.Comments, domain.Comment{ID: c.ID, Text: c.Text, UserID: c.UserID})
		}
	}
	if len(update.ExerciseArr) > 0 {
		if err := validateExercises(update.ExerciseArr); err != nil {
			return nil, err
		}
		for _, ex := range update.ExerciseArr {
			patch.AppendExercises = append(patch.AppendExercises, ex.Fresh())
		}
	}
	if patch.IsEmpty() {
		return nil, validationErr("nothing to update")
	}

	updated, err := s.workoutRepo.Update(ctx, userID, workoutID, patch)
	if err != nil {
		return nil, s.workoutErr(ctx, "UpdateWorkout", userID, workoutID, err)
	}
	return updated, nil
}

// SetPublic publishes or unpublishes a workout.
func (s *workoutService) SetPublic(ctx context.Context, userID string, workoutID primitive.ObjectID, public bool) (*domain.Workout, error) {
	return s.UpdateWorkout(ctx, userID, workoutID, WorkoutUpdate{Public: &public})
}

func (s *workoutService) ExerciseSets(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID) ([]domain.SetGroup, error) {
	_, ex, err := s.locateExercise(ctx, "ExerciseSets", userID, workoutID, exerciseID)
	if err != nil {
		return nil, err
	}
	if ex.Sets == nil {
		return []domain.SetGroup{}, nil
	}
	return ex.Sets, nil
}

// UpdateExerciseSets replaces the sets of one exercise. The read before the
// write tells which level is missing; a concurrent delete in between still
// ends up as not found.
func (s *workoutService) UpdateExerciseSets(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID, sets []domain.SetGroup) error {
	if err := domain.ValidateSets(sets); err != nil {
		return validationErr("%s", err)
	}
	if _, _, err := s.locateExercise(ctx, "UpdateExerciseSets", userID, workoutID, exerciseID); err != nil {
		return err
	}
	if sets == nil {
		sets = []domain.SetGroup{}
	}
	if err := s.workoutRepo.SetExerciseSets(ctx, userID, workoutID, exerciseID, sets); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExerciseNotFound
		}
		return internalErr("UpdateExerciseSets", err, log.Fields{
			"userId": userID, "workoutId": workoutID.Hex(), "exerciseId": exerciseID.Hex(),
		})
	}
	return nil
}

func (s *workoutService) RemoveExercise(ctx context.Context, userID string, workoutID, exerciseID primitive.ObjectID) error {
	err := s.workoutRepo.PullExercise(ctx, userID, workoutID, exerciseID)
	if errors.Is(err, repository.ErrNotModified) {
		return ErrExerciseNotFound
	}
	if err != nil {
		return s.workoutErr(ctx, "RemoveExercise", userID, workoutID, err)
	}
	return nil
}

func (s *workoutService) DeleteWorkout(ctx context.Context, userID string, workoutID primitive.ObjectID) error {
	if err := s.workoutRepo.Delete(ctx, userID, workoutID); err != nil {
		return s.workoutErr(ctx, "DeleteWorkout", userID, workoutID, err)
	}
	log.WithFields(log.Fields{"userId": userID, "workoutId": workoutID.Hex()}).Debug("workout deleted")
	return nil
}

// DeleteAllWorkouts empties the user's workouts and returns how many were
// removed. ErrNoWorkouts is returned when there was nothing to remove.
func (s *workoutService) DeleteAllWorkouts(ctx context.Context, userID string) (int, error) {
	user, err := s.owner(ctx, "DeleteAllWorkouts", userID)
	if err != nil {
		return 0, err
	}
	if len(user.Workouts) == 0 {
		return 0, ErrNoWorkouts
	}
	if err := s.workoutRepo.DeleteAll(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, internalErr("DeleteAllWorkouts", err, log.Fields{"userId": userID})
	}
	return len(user.Workouts), nil
}

func (s *workoutService) owner(ctx context.Context, op, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, validationErr("userId is required")
	}
	user, err := s.userRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalErr(op, err, log.Fields{"userId": userID})
	}
	return user, nil
}

func (s *workoutService) locateExercise(ctx context.Context, op, userID string, workoutID, exerciseID primitive.ObjectID) (*domain.Workout, *domain.Exercise, error) {
	user, err := s.owner(ctx, op, userID)
	if err != nil {
		return nil, nil, err
	}
	workout, ok := user.FindWorkout(workoutID)
	if !ok {
		return nil, nil, ErrWorkoutNotFound
	}
	ex, ok := workout.FindExercise(exerciseID)
	if !ok {
		return nil, nil, ErrExerciseNotFound
	}
	return workout, ex, nil
}

// workoutErr maps a failed owner-scoped update. The combined filter does not
// say what was missing, so a not-found result is followed by a user lookup.
func (s *workoutService) workoutErr(ctx context.Context, op, userID string, workoutID primitive.ObjectID, err error) error {
	if !errors.Is(err, repository.ErrNotFound) {
		return internalErr(op, err, log.Fields{"userId": userID, "workoutId": workoutID.Hex()})
	}
	if _, uErr := s.owner(ctx, op, userID); uErr != nil {
		return uErr
	}
	return ErrWorkoutNotFound
}

func validateWorkoutName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", validationErr("workout name is required")
	}
	if utf8.RuneCountInString(name) > domain.MaxWorkoutNameLength {
		return "", validationErr("workout name must be at most %d characters", domain.MaxWorkoutNameLength)
	}
	return name, nil
}

func validateExercises(exercises []domain.Exercise) error {
	for i, ex := range exercises {
		if ex.CatalogID == "" {
			return validationErr("exercise %d: id is required", i)
		}
		if err := domain.ValidateSets(ex.Sets); err != nil {
			return validationErr("exercise %d: %s", i, err)
		}
	}
	return nil
}
