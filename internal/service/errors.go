package service

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError is a first-class "nothing there" result. Title and Message
// are safe to show to the caller.
type NotFoundError struct {
	Kind    string
	Title   string
	Message string
}

func (e *NotFoundError) Error() string { return e.Kind + " not found" }

// Is makes every NotFoundError match ErrNotFound while kinds stay distinct.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

var (
	ErrUserNotFound = &NotFoundError{
		Kind:    "user",
		Title:   "User not found",
		Message: "No profile has been saved for this user yet.",
	}
	ErrActingUserNotFound = &NotFoundError{
		Kind:    "acting user",
		Title:   "User not found",
		Message: "The user performing this action does not exist.",
	}
	ErrWorkoutNotFound = &NotFoundError{
		Kind:    "workout",
		Title:   "Workout not found",
		Message: "The workout does not exist or was deleted.",
	}
	ErrExerciseNotFound = &NotFoundError{
		Kind:    "exercise",
		Title:   "Exercise not found",
		Message: "The exercise does not exist in this workout.",
	}
	ErrCommentNotFound = &NotFoundError{
		Kind:    "comment",
		Title:   "Comment not found",
		Message: "The comment does not exist or was already removed.",
	}
)

var (
	ErrValidation = errors.New("validation failed")
	ErrInternal   = errors.New("internal error")

	// ErrNoWorkouts is informational: the user exists but has nothing to delete.
	ErrNoWorkouts = errors.New("user has no workouts")

	// Rejections reported as a false result, never returned to callers.
	ErrEmptyComment         = errors.New("comment text is empty")
	ErrDuplicateWorkoutName = errors.New("a workout with this name already exists")

	ErrAvatarStorageDisabled = errors.New("avatar storage is not configured")

	// ErrForbidden is returned when the acting user may not touch the resource.
	ErrForbidden = errors.New("not allowed for this user")
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// internalErr logs an unexpected store failure and hides it behind ErrInternal.
func internalErr(op string, err error, fields log.Fields) error {
	log.WithFields(fields).WithField("op", op).Errorf("persistence failure: %s", err)
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}

// rejected records why an operation answered false.
func rejected(op string, reason error, fields log.Fields) bool {
	log.WithFields(fields).WithField("op", op).Debugf("rejected: %s", reason)
	return false
}
