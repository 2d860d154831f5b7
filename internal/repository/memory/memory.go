// Package memory is an in-process implementation of the repository
// interfaces with the same matching rules as the Mongo one. It backs the
// "memory" database driver and the service tests.
package memory

import (
	"alcyxob/fitness-social/internal/domain"
	"alcyxob/fitness-social/internal/repository"
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store keeps user documents keyed by userId.
type Store struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// FailWith, when set, is returned by every call. Used to simulate store outages.
	FailWith error
}

var (
	_ repository.UserRepository    = (*Store)(nil)
	_ repository.WorkoutRepository = (*Store)(nil)
	_ repository.FeedRepository    = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{users: make(map[string]*domain.User)}
}

// --- users ---

func (s *Store) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if s.FailWith != nil {
		return primitive.NilObjectID, s.FailWith
	}
	if user.UserID == "" || user.Name == "" {
		return primitive.NilObjectID, errors.New("userId and name are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.UserID]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := cloneUser(user)
	initArrays(stored)
	s.users[user.UserID] = stored
	return user.ID, nil
}

func (s *Store) GetByUserID(_ context.Context, userID string) (*domain.User, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) UpdateProfile(_ context.Context, userID string, update repository.ProfileUpdate) error {
	return s.withUser(userID, func(u *domain.User) error {
		if update.Name != "" {
			u.Name = update.Name
		}
		if u.Profile == nil {
			u.Profile = &domain.Profile{}
		}
		p := update.Profile
		if p.Age != nil {
			v := *p.Age
			u.Profile.Age = &v
		}
		if p.Gender != nil {
			v := *p.Gender
			u.Profile.Gender = &v
		}
		if p.Weight != nil {
			v := *p.Weight
			u.Profile.Weight = &v
		}
		if p.Height != nil {
			v := *p.Height
			u.Profile.Height = &v
		}
		if p.BodyFat != nil {
			v := *p.BodyFat
			u.Profile.BodyFat = &v
		}
		if update.WeightEntry != nil {
			u.WeightHistory = append(u.WeightHistory, *update.WeightEntry)
		}
		if update.BodyFatEntry != nil {
			u.BodyFatHistory = append(u.BodyFatHistory, *update.BodyFatEntry)
		}
		return nil
	})
}

func (s *Store) SetAvatarKey(_ context.Context, userID, objectKey string) error {
	return s.withUser(userID, func(u *domain.User) error {
		if u.Profile == nil {
			u.Profile = &domain.Profile{}
		}
		u.Profile.AvatarKey = objectKey
		return nil
	})
}

func (s *Store) DeleteByUserID(_ context.Context, userID string) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, userID)
	return nil
}

func (s *Store) AddFavExercise(_ context.Context, userID, exerciseID string) error {
	return s.withUser(userID, func(u *domain.User) error {
		if !u.HasFavExercise(exerciseID) {
			u.FavExercises = append(u.FavExercises, exerciseID)
		}
		return nil
	})
}

func (s *Store) RemoveFavExercise(_ context.Context, userID, exerciseID string) error {
	return s.withUser(userID, func(u *domain.User) error {
		u.FavExercises = removeString(u.FavExercises, exerciseID)
		return nil
	})
}

func (s *Store) AddSavedWorkout(_ context.Context, userID string, workoutID primitive.ObjectID) error {
	return s.withUser(userID, func(u *domain.User) error {
		if !u.HasSavedWorkout(workoutID) {
			u.SavedWorkouts = append(u.SavedWorkouts, domain.SavedWorkout{WorkoutID: workoutID})
		}
		return nil
	})
}

func (s *Store) RemoveSavedWorkout(_ context.Context, userID string, workoutID primitive.ObjectID) error {
	return s.withUser(userID, func(u *domain.User) error {
		kept := u.SavedWorkouts[:0]
		for _, sw := range u.SavedWorkouts {
			if sw.WorkoutID != workoutID {
				kept = append(kept, sw)
			}
		}
		u.SavedWorkouts = kept
		return nil
	})
}

// --- workouts ---

func (s *Store) Append(_ context.Context, userID string, workout domain.Workout) (*domain.Workout, error) {
	var created *domain.Workout
	err := s.withUser(userID, func(u *domain.User) error {
		u.Workouts = append(u.Workouts, cloneWorkout(workout))
		w := cloneWorkout(u.Workouts[len(u.Workouts)-1])
		created = &w
		return nil
	})
	return created, err
}

func (s *Store) AppendIfNameAbsent(ctx context.Context, userID string, workout domain.Workout) (*domain.Workout, error) {
	var created *domain.Workout
	err := s.withUser(userID, func(u *domain.User) error {
		if u.HasWorkoutNamed(workout.Name) {
			return repository.ErrDuplicate
		}
		u.Workouts = append(u.Workouts, cloneWorkout(workout))
		w := cloneWorkout(u.Workouts[len(u.Workouts)-1])
		created = &w
		return nil
	})
	return created, err
}

func (s *Store) Update(_ context.Context, userID string, workoutID primitive.ObjectID, patch repository.WorkoutPatch) (*domain.Workout, error) {
	return s.withWorkout(userID, workoutID, func(w *domain.Workout) error {
		if patch.Name != nil {
			w.Name = *patch.Name
		}
		if patch.Public != nil {
			w.Public = *patch.Public
			w.PostDate = patch.PostDate
		}
		if patch.Comments != nil {
			w.Comments = append([]domain.Comment{}, patch.Comments...)
		}
		for _, ex := range patch.AppendExercises {
			w.Exercises = append(w.Exercises, cloneExercise(ex))
		}
		return nil
	})
}

func (s *Store) SetExerciseSets(_ context.Context, userID string, workoutID, exerciseID primitive.ObjectID, sets []domain.SetGroup) error {
	_, err := s.withWorkout(userID, workoutID, func(w *domain.Workout) error {
		ex, ok := w.FindExercise(exerciseID)
		if !ok {
			return repository.ErrNotFound
		}
		ex.Sets = append([]domain.SetGroup{}, sets...)
		return nil
	})
	return err
}

func (s *Store) PullExercise(_ context.Context, userID string, workoutID, exerciseID primitive.ObjectID) error {
	_, err := s.withWorkout(userID, workoutID, func(w *domain.Workout) error {
		for i := range w.Exercises {
			if w.Exercises[i].ID == exerciseID {
				w.Exercises = append(w.Exercises[:i], w.Exercises[i+1:]...)
				return nil
			}
		}
		return repository.ErrNotModified
	})
	return err
}

func (s *Store) Delete(_ context.Context, userID string, workoutID primitive.ObjectID) error {
	return s.withUser(userID, func(u *domain.User) error {
		for i := range u.Workouts {
			if u.Workouts[i].ID == workoutID {
				u.Workouts = append(u.Workouts[:i], u.Workouts[i+1:]...)
				return nil
			}
		}
		return repository.ErrNotFound
	})
}

func (s *Store) DeleteAll(_ context.Context, userID string) error {
	return s.withUser(userID, func(u *domain.User) error {
		u.Workouts = []domain.Workout{}
		return nil
	})
}

func (s *Store) FindOwner(_ context.Context, workoutID primitive.ObjectID) (*domain.User, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if _, ok := u.FindWorkout(workoutID); ok {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) AddLike(_ context.Context, ownerID string, workoutID primitive.ObjectID, likerID string) (*domain.Workout, error) {
	return s.withWorkout(ownerID, workoutID, func(w *domain.Workout) error {
		w.Likes = addString(w.Likes, likerID)
		return nil
	})
}

func (s *Store) RemoveLike(_ context.Context, ownerID string, workoutID primitive.ObjectID, likerID string) (*domain.Workout, error) {
	return s.withWorkout(ownerID, workoutID, func(w *domain.Workout) error {
		w.Likes = removeString(w.Likes, likerID)
		return nil
	})
}

func (s *Store) AddComment(_ context.Context, ownerID string, workoutID primitive.ObjectID, comment domain.Comment) (*domain.Workout, error) {
	return s.withWorkout(ownerID, workoutID, func(w *domain.Workout) error {
		w.Comments = append(w.Comments, domain.Comment{ID: comment.ID, Text: comment.Text, UserID: comment.UserID})
		return nil
	})
}

func (s *Store) RemoveComment(_ context.Context, ownerID string, workoutID, commentID primitive.ObjectID) error {
	_, err := s.withWorkout(ownerID, workoutID, func(w *domain.Workout) error {
		for i := range w.Comments {
			if w.Comments[i].ID == commentID {
				w.Comments = append(w.Comments[:i], w.Comments[i+1:]...)
				return nil
			}
		}
		return repository.ErrNotModified
	})
	return err
}

func (s *Store) AddSave(_ context.Context, ownerID string, workoutID primitive.ObjectID, saverID string) error {
	_, err := s.withWorkout(ownerID, workoutID, func(w *domain.Workout) error {
		w.Saves = addString(w.Saves, saverID)
		return nil
	})
	return err
}

func (s *Store) RemoveSave(_ context.Context, ownerID string, workoutID primitive.ObjectID, saverID string) error {
	_, err := s.withWorkout(ownerID, workoutID, func(w *domain.Workout) error {
		w.Saves = removeString(w.Saves, saverID)
		return nil
	})
	return err
}

// --- feed ---

// PublicWorkouts follows the stage order of the Mongo pipeline: unwind,
// filter public, sort by workout id descending, skip/limit, join commenters.
func (s *Store) PublicWorkouts(_ context.Context, page, itemsPerPage int) ([]repository.FeedRow, error) {
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := []repository.FeedRow{}
	for _, u := range s.users {
		for _, w := range u.Workouts {
			if !w.Public {
				continue
			}
			rows = append(rows, repository.FeedRow{
				UserID:    u.UserID,
				Name:      u.Name,
				AvatarKey: avatarKey(u),
				Workout:   cloneWorkout(w),
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return bytes.Compare(rows[i].Workout.ID[:], rows[j].Workout.ID[:]) > 0
	})

	skip := (page - 1) * itemsPerPage
	if skip >= len(rows) {
		return []repository.FeedRow{}, nil
	}
	end := skip + itemsPerPage
	if end > len(rows) {
		end = len(rows)
	}
	rows = rows[skip:end]

	for i := range rows {
		seen := map[string]bool{}
		rows[i].Commenters = []repository.Commenter{}
		for _, c := range rows[i].Workout.Comments {
			if seen[c.UserID] {
				continue
			}
			seen[c.UserID] = true
			if cu, ok := s.users[c.UserID]; ok {
				rows[i].Commenters = append(rows[i].Commenters, repository.Commenter{
					UserID:    cu.UserID,
					Name:      cu.Name,
					AvatarKey: avatarKey(cu),
				})
			}
		}
	}
	return rows, nil
}

// --- helpers ---

func (s *Store) withUser(userID string, fn func(u *domain.User) error) error {
	if s.FailWith != nil {
		return s.FailWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	// mutate a copy so a failed fn leaves the stored document untouched
	working := cloneUser(u)
	if err := fn(working); err != nil {
		return err
	}
	working.UpdatedAt = time.Now().UTC()
	s.users[userID] = working
	return nil
}

func (s *Store) withWorkout(userID string, workoutID primitive.ObjectID, fn func(w *domain.Workout) error) (*domain.Workout, error) {
	var out *domain.Workout
	err := s.withUser(userID, func(u *domain.User) error {
		w, ok := u.FindWorkout(workoutID)
		if !ok {
			return repository.ErrNotFound
		}
		if err := fn(w); err != nil {
			return err
		}
		c := cloneWorkout(*w)
		out = &c
		return nil
	})
	return out, err
}

func avatarKey(u *domain.User) string {
	if u.Profile == nil {
		return ""
	}
	return u.Profile.AvatarKey
}

func addString(set []string, v string) []string {
	for _, s := range set {
		if s == v {
			return set
		}
	}
	return append(set, v)
}

func removeString(set []string, v string) []string {
	out := make([]string, 0, len(set))
	for _, s := range set {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}

func initArrays(u *domain.User) {
	if u.WeightHistory == nil {
		u.WeightHistory = []domain.MetricEntry{}
	}
	if u.BodyFatHistory == nil {
		u.BodyFatHistory = []domain.MetricEntry{}
	}
	if u.Workouts == nil {
		u.Workouts = []domain.Workout{}
	}
	if u.SavedWorkouts == nil {
		u.SavedWorkouts = []domain.SavedWorkout{}
	}
	if u.FavExercises == nil {
		u.FavExercises = []string{}
	}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.Profile != nil {
		p := *u.Profile
		if u.Profile.Age != nil {
			v := *u.Profile.Age
			p.Age = &v
		}
		if u.Profile.Gender != nil {
			v := *u.Profile.Gender
			p.Gender = &v
		}
		if u.Profile.Weight != nil {
			v := *u.Profile.Weight
			p.Weight = &v
		}
		if u.Profile.Height != nil {
			v := *u.Profile.Height
			p.Height = &v
		}
		if u.Profile.BodyFat != nil {
			v := *u.Profile.BodyFat
			p.BodyFat = &v
		}
		c.Profile = &p
	}
	c.WeightHistory = append([]domain.MetricEntry{}, u.WeightHistory...)
	c.BodyFatHistory = append([]domain.MetricEntry{}, u.BodyFatHistory...)
	c.SavedWorkouts = append([]domain.SavedWorkout{}, u.SavedWorkouts...)
	c.FavExercises = append([]string{}, u.FavExercises...)
	c.Workouts = make([]domain.Workout, len(u.Workouts))
	for i, w := range u.Workouts {
		c.Workouts[i] = cloneWorkout(w)
	}
	return &c
}

func cloneWorkout(w domain.Workout) domain.Workout {
	c := w
	c.Likes = append([]string{}, w.Likes...)
	c.Saves = append([]string{}, w.Saves...)
	c.Comments = make([]domain.Comment, len(w.Comments))
	for i, cm := range w.Comments {
		// Name and PfpImageURL are never stored
		c.Comments[i] = domain.Comment{ID: cm.ID, Text: cm.Text, UserID: cm.UserID}
	}
	c.Exercises = make([]domain.Exercise, len(w.Exercises))
	for i, ex := range w.Exercises {
		c.Exercises[i] = cloneExercise(ex)
	}
	return c
}

func cloneExercise(ex domain.Exercise) domain.Exercise {
	c := ex
	c.SecondaryMuscles = append([]string{}, ex.SecondaryMuscles...)
	c.Instructions = append([]string{}, ex.Instructions...)
	c.Sets = append([]domain.SetGroup{}, ex.Sets...)
	return c
}
