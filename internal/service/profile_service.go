package service

import (
	"alcyxob/fitness-social/internal/domain"
	"alcyxob/fitness-social/internal/repository"
	"alcyxob/fitness-social/internal/storage"
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// AvatarUpload is handed to the client, which PUTs the image to UploadURL
// and then confirms ObjectKey.
type AvatarUpload struct {
	UploadURL string    `json:"uploadUrl"`
	ObjectKey string    `json:"objectKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AvatarStorageConfig places uploaded avatars inside the bucket.
type AvatarStorageConfig struct {
	Prefix    string
	URLExpiry time.Duration
}

// ProfileService defines profile and per-user preference operations.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpsertProfile(ctx context.Context, userID, name string, profile domain.Profile) error
	DeleteProfile(ctx context.Context, userID string) error

	AddFavExercise(ctx context.Context, userID, exerciseID string) (bool, error)
	RemoveFavExercise(ctx context.Context, userID, exerciseID string) (bool, error)

	RequestAvatarUpload(ctx context.Context, userID, contentType string) (*AvatarUpload, error)
	ConfirmAvatar(ctx context.Context, userID, objectKey string) error
}

// profileService implements the ProfileService interface.
type profileService struct {
	userRepo  repository.UserRepository
	files     storage.FileStorage // nil when avatar uploads are disabled
	avatarCfg AvatarStorageConfig
}

// NewProfileService creates a new profile service. files may be nil.
func NewProfileService(userRepo repository.UserRepository, files storage.FileStorage, avatarCfg AvatarStorageConfig) ProfileService {
	return &profileService{
		userRepo:  userRepo,
		files:     files,
		avatarCfg: avatarCfg,
	}
}

// GetProfile returns the whole user document.
func (s *profileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, validationErr("userId is required")
	}
	user, err := s.userRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, internalErr("GetProfile", err, log.Fields{"userId": userID})
	}
	return user, nil
}

// UpsertProfile creates the user on first save, later saves merge only the
// truthy fields. Every truthy weight or body fat also lands in its history.
func (s *profileService) UpsertProfile(ctx context.Context, userID, name string, profile domain.Profile) error {
	if userID == "" {
		return validationErr("userId is required")
	}
	if err := profile.Validate(); err != nil {
		return validationErr("%s", err)
	}
	name = strings.TrimSpace(name)
	merged := truthyFields(profile)
	now := time.Now().UTC()

	existing, err := s.userRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return internalErr("UpsertProfile", err, log.Fields{"userId": userID})
	}

	if existing == nil {
		if name == "" {
			return validationErr("name is required for a new profile")
		}
		user := &domain.User{UserID: userID, Name: name}
		if !merged.IsEmpty() {
			user.Profile = &merged
		}
		if merged.Weight != nil {
			user.WeightHistory = []domain.MetricEntry{{Date: now, Value: *merged.Weight}}
		}
		if merged.BodyFat != nil {
			user.BodyFatHistory = []domain.MetricEntry{{Date: now, Value: *merged.BodyFat}}
		}
		if _, err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// created concurrently, merge into it instead
				return s.mergeProfile(ctx, userID, name, merged, now)
			}
			return internalErr("UpsertProfile", err, log.Fields{"userId": userID})
		}
		log.WithField("userId", userID).Info("profile created")
		return nil
	}

	if merged.IsEmpty() && (name == "" || name == existing.Name) {
		return nil
	}
	return s.mergeProfile(ctx, userID, name, merged, now)
}

func (s *profileService) mergeProfile(ctx context.Context, userID, name string, merged domain.Profile, now time.Time) error {
	update := repository.ProfileUpdate{Name: name, Profile: merged}
	if merged.Weight != nil {
		update.WeightEntry = &domain.MetricEntry{Date: now, Value: *merged.Weight}
	}
	if merged.BodyFat != nil {
		update.BodyFatEntry = &domain.MetricEntry{Date: now, Value: *merged.BodyFat}
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, update); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return internalErr("UpsertProfile", err, log.Fields{"userId": userID})
	}
	return nil
}

// DeleteProfile removes the user document with everything embedded in it.
func (s *profileService) DeleteProfile(ctx context.Context, userID string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.userRepo.DeleteByUserID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return internalErr("DeleteProfile", err, log.Fields{"userId": userID})
	}
	if user.Profile != nil && user.Profile.AvatarKey != "" {
		s.deleteAvatarObject(ctx, user.Profile.AvatarKey)
	}
	log.WithField("userId", userID).Info("profile deleted")
	return nil
}

// AddFavExercise reports false when the exercise already is a favorite.
func (s *profileService) AddFavExercise(ctx context.Context, userID, exerciseID string) (bool, error) {
	if exerciseID == "" {
		return false, validationErr("exerciseId is required")
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.HasFavExercise(exerciseID) {
		return false, nil
	}
	if err := s.userRepo.AddFavExercise(ctx, userID, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, internalErr("AddFavExercise", err, log.Fields{"userId": userID, "exerciseId": exerciseID})
	}
	return true, nil
}

// RemoveFavExercise reports false when the exercise was not a favorite.
func (s *profileService) RemoveFavExercise(ctx context.Context, userID, exerciseID string) (bool, error) {
	if exerciseID == "" {
		return false, validationErr("exerciseId is required")
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.HasFavExercise(exerciseID) {
		return false, nil
	}
	if err := s.userRepo.RemoveFavExercise(ctx, userID, exerciseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, internalErr("RemoveFavExercise", err, log.Fields{"userId": userID, "exerciseId": exerciseID})
	}
	return true, nil
}

// RequestAvatarUpload presigns a PUT for a new avatar object. Nothing is
// recorded until ConfirmAvatar.
func (s *profileService) RequestAvatarUpload(ctx context.Context, userID, contentType string) (*AvatarUpload, error) {
	if s.files == nil {
		return nil, ErrAvatarStorageDisabled
	}
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	objectKey, err := storage.AvatarObjectKey(s.avatarCfg.Prefix, userID, contentType)
	if err != nil {
		return nil, validationErr("%s", err)
	}
	expiry := s.avatarCfg.URLExpiry
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}

	uploadURL, err := s.files.GeneratePresignedUploadURL(ctx, objectKey, contentType, expiry)
	if err != nil {
		return nil, internalErr("RequestAvatarUpload", err, log.Fields{"userId": userID, "objectKey": objectKey})
	}
	return &AvatarUpload{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
		ExpiresAt: time.Now().UTC().Add(expiry),
	}, nil
}

// ConfirmAvatar makes objectKey the user's avatar and drops the previous one.
func (s *profileService) ConfirmAvatar(ctx context.Context, userID, objectKey string) error {
	if s.files == nil {
		return ErrAvatarStorageDisabled
	}
	if !storage.IsAvatarKeyOf(s.avatarCfg.Prefix, userID, objectKey) {
		return validationErr("objectKey does not belong to this user")
	}
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.userRepo.SetAvatarKey(ctx, userID, objectKey); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return internalErr("ConfirmAvatar", err, log.Fields{"userId": userID, "objectKey": objectKey})
	}
	if user.Profile != nil && user.Profile.AvatarKey != "" && user.Profile.AvatarKey != objectKey {
		s.deleteAvatarObject(ctx, user.Profile.AvatarKey)
	}
	return nil
}

func (s *profileService) deleteAvatarObject(ctx context.Context, objectKey string) {
	if s.files == nil {
		return
	}
	if err := s.files.DeleteObject(ctx, objectKey); err != nil {
		log.WithField("objectKey", objectKey).Warnf("failed to delete old avatar: %s", err)
	}
}

// truthyFields drops the fields that are nil or zero, the merge skips them.
func truthyFields(p domain.Profile) domain.Profile {
	var out domain.Profile
	if p.Age != nil && *p.Age != 0 {
		v := *p.Age
		out.Age = &v
	}
	if p.Gender != nil && *p.Gender != "" {
		v := *p.Gender
		out.Gender = &v
	}
	if p.Weight != nil && *p.Weight != 0 {
		v := *p.Weight
		out.Weight = &v
	}
	if p.Height != nil && *p.Height != 0 {
		v := *p.Height
		out.Height = &v
	}
	if p.BodyFat != nil && *p.BodyFat != 0 {
		v := *p.BodyFat
		out.BodyFat = &v
	}
	return out
}
