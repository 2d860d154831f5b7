package api

import (
	"alcyxob/fitness-social/internal/domain"
	"alcyxob/fitness-social/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService service.ProfileService
	avatars        *service.AvatarResolver
}

func NewProfileHandler(profileService service.ProfileService, avatars *service.AvatarResolver) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, avatars: avatars}
}

// --- DTOs ---

type UpsertProfileRequest struct {
	UserID  string         `json:"userId"`
	Name    string         `json:"name"`
	Profile domain.Profile `json:"profile"`
}

type FavExerciseRequest struct {
	UserID     string `json:"userId"`
	ExerciseID string `json:"exerciseId" binding:"required"`
}

type AvatarUploadRequest struct {
	UserID      string `json:"userId"`
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmAvatarRequest struct {
	UserID    string `json:"userId"`
	ObjectKey string `json:"objectKey" binding:"required"`
}

type ProfileResponse struct {
	UserID         string                `json:"userId"`
	Name           string                `json:"name"`
	PfpImageURL    string                `json:"pfpImageUrl"`
	Profile        *domain.Profile       `json:"profile"`
	WeightHistory  []domain.MetricEntry  `json:"weightHistory"`
	BodyFatHistory []domain.MetricEntry  `json:"bodyFatHistory"`
	FavExercises   []string              `json:"favExercises"`
	SavedWorkouts  []domain.SavedWorkout `json:"savedWorkouts"`
	WorkoutCount   int                   `json:"workoutCount"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

func MapUserToProfileResponse(user *domain.User, pfpImageURL string) ProfileResponse {
	profile := user.Profile
	if profile == nil {
		profile = &domain.Profile{}
	}
	return ProfileResponse{
		UserID:         user.UserID,
		Name:           user.Name,
		PfpImageURL:    pfpImageURL,
		Profile:        profile,
		WeightHistory:  nonNil(user.WeightHistory),
		BodyFatHistory: nonNil(user.BodyFatHistory),
		FavExercises:   nonNil(user.FavExercises),
		SavedWorkouts:  nonNil(user.SavedWorkouts),
		WorkoutCount:   len(user.Workouts),
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// --- Handler Methods ---

// GetProfile godoc
// @Summary Get a profile
// @Tags Profile
// @Produce json
// @Param userId query string false "Identity-provider user id (defaults to the token subject)"
// @Success 200 {object} ProfileResponse
// @Failure 404 {object} gin.H "Profile was never saved"
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := actingUserID(c, c.Query("userId"))
	if !ok {
		return
	}
	user, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve profile.")
		return
	}

	avatarKey := ""
	if user.Profile != nil {
		avatarKey = user.Profile.AvatarKey
	}
	pfp := h.avatars.Resolve(c.Request.Context(), user.UserID, avatarKey)
	c.JSON(http.StatusOK, MapUserToProfileResponse(user, pfp))
}

// UpsertProfile godoc
// @Summary Create or update a profile
// @Description Creates the profile on first save. Later saves merge only non-empty fields and append weight / body fat history.
// @Tags Profile
// @Accept json
// @Produce json
// @Param profile body UpsertProfileRequest true "Profile"
// @Success 200 {object} gin.H
// @Failure 400 {object} gin.H "Out of range values"
// @Router /profile [post]
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	var req UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := actingUserID(c, req.UserID)
	if !ok {
		return
	}
	if err := h.profileService.UpsertProfile(c.Request.Context(), userID, req.Name, req.Profile); err != nil {
		respondError(c, err, "Failed to save profile.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile saved."})
}

// DeleteProfile godoc
// @Summary Delete a profile with all its workouts
// @Tags Profile
// @Param userId query string false "Identity-provider user id"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H
// @Router /profile [delete]
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	userID, ok := actingUserID(c, c.Query("userId"))
	if !ok {
		return
	}
	if err := h.profileService.DeleteProfile(c.Request.Context(), userID); err != nil {
		respondError(c, err, "Failed to delete profile.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile deleted."})
}

func (h *ProfileHandler) AddFavExercise(c *gin.Context) {
	var req FavExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := actingUserID(c, req.UserID)
	if !ok {
		return
	}
	added, err := h.profileService.AddFavExercise(c.Request.Context(), userID, req.ExerciseID)
	if err != nil {
		respondError(c, err, "Failed to add favorite exercise.")
		return
	}
	message := "Exercise added to favorites."
	if !added {
		message = "Exercise is already a favorite."
	}
	c.JSON(http.StatusOK, gin.H{"success": added, "message": message})
}

func (h *ProfileHandler) RemoveFavExercise(c *gin.Context) {
	userID, ok := actingUserID(c, c.Query("userId"))
	if !ok {
		return
	}
	exerciseID := c.Query("exerciseId")
	if exerciseID == "" {
		abortWithError(c, http.StatusBadRequest, "exerciseId is required")
		return
	}
	removed, err := h.profileService.RemoveFavExercise(c.Request.Context(), userID, exerciseID)
	if err != nil {
		respondError(c, err, "Failed to remove favorite exercise.")
		return
	}
	message := "Exercise removed from favorites."
	if !removed {
		message = "Exercise was not a favorite."
	}
	c.JSON(http.StatusOK, gin.H{"success": removed, "message": message})
}

// RequestAvatarUpload godoc
// @Summary Get a presigned URL for uploading an avatar
// @Description The client PUTs the image to uploadUrl with the same Content-Type, then confirms objectKey.
// @Tags Profile
// @Accept json
// @Produce json
// @Param request body AvatarUploadRequest true "Upload request"
// @Success 200 {object} service.AvatarUpload
// @Failure 400 {object} gin.H "Unsupported content type"
// @Failure 503 {object} gin.H "Avatar storage not configured"
// @Router /profile/avatar/upload-url [post]
func (h *ProfileHandler) RequestAvatarUpload(c *gin.Context) {
	var req AvatarUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := actingUserID(c, req.UserID)
	if !ok {
		return
	}
	upload, err := h.profileService.RequestAvatarUpload(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		respondError(c, err, "Failed to prepare avatar upload.")
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (h *ProfileHandler) ConfirmAvatar(c *gin.Context) {
	var req ConfirmAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := actingUserID(c, req.UserID)
	if !ok {
		return
	}
	if err := h.profileService.ConfirmAvatar(c.Request.Context(), userID, req.ObjectKey); err != nil {
		respondError(c, err, "Failed to save avatar.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Avatar updated."})
}
