package api

import (
	"alcyxob/fitness-social/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type SocialHandler struct {
	socialService  service.SocialService
	workoutService service.WorkoutService
}

func NewSocialHandler(socialService service.SocialService, workoutService service.WorkoutService) *SocialHandler {
	return &SocialHandler{socialService: socialService, workoutService: workoutService}
}

// --- DTOs ---

type WorkoutActionRequest struct {
	UserID    string `json:"userId"`
	WorkoutID string `json:"workoutId" binding:"required,objectid"`
}

type CommentRequest struct {
	UserID    string `json:"userId"`
	WorkoutID string `json:"workoutId" binding:"required,objectid"`
	Text      string `json:"text"`
}

type UncommentRequest struct {
	WorkoutID string `json:"workoutId" binding:"required,objectid"`
	CommentID string `json:"commentId" binding:"required,objectid"`
}

// --- Handler Methods ---

// Like godoc
// @Summary Like a workout
// @Tags Social
// @Accept json
// @Produce json
// @Param request body WorkoutActionRequest true "Acting user and workout"
// @Success 200 {object} gin.H "likes: current like count"
// @Failure 404 {object} gin.H "Acting user or workout not found"
// @Router /social/like [post]
func (h *SocialHandler) Like(c *gin.Context) {
	req, userID, ok := bindWorkoutAction(c)
	if !ok {
		return
	}
	likes, err := h.socialService.LikeWorkout(c.Request.Context(), userID, mustObjectID(req.WorkoutID))
	if err != nil {
		respondError(c, err, "Failed to like workout.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *SocialHandler) Unlike(c *gin.Context) {
	req, userID, ok := bindWorkoutAction(c)
	if !ok {
		return
	}
	likes, err := h.socialService.UnlikeWorkout(c.Request.Context(), userID, mustObjectID(req.WorkoutID))
	if err != nil {
		respondError(c, err, "Failed to unlike workout.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

// Comment godoc
// @Summary Comment on a workout
// @Description Blank text is rejected with success=false.
// @Tags Social
// @Accept json
// @Produce json
// @Param request body CommentRequest true "Comment"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H
// @Router /social/comment [post]
func (h *SocialHandler) Comment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := actingUserID(c, req.UserID)
	if !ok {
		return
	}
	added, err := h.socialService.AddComment(c.Request.Context(), userID, mustObjectID(req.WorkoutID), req.Text)
	if err != nil {
		respondError(c, err, "Failed to add comment.")
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Comment text must not be empty."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment added."})
}

func (h *SocialHandler) Uncomment(c *gin.Context) {
	var req UncommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	// without auth there is no trusted acting user and any comment may be removed
	actingUserID, _ := getUserIDFromContext(c)
	err := h.socialService.RemoveComment(c.Request.Context(), actingUserID, mustObjectID(req.WorkoutID), mustObjectID(req.CommentID))
	if err != nil {
		respondError(c, err, "Failed to remove comment.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment removed."})
}

func (h *SocialHandler) Publish(c *gin.Context) {
	h.setPublic(c, true)
}

func (h *SocialHandler) Unpublish(c *gin.Context) {
	h.setPublic(c, false)
}

func (h *SocialHandler) setPublic(c *gin.Context, public bool) {
	req, userID, ok := bindWorkoutAction(c)
	if !ok {
		return
	}
	workout, err := h.workoutService.SetPublic(c.Request.Context(), userID, mustObjectID(req.WorkoutID), public)
	if err != nil {
		respondError(c, err, "Failed to change workout visibility.")
		return
	}
	c.JSON(http.StatusOK, workout)
}

// Save godoc
// @Summary Save a workout from the feed
// @Description Registers the save and copies the workout into the acting user's library as "<owner>'s <name>". A second save answers success=false.
// @Tags Social
// @Accept json
// @Produce json
// @Param request body WorkoutActionRequest true "Acting user and workout"
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H
// @Router /social/save [post]
func (h *SocialHandler) Save(c *gin.Context) {
	req, userID, ok := bindWorkoutAction(c)
	if !ok {
		return
	}
	saved, clone, err := h.socialService.SaveWorkoutFromFeed(c.Request.Context(), userID, mustObjectID(req.WorkoutID))
	if err != nil {
		respondError(c, err, "Failed to save workout.")
		return
	}
	if !saved {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "You already have a workout with this name."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "workout": clone})
}

func (h *SocialHandler) Unsave(c *gin.Context) {
	req, userID, ok := bindWorkoutAction(c)
	if !ok {
		return
	}
	if err := h.socialService.UnsaveWorkout(c.Request.Context(), userID, mustObjectID(req.WorkoutID)); err != nil {
		respondError(c, err, "Failed to unsave workout.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Workout removed from saved."})
}

func bindWorkoutAction(c *gin.Context) (WorkoutActionRequest, string, bool) {
	var req WorkoutActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return req, "", false
	}
	userID, ok := actingUserID(c, req.UserID)
	return req, userID, ok
}
