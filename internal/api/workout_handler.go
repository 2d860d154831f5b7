package api

import (
	"alcyxob/fitness-social/internal/domain"
	"alcyxob/fitness-social/internal/service"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

// --- DTOs ---

type WorkoutPayload struct {
	Name      string            `json:"name" binding:"required,max=100"`
	Exercises []domain.Exercise `json:"exercises"`
}

type CreateWorkoutRequest struct {
	UserID  string         `json:"userId"`
	Workout WorkoutPayload `json:"workout"`
}

// PatchWorkoutRequest carries only the fields to change.
type PatchWorkoutRequest struct {
	UserID   string            `json:"userId"`
	Name     *string           `json:"name" binding:"omitempty,max=100"`
	Public   *bool             `json:"public"`
	Comments *[]domain.Comment `json:"comments"`
}

type AppendExercisesRequest struct {
	UserID      string            `json:"userId"`
	ExerciseArr []domain.Exercise `json:"exerciseArr" binding:"required,min=1"`
}

type UpdateSetsRequest struct {
	UserID string                `json:"userId"`
	Sets   []domain.PerformedSet `json:"sets" binding:"required"`
}

type SetsResponse struct {
	ExerciseID string                `json:"exerciseId"`
	Sets       []domain.PerformedSet `json:"sets"`
}

// --- Handler Methods ---

// ListWorkouts godoc
// @Summary List my workouts
// @Tags Workouts
// @Produce json
// @Param userId query string false "Identity-provider user id"
// @Success 200 {array} domain.Workout
// @Failure 404 {object} gin.H "User not found"
// @Router /workouts [get]
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	userID, ok := actingUserID(c, c.Query("userId"))
	if !ok {
		return
	}
	workouts, err := h.workoutService.ListWorkouts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve workouts.")
		return
	}
	c.JSON(http.StatusOK, workouts)
}

// CreateWorkout godoc
// @Summary Create a workout
// @Description New workouts are private and get fresh ids for themselves and every exercise.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param workout body CreateWorkoutRequest true "Workout"
// @Success 201 {object} domain.Workout
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 404 {object} gin.H "User not found"
// @Router /workouts [post]
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	var req CreateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := actingUserID(c, req.UserID)
	if !ok {
		return
	}
	workout, err := h.workoutService.CreateWorkout(c.Request.Context(), userID, service.WorkoutInput{
		Name:      req.Workout.Name,
		Exercises: req.Workout.Exercises,
	})
	if err != nil {
		respondError(c, err, "Failed to create workout.")
		return
	}
	c.JSON(http.StatusCreated, workout)
}

// DeleteAllWorkouts answers 200 even when there was nothing to delete.
func (h *WorkoutHandler) DeleteAllWorkouts(c *gin.Context) {
	userID, ok := actingUserID(c, c.Query("userId"))
	if !ok {
		return
	}
	n, err := h.workoutService.DeleteAllWorkouts(c.Request.Context(), userID)
	if errors.Is(err, service.ErrNoWorkouts) {
		c.JSON(http.StatusOK, gin.H{"deleted": 0, "message": "You have no workouts to delete."})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to delete workouts.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n, "message": "All workouts deleted."})
}

func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	userID, ok := actingUserID(c, c.Query("userId"))
	if !ok {
		return
	}
	workout, err := h.workoutService.GetWorkout(c.Request.Context(), userID, workoutID)
	if err != nil {
		respondError(c, err, "Failed to retrieve workout.")
		return
	}
	c.JSON(http.StatusOK, workout)
}

// PatchWorkout godoc
// @Summary Update name, visibility or comments of a workout
// @Tags Workouts
// @Accept json
// @Produce json
// @Param workoutId path string true "Workout ObjectID Hex"
// @Param patch body PatchWorkoutRequest true "Fields to change"
// @Success 200 {object} domain.Workout
// @Failure 400 {object} gin.H
// @Failure 404 {object} gin.H
// @Router /workouts/{workoutId} [patch]
func (h *WorkoutHandler) PatchWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	var req PatchWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := actingUserID(c, req.UserID)
	if !ok {
		return
	}

	update := service.WorkoutUpdate{Name: req.Name, Public: req.Public}
	if req.Comments != nil {
		update.Comments = nonNil(*req.Comments)
	}
	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), userID, workoutID, update)
	if err != nil {
		respondError(c, err, "Failed to update workout.")
		return
	}
	c.JSON(http.StatusOK, workout)
}

// AppendExercises adds exercises to the end of a workout.
func (h *WorkoutHandler) AppendExercises(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	var req AppendExercisesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := actingUserID(c, req.UserID)
	if !ok {
		return
	}
	workout, err := h.workoutService.UpdateWorkout(c.Request.Context(), userID, workoutID, service.WorkoutUpdate{
		ExerciseArr: req.ExerciseArr,
	})
	if err != nil {
		respondError(c, err, "Failed to add exercises.")
		return
	}
	c.JSON(http.StatusOK, workout)
}

func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	userID, ok := actingUserID(c, c.Query("userId"))
	if !ok {
		return
	}
	if err := h.workoutService.DeleteWorkout(c.Request.Context(), userID, workoutID); err != nil {
		respondError(c, err, "Failed to delete workout.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Workout deleted."})
}

func (h *WorkoutHandler) RemoveExercise(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	exerciseID, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	userID, ok := actingUserID(c, c.Query("userId"))
	if !ok {
		return
	}
	if err := h.workoutService.RemoveExercise(c.Request.Context(), userID, workoutID, exerciseID); err != nil {
		respondError(c, err, "Failed to remove exercise.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Exercise removed."})
}

// GetExerciseSets returns the sets one by one, in the order they were performed.
func (h *WorkoutHandler) GetExerciseSets(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	exerciseID, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	userID, ok := actingUserID(c, c.Query("userId"))
	if !ok {
		return
	}
	groups, err := h.workoutService.ExerciseSets(c.Request.Context(), userID, workoutID, exerciseID)
	if err != nil {
		respondError(c, err, "Failed to retrieve sets.")
		return
	}
	c.JSON(http.StatusOK, SetsResponse{ExerciseID: exerciseID.Hex(), Sets: domain.FlattenSets(groups)})
}

// UpdateExerciseSets godoc
// @Summary Replace the sets of an exercise
// @Description Takes one entry per performed set; consecutive identical sets are stored as one group.
// @Tags Workouts
// @Accept json
// @Produce json
// @Param workoutId path string true "Workout ObjectID Hex"
// @Param exerciseId path string true "Exercise ObjectID Hex"
// @Param sets body UpdateSetsRequest true "Sets"
// @Success 200 {object} SetsResponse
// @Failure 404 {object} gin.H "User, workout or exercise not found"
// @Router /workouts/{workoutId}/exercises/{exerciseId}/sets [put]
func (h *WorkoutHandler) UpdateExerciseSets(c *gin.Context) {
	workoutID, ok := objectIDParam(c, "workoutId")
	if !ok {
		return
	}
	exerciseID, ok := objectIDParam(c, "exerciseId")
	if !ok {
		return
	}
	var req UpdateSetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	userID, ok := actingUserID(c, req.UserID)
	if !ok {
		return
	}

	groups := domain.ReconstructSets(req.Sets)
	if err := h.workoutService.UpdateExerciseSets(c.Request.Context(), userID, workoutID, exerciseID, groups); err != nil {
		respondError(c, err, "Failed to update sets.")
		return
	}
	c.JSON(http.StatusOK, SetsResponse{ExerciseID: exerciseID.Hex(), Sets: domain.FlattenSets(groups)})
}

// objectIDParam parses a path parameter, answering 400 when it is malformed.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}
