package api

import (
	"alcyxob/fitness-social/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Services bundles what the handlers need.
type Services struct {
	Profiles service.ProfileService
	Workouts service.WorkoutService
	Social   service.SocialService
	Feed     service.FeedService
	Avatars  *service.AvatarResolver
}

// SetupRoutes registers every route. An empty jwtSecret turns authentication
// off and userId is then taken from the request alone.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	gatherer prometheus.Gatherer,
	svc Services,
) {
	profileHandler := NewProfileHandler(svc.Profiles, svc.Avatars)
	workoutHandler := NewWorkoutHandler(svc.Workouts)
	socialHandler := NewSocialHandler(svc.Social, svc.Workouts)
	feedHandler := NewFeedHandler(svc.Feed)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	apiV1 := router.Group("/api/v1")
	if jwtSecret != "" {
		apiV1.Use(AuthMiddleware(jwtSecret))
	} else {
		log.Warn("auth.jwt_secret is empty, API authentication is disabled")
	}

	profileGroup := apiV1.Group("/profile")
	{
		profileGroup.GET("", profileHandler.GetProfile)
		profileGroup.POST("", profileHandler.UpsertProfile)
		profileGroup.DELETE("", profileHandler.DeleteProfile)

		profileGroup.POST("/favorites", profileHandler.AddFavExercise)
		profileGroup.DELETE("/favorites", profileHandler.RemoveFavExercise)

		profileGroup.POST("/avatar/upload-url", profileHandler.RequestAvatarUpload)
		profileGroup.POST("/avatar", profileHandler.ConfirmAvatar)
	}

	workoutGroup := apiV1.Group("/workouts")
	{
		workoutGroup.GET("", workoutHandler.ListWorkouts)
		workoutGroup.POST("", workoutHandler.CreateWorkout)
		workoutGroup.DELETE("", workoutHandler.DeleteAllWorkouts)

		workoutGroup.GET("/:workoutId", workoutHandler.GetWorkout)
		workoutGroup.PATCH("/:workoutId", workoutHandler.PatchWorkout)
		// PUT appends exercises
		workoutGroup.PUT("/:workoutId", workoutHandler.AppendExercises)
		workoutGroup.DELETE("/:workoutId", workoutHandler.DeleteWorkout)

		workoutGroup.DELETE("/:workoutId/exercises/:exerciseId", workoutHandler.RemoveExercise)
		workoutGroup.GET("/:workoutId/exercises/:exerciseId/sets", workoutHandler.GetExerciseSets)
		workoutGroup.PUT("/:workoutId/exercises/:exerciseId/sets", workoutHandler.UpdateExerciseSets)
	}

	socialGroup := apiV1.Group("/social")
	{
		socialGroup.POST("/like", socialHandler.Like)
		socialGroup.POST("/unlike", socialHandler.Unlike)
		socialGroup.POST("/comment", socialHandler.Comment)
		socialGroup.POST("/uncomment", socialHandler.Uncomment)
		socialGroup.POST("/publish", socialHandler.Publish)
		socialGroup.POST("/unpublish", socialHandler.Unpublish)
		socialGroup.POST("/save", socialHandler.Save)
		socialGroup.POST("/unsave", socialHandler.Unsave)
	}

	apiV1.GET("/feed", feedHandler.GetFeed)
}
