package api

import (
	"alcyxob/fitness-social/internal/domain"
	"alcyxob/fitness-social/internal/metrics"
	"alcyxob/fitness-social/internal/repository/memory"
	"alcyxob/fitness-social/internal/service"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const placeholder = "https://img.test/placeholder.png"

func init() {
	gin.SetMode(gin.TestMode)
	logrus.SetLevel(logrus.PanicLevel)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

func newTestRouter(t *testing.T, jwtSecret string) *gin.Engine {
	t.Helper()
	store := memory.New()
	m, reg := metrics.NewTestManagerAndRegistry()
	workouts := service.NewWorkoutService(store, store)
	avatars := service.NewAvatarResolver(nil, nil, placeholder, time.Minute, m)

	router := gin.New()
	router.Use(RequestLogger(), Recovery(m), RequestMetrics(m))
	SetupRoutes(router, jwtSecret, reg, Services{
		Profiles: service.NewProfileService(store, nil, service.AvatarStorageConfig{}),
		Workouts: workouts,
		Social:   service.NewSocialService(store, store, m),
		Feed:     service.NewFeedService(store, avatars, service.FeedConfig{}),
		Avatars:  avatars,
	})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func saveProfile(t *testing.T, router *gin.Engine, userID, name string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/profile", gin.H{"userId": userID, "name": name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func createWorkout(t *testing.T, router *gin.Engine, userID, name string, exercises ...gin.H) domain.Workout {
	t.Helper()
	if exercises == nil {
		exercises = []gin.H{}
	}
	w := doJSON(t, router, http.MethodPost, "/api/v1/workouts", gin.H{
		"userId":  userID,
		"workout": gin.H{"name": name, "exercises": exercises},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.Workout](t, w)
}

func bearer(t *testing.T, secret, subject string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expires),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return "Bearer " + s
}

func TestPing(t *testing.T) {
	router := newTestRouter(t, "")
	w := doJSON(t, router, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestProfileRoutes(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/api/v1/profile", gin.H{
		"userId":  "u1",
		"name":    "Alice",
		"profile": gin.H{"age": 30, "weight": 62.5},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/profile?userId=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ProfileResponse](t, w)
	assert.Equal(t, "Alice", resp.Name)
	assert.Equal(t, 30, *resp.Profile.Age)
	assert.Len(t, resp.WeightHistory, 1)
	assert.Equal(t, placeholder, resp.PfpImageURL)

	w = doJSON(t, router, http.MethodDelete, "/api/v1/profile?userId=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/profile?userId=u1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, service.ErrUserNotFound.Title, body["title"])
	assert.Equal(t, service.ErrUserNotFound.Message, body["message"])
}

func TestProfileRoutes_BadInput(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/api/v1/profile", gin.H{"userId": "u1", "name": "Alice", "profile": gin.H{"age": 5}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/profile", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	saveProfile(t, router, "u1", "Alice")
	w = doJSON(t, router, http.MethodPost, "/api/v1/profile/avatar/upload-url", gin.H{"userId": "u1", "contentType": "image/png"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestFavoriteRoutes(t *testing.T) {
	router := newTestRouter(t, "")
	saveProfile(t, router, "u1", "Alice")

	w := doJSON(t, router, http.MethodPost, "/api/v1/profile/favorites", gin.H{"userId": "u1", "exerciseId": "0001"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, w)["success"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/profile/favorites", gin.H{"userId": "u1", "exerciseId": "0001"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]interface{}](t, w)["success"])

	w = doJSON(t, router, http.MethodDelete, "/api/v1/profile/favorites?userId=u1&exerciseId=0001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, w)["success"])
}

func TestWorkoutRoutes(t *testing.T) {
	router := newTestRouter(t, "")
	saveProfile(t, router, "u1", "Alice")

	workout := createWorkout(t, router, "u1", "Leg Day", gin.H{"id": "0043", "name": "barbell full squat"})
	require.Len(t, workout.Exercises, 1)
	base := "/api/v1/workouts/" + workout.ID.Hex()
	setsPath := base + "/exercises/" + workout.Exercises[0].ID.Hex() + "/sets"

	flat := []gin.H{{"reps": 10, "weight": 3}, {"reps": 10, "weight": 5}, {"reps": 10, "weight": 3}}
	w := doJSON(t, router, http.MethodPut, setsPath, gin.H{"userId": "u1", "sets": flat})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, setsPath+"?userId=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sets := decode[SetsResponse](t, w)
	assert.Equal(t, []domain.PerformedSet{{Reps: 10, Weight: 3}, {Reps: 10, Weight: 5}, {Reps: 10, Weight: 3}}, sets.Sets)

	w = doJSON(t, router, http.MethodPatch, base, gin.H{"userId": "u1", "name": "Heavy Leg Day"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Heavy Leg Day", decode[domain.Workout](t, w).Name)

	w = doJSON(t, router, http.MethodPut, base, gin.H{"userId": "u1", "exerciseArr": []gin.H{{"id": "0025", "name": "bench press"}}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[domain.Workout](t, w).Exercises, 2)

	w = doJSON(t, router, http.MethodDelete, base+"?userId=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, base+"?userId=u1", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, service.ErrWorkoutNotFound.Title, decode[map[string]string](t, w)["title"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/workouts/not-an-id?userId=u1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAllWorkouts_NothingToDelete(t *testing.T) {
	router := newTestRouter(t, "")
	saveProfile(t, router, "u1", "Alice")

	w := doJSON(t, router, http.MethodDelete, "/api/v1/workouts?userId=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode[map[string]interface{}](t, w)["deleted"])

	w = doJSON(t, router, http.MethodDelete, "/api/v1/workouts?userId=ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSocialRoutes(t *testing.T) {
	router := newTestRouter(t, "")
	saveProfile(t, router, "u1", "Alice")
	saveProfile(t, router, "u2", "Bob")
	workout := createWorkout(t, router, "u1", "Leg Day")
	action := gin.H{"userId": "u2", "workoutId": workout.ID.Hex()}

	w := doJSON(t, router, http.MethodPost, "/api/v1/social/publish", gin.H{"userId": "u1", "workoutId": workout.ID.Hex()})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[domain.Workout](t, w).Public)

	for i := 0; i < 2; i++ {
		w = doJSON(t, router, http.MethodPost, "/api/v1/social/like", action)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decode[map[string]interface{}](t, w)["likes"])
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/social/comment", gin.H{"userId": "u2", "workoutId": workout.ID.Hex(), "text": " "})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]interface{}](t, w)["success"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/social/comment", gin.H{"userId": "u2", "workoutId": workout.ID.Hex(), "text": "nice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, w)["success"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/social/save", action)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]interface{}](t, w)["success"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/social/save", action)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode[map[string]interface{}](t, w)["success"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/feed?page=1&itemsPerPage=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decode[[]domain.FeedWorkout](t, w)
	require.Len(t, feed, 1)
	assert.Equal(t, "Alice", feed[0].Name)
	assert.Equal(t, placeholder, feed[0].PfpImageURL)
	require.Len(t, feed[0].Workout.Comments, 1)
	assert.Equal(t, "Bob", feed[0].Workout.Comments[0].Name)

	w = doJSON(t, router, http.MethodPost, "/api/v1/social/like", gin.H{"userId": "ghost", "workoutId": workout.ID.Hex()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSocialRoutes_InvalidObjectID(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/api/v1/social/like", gin.H{"userId": "u2", "workoutId": "xyz"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/social/uncomment", gin.H{"workoutId": "65a000000000000000000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuth(t *testing.T) {
	const secret = "test-secret"
	router := newTestRouter(t, secret)

	sign := func(subject string, expires time.Time) string {
		return bearer(t, secret, subject, expires)
	}
	valid := sign("u1", time.Now().Add(time.Hour))

	w := doJSON(t, router, http.MethodGet, "/api/v1/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/profile", nil, "Authorization", sign("u1", time.Now().Add(-time.Minute)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// userId defaults to the token subject
	w = doJSON(t, router, http.MethodPost, "/api/v1/profile", gin.H{"name": "Alice"}, "Authorization", valid)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(t, router, http.MethodGet, "/api/v1/profile", nil, "Authorization", valid)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", decode[ProfileResponse](t, w).UserID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/profile?userId=u2", nil, "Authorization", valid)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// health and metrics stay open
	w = doJSON(t, router, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, "")
	doJSON(t, router, http.MethodGet, "/ping", nil)

	w := doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `fitness_test_server_request{method="GET",route="/ping",status="200"} 1`)
}

func TestUncomment_WithAuth(t *testing.T) {
	const secret = "test-secret"
	router := newTestRouter(t, secret)
	expires := time.Now().Add(time.Hour)
	alice := bearer(t, secret, "u1", expires)
	bob := bearer(t, secret, "u2", expires)
	carol := bearer(t, secret, "u3", expires)

	for token, name := range map[string]string{alice: "Alice", bob: "Bob", carol: "Carol"} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/profile", gin.H{"name": name}, "Authorization", token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/workouts", gin.H{"workout": gin.H{"name": "Leg Day"}}, "Authorization", alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	workoutID := decode[domain.Workout](t, w).ID.Hex()

	w = doJSON(t, router, http.MethodPost, "/api/v1/social/publish", gin.H{"workoutId": workoutID}, "Authorization", alice)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/v1/social/comment", gin.H{"workoutId": workoutID, "text": "nice"}, "Authorization", bob)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/workouts/"+workoutID, nil, "Authorization", alice)
	require.Equal(t, http.StatusOK, w.Code)
	comments := decode[domain.Workout](t, w).Comments
	require.Len(t, comments, 1)
	body := gin.H{"workoutId": workoutID, "commentId": comments[0].ID.Hex()}

	w = doJSON(t, router, http.MethodPost, "/api/v1/social/uncomment", body, "Authorization", carol)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/social/uncomment", body, "Authorization", bob)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSave_PrivateWorkoutNotFound(t *testing.T) {
	router := newTestRouter(t, "")
	saveProfile(t, router, "u1", "Alice")
	saveProfile(t, router, "u2", "Bob")
	workout := createWorkout(t, router, "u1", "Secret Plan")

	w := doJSON(t, router, http.MethodPost, "/api/v1/social/save", gin.H{"userId": "u2", "workoutId": workout.ID.Hex()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
