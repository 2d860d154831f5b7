package service

import (
	"alcyxob/fitness-social/internal/domain"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func feedIDs(feed []domain.FeedWorkout) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, len(feed))
	for i, f := range feed {
		ids[i] = f.Workout.ID
	}
	return ids
}

func TestFeed_OnlyPublicNewestFirst(t *testing.T) {
	env := newTestEnv(nil)
	env.mustUser(t, "u1", "Alice")
	env.mustUser(t, "u2", "Bob")
	older := env.mustPublic(t, "u1", "Leg Day")
	env.mustWorkout(t, "u1", "Secret Day")
	newer := env.mustPublic(t, "u2", "Push Day")

	feed, err := env.feed.Feed(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, []primitive.ObjectID{newer.ID, older.ID}, feedIDs(feed))
	assert.Equal(t, "u2", feed[0].UserID)
	assert.Equal(t, "Bob", feed[0].Name)
	assert.Equal(t, "Push Day", feed[0].Workout.Name)
}

func TestFeed_PagesAreDisjointAndContiguous(t *testing.T) {
	env := newTestEnv(nil)
	for i := 0; i < 3; i++ {
		env.mustUser(t, fmt.Sprintf("u%d", i), fmt.Sprintf("User %d", i))
	}
	for i := 0; i < 5; i++ {
		env.mustPublic(t, fmt.Sprintf("u%d", i%3), fmt.Sprintf("Workout %d", i))
	}
	ctx := context.Background()

	all, err := env.feed.Feed(ctx, 1, 50)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Equal(t, 1, bytes.Compare(all[i-1].Workout.ID[:], all[i].Workout.ID[:]))
	}

	var paged []primitive.ObjectID
	for page := 1; page <= 3; page++ {
		feed, err := env.feed.Feed(ctx, page, 2)
		require.NoError(t, err)
		paged = append(paged, feedIDs(feed)...)
	}
	assert.Equal(t, feedIDs(all), paged)

	beyond, err := env.feed.Feed(ctx, 4, 2)
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestFeed_PageDefaults(t *testing.T) {
	env := newTestEnv(nil)
	env.feed = NewFeedService(env.store, NewAvatarResolver(nil, nil, placeholderURL, 0, env.metrics), FeedConfig{
		DefaultPageSize: 2,
		MaxPageSize:     3,
	})
	env.mustUser(t, "u1", "Alice")
	for i := 0; i < 5; i++ {
		env.mustPublic(t, "u1", fmt.Sprintf("Workout %d", i))
	}
	ctx := context.Background()

	feed, err := env.feed.Feed(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, feed, 2)

	feed, err = env.feed.Feed(ctx, -3, 1000)
	require.NoError(t, err)
	assert.Len(t, feed, 3)
}

func TestFeed_JoinsCommenterNames(t *testing.T) {
	env := newTestEnv(nil)
	env.mustUser(t, "u1", "Alice")
	env.mustUser(t, "u2", "Bob")
	w := env.mustPublic(t, "u1", "Leg Day")
	ctx := context.Background()

	_, err := env.social.AddComment(ctx, "u2", w.ID, "nice")
	require.NoError(t, err)
	got, err := env.workouts.GetWorkout(ctx, "u1", w.ID)
	require.NoError(t, err)
	comments := append(got.Comments, domain.Comment{Text: "left the app", UserID: "gone"})
	_, err = env.workouts.UpdateWorkout(ctx, "u1", w.ID, WorkoutUpdate{Comments: comments})
	require.NoError(t, err)

	feed, err := env.feed.Feed(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Len(t, feed[0].Workout.Comments, 2)
	assert.Equal(t, "Bob", feed[0].Workout.Comments[0].Name)
	// a commenter without a user document keeps the row, with no name
	assert.Equal(t, "", feed[0].Workout.Comments[1].Name)
	assert.Equal(t, "left the app", feed[0].Workout.Comments[1].Text)
}

func TestFeed_AvatarChain(t *testing.T) {
	env := newTestEnv(fakeImages{"u2": "https://idp.test/u2.png"})
	env.mustUser(t, "u1", "Alice")
	env.mustUser(t, "u2", "Bob")
	env.mustUser(t, "u3", "Carol")
	ctx := context.Background()

	upload, err := env.profiles.RequestAvatarUpload(ctx, "u1", "image/png")
	require.NoError(t, err)
	require.NoError(t, env.profiles.ConfirmAvatar(ctx, "u1", upload.ObjectKey))

	w := env.mustPublic(t, "u1", "Leg Day")
	_, err = env.social.AddComment(ctx, "u2", w.ID, "nice")
	require.NoError(t, err)
	_, err = env.social.AddComment(ctx, "u3", w.ID, "ok")
	require.NoError(t, err)

	feed, err := env.feed.Feed(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "https://files.test/get/"+upload.ObjectKey, feed[0].PfpImageURL)
	assert.Equal(t, "https://idp.test/u2.png", feed[0].Workout.Comments[0].PfpImageURL)
	assert.Equal(t, placeholderURL, feed[0].Workout.Comments[1].PfpImageURL)

	// a failing presign falls through to the next source
	env.files.failGet = true
	feed, err = env.feed.Feed(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, placeholderURL, feed[0].PfpImageURL)
}

func TestFeed_StoreFailure(t *testing.T) {
	env := newTestEnv(nil)
	env.store.FailWith = errors.New("cursor died")

	_, err := env.feed.Feed(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrInternal)
}
