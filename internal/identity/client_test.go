package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/users/user_1":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"user_1","image_url":"https://img.example.com/u1.png","has_image":true}`))
		case "/users/user_noimg":
			_, _ = w.Write([]byte(`{"id":"user_noimg","image_url":"https://img.example.com/default.png","has_image":false}`))
		case "/users/user_broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ProfileImageURL(t *testing.T) {
	var calls int32
	srv := newTestServer(t, &calls)
	c := NewClient(srv.URL+"/", "key", 1, time.Minute, srv.Client())

	got, err := c.ProfileImageURL(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/u1.png", got)

	// second lookup is served from the cache
	got, err = c.ProfileImageURL(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/u1.png", got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_NoImageIsCached(t *testing.T) {
	var calls int32
	srv := newTestServer(t, &calls)
	c := NewClient(srv.URL, "key", 1, time.Minute, srv.Client())

	_, err := c.ProfileImageURL(context.Background(), "user_noimg")
	assert.ErrorIs(t, err, ErrNoImage)
	_, err = c.ProfileImageURL(context.Background(), "user_noimg")
	assert.ErrorIs(t, err, ErrNoImage)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = c.ProfileImageURL(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestClient_ServerErrorNotCached(t *testing.T) {
	var calls int32
	srv := newTestServer(t, &calls)
	c := NewClient(srv.URL, "key", 1, time.Minute, srv.Client())

	_, err := c.ProfileImageURL(context.Background(), "user_broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoImage)

	_, err = c.ProfileImageURL(context.Background(), "user_broken")
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
