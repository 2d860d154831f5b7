// Package identity talks to the external identity provider's user API.
// Only the profile picture is read from it.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const megabyte = 1024 * 1024

// ErrNoImage means the provider knows no picture for the user.
var ErrNoImage = errors.New("identity: no profile image")

type userResponse struct {
	ImageURL string `json:"image_url"`
	HasImage *bool  `json:"has_image,omitempty"`
}

// Client resolves profile image URLs and keeps them in a freecache.
// Users without an image are cached too, as an empty value.
type Client struct {
	cache      *freecache.Cache
	cacheTTL   int // seconds
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, cacheSizeMB int, cacheTTL time.Duration, httpClient *http.Client) *Client {
	if cacheSizeMB <= 0 {
		cacheSizeMB = 1
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{
		cache:      freecache.NewCache(cacheSizeMB * megabyte),
		cacheTTL:   int(cacheTTL.Seconds()),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// ProfileImageURL returns the picture URL the provider stores for userID.
func (c *Client) ProfileImageURL(ctx context.Context, userID string) (string, error) {
	cacheKey := []byte("pfp::" + userID)
	if cached, err := c.cache.Get(cacheKey); err == nil {
		log.Tracef("profile image of %s found in cache", userID)
		if len(cached) == 0 {
			return "", ErrNoImage
		}
		return string(cached), nil
	}

	imageURL, err := c.fetch(ctx, userID)
	if err != nil && !errors.Is(err, ErrNoImage) {
		return "", err
	}

	if setErr := c.cache.Set(cacheKey, []byte(imageURL), c.cacheTTL); setErr != nil {
		log.Errorf("failed to cache profile image of %s: %s", userID, setErr)
	}
	if imageURL == "" {
		return "", ErrNoImage
	}
	return imageURL, nil
}

func (c *Client) fetch(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoImage
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read identity response: %w", err)
	}
	var user userResponse
	if err := json.Unmarshal(respBytes, &user); err != nil {
		return "", fmt.Errorf("unmarshal identity response: %w", err)
	}
	if user.ImageURL == "" || (user.HasImage != nil && !*user.HasImage) {
		return "", ErrNoImage
	}
	return user.ImageURL, nil
}
