package service

import (
	"alcyxob/fitness-social/internal/metrics"
	"alcyxob/fitness-social/internal/storage"
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// ProfileImageProvider looks up the picture the identity provider keeps for a user.
type ProfileImageProvider interface {
	ProfileImageURL(ctx context.Context, userID string) (string, error)
}

// AvatarResolver picks a user's picture: an uploaded avatar first, then the
// identity provider's image, then the placeholder. It never fails.
type AvatarResolver struct {
	files       storage.FileStorage  // optional
	provider    ProfileImageProvider // optional
	placeholder string
	urlExpiry   time.Duration
	metrics     *metrics.Manager
}

func NewAvatarResolver(files storage.FileStorage, provider ProfileImageProvider, placeholder string, urlExpiry time.Duration, metricsManager *metrics.Manager) *AvatarResolver {
	return &AvatarResolver{
		files:       files,
		provider:    provider,
		placeholder: placeholder,
		urlExpiry:   urlExpiry,
		metrics:     metricsManager,
	}
}

func (r *AvatarResolver) Resolve(ctx context.Context, userID, avatarKey string) string {
	if avatarKey != "" && r.files != nil {
		url, err := r.files.GeneratePresignedDownloadURL(ctx, avatarKey, r.urlExpiry)
		if err == nil {
			return url
		}
		r.miss("storage", userID, err)
	}
	if r.provider != nil && userID != "" {
		url, err := r.provider.ProfileImageURL(ctx, userID)
		if err == nil && url != "" {
			return url
		}
		r.miss("identity", userID, err)
	}
	return r.placeholder
}

func (r *AvatarResolver) miss(source, userID string, err error) {
	if r.metrics != nil {
		r.metrics.CounterAvatarMiss.WithLabelValues(source).Inc()
	}
	log.WithFields(log.Fields{"userId": userID, "source": source}).Debugf("avatar lookup failed: %v", err)
}
