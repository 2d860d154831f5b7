package service

import (
	"alcyxob/fitness-social/internal/domain"
	"alcyxob/fitness-social/internal/repository"
	"context"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FeedConfig bounds feed paging and enrichment fan-out.
type FeedConfig struct {
	DefaultPageSize   int
	MaxPageSize       int
	EnrichConcurrency int
}

// FeedService serves the public social feed.
type FeedService interface {
	Feed(ctx context.Context, page, itemsPerPage int) ([]domain.FeedWorkout, error)
}

// feedService implements the FeedService interface.
type feedService struct {
	feedRepo repository.FeedRepository
	avatars  *AvatarResolver
	cfg      FeedConfig
}

// NewFeedService creates a new feed service. Zero config values get defaults.
func NewFeedService(feedRepo repository.FeedRepository, avatars *AvatarResolver, cfg FeedConfig) FeedService {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 10
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 50
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	if cfg.EnrichConcurrency <= 0 {
		cfg.EnrichConcurrency = 8
	}
	return &feedService{feedRepo: feedRepo, avatars: avatars, cfg: cfg}
}

// Feed returns one page of public workouts, newest first, with owner and
// commenter names and pictures filled in.
func (s *feedService) Feed(ctx context.Context, page, itemsPerPage int) ([]domain.FeedWorkout, error) {
	page, itemsPerPage = s.normalizePage(page, itemsPerPage)

	rows, err := s.feedRepo.PublicWorkouts(ctx, page, itemsPerPage)
	if err != nil {
		return nil, internalErr("Feed", err, log.Fields{"page": page, "itemsPerPage": itemsPerPage})
	}

	pictures := s.resolvePictures(ctx, rows)

	feed := make([]domain.FeedWorkout, 0, len(rows))
	for _, row := range rows {
		names := make(map[string]string, len(row.Commenters))
		for _, c := range row.Commenters {
			names[c.UserID] = c.Name
		}

		w := row.Workout
		comments := make([]domain.Comment, len(w.Comments))
		for i, c := range w.Comments {
			// unknown commenters keep an empty name
			c.Name = names[c.UserID]
			c.PfpImageURL = pictures[c.UserID]
			comments[i] = c
		}
		w.Comments = comments

		feed = append(feed, domain.FeedWorkout{
			UserID:      row.UserID,
			Name:        row.Name,
			PfpImageURL: pictures[row.UserID],
			Workout:     w,
		})
	}
	return feed, nil
}

func (s *feedService) normalizePage(page, itemsPerPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if itemsPerPage < 1 {
		itemsPerPage = s.cfg.DefaultPageSize
	}
	if itemsPerPage > s.cfg.MaxPageSize {
		itemsPerPage = s.cfg.MaxPageSize
	}
	return page, itemsPerPage
}

// resolvePictures looks up every distinct user of the page once, with at
// most EnrichConcurrency lookups in flight.
func (s *feedService) resolvePictures(ctx context.Context, rows []repository.FeedRow) map[string]string {
	avatarKeys := map[string]string{}
	order := []string{}
	add := func(userID, avatarKey string) {
		if _, seen := avatarKeys[userID]; !seen {
			order = append(order, userID)
		}
		if avatarKey != "" || avatarKeys[userID] == "" {
			avatarKeys[userID] = avatarKey
		}
	}
	for _, row := range rows {
		add(row.UserID, row.AvatarKey)
		for _, c := range row.Commenters {
			add(c.UserID, c.AvatarKey)
		}
		for _, c := range row.Workout.Comments {
			add(c.UserID, "")
		}
	}

	urls := make([]string, len(order))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EnrichConcurrency)
	for i, userID := range order {
		i, userID := i, userID
		g.Go(func() error {
			urls[i] = s.avatars.Resolve(gCtx, userID, avatarKeys[userID])
			return nil // lookups fall back to the placeholder, never fail the page
		})
	}
	_ = g.Wait()

	pictures := make(map[string]string, len(order))
	for i, userID := range order {
		pictures[userID] = urls[i]
	}
	return pictures
}
