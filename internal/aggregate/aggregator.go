// Package aggregate assembles denormalized read models from the entity store.
//
// Every pipeline follows the same normalization rules: to-many relations are returned
// as empty slices rather than nil, single relations resolved through a list lookup
// collapse to the first match (or nil), and caller-chosen ordering is applied as a
// stable single-key sort before projection.
package aggregate

import (
	"context"
	"errors"
	"time"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/models"
	"github.com/vidfriends/mediahub/internal/repositories"
)

// DefaultHistoryLimit bounds a user's watch history when no limit is configured.
const DefaultHistoryLimit = 100

// Store is the read surface the aggregator joins across, plus the two side-effect
// writes performed while reading a video.
type Store interface {
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	FindUsers(ctx context.Context, ids []string) ([]models.User, error)
	PromoteWatchHistory(ctx context.Context, userID, videoID string, limit int, at time.Time) error
	WatchHistory(ctx context.Context, userID string) ([]string, error)

	FindVideo(ctx context.Context, id string) (models.Video, error)
	FindVideos(ctx context.Context, ids []string) ([]models.Video, error)
	ListVideosByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	IncrementVideoViews(ctx context.Context, id string) (bool, error)

	FindPlaylist(ctx context.Context, id string) (models.Playlist, error)
	ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)

	ListSubscriptionsByChannel(ctx context.Context, channelID string) ([]models.Subscription, error)
	ListSubscriptionsBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
	ListLikes(ctx context.Context, target models.LikeTarget) ([]models.Like, error)
	ListCommentsByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
}

// Option customises an Aggregator.
type Option func(*Aggregator)

// WithHistoryLimit bounds the watch history kept per user.
func WithHistoryLimit(limit int) Option {
	return func(a *Aggregator) {
		if limit > 0 {
			a.historyLimit = limit
		}
	}
}

// WithClock overrides the time source used for watch-history timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// Aggregator builds read-model projections over a Store.
type Aggregator struct {
	store        Store
	historyLimit int
	now          func() time.Time
}

// New constructs an Aggregator.
func New(store Store, opts ...Option) *Aggregator {
	if store == nil {
		panic("aggregate: store must not be nil")
	}
	a := &Aggregator{
		store:        store,
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// profiles resolves the public profiles of the listed users, keyed by id.
func (a *Aggregator) profiles(ctx context.Context, ids []string) (map[string]models.OwnerProfile, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	index := make(map[string]models.OwnerProfile, len(unique))
	if len(unique) == 0 {
		return index, nil
	}

	users, err := a.store.FindUsers(ctx, unique)
	if err != nil {
		return nil, apperr.Internal("failed to load users", err)
	}
	for _, user := range users {
		if _, ok := index[user.ID]; !ok {
			index[user.ID] = user.Public()
		}
	}
	return index, nil
}

// profileOf collapses a lookup result to a single optional profile.
func profileOf(index map[string]models.OwnerProfile, id string) *models.OwnerProfile {
	profile, ok := index[id]
	if !ok {
		return nil
	}
	return &profile
}

// joinVideos loads the videos in ids order, dropping ids with no video and those
// rejected by keep, and attaches each owner's profile.
func (a *Aggregator) joinVideos(ctx context.Context, ids []string, keep func(models.Video) bool) ([]models.VideoView, error) {
	views := make([]models.VideoView, 0, len(ids))
	if len(ids) == 0 {
		return views, nil
	}

	videos, err := a.store.FindVideos(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("failed to load videos", err)
	}
	byID := make(map[string]models.Video, len(videos))
	ownerIDs := make([]string, 0, len(videos))
	for _, video := range videos {
		byID[video.ID] = video
		ownerIDs = append(ownerIDs, video.OwnerID)
	}

	owners, err := a.profiles(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		video, ok := byID[id]
		if !ok {
			continue
		}
		if keep != nil && !keep(video) {
			continue
		}
		views = append(views, models.NewVideoView(video, profileOf(owners, video.OwnerID)))
	}
	return views, nil
}

// lookupError maps a store miss on resource to NotFound and anything else to Internal.
func lookupError(err error, resource string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound(resource + " not found")
	}
	return apperr.Internal("failed to load "+resource, err)
}
