// Package catalog implements the write-side workflows of the media platform: accounts,
// playlists, video publishing, subscriptions, likes and comments.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/media"
	"github.com/vidfriends/mediahub/internal/repositories"
)

// Uploader publishes local files to the media host.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (media.Asset, error)
	PublicID(url string) (string, bool)
}

// Cleaner schedules background removal of media assets.
type Cleaner interface {
	Enqueue(ctx context.Context, publicID string) error
}

// Option customises a Service.
type Option func(*Service)

// WithMedia enables uploads through the provided media host.
func WithMedia(uploader Uploader) Option {
	return func(s *Service) { s.uploader = uploader }
}

// WithCleaner routes replaced or orphaned assets to a background cleaner.
func WithCleaner(cleaner Cleaner) Option {
	return func(s *Service) { s.cleaner = cleaner }
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how new record identifiers are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// Service coordinates store writes with media uploads.
type Service struct {
	store    repositories.Store
	uploader Uploader
	cleaner  Cleaner
	now      func() time.Time
	newID    func() string
}

// New constructs a Service over store.
func New(store repositories.Store, opts ...Option) *Service {
	if store == nil {
		panic("catalog: store must not be nil")
	}
	s := &Service{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var errMediaUnavailable = apperr.Internal("media storage is not configured", media.ErrUnavailable)

func (s *Service) upload(ctx context.Context, localPath, what string) (media.Asset, error) {
	if s.uploader == nil {
		return media.Asset{}, errMediaUnavailable
	}
	asset, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return media.Asset{}, apperr.Internal("failed to upload "+what, err)
	}
	return asset, nil
}

// discard hands an asset to the cleaner. Missing ids and a missing cleaner are ignored.
func (s *Service) discard(ctx context.Context, publicID string) {
	if publicID == "" || s.cleaner == nil {
		return
	}
	if err := s.cleaner.Enqueue(context.WithoutCancel(ctx), publicID); err != nil {
		logging.FromContext(ctx).Warn("failed to schedule media cleanup",
			slog.String("public_id", publicID),
			slog.Any("error", err),
		)
	}
}

// discardURL resolves a stored URL back to its public id before discarding it.
func (s *Service) discardURL(ctx context.Context, url string) {
	if url == "" || s.uploader == nil {
		return
	}
	if publicID, ok := s.uploader.PublicID(url); ok {
		s.discard(ctx, publicID)
	}
}

// storeError maps repository sentinels onto caller-facing kinds.
func storeError(err error, resource, action string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(resource + " not found")
	case errors.Is(err, repositories.ErrConflict):
		return apperr.Conflict(resource + " already exists")
	default:
		return apperr.Internal("failed to "+action+" "+resource, err)
	}
}
