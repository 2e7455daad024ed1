package repositories

import (
	"context"
	"time"

	"github.com/vidfriends/mediahub/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	CreateVideo(ctx context.Context, video models.Video) error
	FindVideo(ctx context.Context, id string) (models.Video, error)
	FindVideos(ctx context.Context, ids []string) ([]models.Video, error)
	ListVideosByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	// IncrementVideoViews reports whether a video matched the id.
	IncrementVideoViews(ctx context.Context, id string) (bool, error)
	UpdateVideoDetails(ctx context.Context, id, title, description string, at time.Time) (models.Video, error)
	UpdateVideoThumbnail(ctx context.Context, id, url, publicID string, at time.Time) (models.Video, error)
	SetVideoPublished(ctx context.Context, id string, published bool, at time.Time) (models.Video, error)
	// DeleteVideo removes the video along with its playlist entries, likes and history entries.
	DeleteVideo(ctx context.Context, id string) error
}
