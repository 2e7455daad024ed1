package repositories

import (
	"context"
	"time"

	"github.com/vidfriends/mediahub/internal/models"
)

// PlaylistRepository exposes data access for playlists and their video membership.
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist models.Playlist) error
	FindPlaylist(ctx context.Context, id string) (models.Playlist, error)
	ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	UpdatePlaylistDetails(ctx context.Context, id, title, description string, at time.Time) (models.Playlist, error)
	DeletePlaylist(ctx context.Context, id string) error
	// AddPlaylistVideo appends the video unless present and reports whether it was added.
	AddPlaylistVideo(ctx context.Context, playlistID, videoID string, at time.Time) (bool, error)
	// RemovePlaylistVideo reports whether the video was present.
	RemovePlaylistVideo(ctx context.Context, playlistID, videoID string, at time.Time) (bool, error)
}
