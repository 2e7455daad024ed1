package aggregate

import (
	"context"
	"sort"
	"strings"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/models"
)

// SortOrder selects the direction of a caller-chosen sort.
type SortOrder string

const (
	SortLatest SortOrder = "latest"
	SortOldest SortOrder = "oldest"
)

// ParseSortOrder reads a sort order, defaulting to latest.
func ParseSortOrder(raw string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SortLatest:
		return SortLatest, nil
	case SortOldest:
		return SortOldest, nil
	default:
		return "", apperr.BadRequest("sort must be latest or oldest")
	}
}

// PlaylistWithVideos joins a playlist with its videos and their owners. It does not
// check ownership; callers exposing the result must apply authz.IsOwner to OwnerID.
func (a *Aggregator) PlaylistWithVideos(ctx context.Context, playlistID string) (models.PlaylistWithVideos, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.playlist_with_videos")
	defer span.End()

	playlist, err := a.findPlaylist(ctx, playlistID)
	if err != nil {
		return models.PlaylistWithVideos{}, err
	}
	return a.expandPlaylist(ctx, playlist)
}

// PlaylistWithVideosFor checks that the principal owns the playlist before running
// the join, so nothing beyond the header is read for other callers.
func (a *Aggregator) PlaylistWithVideosFor(ctx context.Context, principal *authz.Principal, playlistID string) (models.PlaylistWithVideos, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.playlist_with_videos")
	defer span.End()

	playlist, err := a.findPlaylist(ctx, playlistID)
	if err != nil {
		return models.PlaylistWithVideos{}, err
	}
	if !authz.IsOwner(principal, playlist.OwnerID) {
		return models.PlaylistWithVideos{}, apperr.Unauthorized("unauthorized request, you don't own this playlist")
	}
	return a.expandPlaylist(ctx, playlist)
}

func (a *Aggregator) findPlaylist(ctx context.Context, playlistID string) (models.Playlist, error) {
	if !authz.ValidID(playlistID) {
		return models.Playlist{}, apperr.BadRequest("playlist id is invalid")
	}
	playlist, err := a.store.FindPlaylist(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, lookupError(err, "playlist")
	}
	return playlist, nil
}

func (a *Aggregator) expandPlaylist(ctx context.Context, playlist models.Playlist) (models.PlaylistWithVideos, error) {
	videos, err := a.joinVideos(ctx, playlist.VideoIDs, nil)
	if err != nil {
		return models.PlaylistWithVideos{}, err
	}
	return projectPlaylist(playlist, videos), nil
}

func projectPlaylist(playlist models.Playlist, videos []models.VideoView) models.PlaylistWithVideos {
	if videos == nil {
		videos = []models.VideoView{}
	}
	return models.PlaylistWithVideos{
		ID:          playlist.ID,
		Title:       playlist.Title,
		Description: playlist.Description,
		OwnerID:     playlist.OwnerID,
		Videos:      videos,
		CreatedAt:   playlist.CreatedAt,
		UpdatedAt:   playlist.UpdatedAt,
	}
}

// UserPlaylists lists the user's playlists with their videos, ordered by last update.
// Only the user may list their own playlists.
func (a *Aggregator) UserPlaylists(ctx context.Context, principal *authz.Principal, userID string, order SortOrder) ([]models.PlaylistWithVideos, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.user_playlists")
	defer span.End()

	playlists, err := a.ownedPlaylists(ctx, principal, userID)
	if err != nil {
		return nil, err
	}

	var videoIDs []string
	for _, playlist := range playlists {
		videoIDs = append(videoIDs, playlist.VideoIDs...)
	}
	// One batched join for every playlist, then split back out per playlist.
	joined, err := a.joinVideos(ctx, videoIDs, nil)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.VideoView, len(joined))
	for _, view := range joined {
		byID[view.ID] = view
	}

	sort.SliceStable(playlists, func(i, j int) bool {
		if order == SortOldest {
			return playlists[i].UpdatedAt.Before(playlists[j].UpdatedAt)
		}
		return playlists[i].UpdatedAt.After(playlists[j].UpdatedAt)
	})

	results := make([]models.PlaylistWithVideos, 0, len(playlists))
	for _, playlist := range playlists {
		videos := make([]models.VideoView, 0, len(playlist.VideoIDs))
		for _, id := range playlist.VideoIDs {
			if view, ok := byID[id]; ok {
				videos = append(videos, view)
			}
		}
		results = append(results, projectPlaylist(playlist, videos))
	}
	return results, nil
}

// UserPlaylistNames lists the id and title of each of the user's playlists.
func (a *Aggregator) UserPlaylistNames(ctx context.Context, principal *authz.Principal, userID string) ([]models.PlaylistSummary, error) {
	playlists, err := a.ownedPlaylists(ctx, principal, userID)
	if err != nil {
		return nil, err
	}

	names := make([]models.PlaylistSummary, 0, len(playlists))
	for _, playlist := range playlists {
		names = append(names, models.PlaylistSummary{ID: playlist.ID, Title: playlist.Title})
	}
	return names, nil
}

// PlaylistsContainingVideo lists the principal's playlists flagged by whether each
// already holds the video.
func (a *Aggregator) PlaylistsContainingVideo(ctx context.Context, principal *authz.Principal, videoID string) ([]models.PlaylistMembership, error) {
	if !authz.ValidID(videoID) {
		return nil, apperr.BadRequest("video id is invalid")
	}
	if principal == nil {
		return nil, apperr.Unauthorized("unauthorized request")
	}

	playlists, err := a.ownedPlaylists(ctx, principal, principal.ID)
	if err != nil {
		return nil, err
	}

	memberships := make([]models.PlaylistMembership, 0, len(playlists))
	for _, playlist := range playlists {
		memberships = append(memberships, models.PlaylistMembership{
			ID:            playlist.ID,
			Title:         playlist.Title,
			ContainsVideo: playlist.Contains(videoID),
		})
	}
	return memberships, nil
}

func (a *Aggregator) ownedPlaylists(ctx context.Context, principal *authz.Principal, userID string) ([]models.Playlist, error) {
	if !authz.ValidID(userID) {
		return nil, apperr.BadRequest("user id is invalid")
	}
	if !authz.IsOwner(principal, userID) {
		return nil, apperr.Unauthorized("unauthorized access")
	}

	playlists, err := a.store.ListPlaylistsByOwner(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load playlists", err)
	}
	return playlists, nil
}
