package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/models"
	"github.com/vidfriends/mediahub/internal/repositories"
)

// PlaylistInput carries the caller-editable playlist fields.
type PlaylistInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	VideoIDs    []string `json:"videos"`
}

// MembershipResult reports the outcome of adding a video to a playlist.
type MembershipResult struct {
	PlaylistID string          `json:"playlistId"`
	Added      bool            `json:"added"`
	Message    string          `json:"message"`
	Playlist   *models.Playlist `json:"-"`
}

const (
	messageVideoAdded     = "video added to playlist"
	messageAlreadyPresent = "video already in playlist"
)

var errNotPlaylistOwner = apperr.Unauthorized("unauthorized request, you don't own this playlist")

// CreatePlaylist stores a new playlist owned by the principal.
func (s *Service) CreatePlaylist(ctx context.Context, principal *authz.Principal, in PlaylistInput) (models.Playlist, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.CreatePlaylist")
	defer span.End()

	if principal == nil {
		return models.Playlist{}, apperr.Unauthorized("unauthorized request")
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return models.Playlist{}, apperr.BadRequest("title and description are required")
	}
	for _, id := range in.VideoIDs {
		if !authz.ValidID(id) {
			return models.Playlist{}, apperr.BadRequest("invalid video id")
		}
	}

	now := s.now()
	playlist := models.Playlist{
		ID:          s.newID(),
		OwnerID:     principal.ID,
		Title:       title,
		Description: description,
		VideoIDs:    dedupe(in.VideoIDs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreatePlaylist(ctx, playlist); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Playlist{}, apperr.NotFound("video not found")
		}
		return models.Playlist{}, storeError(err, "playlist", "create")
	}
	return playlist, nil
}

// UpdatePlaylist replaces the title and description of an owned playlist.
// Blank fields keep their current value.
func (s *Service) UpdatePlaylist(ctx context.Context, principal *authz.Principal, playlistID string, in PlaylistInput) (models.Playlist, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.UpdatePlaylist")
	defer span.End()

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" && description == "" {
		return models.Playlist{}, apperr.BadRequest("title or description is required")
	}

	playlist, err := s.ownedPlaylist(ctx, principal, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}
	if title == "" {
		title = playlist.Title
	}
	if description == "" {
		description = playlist.Description
	}

	updated, err := s.store.UpdatePlaylistDetails(ctx, playlist.ID, title, description, s.now())
	if err != nil {
		return models.Playlist{}, storeError(err, "playlist", "update")
	}
	return updated, nil
}

// DeletePlaylist removes an owned playlist.
func (s *Service) DeletePlaylist(ctx context.Context, principal *authz.Principal, playlistID string) error {
	ctx, span := logging.StartSpan(ctx, "catalog.DeletePlaylist")
	defer span.End()

	playlist, err := s.ownedPlaylist(ctx, principal, playlistID)
	if err != nil {
		return err
	}
	if err := s.store.DeletePlaylist(ctx, playlist.ID); err != nil {
		return storeError(err, "playlist", "delete")
	}
	return nil
}

// AddVideoToPlaylist appends a video to an owned playlist. A video that is already
// listed yields a result with Added false rather than an error.
func (s *Service) AddVideoToPlaylist(ctx context.Context, principal *authz.Principal, playlistID, videoID string) (MembershipResult, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.AddVideoToPlaylist")
	defer span.End()

	if !authz.ValidID(videoID) {
		return MembershipResult{}, apperr.BadRequest("invalid video id")
	}
	playlist, err := s.ownedPlaylist(ctx, principal, playlistID)
	if err != nil {
		return MembershipResult{}, err
	}
	if _, err := s.store.FindVideo(ctx, videoID); err != nil {
		return MembershipResult{}, storeError(err, "video", "load")
	}

	result := MembershipResult{PlaylistID: playlist.ID, Message: messageAlreadyPresent}
	if playlist.Contains(videoID) {
		result.Playlist = &playlist
		return result, nil
	}

	added, err := s.store.AddPlaylistVideo(ctx, playlist.ID, videoID, s.now())
	if err != nil {
		return MembershipResult{}, storeError(err, "playlist", "update")
	}
	if added {
		result.Added = true
		result.Message = messageVideoAdded
	}

	updated, err := s.store.FindPlaylist(ctx, playlist.ID)
	if err != nil {
		return MembershipResult{}, storeError(err, "playlist", "load")
	}
	result.Playlist = &updated
	return result, nil
}

// RemoveVideoFromPlaylist drops a video from an owned playlist. Removing an absent
// video succeeds and leaves the playlist unchanged.
func (s *Service) RemoveVideoFromPlaylist(ctx context.Context, principal *authz.Principal, playlistID, videoID string) (models.Playlist, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.RemoveVideoFromPlaylist")
	defer span.End()

	if !authz.ValidID(videoID) {
		return models.Playlist{}, apperr.BadRequest("invalid video id")
	}
	playlist, err := s.ownedPlaylist(ctx, principal, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}

	removed, err := s.store.RemovePlaylistVideo(ctx, playlist.ID, videoID, s.now())
	if err != nil {
		return models.Playlist{}, storeError(err, "playlist", "update")
	}
	if !removed {
		return playlist, nil
	}

	updated, err := s.store.FindPlaylist(ctx, playlist.ID)
	if err != nil {
		return models.Playlist{}, storeError(err, "playlist", "load")
	}
	return updated, nil
}

func (s *Service) ownedPlaylist(ctx context.Context, principal *authz.Principal, playlistID string) (models.Playlist, error) {
	if !authz.ValidID(playlistID) {
		return models.Playlist{}, apperr.BadRequest("invalid playlist id")
	}
	playlist, err := s.store.FindPlaylist(ctx, playlistID)
	if err != nil {
		return models.Playlist{}, storeError(err, "playlist", "load")
	}
	if !authz.IsOwner(principal, playlist.OwnerID) {
		return models.Playlist{}, errNotPlaylistOwner
	}
	return playlist, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
