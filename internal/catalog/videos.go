package catalog

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/media"
	"github.com/vidfriends/mediahub/internal/models"
)

// VisibilityPublic marks a newly published video as visible to everyone.
const VisibilityPublic = "public"

// PublishInput describes a video upload. The paths point at files staged on local disk.
type PublishInput struct {
	Title         string
	Description   string
	Visibility    string
	VideoPath     string
	ThumbnailPath string
	PlaylistIDs   []string
}

// PublishResult is the stored video plus the outcome of each requested playlist addition.
type PublishResult struct {
	Video     models.VideoView   `json:"video"`
	Playlists []MembershipResult `json:"playlists"`
}

// VideoUpdate carries editable video fields. Blank fields are left unchanged.
type VideoUpdate struct {
	Title         string
	Description   string
	ThumbnailPath string
}

var errNotVideoOwner = apperr.Unauthorized("unauthorized request, you don't own this video")

// PublishVideo uploads the video and thumbnail in parallel, stores the video and then
// tries to add it to each requested playlist. Playlist failures are reported per entry
// and never fail the publish.
func (s *Service) PublishVideo(ctx context.Context, principal *authz.Principal, in PublishInput) (PublishResult, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.PublishVideo")
	defer span.End()

	if principal == nil {
		return PublishResult{}, apperr.Unauthorized("unauthorized request")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return PublishResult{}, apperr.BadRequest("title cannot be empty")
	}
	if in.VideoPath == "" || in.ThumbnailPath == "" {
		return PublishResult{}, apperr.BadRequest("please select a video and a thumbnail image to upload")
	}
	for _, id := range in.PlaylistIDs {
		if !authz.ValidID(id) {
			return PublishResult{}, apperr.BadRequest("invalid playlist id")
		}
	}

	owner, err := s.store.FindUserByID(ctx, principal.ID)
	if err != nil {
		return PublishResult{}, storeError(err, "user", "load")
	}

	var videoAsset, thumbAsset media.Asset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		asset, err := s.upload(gctx, in.VideoPath, "video")
		videoAsset = asset
		return err
	})
	g.Go(func() error {
		asset, err := s.upload(gctx, in.ThumbnailPath, "thumbnail")
		thumbAsset = asset
		return err
	})
	if err := g.Wait(); err != nil {
		s.discard(ctx, videoAsset.PublicID)
		s.discard(ctx, thumbAsset.PublicID)
		return PublishResult{}, span.Fail(err)
	}

	now := s.now()
	video := models.Video{
		ID:                s.newID(),
		OwnerID:           owner.ID,
		Title:             title,
		Description:       strings.TrimSpace(in.Description),
		MediaURL:          videoAsset.URL,
		MediaPublicID:     videoAsset.PublicID,
		ThumbnailURL:      thumbAsset.URL,
		ThumbnailPublicID: thumbAsset.PublicID,
		Duration:          videoAsset.Duration,
		Published:         in.Visibility == VisibilityPublic,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateVideo(ctx, video); err != nil {
		s.discard(ctx, videoAsset.PublicID)
		s.discard(ctx, thumbAsset.PublicID)
		return PublishResult{}, span.Fail(storeError(err, "video", "save"))
	}

	results := make([]MembershipResult, 0, len(in.PlaylistIDs))
	for _, playlistID := range dedupe(in.PlaylistIDs) {
		result, err := s.AddVideoToPlaylist(ctx, principal, playlistID, video.ID)
		if err != nil {
			logging.FromContext(ctx).Warn("failed to add video to playlist",
				slog.String("playlist_id", playlistID),
				slog.String("video_id", video.ID),
				slog.Any("error", err),
			)
			result = MembershipResult{PlaylistID: playlistID, Message: apperr.Message(err)}
		}
		results = append(results, result)
	}

	profile := owner.Public()
	return PublishResult{
		Video:     models.NewVideoView(video, &profile),
		Playlists: results,
	}, nil
}

// UpdateVideo edits an owned video's details and optionally replaces its thumbnail.
// The replaced thumbnail is removed from the media host in the background.
func (s *Service) UpdateVideo(ctx context.Context, principal *authz.Principal, videoID string, in VideoUpdate) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.UpdateVideo")
	defer span.End()

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" && description == "" && in.ThumbnailPath == "" {
		return models.Video{}, apperr.BadRequest("nothing to update")
	}

	video, err := s.ownedVideo(ctx, principal, videoID)
	if err != nil {
		return models.Video{}, err
	}

	if title != "" || description != "" {
		if title == "" {
			title = video.Title
		}
		if description == "" {
			description = video.Description
		}
		video, err = s.store.UpdateVideoDetails(ctx, video.ID, title, description, s.now())
		if err != nil {
			return models.Video{}, storeError(err, "video", "update")
		}
	}

	if in.ThumbnailPath != "" {
		asset, err := s.upload(ctx, in.ThumbnailPath, "thumbnail")
		if err != nil {
			return models.Video{}, err
		}
		previous := video.ThumbnailPublicID
		video, err = s.store.UpdateVideoThumbnail(ctx, video.ID, asset.URL, asset.PublicID, s.now())
		if err != nil {
			s.discard(ctx, asset.PublicID)
			return models.Video{}, storeError(err, "video", "update")
		}
		s.discard(ctx, previous)
	}

	return video, nil
}

// TogglePublish flips the published flag of an owned video.
func (s *Service) TogglePublish(ctx context.Context, principal *authz.Principal, videoID string) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.TogglePublish")
	defer span.End()

	video, err := s.ownedVideo(ctx, principal, videoID)
	if err != nil {
		return models.Video{}, err
	}
	updated, err := s.store.SetVideoPublished(ctx, video.ID, !video.Published, s.now())
	if err != nil {
		return models.Video{}, storeError(err, "video", "update")
	}
	return updated, nil
}

// DeleteVideo removes an owned video from the store, along with every playlist entry,
// like and history entry that references it, then schedules its media for removal.
func (s *Service) DeleteVideo(ctx context.Context, principal *authz.Principal, videoID string) error {
	ctx, span := logging.StartSpan(ctx, "catalog.DeleteVideo")
	defer span.End()

	video, err := s.ownedVideo(ctx, principal, videoID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteVideo(ctx, video.ID); err != nil {
		return storeError(err, "video", "delete")
	}

	s.discard(ctx, video.MediaPublicID)
	s.discard(ctx, video.ThumbnailPublicID)
	return nil
}

func (s *Service) ownedVideo(ctx context.Context, principal *authz.Principal, videoID string) (models.Video, error) {
	if !authz.ValidID(videoID) {
		return models.Video{}, apperr.BadRequest("invalid video id")
	}
	video, err := s.store.FindVideo(ctx, videoID)
	if err != nil {
		return models.Video{}, storeError(err, "video", "load")
	}
	if !authz.IsOwner(principal, video.OwnerID) {
		return models.Video{}, errNotVideoOwner
	}
	return video, nil
}
