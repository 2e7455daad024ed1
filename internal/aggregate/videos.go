package aggregate

import (
	"context"
	"log/slog"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/models"
)

// VideoWithEngagement counts a view and returns the video joined with its owner, like
// and subscriber counts, and the viewer's relation to both. The view is counted before
// anything is read; when no video matches, nothing else happens. A present viewer also
// has the video promoted to the front of their watch history.
func (a *Aggregator) VideoWithEngagement(ctx context.Context, videoID string, viewer *authz.Principal) (models.VideoDetail, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.video_with_engagement")
	defer span.End()

	if !authz.ValidID(videoID) {
		return models.VideoDetail{}, apperr.BadRequest("video id is invalid")
	}

	matched, err := a.store.IncrementVideoViews(ctx, videoID)
	if err != nil {
		return models.VideoDetail{}, apperr.Internal("failed to count view", err)
	}
	if !matched {
		return models.VideoDetail{}, apperr.NotFound("video not found")
	}

	video, err := a.store.FindVideo(ctx, videoID)
	if err != nil {
		return models.VideoDetail{}, lookupError(err, "video")
	}

	owners, err := a.profiles(ctx, []string{video.OwnerID})
	if err != nil {
		return models.VideoDetail{}, err
	}

	likes, err := a.store.ListLikes(ctx, models.VideoTarget(video.ID))
	if err != nil {
		return models.VideoDetail{}, apperr.Internal("failed to load likes", err)
	}

	subscribers, err := a.store.ListSubscriptionsByChannel(ctx, video.OwnerID)
	if err != nil {
		return models.VideoDetail{}, apperr.Internal("failed to load subscriptions", err)
	}

	detail := models.VideoDetail{
		VideoView:        models.NewVideoView(video, profileOf(owners, video.OwnerID)),
		LikesCount:       len(likes),
		SubscribersCount: len(subscribers),
	}

	if viewer == nil || !authz.ValidID(viewer.ID) {
		return detail, nil
	}

	for _, like := range likes {
		if authz.IsOwner(viewer, like.LikedBy) {
			detail.IsLiked = true
			break
		}
	}
	for _, subscription := range subscribers {
		if authz.IsOwner(viewer, subscription.SubscriberID) {
			detail.IsSubscribed = true
			break
		}
	}

	if err := a.store.PromoteWatchHistory(ctx, viewer.ID, video.ID, a.historyLimit, a.now().UTC()); err != nil {
		logging.FromContext(ctx).Warn("failed to update watch history",
			slog.String("video_id", video.ID),
			slog.Any("error", err),
		)
	}

	return detail, nil
}

// WatchHistory lists the principal's watched videos, most recent first.
func (a *Aggregator) WatchHistory(ctx context.Context, principal *authz.Principal) ([]models.VideoView, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.watch_history")
	defer span.End()

	if principal == nil || !authz.ValidID(principal.ID) {
		return nil, apperr.Unauthorized("unauthorized request")
	}

	ids, err := a.store.WatchHistory(ctx, principal.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load watch history", err)
	}
	return a.joinVideos(ctx, ids, nil)
}

// ChannelVideos lists a channel's videos, newest first. Unpublished videos are only
// listed for the channel owner.
func (a *Aggregator) ChannelVideos(ctx context.Context, viewer *authz.Principal, channelID string) ([]models.VideoView, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.channel_videos")
	defer span.End()

	if !authz.ValidID(channelID) {
		return nil, apperr.BadRequest("channel id is invalid")
	}

	channel, err := a.store.FindUserByID(ctx, channelID)
	if err != nil {
		return nil, lookupError(err, "channel")
	}

	videos, err := a.store.ListVideosByOwner(ctx, channel.ID)
	if err != nil {
		return nil, apperr.Internal("failed to load videos", err)
	}

	owner := channel.Public()
	isOwner := authz.IsOwner(viewer, channel.ID)

	views := make([]models.VideoView, 0, len(videos))
	for _, video := range videos {
		if !video.Published && !isOwner {
			continue
		}
		profile := owner
		views = append(views, models.NewVideoView(video, &profile))
	}
	return views, nil
}
