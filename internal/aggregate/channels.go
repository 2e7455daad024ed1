package aggregate

import (
	"context"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/models"
)

// ChannelProfile returns the public channel page for username with subscriber counts
// and whether the viewer is subscribed.
func (a *Aggregator) ChannelProfile(ctx context.Context, username string, viewer *authz.Principal) (models.ChannelProfile, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.channel_profile")
	defer span.End()

	username = models.NormalizeHandle(username)
	if username == "" {
		return models.ChannelProfile{}, apperr.NotFound("username is missing")
	}

	user, err := a.store.FindUserByUsername(ctx, username)
	if err != nil {
		return models.ChannelProfile{}, lookupError(err, "channel")
	}

	subscribers, err := a.store.ListSubscriptionsByChannel(ctx, user.ID)
	if err != nil {
		return models.ChannelProfile{}, apperr.Internal("failed to load subscribers", err)
	}
	subscribedTo, err := a.store.ListSubscriptionsBySubscriber(ctx, user.ID)
	if err != nil {
		return models.ChannelProfile{}, apperr.Internal("failed to load subscriptions", err)
	}

	profile := models.ChannelProfile{
		ID:                        user.ID,
		Username:                  user.Username,
		FullName:                  user.FullName,
		AvatarURL:                 user.AvatarURL,
		CoverImageURL:             user.CoverImageURL,
		SubscribersCount:          len(subscribers),
		ChannelsSubscribedToCount: len(subscribedTo),
	}
	for _, subscription := range subscribers {
		if authz.IsOwner(viewer, subscription.SubscriberID) {
			profile.IsSubscribed = true
			break
		}
	}
	return profile, nil
}

// ChannelSubscribers lists the users subscribed to a channel.
func (a *Aggregator) ChannelSubscribers(ctx context.Context, channelID string) ([]models.SubscriptionView, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.channel_subscribers")
	defer span.End()

	if !authz.ValidID(channelID) {
		return nil, apperr.BadRequest("channel id is invalid")
	}
	if _, err := a.store.FindUserByID(ctx, channelID); err != nil {
		return nil, lookupError(err, "channel")
	}

	subscriptions, err := a.store.ListSubscriptionsByChannel(ctx, channelID)
	if err != nil {
		return nil, apperr.Internal("failed to load subscribers", err)
	}
	return a.subscriptionViews(ctx, subscriptions, func(s models.Subscription) string { return s.SubscriberID })
}

// SubscribedChannels lists the channels a user subscribes to.
func (a *Aggregator) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.SubscriptionView, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.subscribed_channels")
	defer span.End()

	if !authz.ValidID(subscriberID) {
		return nil, apperr.BadRequest("subscriber id is invalid")
	}
	if _, err := a.store.FindUserByID(ctx, subscriberID); err != nil {
		return nil, lookupError(err, "subscriber")
	}

	subscriptions, err := a.store.ListSubscriptionsBySubscriber(ctx, subscriberID)
	if err != nil {
		return nil, apperr.Internal("failed to load subscriptions", err)
	}
	return a.subscriptionViews(ctx, subscriptions, func(s models.Subscription) string { return s.ChannelID })
}

func (a *Aggregator) subscriptionViews(ctx context.Context, subscriptions []models.Subscription, other func(models.Subscription) string) ([]models.SubscriptionView, error) {
	ids := make([]string, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		ids = append(ids, other(subscription))
	}
	profiles, err := a.profiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.SubscriptionView, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		views = append(views, models.SubscriptionView{
			ID:           subscription.ID,
			User:         profileOf(profiles, other(subscription)),
			SubscribedAt: subscription.CreatedAt,
		})
	}
	return views, nil
}
