package repositories

import (
	"context"

	"github.com/vidfriends/mediahub/internal/models"
)

// SubscriptionRepository exposes data access for channel subscriptions.
type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, subscription models.Subscription) error
	// DeleteSubscription reports whether a record existed for the pair.
	DeleteSubscription(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscriptionsByChannel(ctx context.Context, channelID string) ([]models.Subscription, error)
	ListSubscriptionsBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
}

// LikeRepository exposes data access for likes.
type LikeRepository interface {
	CreateLike(ctx context.Context, like models.Like) error
	DeleteLike(ctx context.Context, target models.LikeTarget, likedBy string) (bool, error)
	ListLikes(ctx context.Context, target models.LikeTarget) ([]models.Like, error)
}

// CommentRepository exposes data access for comments.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment models.Comment) error
	FindComment(ctx context.Context, id string) (models.Comment, error)
	ListCommentsByVideo(ctx context.Context, videoID string) ([]models.Comment, error)
}

// Store is the full entity store contract.
type Store interface {
	UserRepository
	VideoRepository
	PlaylistRepository
	SubscriptionRepository
	LikeRepository
	CommentRepository
}
