package handlers

import (
	"context"

	"github.com/vidfriends/mediahub/internal/aggregate"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/catalog"
	"github.com/vidfriends/mediahub/internal/models"
)

// SessionIssuer issues, rotates and revokes bearer credentials.
type SessionIssuer interface {
	Issue(ctx context.Context, user models.User) (models.SessionTokens, error)
	VerifyAccess(ctx context.Context, token string) (models.User, error)
	Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, models.User, error)
	Revoke(ctx context.Context, userID string) error
}

// AccountService manages user accounts.
type AccountService interface {
	Register(ctx context.Context, in catalog.Registration) (models.User, error)
	Login(ctx context.Context, identifier, password string) (models.User, error)
	CurrentUser(ctx context.Context, principal *authz.Principal) (models.User, error)
	ChangePassword(ctx context.Context, principal *authz.Principal, oldPassword, newPassword string) error
	UpdateAccount(ctx context.Context, principal *authz.Principal, in catalog.AccountUpdate) (models.User, error)
	UpdateImage(ctx context.Context, principal *authz.Principal, image models.UserImage, localPath string) (models.User, error)
	DeleteImage(ctx context.Context, principal *authz.Principal, image models.UserImage) (models.User, error)
}

// CatalogService performs the write-side playlist, video and engagement workflows.
type CatalogService interface {
	CreatePlaylist(ctx context.Context, principal *authz.Principal, in catalog.PlaylistInput) (models.Playlist, error)
	UpdatePlaylist(ctx context.Context, principal *authz.Principal, playlistID string, in catalog.PlaylistInput) (models.Playlist, error)
	DeletePlaylist(ctx context.Context, principal *authz.Principal, playlistID string) error
	AddVideoToPlaylist(ctx context.Context, principal *authz.Principal, playlistID, videoID string) (catalog.MembershipResult, error)
	RemoveVideoFromPlaylist(ctx context.Context, principal *authz.Principal, playlistID, videoID string) (models.Playlist, error)

	PublishVideo(ctx context.Context, principal *authz.Principal, in catalog.PublishInput) (catalog.PublishResult, error)
	UpdateVideo(ctx context.Context, principal *authz.Principal, videoID string, in catalog.VideoUpdate) (models.Video, error)
	TogglePublish(ctx context.Context, principal *authz.Principal, videoID string) (models.Video, error)
	DeleteVideo(ctx context.Context, principal *authz.Principal, videoID string) error

	ToggleSubscription(ctx context.Context, principal *authz.Principal, channelID string) (catalog.ToggleResult, error)
	ToggleLike(ctx context.Context, principal *authz.Principal, target models.LikeTarget) (catalog.ToggleResult, error)
	AddComment(ctx context.Context, principal *authz.Principal, videoID string, in catalog.CommentInput) (models.CommentView, error)
}

// ReadModels assembles the denormalized views served by GET endpoints.
type ReadModels interface {
	PlaylistWithVideosFor(ctx context.Context, principal *authz.Principal, playlistID string) (models.PlaylistWithVideos, error)
	UserPlaylists(ctx context.Context, principal *authz.Principal, userID string, order aggregate.SortOrder) ([]models.PlaylistWithVideos, error)
	UserPlaylistNames(ctx context.Context, principal *authz.Principal, userID string) ([]models.PlaylistSummary, error)
	PlaylistsContainingVideo(ctx context.Context, principal *authz.Principal, videoID string) ([]models.PlaylistMembership, error)

	VideoWithEngagement(ctx context.Context, videoID string, viewer *authz.Principal) (models.VideoDetail, error)
	WatchHistory(ctx context.Context, principal *authz.Principal) ([]models.VideoView, error)
	ChannelVideos(ctx context.Context, viewer *authz.Principal, channelID string) ([]models.VideoView, error)

	ChannelProfile(ctx context.Context, username string, viewer *authz.Principal) (models.ChannelProfile, error)
	ChannelSubscribers(ctx context.Context, channelID string) ([]models.SubscriptionView, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.SubscriptionView, error)
	VideoComments(ctx context.Context, videoID string) ([]models.CommentView, error)
}
