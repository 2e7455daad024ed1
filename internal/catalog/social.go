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

// ToggleResult reports the state after a toggle.
type ToggleResult struct {
	Active bool `json:"active"`
}

// ToggleSubscription subscribes the principal to the channel, or removes an existing
// subscription.
func (s *Service) ToggleSubscription(ctx context.Context, principal *authz.Principal, channelID string) (ToggleResult, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.ToggleSubscription")
	defer span.End()

	if principal == nil {
		return ToggleResult{}, apperr.Unauthorized("unauthorized request")
	}
	if !authz.ValidID(channelID) {
		return ToggleResult{}, apperr.BadRequest("invalid channel id")
	}
	if authz.IsOwner(principal, channelID) {
		return ToggleResult{}, apperr.Conflict("you cannot subscribe to your own channel")
	}
	if _, err := s.store.FindUserByID(ctx, channelID); err != nil {
		return ToggleResult{}, storeError(err, "channel", "load")
	}

	removed, err := s.store.DeleteSubscription(ctx, principal.ID, channelID)
	if err != nil {
		return ToggleResult{}, storeError(err, "subscription", "delete")
	}
	if removed {
		return ToggleResult{Active: false}, nil
	}

	err = s.store.CreateSubscription(ctx, models.Subscription{
		ID:           s.newID(),
		SubscriberID: principal.ID,
		ChannelID:    channelID,
		CreatedAt:    s.now(),
	})
	switch {
	case err == nil, errors.Is(err, repositories.ErrConflict):
		// A concurrent toggle created the same pair; the caller is subscribed either way.
		return ToggleResult{Active: true}, nil
	default:
		return ToggleResult{}, storeError(err, "subscription", "create")
	}
}

// ToggleLike likes the target for the principal, or removes an existing like.
// Only videos and comments can be liked through this path.
func (s *Service) ToggleLike(ctx context.Context, principal *authz.Principal, target models.LikeTarget) (ToggleResult, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.ToggleLike")
	defer span.End()

	if principal == nil {
		return ToggleResult{}, apperr.Unauthorized("unauthorized request")
	}
	if target.Validate() != nil || !authz.ValidID(target.ID) {
		return ToggleResult{}, apperr.BadRequest("invalid like target")
	}

	switch target.Kind {
	case models.LikeKindVideo:
		if _, err := s.store.FindVideo(ctx, target.ID); err != nil {
			return ToggleResult{}, storeError(err, "video", "load")
		}
	case models.LikeKindComment:
		if _, err := s.store.FindComment(ctx, target.ID); err != nil {
			return ToggleResult{}, storeError(err, "comment", "load")
		}
	default:
		return ToggleResult{}, apperr.BadRequest("unsupported like target")
	}

	removed, err := s.store.DeleteLike(ctx, target, principal.ID)
	if err != nil {
		return ToggleResult{}, storeError(err, "like", "delete")
	}
	if removed {
		return ToggleResult{Active: false}, nil
	}

	err = s.store.CreateLike(ctx, models.Like{
		ID:        s.newID(),
		Target:    target,
		LikedBy:   principal.ID,
		CreatedAt: s.now(),
	})
	switch {
	case err == nil, errors.Is(err, repositories.ErrConflict):
		return ToggleResult{Active: true}, nil
	default:
		return ToggleResult{}, storeError(err, "like", "create")
	}
}

// CommentInput is a new comment. ParentID is optional and must name a comment on the
// same video.
type CommentInput struct {
	Content  string `json:"content"`
	ParentID string `json:"parentComment"`
}

// AddComment stores a comment by the principal on the video.
func (s *Service) AddComment(ctx context.Context, principal *authz.Principal, videoID string, in CommentInput) (models.CommentView, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.AddComment")
	defer span.End()

	if principal == nil {
		return models.CommentView{}, apperr.Unauthorized("unauthorized request")
	}
	if !authz.ValidID(videoID) {
		return models.CommentView{}, apperr.BadRequest("invalid video id")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return models.CommentView{}, apperr.BadRequest("comment content is required")
	}

	if _, err := s.store.FindVideo(ctx, videoID); err != nil {
		return models.CommentView{}, storeError(err, "video", "load")
	}
	if in.ParentID != "" {
		if !authz.ValidID(in.ParentID) {
			return models.CommentView{}, apperr.BadRequest("invalid parent comment id")
		}
		parent, err := s.store.FindComment(ctx, in.ParentID)
		if err != nil {
			return models.CommentView{}, storeError(err, "parent comment", "load")
		}
		if parent.VideoID != videoID {
			return models.CommentView{}, apperr.BadRequest("parent comment belongs to another video")
		}
	}

	author, err := s.store.FindUserByID(ctx, principal.ID)
	if err != nil {
		return models.CommentView{}, storeError(err, "user", "load")
	}

	now := s.now()
	comment := models.Comment{
		ID:        s.newID(),
		VideoID:   videoID,
		AuthorID:  author.ID,
		ParentID:  in.ParentID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return models.CommentView{}, storeError(err, "comment", "create")
	}

	profile := author.Public()
	return models.CommentView{
		ID:        comment.ID,
		VideoID:   comment.VideoID,
		ParentID:  comment.ParentID,
		Content:   comment.Content,
		Author:    &profile,
		CreatedAt: comment.CreatedAt,
	}, nil
}
