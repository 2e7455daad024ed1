package aggregate

import (
	"context"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/models"
)

// VideoComments lists a video's comments, oldest first, with author and like count.
func (a *Aggregator) VideoComments(ctx context.Context, videoID string) ([]models.CommentView, error) {
	ctx, span := logging.StartSpan(ctx, "aggregate.video_comments")
	defer span.End()

	if !authz.ValidID(videoID) {
		return nil, apperr.BadRequest("video id is invalid")
	}
	if _, err := a.store.FindVideo(ctx, videoID); err != nil {
		return nil, lookupError(err, "video")
	}

	comments, err := a.store.ListCommentsByVideo(ctx, videoID)
	if err != nil {
		return nil, apperr.Internal("failed to load comments", err)
	}

	authorIDs := make([]string, 0, len(comments))
	for _, comment := range comments {
		authorIDs = append(authorIDs, comment.AuthorID)
	}
	authors, err := a.profiles(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, comment := range comments {
		likes, err := a.store.ListLikes(ctx, models.CommentTarget(comment.ID))
		if err != nil {
			return nil, apperr.Internal("failed to load likes", err)
		}
		views = append(views, models.CommentView{
			ID:         comment.ID,
			VideoID:    comment.VideoID,
			ParentID:   comment.ParentID,
			Content:    comment.Content,
			Author:     profileOf(authors, comment.AuthorID),
			LikesCount: len(likes),
			CreatedAt:  comment.CreatedAt,
		})
	}
	return views, nil
}
