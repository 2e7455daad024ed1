package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vidfriends/mediahub/internal/db"
	"github.com/vidfriends/mediahub/internal/models"
)

// PostgresSubscriptionRepository persists channel subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// CreateSubscription stores a subscription. A duplicate pair reports ErrConflict.
func (r *PostgresSubscriptionRepository) CreateSubscription(ctx context.Context, subscription models.Subscription) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, subscription.ID, subscription.SubscriberID, subscription.ChannelID, subscription.CreatedAt)
	if err != nil {
		return classifyWriteError(err, "insert subscription")
	}
	return nil
}

// DeleteSubscription removes the subscription between the pair.
func (r *PostgresSubscriptionRepository) DeleteSubscription(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListSubscriptionsByChannel lists everyone subscribed to the channel.
func (r *PostgresSubscriptionRepository) ListSubscriptionsByChannel(ctx context.Context, channelID string) ([]models.Subscription, error) {
	return r.list(ctx, `
        SELECT id, subscriber_id, channel_id, created_at FROM subscriptions
        WHERE channel_id = $1
        ORDER BY created_at, id
    `, channelID)
}

// ListSubscriptionsBySubscriber lists the channels a user subscribes to.
func (r *PostgresSubscriptionRepository) ListSubscriptionsBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error) {
	return r.list(ctx, `
        SELECT id, subscriber_id, channel_id, created_at FROM subscriptions
        WHERE subscriber_id = $1
        ORDER BY created_at, id
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) list(ctx context.Context, query string, arg string) ([]models.Subscription, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	subscriptions := []models.Subscription{}
	for rows.Next() {
		var s models.Subscription
		if err := rows.Scan(&s.ID, &s.SubscriberID, &s.ChannelID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		s.CreatedAt = s.CreatedAt.UTC()
		subscriptions = append(subscriptions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subscriptions, nil
}

// PostgresLikeRepository persists likes on videos, comments and tweets.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

// CreateLike stores a like. Liking the same target twice reports ErrConflict.
func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like models.Like) error {
	if err := like.Target.Validate(); err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, target_kind, target_id, liked_by, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, like.ID, string(like.Target.Kind), like.Target.ID, like.LikedBy, like.CreatedAt)
	if err != nil {
		return classifyWriteError(err, "insert like")
	}
	return nil
}

// DeleteLike removes the user's like on the target.
func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, target models.LikeTarget, likedBy string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM likes WHERE target_kind = $1 AND target_id = $2 AND liked_by = $3
    `, string(target.Kind), target.ID, likedBy)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListLikes lists every like on the target.
func (r *PostgresLikeRepository) ListLikes(ctx context.Context, target models.LikeTarget) ([]models.Like, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, target_kind, target_id, liked_by, created_at FROM likes
        WHERE target_kind = $1 AND target_id = $2
        ORDER BY created_at, id
    `, string(target.Kind), target.ID)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	likes := []models.Like{}
	for rows.Next() {
		var (
			like models.Like
			kind string
		)
		if err := rows.Scan(&like.ID, &kind, &like.Target.ID, &like.LikedBy, &like.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		like.Target.Kind = models.LikeKind(kind)
		like.CreatedAt = like.CreatedAt.UTC()
		likes = append(likes, like)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}
	return likes, nil
}

// PostgresCommentRepository persists video comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// CreateComment stores a comment.
func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var parent *string
	if comment.ParentID != "" {
		parent = &comment.ParentID
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, author_id, parent_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, comment.ID, comment.VideoID, comment.AuthorID, parent, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert comment")
	}
	return nil
}

// FindComment fetches a comment by id.
func (r *PostgresCommentRepository) FindComment(ctx context.Context, id string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comment, err := scanComment(conn.QueryRow(ctx, `
        SELECT id, video_id, author_id, parent_id, content, created_at, updated_at
        FROM comments WHERE id = $1
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("select comment: %w", err)
	}
	return comment, nil
}

// ListCommentsByVideo lists a video's comments, oldest first.
func (r *PostgresCommentRepository) ListCommentsByVideo(ctx context.Context, videoID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, author_id, parent_id, content, created_at, updated_at
        FROM comments WHERE video_id = $1
        ORDER BY created_at, id
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return comments, nil
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var (
		comment models.Comment
		parent  *string
	)
	if err := row.Scan(&comment.ID, &comment.VideoID, &comment.AuthorID, &parent, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt); err != nil {
		return models.Comment{}, err
	}
	if parent != nil {
		comment.ParentID = *parent
	}
	comment.CreatedAt = comment.CreatedAt.UTC()
	comment.UpdatedAt = comment.UpdatedAt.UTC()
	return comment, nil
}
