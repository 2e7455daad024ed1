package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vidfriends/mediahub/internal/db"
	"github.com/vidfriends/mediahub/internal/models"
)

const videoColumns = `id, owner_id, title, description, media_url, media_public_id, thumbnail_url, thumbnail_public_id, duration_seconds, views, published, created_at, updated_at`

// PostgresVideoRepository persists videos in PostgreSQL.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

// CreateVideo stores a new video record.
func (r *PostgresVideoRepository) CreateVideo(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (`+videoColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.MediaURL, video.MediaPublicID,
		video.ThumbnailURL, video.ThumbnailPublicID, video.Duration, video.Views, video.Published,
		video.CreatedAt, video.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert video")
	}
	return nil
}

// FindVideo fetches a single video.
func (r *PostgresVideoRepository) FindVideo(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// FindVideos fetches the listed videos. Missing ids are skipped and order is unspecified.
func (r *PostgresVideoRepository) FindVideos(ctx context.Context, ids []string) ([]models.Video, error) {
	if len(ids) == 0 {
		return []models.Video{}, nil
	}
	return r.queryVideos(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, ids)
}

// ListVideosByOwner lists a channel's videos, newest first.
func (r *PostgresVideoRepository) ListVideosByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	return r.queryVideos(ctx, `
        SELECT `+videoColumns+` FROM videos
        WHERE owner_id = $1
        ORDER BY created_at DESC, id
    `, ownerID)
}

func (r *PostgresVideoRepository) queryVideos(ctx context.Context, query string, args ...any) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := []models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

// IncrementVideoViews atomically bumps the view counter.
func (r *PostgresVideoRepository) IncrementVideoViews(ctx context.Context, id string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("increment views: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateVideoDetails changes the title and description.
func (r *PostgresVideoRepository) UpdateVideoDetails(ctx context.Context, id, title, description string, at time.Time) (models.Video, error) {
	return r.updateReturning(ctx, "update video details", `
        UPDATE videos SET title = $2, description = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+videoColumns, id, title, description, at)
}

// UpdateVideoThumbnail replaces the thumbnail reference.
func (r *PostgresVideoRepository) UpdateVideoThumbnail(ctx context.Context, id, url, publicID string, at time.Time) (models.Video, error) {
	return r.updateReturning(ctx, "update video thumbnail", `
        UPDATE videos SET thumbnail_url = $2, thumbnail_public_id = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+videoColumns, id, url, publicID, at)
}

// SetVideoPublished sets the published flag.
func (r *PostgresVideoRepository) SetVideoPublished(ctx context.Context, id string, published bool, at time.Time) (models.Video, error) {
	return r.updateReturning(ctx, "update video published", `
        UPDATE videos SET published = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+videoColumns, id, published, at)
}

func (r *PostgresVideoRepository) updateReturning(ctx context.Context, op, query string, args ...any) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("%s: %w", op, err)
	}
	return video, nil
}

// DeleteVideo removes the video. Likes are keyed by target rather than foreign key, so
// they are cleared in the same transaction; the remaining dependents cascade.
func (r *PostgresVideoRepository) DeleteVideo(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete video: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
        DELETE FROM likes
        WHERE (target_kind = 'video' AND target_id = $1)
           OR (target_kind = 'comment' AND target_id IN (SELECT id FROM comments WHERE video_id = $1))
    `, id); err != nil {
		return fmt.Errorf("delete video likes: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit delete video: %w", err)
	}
	return nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.MediaURL,
		&video.MediaPublicID, &video.ThumbnailURL, &video.ThumbnailPublicID, &video.Duration, &video.Views,
		&video.Published, &video.CreatedAt, &video.UpdatedAt); err != nil {
		return models.Video{}, err
	}
	video.CreatedAt = video.CreatedAt.UTC()
	video.UpdatedAt = video.UpdatedAt.UTC()
	return video, nil
}
