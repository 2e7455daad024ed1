package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidfriends/mediahub/internal/db"
	"github.com/vidfriends/mediahub/internal/models"
)

// PostgresPlaylistRepository persists playlists and their membership rows.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

// CreatePlaylist stores a new playlist and any initial videos.
func (r *PostgresPlaylistRepository) CreatePlaylist(ctx context.Context, playlist models.Playlist) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create playlist: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
        INSERT INTO playlists (id, owner_id, title, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, playlist.ID, playlist.OwnerID, playlist.Title, playlist.Description, playlist.CreatedAt, playlist.UpdatedAt); err != nil {
		return classifyWriteError(err, "insert playlist")
	}

	for i, videoID := range playlist.VideoIDs {
		// Offsetting keeps the initial order stable under the added_at sort.
		addedAt := playlist.CreatedAt.Add(time.Duration(i) * time.Microsecond)
		if _, err := tx.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, added_at)
            VALUES ($1, $2, $3)
            ON CONFLICT (playlist_id, video_id) DO NOTHING
        `, playlist.ID, videoID, addedAt); err != nil {
			return classifyWriteError(err, "insert playlist video")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create playlist: %w", err)
	}
	return nil
}

// FindPlaylist loads a playlist header with its ordered video ids.
func (r *PostgresPlaylistRepository) FindPlaylist(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return findPlaylist(ctx, conn, id)
}

func findPlaylist(ctx context.Context, conn *pgxpool.Conn, id string) (models.Playlist, error) {
	var playlist models.Playlist
	err := conn.QueryRow(ctx, `
        SELECT id, owner_id, title, description, created_at, updated_at
        FROM playlists WHERE id = $1
    `, id).Scan(&playlist.ID, &playlist.OwnerID, &playlist.Title, &playlist.Description, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("select playlist: %w", err)
	}

	playlist.VideoIDs, err = loadPlaylistVideoIDs(ctx, conn, playlist.ID)
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.CreatedAt = playlist.CreatedAt.UTC()
	playlist.UpdatedAt = playlist.UpdatedAt.UTC()
	return playlist, nil
}

// ListPlaylistsByOwner lists a user's playlists in creation order.
func (r *PostgresPlaylistRepository) ListPlaylistsByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, title, description, created_at, updated_at
        FROM playlists WHERE owner_id = $1
        ORDER BY created_at, id
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}

	playlists := []models.Playlist{}
	for rows.Next() {
		var playlist models.Playlist
		if err := rows.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Title, &playlist.Description, &playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan playlist: %w", err)
		}
		playlist.CreatedAt = playlist.CreatedAt.UTC()
		playlist.UpdatedAt = playlist.UpdatedAt.UTC()
		playlists = append(playlists, playlist)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	for i := range playlists {
		playlists[i].VideoIDs, err = loadPlaylistVideoIDs(ctx, conn, playlists[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return playlists, nil
}

func loadPlaylistVideoIDs(ctx context.Context, conn *pgxpool.Conn, playlistID string) ([]string, error) {
	rows, err := conn.Query(ctx, `
        SELECT video_id FROM playlist_videos
        WHERE playlist_id = $1
        ORDER BY added_at, video_id
    `, playlistID)
	if err != nil {
		return nil, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist videos: %w", err)
	}
	return ids, nil
}

// UpdatePlaylistDetails changes the title and description.
func (r *PostgresPlaylistRepository) UpdatePlaylistDetails(ctx context.Context, id, title, description string, at time.Time) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE playlists SET title = $2, description = $3, updated_at = $4
        WHERE id = $1
    `, id, title, description, at)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.Playlist{}, ErrNotFound
	}

	return findPlaylist(ctx, conn, id)
}

// DeletePlaylist removes the playlist. Membership rows cascade.
func (r *PostgresPlaylistRepository) DeletePlaylist(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPlaylistVideo appends the video unless it is already listed.
func (r *PostgresPlaylistRepository) AddPlaylistVideo(ctx context.Context, playlistID, videoID string, at time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        INSERT INTO playlist_videos (playlist_id, video_id, added_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (playlist_id, video_id) DO NOTHING
    `, playlistID, videoID, at)
	if err != nil {
		return false, classifyWriteError(err, "add playlist video")
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := conn.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, playlistID, at); err != nil {
		return true, fmt.Errorf("touch playlist: %w", err)
	}
	return true, nil
}

// RemovePlaylistVideo drops the video from the playlist.
func (r *PostgresPlaylistRepository) RemovePlaylistVideo(ctx context.Context, playlistID, videoID string, at time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1 AND video_id = $2`, playlistID, videoID)
	if err != nil {
		return false, fmt.Errorf("remove playlist video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := conn.Exec(ctx, `UPDATE playlists SET updated_at = $2 WHERE id = $1`, playlistID, at); err != nil {
		return true, fmt.Errorf("touch playlist: %w", err)
	}
	return true, nil
}
