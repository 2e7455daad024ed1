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

const userColumns = `id, username, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// CreateUser persists a new user record.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, cover_image_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, models.NormalizeHandle(user.Username), models.NormalizeHandle(user.Email), user.FullName,
		user.PasswordHash, user.AvatarURL, user.CoverImageURL, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return classifyWriteError(err, "insert user")
	}

	return nil
}

// FindUserByID fetches a user by identifier.
func (r *PostgresUserRepository) FindUserByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// FindUserByUsername fetches a user by case-folded username.
func (r *PostgresUserRepository) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, models.NormalizeHandle(username))
}

// FindUserByEmail fetches a user by case-folded email address.
func (r *PostgresUserRepository) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, models.NormalizeHandle(email))
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// FindUsers fetches every user whose id is listed. Missing ids are skipped.
func (r *PostgresUserRepository) FindUsers(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// UpdateUserDetails changes the full name and email of a user.
func (r *PostgresUserRepository) UpdateUserDetails(ctx context.Context, id, fullName, email string, at time.Time) (models.User, error) {
	return r.updateReturning(ctx, "update user details", `
        UPDATE users SET full_name = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING `+userColumns, id, fullName, models.NormalizeHandle(email), at)
}

// UpdateUserPassword stores a new password hash.
func (r *PostgresUserRepository) UpdateUserPassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`, id, passwordHash, at)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserImage replaces the avatar or cover image URL. An empty url clears it.
func (r *PostgresUserRepository) SetUserImage(ctx context.Context, id string, image models.UserImage, url string, at time.Time) (models.User, error) {
	column := "avatar_url"
	if image == models.UserImageCover {
		column = "cover_image_url"
	}
	return r.updateReturning(ctx, "update user image", `
        UPDATE users SET `+column+` = $2, updated_at = $3
        WHERE id = $1
        RETURNING `+userColumns, id, url, at)
}

func (r *PostgresUserRepository) updateReturning(ctx context.Context, op, query string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, classifyWriteError(err, op)
	}
	return user, nil
}

// SetRefreshToken overwrites the persisted refresh token.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	return r.execUser(ctx, "set refresh token", `UPDATE users SET refresh_token = $2 WHERE id = $1`, userID, token)
}

// SwapRefreshToken replaces the refresh token only while it still equals current.
func (r *PostgresUserRepository) SwapRefreshToken(ctx context.Context, userID, current, next string) (bool, error) {
	if current == "" {
		return false, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $3
        WHERE id = $1 AND refresh_token = $2
    `, userID, current, next)
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClearRefreshToken removes the persisted refresh token.
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	return r.execUser(ctx, "clear refresh token", `UPDATE users SET refresh_token = NULL WHERE id = $1`, userID)
}

func (r *PostgresUserRepository) execUser(ctx context.Context, op, query string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PromoteWatchHistory moves the video to the front of the user's history and trims the
// list to limit entries. Order comes from a sequence so repeated timestamps still promote.
func (r *PostgresUserRepository) PromoteWatchHistory(ctx context.Context, userID, videoID string, limit int, at time.Time) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin watch history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (user_id, video_id) DO UPDATE
        SET watched_at = EXCLUDED.watched_at, seq = nextval('watch_history_seq')
    `, userID, videoID, at); err != nil {
		return classifyWriteError(err, "upsert watch history")
	}

	if limit > 0 {
		if _, err := tx.Exec(ctx, `
            DELETE FROM watch_history
            WHERE user_id = $1 AND video_id IN (
                SELECT video_id FROM watch_history
                WHERE user_id = $1
                ORDER BY seq DESC
                OFFSET $2
            )
        `, userID, limit); err != nil {
			return fmt.Errorf("trim watch history: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit watch history: %w", err)
	}
	return nil
}

// WatchHistory lists watched video ids, most recent first.
func (r *PostgresUserRepository) WatchHistory(ctx context.Context, userID string) ([]string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT video_id FROM watch_history
        WHERE user_id = $1
        ORDER BY seq DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan watch history: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}
	return ids, nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		user    models.User
		refresh *string
	)
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.PasswordHash,
		&user.AvatarURL, &user.CoverImageURL, &refresh, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return models.User{}, err
	}
	if refresh != nil {
		user.RefreshToken = *refresh
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}
