package repositories

import (
	"context"
	"time"

	"github.com/vidfriends/mediahub/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUsers(ctx context.Context, ids []string) ([]models.User, error)
	UpdateUserDetails(ctx context.Context, id, fullName, email string, at time.Time) (models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string, at time.Time) error
	SetUserImage(ctx context.Context, id string, image models.UserImage, url string, at time.Time) (models.User, error)

	SetRefreshToken(ctx context.Context, userID, token string) error
	SwapRefreshToken(ctx context.Context, userID, current, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID string) error

	PromoteWatchHistory(ctx context.Context, userID, videoID string, limit int, at time.Time) error
	WatchHistory(ctx context.Context, userID string) ([]string, error)
}
