package repositories

import (
	"github.com/vidfriends/mediahub/internal/db"
)

// PostgresStore bundles the PostgreSQL repositories behind the Store contract.
type PostgresStore struct {
	*PostgresUserRepository
	*PostgresVideoRepository
	*PostgresPlaylistRepository
	*PostgresSubscriptionRepository
	*PostgresLikeRepository
	*PostgresCommentRepository
}

// NewPostgresStore wires every repository to the same pool.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{
		PostgresUserRepository:         NewPostgresUserRepository(pool),
		PostgresVideoRepository:        NewPostgresVideoRepository(pool),
		PostgresPlaylistRepository:     NewPostgresPlaylistRepository(pool),
		PostgresSubscriptionRepository: NewPostgresSubscriptionRepository(pool),
		PostgresLikeRepository:         NewPostgresLikeRepository(pool),
		PostgresCommentRepository:      NewPostgresCommentRepository(pool),
	}
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
