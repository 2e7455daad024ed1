package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/models"
	"github.com/vidfriends/mediahub/internal/repositories"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store *repositories.MemoryStore
	agg   *Aggregator
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	opts = append([]Option{WithClock(func() time.Time { return epoch })}, opts...)
	return fixture{store: store, agg: New(store, opts...)}
}

func (f fixture) user(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     username + " full",
		PasswordHash: "secret-hash",
		AvatarURL:    "https://cdn.example.com/" + username + ".png",
		CreatedAt:    epoch,
		UpdatedAt:    epoch,
	}
	require.NoError(t, f.store.CreateUser(context.Background(), user))
	return user
}

func (f fixture) video(t *testing.T, owner models.User, published bool, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      owner.ID,
		Title:        "clip",
		MediaURL:     "https://cdn.example.com/clip.mp4",
		ThumbnailURL: "https://cdn.example.com/clip.png",
		Duration:     42,
		Published:    published,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	require.NoError(t, f.store.CreateVideo(context.Background(), video))
	return video
}

func (f fixture) playlist(t *testing.T, owner models.User, updatedAt time.Time, videoIDs ...string) models.Playlist {
	t.Helper()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     owner.ID,
		Title:       "Favorites",
		Description: "x",
		VideoIDs:    videoIDs,
		CreatedAt:   epoch,
		UpdatedAt:   updatedAt,
	}
	require.NoError(t, f.store.CreatePlaylist(context.Background(), playlist))
	return playlist
}

func principal(u models.User) *authz.Principal {
	return &authz.Principal{ID: u.ID, Username: u.Username}
}

func TestPlaylistWithVideosEmptyListIsNotNil(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	playlist := f.playlist(t, alice, epoch)

	result, err := f.agg.PlaylistWithVideosFor(context.Background(), principal(alice), playlist.ID)
	require.NoError(t, err)
	require.NotNil(t, result.Videos)
	assert.Empty(t, result.Videos)
	assert.Equal(t, alice.ID, result.OwnerID)
}

func TestPlaylistWithVideosJoinsOwnersInOrder(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v1 := f.video(t, bob, true, epoch)
	v2 := f.video(t, alice, true, epoch)
	playlist := f.playlist(t, alice, epoch, v1.ID, v2.ID)

	result, err := f.agg.PlaylistWithVideos(context.Background(), playlist.ID)
	require.NoError(t, err)
	require.Len(t, result.Videos, 2)
	assert.Equal(t, v1.ID, result.Videos[0].ID)
	require.NotNil(t, result.Videos[0].Owner)
	assert.Equal(t, "bob", result.Videos[0].Owner.Username)
	assert.Equal(t, v2.ID, result.Videos[1].ID)
	assert.Equal(t, "alice", result.Videos[1].Owner.Username)
}

func TestPlaylistWithVideosSkipsDeletedVideos(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	kept := f.video(t, alice, true, epoch)
	gone := f.video(t, alice, true, epoch)
	playlist := f.playlist(t, alice, epoch, gone.ID, kept.ID)

	require.NoError(t, f.store.DeleteVideo(context.Background(), gone.ID))

	result, err := f.agg.PlaylistWithVideos(context.Background(), playlist.ID)
	require.NoError(t, err)
	require.Len(t, result.Videos, 1)
	assert.Equal(t, kept.ID, result.Videos[0].ID)
}

func TestPlaylistWithVideosForRejectsOthers(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	playlist := f.playlist(t, alice, epoch)
	ctx := context.Background()

	_, err := f.agg.PlaylistWithVideosFor(ctx, principal(bob), playlist.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "got %v", err)

	_, err = f.agg.PlaylistWithVideosFor(ctx, nil, playlist.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "got %v", err)

	_, err = f.agg.PlaylistWithVideosFor(ctx, principal(alice), "not-an-id")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "got %v", err)

	_, err = f.agg.PlaylistWithVideosFor(ctx, principal(alice), uuid.NewString())
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestVideoWithEngagementForAnotherViewer(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v1 := f.video(t, alice, true, epoch)
	ctx := context.Background()

	detail, err := f.agg.VideoWithEngagement(ctx, v1.ID, principal(bob))
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.Views)
	assert.False(t, detail.IsLiked)
	assert.False(t, detail.IsSubscribed)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, alice.Public(), *detail.Owner)
	assert.Zero(t, detail.LikesCount)
	assert.Zero(t, detail.SubscribersCount)

	history, err := f.store.WatchHistory(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{v1.ID}, history)
}

func TestVideoWithEngagementCountsAndFlags(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	v1 := f.video(t, alice, true, epoch)
	ctx := context.Background()

	require.NoError(t, f.store.CreateLike(ctx, models.Like{ID: uuid.NewString(), Target: models.VideoTarget(v1.ID), LikedBy: bob.ID, CreatedAt: epoch}))
	require.NoError(t, f.store.CreateLike(ctx, models.Like{ID: uuid.NewString(), Target: models.VideoTarget(v1.ID), LikedBy: carol.ID, CreatedAt: epoch}))
	require.NoError(t, f.store.CreateSubscription(ctx, models.Subscription{ID: uuid.NewString(), SubscriberID: bob.ID, ChannelID: alice.ID, CreatedAt: epoch}))

	detail, err := f.agg.VideoWithEngagement(ctx, v1.ID, principal(bob))
	require.NoError(t, err)
	assert.Equal(t, 2, detail.LikesCount)
	assert.Equal(t, 1, detail.SubscribersCount)
	assert.True(t, detail.IsLiked)
	assert.True(t, detail.IsSubscribed)

	anonymous, err := f.agg.VideoWithEngagement(ctx, v1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), anonymous.Views)
	assert.False(t, anonymous.IsLiked)
	assert.False(t, anonymous.IsSubscribed)
}

type countingStore struct {
	*repositories.MemoryStore
	finds    int
	promotes int
}

func (s *countingStore) FindVideo(ctx context.Context, id string) (models.Video, error) {
	s.finds++
	return s.MemoryStore.FindVideo(ctx, id)
}

func (s *countingStore) PromoteWatchHistory(ctx context.Context, userID, videoID string, limit int, at time.Time) error {
	s.promotes++
	return s.MemoryStore.PromoteWatchHistory(ctx, userID, videoID, limit, at)
}

func TestVideoWithEngagementMissingVideoHasNoSideEffects(t *testing.T) {
	store := &countingStore{MemoryStore: repositories.NewMemoryStore()}
	agg := New(store)
	viewer := &authz.Principal{ID: uuid.NewString()}

	_, err := agg.VideoWithEngagement(context.Background(), uuid.NewString(), viewer)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
	assert.Zero(t, store.finds)
	assert.Zero(t, store.promotes)

	_, err = agg.VideoWithEngagement(context.Background(), "bogus", viewer)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest), "got %v", err)
}

func TestWatchHistoryPromotionIsIdempotent(t *testing.T) {
	f := newFixture(t, WithHistoryLimit(3))
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	a := f.video(t, alice, true, epoch)
	b := f.video(t, alice, true, epoch)
	ctx := context.Background()

	tick := epoch
	f.agg.now = func() time.Time { tick = tick.Add(time.Second); return tick }

	_, err := f.agg.VideoWithEngagement(ctx, a.ID, principal(bob))
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := f.agg.VideoWithEngagement(ctx, b.ID, principal(bob))
		require.NoError(t, err)
	}

	history, err := f.agg.WatchHistory(ctx, principal(bob))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, b.ID, history[0].ID)
	assert.Equal(t, a.ID, history[1].ID)
	require.NotNil(t, history[0].Owner)
	assert.Equal(t, "alice", history[0].Owner.Username)

	_, err = f.agg.WatchHistory(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "got %v", err)
}

func TestWatchHistoryPromotesUnderFixedClock(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	a := f.video(t, alice, true, epoch)
	b := f.video(t, alice, true, epoch)
	ctx := context.Background()

	for _, id := range []string{a.ID, b.ID, a.ID} {
		_, err := f.agg.VideoWithEngagement(ctx, id, principal(bob))
		require.NoError(t, err)
	}

	history, err := f.agg.WatchHistory(ctx, principal(bob))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, a.ID, history[0].ID)
	assert.Equal(t, b.ID, history[1].ID)
}

func TestChannelProfile(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ctx := context.Background()

	require.NoError(t, f.store.CreateSubscription(ctx, models.Subscription{ID: uuid.NewString(), SubscriberID: alice.ID, ChannelID: bob.ID, CreatedAt: epoch}))

	profile, err := f.agg.ChannelProfile(ctx, "BOB", principal(alice))
	require.NoError(t, err)
	assert.Equal(t, bob.ID, profile.ID)
	assert.Equal(t, 1, profile.SubscribersCount)
	assert.Equal(t, 0, profile.ChannelsSubscribedToCount)
	assert.True(t, profile.IsSubscribed)

	own, err := f.agg.ChannelProfile(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, own.SubscribersCount)
	assert.Equal(t, 1, own.ChannelsSubscribedToCount)
	assert.False(t, own.IsSubscribed)

	_, err = f.agg.ChannelProfile(ctx, "", nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
	_, err = f.agg.ChannelProfile(ctx, "nobody", nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestUserPlaylistsSortAndGuard(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.video(t, alice, true, epoch)
	older := f.playlist(t, alice, epoch, v.ID)
	newer := f.playlist(t, alice, epoch.Add(time.Hour))
	ctx := context.Background()

	latest, err := f.agg.UserPlaylists(ctx, principal(alice), alice.ID, SortLatest)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, newer.ID, latest[0].ID)
	assert.NotNil(t, latest[0].Videos)
	assert.Empty(t, latest[0].Videos)
	assert.Equal(t, older.ID, latest[1].ID)
	require.Len(t, latest[1].Videos, 1)

	oldest, err := f.agg.UserPlaylists(ctx, principal(alice), alice.ID, SortOldest)
	require.NoError(t, err)
	assert.Equal(t, older.ID, oldest[0].ID)

	_, err = f.agg.UserPlaylists(ctx, principal(bob), alice.ID, SortLatest)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized), "got %v", err)

	names, err := f.agg.UserPlaylistNames(ctx, principal(alice), alice.ID)
	require.NoError(t, err)
	assert.Len(t, names, 2)

	memberships, err := f.agg.PlaylistsContainingVideo(ctx, principal(alice), v.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	for _, m := range memberships {
		assert.Equal(t, m.ID == older.ID, m.ContainsVideo)
	}
}

func TestParseSortOrder(t *testing.T) {
	order, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortLatest, order)

	order, err = ParseSortOrder(" Oldest ")
	require.NoError(t, err)
	assert.Equal(t, SortOldest, order)

	_, err = ParseSortOrder("random")
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestChannelVideosHidesUnpublishedFromOthers(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	public := f.video(t, alice, true, epoch)
	draft := f.video(t, alice, false, epoch.Add(time.Minute))
	ctx := context.Background()

	own, err := f.agg.ChannelVideos(ctx, principal(alice), alice.ID)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, draft.ID, own[0].ID)

	others, err := f.agg.ChannelVideos(ctx, principal(bob), alice.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, public.ID, others[0].ID)

	_, err = f.agg.ChannelVideos(ctx, nil, uuid.NewString())
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestSubscriptionListings(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ctx := context.Background()

	require.NoError(t, f.store.CreateSubscription(ctx, models.Subscription{ID: uuid.NewString(), SubscriberID: alice.ID, ChannelID: bob.ID, CreatedAt: epoch}))

	subscribers, err := f.agg.ChannelSubscribers(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, subscribers, 1)
	assert.Equal(t, "alice", subscribers[0].User.Username)

	channels, err := f.agg.SubscribedChannels(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "bob", channels[0].User.Username)

	empty, err := f.agg.ChannelSubscribers(ctx, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestVideoComments(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	v := f.video(t, alice, true, epoch)
	ctx := context.Background()

	root := models.Comment{ID: uuid.NewString(), VideoID: v.ID, AuthorID: bob.ID, Content: "first", CreatedAt: epoch}
	reply := models.Comment{ID: uuid.NewString(), VideoID: v.ID, AuthorID: alice.ID, ParentID: root.ID, Content: "thanks", CreatedAt: epoch.Add(time.Second)}
	require.NoError(t, f.store.CreateComment(ctx, root))
	require.NoError(t, f.store.CreateComment(ctx, reply))
	require.NoError(t, f.store.CreateLike(ctx, models.Like{ID: uuid.NewString(), Target: models.CommentTarget(root.ID), LikedBy: alice.ID, CreatedAt: epoch}))

	comments, err := f.agg.VideoComments(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, root.ID, comments[0].ID)
	assert.Equal(t, 1, comments[0].LikesCount)
	assert.Equal(t, "bob", comments[0].Author.Username)
	assert.Equal(t, root.ID, comments[1].ParentID)
	assert.Equal(t, 0, comments[1].LikesCount)
}
