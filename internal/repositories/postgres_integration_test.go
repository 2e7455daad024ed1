package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidfriends/mediahub/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		// The in-memory tests still run; database tests skip themselves.
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(m.Run())
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := resetDatabase(t)

	user := createTestUser(t, store, "Alice")

	dup := user
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	if err := store.CreateUser(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate username, got %v", err)
	}

	fetched, err := store.FindUserByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if fetched.ID != user.ID || fetched.Username != "alice" {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	updated, err := store.UpdateUserDetails(ctx, user.ID, "Alice Liddell", "Liddell@Example.com", time.Now().UTC())
	if err != nil {
		t.Fatalf("update details: %v", err)
	}
	if updated.FullName != "Alice Liddell" || updated.Email != "liddell@example.com" {
		t.Fatalf("expected updated fields to persist, got %+v", updated)
	}

	if _, err := store.SetUserImage(ctx, user.ID, models.UserImageCover, "https://cdn.example.com/cover.png", time.Now().UTC()); err != nil {
		t.Fatalf("set cover: %v", err)
	}
	fetched, err = store.FindUserByEmail(ctx, "liddell@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.CoverImageURL != "https://cdn.example.com/cover.png" {
		t.Fatalf("expected cover url to persist, got %q", fetched.CoverImageURL)
	}

	if _, err := store.UpdateUserDetails(ctx, uuid.NewString(), "x", "x@example.com", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing user, got %v", err)
	}

	users, err := store.FindUsers(ctx, []string{user.ID, uuid.NewString()})
	if err != nil {
		t.Fatalf("find users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected only the existing user, got %d", len(users))
	}
}

func TestPostgresUserRepository_RefreshTokenSwap(t *testing.T) {
	ctx := context.Background()
	store := resetDatabase(t)
	user := createTestUser(t, store, "carol")

	if err := store.SetRefreshToken(ctx, user.ID, "r1"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	swapped, err := store.SwapRefreshToken(ctx, user.ID, "r1", "r2")
	if err != nil || !swapped {
		t.Fatalf("expected first swap to succeed, got %v %v", swapped, err)
	}

	swapped, err = store.SwapRefreshToken(ctx, user.ID, "r1", "r3")
	if err != nil {
		t.Fatalf("swap reused token: %v", err)
	}
	if swapped {
		t.Fatal("expected reused token swap to fail")
	}

	if err := store.ClearRefreshToken(ctx, user.ID); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	fetched, err := store.FindUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if fetched.RefreshToken != "" {
		t.Fatalf("expected cleared token, got %q", fetched.RefreshToken)
	}
}

func TestPostgresPlaylistRepository_MembershipIsOrderedAndUnique(t *testing.T) {
	ctx := context.Background()
	store := resetDatabase(t)
	owner := createTestUser(t, store, "dave")
	first := createTestVideo(t, store, owner.ID, time.Now().UTC().Add(-time.Hour))
	second := createTestVideo(t, store, owner.ID, time.Now().UTC())

	now := time.Now().UTC()
	playlist := models.Playlist{ID: uuid.NewString(), OwnerID: owner.ID, Title: "Mix", Description: "d", CreatedAt: now, UpdatedAt: now}
	if err := store.CreatePlaylist(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	for i, id := range []string{second.ID, first.ID, second.ID} {
		added, err := store.AddPlaylistVideo(ctx, playlist.ID, id, now.Add(time.Duration(i+1)*time.Second))
		if err != nil {
			t.Fatalf("add video %d: %v", i, err)
		}
		if want := i < 2; added != want {
			t.Fatalf("add video %d: expected added=%v, got %v", i, want, added)
		}
	}

	if _, err := store.AddPlaylistVideo(ctx, playlist.ID, uuid.NewString(), now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound adding unknown video, got %v", err)
	}

	fetched, err := store.FindPlaylist(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find playlist: %v", err)
	}
	if len(fetched.VideoIDs) != 2 || fetched.VideoIDs[0] != second.ID || fetched.VideoIDs[1] != first.ID {
		t.Fatalf("unexpected playlist videos: %v", fetched.VideoIDs)
	}

	removed, err := store.RemovePlaylistVideo(ctx, playlist.ID, first.ID, now.Add(time.Minute))
	if err != nil || !removed {
		t.Fatalf("expected removal, got %v %v", removed, err)
	}
	removed, err = store.RemovePlaylistVideo(ctx, playlist.ID, first.ID, now.Add(time.Minute))
	if err != nil || removed {
		t.Fatalf("expected second removal to report absent, got %v %v", removed, err)
	}
}

func TestPostgresVideoRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	store := resetDatabase(t)
	owner := createTestUser(t, store, "erin")
	viewer := createTestUser(t, store, "frank")
	video := createTestVideo(t, store, owner.ID, time.Now().UTC())
	now := time.Now().UTC()

	playlist := models.Playlist{ID: uuid.NewString(), OwnerID: owner.ID, Title: "p", VideoIDs: []string{video.ID}, CreatedAt: now, UpdatedAt: now}
	if err := store.CreatePlaylist(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}
	comment := models.Comment{ID: uuid.NewString(), VideoID: video.ID, AuthorID: viewer.ID, Content: "nice", CreatedAt: now, UpdatedAt: now}
	if err := store.CreateComment(ctx, comment); err != nil {
		t.Fatalf("create comment: %v", err)
	}
	for _, target := range []models.LikeTarget{models.VideoTarget(video.ID), models.CommentTarget(comment.ID)} {
		if err := store.CreateLike(ctx, models.Like{ID: uuid.NewString(), Target: target, LikedBy: viewer.ID, CreatedAt: now}); err != nil {
			t.Fatalf("create like: %v", err)
		}
	}
	if err := store.PromoteWatchHistory(ctx, viewer.ID, video.ID, 10, now); err != nil {
		t.Fatalf("promote history: %v", err)
	}

	ok, err := store.IncrementVideoViews(ctx, video.ID)
	if err != nil || !ok {
		t.Fatalf("increment views: %v %v", ok, err)
	}

	if err := store.DeleteVideo(ctx, video.ID); err != nil {
		t.Fatalf("delete video: %v", err)
	}
	if err := store.DeleteVideo(ctx, video.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}

	fetched, err := store.FindPlaylist(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find playlist: %v", err)
	}
	if len(fetched.VideoIDs) != 0 {
		t.Fatalf("expected playlist entry to cascade, got %v", fetched.VideoIDs)
	}
	likes, err := store.ListLikes(ctx, models.VideoTarget(video.ID))
	if err != nil || len(likes) != 0 {
		t.Fatalf("expected video likes removed, got %v %v", likes, err)
	}
	likes, err = store.ListLikes(ctx, models.CommentTarget(comment.ID))
	if err != nil || len(likes) != 0 {
		t.Fatalf("expected comment likes removed, got %v %v", likes, err)
	}
	history, err := store.WatchHistory(ctx, viewer.ID)
	if err != nil || len(history) != 0 {
		t.Fatalf("expected history removed, got %v %v", history, err)
	}
}

func TestPostgresUserRepository_PromoteWatchHistory(t *testing.T) {
	ctx := context.Background()
	store := resetDatabase(t)
	viewer := createTestUser(t, store, "grace")
	base := time.Now().UTC().Truncate(time.Millisecond)

	videos := make([]models.Video, 3)
	for i := range videos {
		videos[i] = createTestVideo(t, store, viewer.ID, base)
	}

	for i, video := range []models.Video{videos[0], videos[1], videos[2], videos[0]} {
		if err := store.PromoteWatchHistory(ctx, viewer.ID, video.ID, 2, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("promote %d: %v", i, err)
		}
	}

	history, err := store.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	want := []string{videos[0].ID, videos[2].ID}
	if len(history) != len(want) || history[0] != want[0] || history[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, history)
	}
}

func TestPostgresUserRepository_PromoteWatchHistoryEqualTimestamps(t *testing.T) {
	ctx := context.Background()
	store := resetDatabase(t)
	viewer := createTestUser(t, store, "ivan")
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	a := createTestVideo(t, store, viewer.ID, at)
	b := createTestVideo(t, store, viewer.ID, at)

	for i, id := range []string{a.ID, b.ID, a.ID} {
		if err := store.PromoteWatchHistory(ctx, viewer.ID, id, 10, at); err != nil {
			t.Fatalf("promote %d: %v", i, err)
		}
	}

	history, err := store.WatchHistory(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 2 || history[0] != a.ID || history[1] != b.ID {
		t.Fatalf("expected re-viewed video first, got %v", history)
	}
}

func TestPostgresSocialRepositories(t *testing.T) {
	ctx := context.Background()
	store := resetDatabase(t)
	channel := createTestUser(t, store, "heidi")
	fan := createTestUser(t, store, "ivan")
	now := time.Now().UTC()

	sub := models.Subscription{ID: uuid.NewString(), SubscriberID: fan.ID, ChannelID: channel.ID, CreatedAt: now}
	if err := store.CreateSubscription(ctx, sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	sub.ID = uuid.NewString()
	if err := store.CreateSubscription(ctx, sub); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate subscription, got %v", err)
	}
	self := models.Subscription{ID: uuid.NewString(), SubscriberID: fan.ID, ChannelID: fan.ID, CreatedAt: now}
	if err := store.CreateSubscription(ctx, self); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on self subscription, got %v", err)
	}

	subs, err := store.ListSubscriptionsByChannel(ctx, channel.ID)
	if err != nil || len(subs) != 1 || subs[0].SubscriberID != fan.ID {
		t.Fatalf("unexpected channel subscriptions: %v %v", subs, err)
	}

	deleted, err := store.DeleteSubscription(ctx, fan.ID, channel.ID)
	if err != nil || !deleted {
		t.Fatalf("expected subscription delete, got %v %v", deleted, err)
	}
	subs, err = store.ListSubscriptionsBySubscriber(ctx, fan.ID)
	if err != nil || len(subs) != 0 {
		t.Fatalf("expected no subscriptions, got %v %v", subs, err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) *PostgresStore {
	t.Helper()
	if testPool == nil {
		t.Skip("cockroach test server unavailable")
	}

	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE likes, watch_history, comments, subscriptions, playlist_videos, playlists, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return NewPostgresStore(testPool)
}

func createTestUser(t *testing.T, store Store, username string) models.User {
	t.Helper()
	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     username,
		PasswordHash: "password-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	user.Username = models.NormalizeHandle(username)
	user.Email = models.NormalizeHandle(user.Email)
	return user
}

func createTestVideo(t *testing.T, store Store, ownerID string, createdAt time.Time) models.Video {
	t.Helper()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        "clip",
		MediaURL:     "https://cdn.example.com/clip.mp4",
		ThumbnailURL: "https://cdn.example.com/clip.png",
		Duration:     12.5,
		Published:    true,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if err := store.CreateVideo(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}
