package catalog

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/logging"
)

func TestPublishVideoUploadsAndAddsToPlaylists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	own, err := f.svc.CreatePlaylist(ctx, principal(alice), PlaylistInput{Title: "Mine", Description: "d"})
	require.NoError(t, err)
	foreign, err := f.svc.CreatePlaylist(ctx, principal(bob), PlaylistInput{Title: "Bob's", Description: "d"})
	require.NoError(t, err)
	missing := uuid.NewString()

	result, err := f.svc.PublishVideo(ctx, principal(alice), PublishInput{
		Title:         "Trip",
		Description:   "summer",
		Visibility:    VisibilityPublic,
		VideoPath:     "/tmp/trip.mp4",
		ThumbnailPath: "/tmp/trip.png",
		PlaylistIDs:   []string{own.ID, foreign.ID, missing},
	})
	require.NoError(t, err)

	assert.True(t, result.Video.Published)
	assert.Equal(t, cdnBase+"uploads/trip.mp4", result.Video.MediaURL)
	assert.Equal(t, cdnBase+"uploads/trip.png", result.Video.ThumbnailURL)
	assert.Equal(t, 31.5, result.Video.Duration)
	require.NotNil(t, result.Video.Owner)
	assert.Equal(t, "alice", result.Video.Owner.Username)
	assert.ElementsMatch(t, []string{"trip.mp4", "trip.png"}, f.uploader.uploaded)

	require.Len(t, result.Playlists, 3)
	assert.True(t, result.Playlists[0].Added)
	assert.False(t, result.Playlists[1].Added)
	assert.Equal(t, "unauthorized request, you don't own this playlist", result.Playlists[1].Message)
	assert.False(t, result.Playlists[2].Added)
	assert.Equal(t, "playlist not found", result.Playlists[2].Message)

	stored, err := f.store.FindPlaylist(ctx, own.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{result.Video.ID}, stored.VideoIDs)
}

func TestPublishVideoPrivateByDefault(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	result, err := f.svc.PublishVideo(context.Background(), principal(alice), PublishInput{
		Title:         "Draft",
		VideoPath:     "/tmp/draft.mp4",
		ThumbnailPath: "/tmp/draft.png",
	})
	require.NoError(t, err)
	assert.False(t, result.Video.Published)
	require.NotNil(t, result.Playlists)
	assert.Empty(t, result.Playlists)
}

func TestPublishVideoValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	_, err := f.svc.PublishVideo(ctx, principal(alice), PublishInput{VideoPath: "a.mp4", ThumbnailPath: "a.png"})
	requireKind(t, err, apperr.KindBadRequest)
	_, err = f.svc.PublishVideo(ctx, principal(alice), PublishInput{Title: "x", VideoPath: "a.mp4"})
	requireKind(t, err, apperr.KindBadRequest)
	_, err = f.svc.PublishVideo(ctx, principal(alice), PublishInput{Title: "x", VideoPath: "a.mp4", ThumbnailPath: "a.png", PlaylistIDs: []string{"bad"}})
	requireKind(t, err, apperr.KindBadRequest)
	_, err = f.svc.PublishVideo(ctx, nil, PublishInput{Title: "x", VideoPath: "a.mp4", ThumbnailPath: "a.png"})
	requireKind(t, err, apperr.KindUnauthorized)
	assert.Empty(t, f.uploader.uploaded)
}

func TestPublishVideoDiscardsPartialUpload(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.uploader.fail["broken.png"] = errors.New("upload failed")

	var logs bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.NewLogger("info", &logs))
	_, err := f.svc.PublishVideo(ctx, principal(alice), PublishInput{
		Title:         "Trip",
		VideoPath:     "/tmp/ok.mp4",
		ThumbnailPath: "/tmp/broken.png",
	})
	requireKind(t, err, apperr.KindInternal)
	assert.Equal(t, []string{"uploads/ok.mp4"}, f.cleaner.ids())
	assert.Contains(t, logs.String(), `"msg":"span failed"`)
	assert.Contains(t, logs.String(), `"span_name":"catalog.PublishVideo"`)

	videos, err := f.store.ListVideosByOwner(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Empty(t, videos)
}

func TestUpdateVideoReplacesThumbnail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	video := f.video(t, alice)

	_, err := f.svc.UpdateVideo(ctx, principal(bob), video.ID, VideoUpdate{Title: "Mine now"})
	requireKind(t, err, apperr.KindUnauthorized)
	_, err = f.svc.UpdateVideo(ctx, principal(alice), video.ID, VideoUpdate{})
	requireKind(t, err, apperr.KindBadRequest)

	updated, err := f.svc.UpdateVideo(ctx, principal(alice), video.ID, VideoUpdate{Title: "Better", ThumbnailPath: "/tmp/new.png"})
	require.NoError(t, err)
	assert.Equal(t, "Better", updated.Title)
	assert.Equal(t, cdnBase+"uploads/new.png", updated.ThumbnailURL)
	assert.Equal(t, []string{video.ThumbnailPublicID}, f.cleaner.ids())
}

func TestTogglePublish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	video := f.video(t, alice)

	_, err := f.svc.TogglePublish(ctx, principal(bob), video.ID)
	requireKind(t, err, apperr.KindUnauthorized)

	toggled, err := f.svc.TogglePublish(ctx, principal(alice), video.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Published)

	toggled, err = f.svc.TogglePublish(ctx, principal(alice), video.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Published)
}

func TestDeleteVideoCascadesAndCleansMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	video := f.video(t, alice)

	playlist, err := f.svc.CreatePlaylist(ctx, principal(bob), PlaylistInput{Title: "Bob's", Description: "d", VideoIDs: []string{video.ID}})
	require.NoError(t, err)

	requireKind(t, f.svc.DeleteVideo(ctx, principal(bob), video.ID), apperr.KindUnauthorized)
	require.NoError(t, f.svc.DeleteVideo(ctx, principal(alice), video.ID))

	_, err = f.store.FindVideo(ctx, video.ID)
	require.Error(t, err)
	stored, err := f.store.FindPlaylist(ctx, playlist.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.VideoIDs)
	assert.ElementsMatch(t, []string{video.MediaPublicID, video.ThumbnailPublicID}, f.cleaner.ids())

	requireKind(t, f.svc.DeleteVideo(ctx, principal(alice), video.ID), apperr.KindNotFound)
}
