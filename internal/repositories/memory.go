package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vidfriends/mediahub/internal/models"
)

// MemoryStore implements Store with in-process maps for tests and local development.
// It enforces the same uniqueness and reference rules as the PostgreSQL schema.
type MemoryStore struct {
	mu            sync.RWMutex
	users         map[string]models.User
	videos        map[string]models.Video
	playlists     map[string]models.Playlist
	subscriptions map[string]models.Subscription
	likes         map[string]models.Like
	comments      map[string]models.Comment
	// history holds each user's watched video ids, most recent first.
	history map[string][]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]models.User),
		videos:        make(map[string]models.Video),
		playlists:     make(map[string]models.Playlist),
		subscriptions: make(map[string]models.Subscription),
		likes:         make(map[string]models.Like),
		comments:      make(map[string]models.Comment),
		history:       make(map[string][]string),
	}
}

// CreateUser stores the user, rejecting duplicate ids, usernames and emails.
func (s *MemoryStore) CreateUser(_ context.Context, user models.User) error {
	user.Username = models.NormalizeHandle(user.Username)
	user.Email = models.NormalizeHandle(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

// FindUserByID fetches a user by identifier.
func (s *MemoryStore) FindUserByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

// FindUserByUsername fetches a user by case-folded username.
func (s *MemoryStore) FindUserByUsername(_ context.Context, username string) (models.User, error) {
	username = models.NormalizeHandle(username)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// FindUserByEmail fetches a user by case-folded email.
func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	email = models.NormalizeHandle(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// FindUsers fetches the listed users, skipping unknown ids.
func (s *MemoryStore) FindUsers(_ context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if user, ok := s.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

// UpdateUserDetails changes the full name and email.
func (s *MemoryStore) UpdateUserDetails(_ context.Context, id, fullName, email string, at time.Time) (models.User, error) {
	email = models.NormalizeHandle(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && other.Email == email {
			return models.User{}, ErrConflict
		}
	}
	user.FullName = fullName
	user.Email = email
	user.UpdatedAt = at
	s.users[id] = user
	return user, nil
}

// UpdateUserPassword stores a new password hash.
func (s *MemoryStore) UpdateUserPassword(_ context.Context, id, passwordHash string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = at
	s.users[id] = user
	return nil
}

// SetUserImage replaces the avatar or cover image URL.
func (s *MemoryStore) SetUserImage(_ context.Context, id string, image models.UserImage, url string, at time.Time) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	if image == models.UserImageCover {
		user.CoverImageURL = url
	} else {
		user.AvatarURL = url
	}
	user.UpdatedAt = at
	s.users[id] = user
	return user, nil
}

// SetRefreshToken overwrites the persisted refresh token.
func (s *MemoryStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.RefreshToken = token
	s.users[userID] = user
	return nil
}

// SwapRefreshToken replaces the refresh token only while it still equals current.
func (s *MemoryStore) SwapRefreshToken(_ context.Context, userID, current, next string) (bool, error) {
	if current == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok || user.RefreshToken != current {
		return false, nil
	}
	user.RefreshToken = next
	s.users[userID] = user
	return true, nil
}

// ClearRefreshToken removes the persisted refresh token.
func (s *MemoryStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	user.RefreshToken = ""
	s.users[userID] = user
	return nil
}

// PromoteWatchHistory moves the video to the front of the user's history and keeps only
// the newest limit entries. Order follows call order, so equal timestamps still promote.
func (s *MemoryStore) PromoteWatchHistory(_ context.Context, userID, videoID string, limit int, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.videos[videoID]; !ok {
		return ErrNotFound
	}

	entries := append([]string{videoID}, removeID(s.history[userID], videoID)...)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	s.history[userID] = entries
	return nil
}

// WatchHistory lists watched video ids, most recent first.
func (s *MemoryStore) WatchHistory(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string{}, s.history[userID]...), nil
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// CreateVideo stores the video. The owner must exist.
func (s *MemoryStore) CreateVideo(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[video.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.users[video.OwnerID]; !ok {
		return ErrNotFound
	}
	s.videos[video.ID] = video
	return nil
}

// FindVideo fetches a single video.
func (s *MemoryStore) FindVideo(_ context.Context, id string) (models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return video, nil
}

// FindVideos fetches the listed videos, skipping unknown ids.
func (s *MemoryStore) FindVideos(_ context.Context, ids []string) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := make([]models.Video, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if video, ok := s.videos[id]; ok {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

// ListVideosByOwner lists a channel's videos, newest first.
func (s *MemoryStore) ListVideosByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	videos := []models.Video{}
	for _, video := range s.videos {
		if video.OwnerID == ownerID {
			videos = append(videos, video)
		}
	}
	sort.Slice(videos, func(i, j int) bool {
		if !videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].CreatedAt.After(videos[j].CreatedAt)
		}
		return videos[i].ID < videos[j].ID
	})
	return videos, nil
}

// IncrementVideoViews bumps the view counter.
func (s *MemoryStore) IncrementVideoViews(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return false, nil
	}
	video.Views++
	s.videos[id] = video
	return true, nil
}

// UpdateVideoDetails changes the title and description.
func (s *MemoryStore) UpdateVideoDetails(_ context.Context, id, title, description string, at time.Time) (models.Video, error) {
	return s.mutateVideo(id, func(v *models.Video) {
		v.Title = title
		v.Description = description
		v.UpdatedAt = at
	})
}

// UpdateVideoThumbnail replaces the thumbnail reference.
func (s *MemoryStore) UpdateVideoThumbnail(_ context.Context, id, url, publicID string, at time.Time) (models.Video, error) {
	return s.mutateVideo(id, func(v *models.Video) {
		v.ThumbnailURL = url
		v.ThumbnailPublicID = publicID
		v.UpdatedAt = at
	})
}

// SetVideoPublished sets the published flag.
func (s *MemoryStore) SetVideoPublished(_ context.Context, id string, published bool, at time.Time) (models.Video, error) {
	return s.mutateVideo(id, func(v *models.Video) {
		v.Published = published
		v.UpdatedAt = at
	})
}

func (s *MemoryStore) mutateVideo(id string, mutate func(*models.Video)) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	mutate(&video)
	s.videos[id] = video
	return video, nil
}

// DeleteVideo removes the video and everything that references it.
func (s *MemoryStore) DeleteVideo(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[id]; !ok {
		return ErrNotFound
	}
	delete(s.videos, id)

	for pid, playlist := range s.playlists {
		if playlist.Contains(id) {
			playlist.VideoIDs = removeID(playlist.VideoIDs, id)
			s.playlists[pid] = playlist
		}
	}

	for cid, comment := range s.comments {
		if comment.VideoID != id {
			continue
		}
		delete(s.comments, cid)
		s.deleteLikesLocked(models.CommentTarget(cid))
	}
	s.deleteLikesLocked(models.VideoTarget(id))

	for userID, entries := range s.history {
		s.history[userID] = removeID(entries, id)
	}
	return nil
}

func (s *MemoryStore) deleteLikesLocked(target models.LikeTarget) {
	for lid, like := range s.likes {
		if like.Target == target {
			delete(s.likes, lid)
		}
	}
}

// CreatePlaylist stores the playlist. Duplicate initial videos are collapsed.
func (s *MemoryStore) CreatePlaylist(_ context.Context, playlist models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[playlist.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.users[playlist.OwnerID]; !ok {
		return ErrNotFound
	}

	ids := make([]string, 0, len(playlist.VideoIDs))
	for _, videoID := range playlist.VideoIDs {
		if _, ok := s.videos[videoID]; !ok {
			return ErrNotFound
		}
		if !containsID(ids, videoID) {
			ids = append(ids, videoID)
		}
	}
	playlist.VideoIDs = ids
	s.playlists[playlist.ID] = playlist
	return nil
}

// FindPlaylist fetches a playlist with its ordered video ids.
func (s *MemoryStore) FindPlaylist(_ context.Context, id string) (models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	return clonePlaylist(playlist), nil
}

// ListPlaylistsByOwner lists a user's playlists in creation order.
func (s *MemoryStore) ListPlaylistsByOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlists := []models.Playlist{}
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			playlists = append(playlists, clonePlaylist(playlist))
		}
	}
	sort.Slice(playlists, func(i, j int) bool {
		if !playlists[i].CreatedAt.Equal(playlists[j].CreatedAt) {
			return playlists[i].CreatedAt.Before(playlists[j].CreatedAt)
		}
		return playlists[i].ID < playlists[j].ID
	})
	return playlists, nil
}

// UpdatePlaylistDetails changes the title and description.
func (s *MemoryStore) UpdatePlaylistDetails(_ context.Context, id, title, description string, at time.Time) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	playlist.Title = title
	playlist.Description = description
	playlist.UpdatedAt = at
	s.playlists[id] = playlist
	return clonePlaylist(playlist), nil
}

// DeletePlaylist removes the playlist.
func (s *MemoryStore) DeletePlaylist(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[id]; !ok {
		return ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

// AddPlaylistVideo appends the video unless it is already listed.
func (s *MemoryStore) AddPlaylistVideo(_ context.Context, playlistID, videoID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.playlists[playlistID]
	if !ok {
		return false, ErrNotFound
	}
	if _, ok := s.videos[videoID]; !ok {
		return false, ErrNotFound
	}
	if playlist.Contains(videoID) {
		return false, nil
	}
	playlist.VideoIDs = append(append([]string(nil), playlist.VideoIDs...), videoID)
	playlist.UpdatedAt = at
	s.playlists[playlistID] = playlist
	return true, nil
}

// RemovePlaylistVideo drops the video from the playlist.
func (s *MemoryStore) RemovePlaylistVideo(_ context.Context, playlistID, videoID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playlist, ok := s.playlists[playlistID]
	if !ok || !playlist.Contains(videoID) {
		return false, nil
	}
	playlist.VideoIDs = removeID(playlist.VideoIDs, videoID)
	playlist.UpdatedAt = at
	s.playlists[playlistID] = playlist
	return true, nil
}

// CreateSubscription stores a subscription between two distinct existing users.
func (s *MemoryStore) CreateSubscription(_ context.Context, subscription models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if subscription.SubscriberID == subscription.ChannelID {
		return ErrConflict
	}
	if _, ok := s.users[subscription.SubscriberID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.users[subscription.ChannelID]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.subscriptions {
		if existing.ID == subscription.ID ||
			(existing.SubscriberID == subscription.SubscriberID && existing.ChannelID == subscription.ChannelID) {
			return ErrConflict
		}
	}
	s.subscriptions[subscription.ID] = subscription
	return nil
}

// DeleteSubscription removes the subscription between the pair.
func (s *MemoryStore) DeleteSubscription(_ context.Context, subscriberID, channelID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.subscriptions {
		if existing.SubscriberID == subscriberID && existing.ChannelID == channelID {
			delete(s.subscriptions, id)
			return true, nil
		}
	}
	return false, nil
}

// ListSubscriptionsByChannel lists everyone subscribed to the channel.
func (s *MemoryStore) ListSubscriptionsByChannel(_ context.Context, channelID string) ([]models.Subscription, error) {
	return s.filterSubscriptions(func(sub models.Subscription) bool { return sub.ChannelID == channelID }), nil
}

// ListSubscriptionsBySubscriber lists the channels a user subscribes to.
func (s *MemoryStore) ListSubscriptionsBySubscriber(_ context.Context, subscriberID string) ([]models.Subscription, error) {
	return s.filterSubscriptions(func(sub models.Subscription) bool { return sub.SubscriberID == subscriberID }), nil
}

func (s *MemoryStore) filterSubscriptions(keep func(models.Subscription) bool) []models.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subscriptions := []models.Subscription{}
	for _, sub := range s.subscriptions {
		if keep(sub) {
			subscriptions = append(subscriptions, sub)
		}
	}
	sort.Slice(subscriptions, func(i, j int) bool {
		if !subscriptions[i].CreatedAt.Equal(subscriptions[j].CreatedAt) {
			return subscriptions[i].CreatedAt.Before(subscriptions[j].CreatedAt)
		}
		return subscriptions[i].ID < subscriptions[j].ID
	})
	return subscriptions
}

// CreateLike stores a like. Liking the same target twice reports ErrConflict.
func (s *MemoryStore) CreateLike(_ context.Context, like models.Like) error {
	if err := like.Target.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[like.LikedBy]; !ok {
		return ErrNotFound
	}
	for _, existing := range s.likes {
		if existing.ID == like.ID || (existing.Target == like.Target && existing.LikedBy == like.LikedBy) {
			return ErrConflict
		}
	}
	s.likes[like.ID] = like
	return nil
}

// DeleteLike removes the user's like on the target.
func (s *MemoryStore) DeleteLike(_ context.Context, target models.LikeTarget, likedBy string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, like := range s.likes {
		if like.Target == target && like.LikedBy == likedBy {
			delete(s.likes, id)
			return true, nil
		}
	}
	return false, nil
}

// ListLikes lists every like on the target.
func (s *MemoryStore) ListLikes(_ context.Context, target models.LikeTarget) ([]models.Like, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	likes := []models.Like{}
	for _, like := range s.likes {
		if like.Target == target {
			likes = append(likes, like)
		}
	}
	sort.Slice(likes, func(i, j int) bool {
		if !likes[i].CreatedAt.Equal(likes[j].CreatedAt) {
			return likes[i].CreatedAt.Before(likes[j].CreatedAt)
		}
		return likes[i].ID < likes[j].ID
	})
	return likes, nil
}

// CreateComment stores a comment. The video, author and any parent must exist.
func (s *MemoryStore) CreateComment(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[comment.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.videos[comment.VideoID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.users[comment.AuthorID]; !ok {
		return ErrNotFound
	}
	if comment.ParentID != "" {
		if _, ok := s.comments[comment.ParentID]; !ok {
			return ErrNotFound
		}
	}
	s.comments[comment.ID] = comment
	return nil
}

// FindComment fetches a comment by id.
func (s *MemoryStore) FindComment(_ context.Context, id string) (models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, ErrNotFound
	}
	return comment, nil
}

// ListCommentsByVideo lists a video's comments, oldest first.
func (s *MemoryStore) ListCommentsByVideo(_ context.Context, videoID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := []models.Comment{}
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
	return comments, nil
}

func clonePlaylist(p models.Playlist) models.Playlist {
	p.VideoIDs = append([]string{}, p.VideoIDs...)
	return p
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
