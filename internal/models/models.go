package models

import (
	"errors"
	"strings"
	"time"
)

// User represents an account within the mediahub platform.
type User struct {
	ID            string
	Username      string
	Email         string
	FullName      string
	PasswordHash  string
	AvatarURL     string
	CoverImageURL string
	// RefreshToken is empty when the user has no active session.
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy of the user without credential material.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	u.RefreshToken = ""
	return u
}

// Public projects the user onto the fields other users may see.
func (u User) Public() OwnerProfile {
	return OwnerProfile{
		ID:        u.ID,
		Username:  u.Username,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
	}
}

// NormalizeHandle case-folds usernames and emails before storage or lookup.
func NormalizeHandle(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// UserImage names one of the two profile image slots.
type UserImage string

const (
	UserImageAvatar UserImage = "avatar"
	UserImageCover  UserImage = "cover"
)

// Video is an uploaded media item owned by a user.
type Video struct {
	ID                string
	OwnerID           string
	Title             string
	Description       string
	MediaURL          string
	MediaPublicID     string
	ThumbnailURL      string
	ThumbnailPublicID string
	Duration          float64
	Views             int64
	Published         bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Playlist is an ordered, duplicate-free collection of videos.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Contains reports whether the playlist already lists the video.
func (p Playlist) Contains(videoID string) bool {
	for _, id := range p.VideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// Subscription links a subscriber to a channel. The record's existence is the subscription.
type Subscription struct {
	ID           string
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// LikeKind discriminates the target of a like.
type LikeKind string

const (
	LikeKindVideo   LikeKind = "video"
	LikeKindComment LikeKind = "comment"
	LikeKindTweet   LikeKind = "tweet"
)

// ErrInvalidLikeTarget is returned when a like target is not one of the known kinds.
var ErrInvalidLikeTarget = errors.New("invalid like target")

// LikeTarget is the single entity a like refers to.
type LikeTarget struct {
	Kind LikeKind
	ID   string
}

// VideoTarget targets a video.
func VideoTarget(id string) LikeTarget { return LikeTarget{Kind: LikeKindVideo, ID: id} }

// CommentTarget targets a comment.
func CommentTarget(id string) LikeTarget { return LikeTarget{Kind: LikeKindComment, ID: id} }

// TweetTarget targets a tweet.
func TweetTarget(id string) LikeTarget { return LikeTarget{Kind: LikeKindTweet, ID: id} }

// Validate ensures the target names a known kind and a non-empty id.
func (t LikeTarget) Validate() error {
	switch t.Kind {
	case LikeKindVideo, LikeKindComment, LikeKindTweet:
	default:
		return ErrInvalidLikeTarget
	}
	if strings.TrimSpace(t.ID) == "" {
		return ErrInvalidLikeTarget
	}
	return nil
}

// Like records that a user liked exactly one target.
type Like struct {
	ID        string
	Target    LikeTarget
	LikedBy   string
	CreatedAt time.Time
}

// Comment is a message left on a video, optionally replying to another comment.
type Comment struct {
	ID        string
	VideoID   string
	AuthorID  string
	ParentID  string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
