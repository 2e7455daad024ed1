package models

import "time"

// OwnerProfile is the public-safe projection of a user embedded in other views.
type OwnerProfile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatar"`
}

// AccountView is the user record returned to its own owner.
type AccountView struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewAccountView projects a user onto the self-visible account fields.
func NewAccountView(u User) AccountView {
	return AccountView{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// VideoView is a video joined with its owner.
type VideoView struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	MediaURL     string        `json:"videoFile"`
	ThumbnailURL string        `json:"thumbnail"`
	Duration     float64       `json:"duration"`
	Views        int64         `json:"views"`
	Published    bool          `json:"isPublished"`
	Owner        *OwnerProfile `json:"owner"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// NewVideoView projects a video and its optional owner.
func NewVideoView(v Video, owner *OwnerProfile) VideoView {
	return VideoView{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		MediaURL:     v.MediaURL,
		ThumbnailURL: v.ThumbnailURL,
		Duration:     v.Duration,
		Views:        v.Views,
		Published:    v.Published,
		Owner:        owner,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

// PlaylistWithVideos is a playlist joined with its videos and their owners.
type PlaylistWithVideos struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	OwnerID     string      `json:"owner"`
	Videos      []VideoView `json:"videos"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// VideoDetail is a video with owner and engagement figures relative to a viewer.
type VideoDetail struct {
	VideoView
	LikesCount       int  `json:"likesCount"`
	SubscribersCount int  `json:"subscribersCount"`
	IsLiked          bool `json:"isLiked"`
	IsSubscribed     bool `json:"isSubscribed"`
}

// ChannelProfile is a user's public channel page relative to a viewer.
type ChannelProfile struct {
	ID                        string `json:"id"`
	Username                  string `json:"username"`
	FullName                  string `json:"fullName"`
	AvatarURL                 string `json:"avatar"`
	CoverImageURL             string `json:"coverImage"`
	SubscribersCount          int    `json:"subscribersCount"`
	ChannelsSubscribedToCount int    `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// PlaylistSummary is the id and title of a playlist.
type PlaylistSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PlaylistMembership reports whether a playlist contains a given video.
type PlaylistMembership struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ContainsVideo bool   `json:"containsVideo"`
}

// CommentView is a comment joined with its author and like count.
type CommentView struct {
	ID         string        `json:"id"`
	VideoID    string        `json:"video"`
	ParentID   string        `json:"parentComment,omitempty"`
	Content    string        `json:"content"`
	Author     *OwnerProfile `json:"author"`
	LikesCount int           `json:"likesCount"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// SubscriptionView is one side of a subscription joined with the other user's profile.
type SubscriptionView struct {
	ID           string        `json:"id"`
	User         *OwnerProfile `json:"user"`
	SubscribedAt time.Time     `json:"subscribedAt"`
}
