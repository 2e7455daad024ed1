package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/catalog"
	"github.com/vidfriends/mediahub/internal/models"
)

// SocialHandler implements subscription, like and comment endpoints.
type SocialHandler struct {
	Catalog CatalogService
	Reads   ReadModels
}

// ToggleSubscription handles POST /api/v1/subscriptions/c/{channelId}.
func (h SocialHandler) ToggleSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.Catalog.ToggleSubscription(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["channelId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	message := "unsubscribed successfully"
	if result.Active {
		message = "subscribed successfully"
	}
	respond(ctx, w, http.StatusOK, map[string]bool{"subscribed": result.Active}, message)
}

// ChannelSubscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SocialHandler) ChannelSubscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscribers, err := h.Reads.ChannelSubscribers(ctx, mux.Vars(r)["channelId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, subscribers, "subscribers fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SocialHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	channels, err := h.Reads.SubscribedChannels(ctx, mux.Vars(r)["subscriberId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, channels, "subscribed channels fetched successfully")
}

// ToggleVideoLike handles POST /api/v1/likes/videos/{videoId}.
func (h SocialHandler) ToggleVideoLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, models.VideoTarget(mux.Vars(r)["videoId"]))
}

// ToggleCommentLike handles POST /api/v1/likes/comments/{commentId}.
func (h SocialHandler) ToggleCommentLike(w http.ResponseWriter, r *http.Request) {
	h.toggleLike(w, r, models.CommentTarget(mux.Vars(r)["commentId"]))
}

func (h SocialHandler) toggleLike(w http.ResponseWriter, r *http.Request, target models.LikeTarget) {
	ctx := r.Context()
	result, err := h.Catalog.ToggleLike(ctx, authz.PrincipalFromContext(ctx), target)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	message := "like removed"
	if result.Active {
		message = "liked successfully"
	}
	respond(ctx, w, http.StatusOK, map[string]bool{"liked": result.Active}, message)
}

// Comments handles GET /api/v1/videos/{videoId}/comments.
func (h SocialHandler) Comments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	comments, err := h.Reads.VideoComments(ctx, mux.Vars(r)["videoId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, comments, "comments fetched successfully")
}

// AddComment handles POST /api/v1/videos/{videoId}/comments.
func (h SocialHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req catalog.CommentInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	comment, err := h.Catalog.AddComment(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["videoId"], req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, comment, "comment added successfully")
}
