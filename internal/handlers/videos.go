package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/catalog"
	"github.com/vidfriends/mediahub/internal/models"
)

// VideoHandler implements video endpoints.
type VideoHandler struct {
	Catalog CatalogService
	Reads   ReadModels
	Uploads Uploads
}

type videoUpdateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Publish handles POST /api/v1/videos as a multipart upload with videoFile and thumbnail
// files, and an optional JSON array of playlist ids in playlistIds.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staged, err := h.Uploads.stage(w, r, "videoFile", "thumbnail")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer staged.cleanup(r)

	var playlistIDs []string
	if raw := strings.TrimSpace(r.FormValue("playlistIds")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &playlistIDs); err != nil {
			respondError(ctx, w, apperr.BadRequest("invalid format for playlistIds"))
			return
		}
	}

	result, err := h.Catalog.PublishVideo(ctx, authz.PrincipalFromContext(ctx), catalog.PublishInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Visibility:    r.FormValue("visibility"),
		VideoPath:     staged["videoFile"],
		ThumbnailPath: staged["thumbnail"],
		PlaylistIDs:   playlistIDs,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, result, "video published successfully")
}

// ChannelVideos handles GET /api/v1/videos?channelId=.
func (h VideoHandler) ChannelVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	videos, err := h.Reads.ChannelVideos(ctx, authz.PrincipalFromContext(ctx), r.URL.Query().Get("channelId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, videos, "videos fetched successfully")
}

// Get handles GET /api/v1/videos/{videoId}. Anonymous viewers are allowed.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	detail, err := h.Reads.VideoWithEngagement(ctx, mux.Vars(r)["videoId"], authz.PrincipalFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, detail, "video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId}. A multipart body may carry a new thumbnail;
// otherwise the body is JSON.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var in catalog.VideoUpdate
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		staged, err := h.Uploads.stage(w, r, "thumbnail")
		if err != nil {
			respondError(ctx, w, err)
			return
		}
		defer staged.cleanup(r)
		in = catalog.VideoUpdate{
			Title:         r.FormValue("title"),
			Description:   r.FormValue("description"),
			ThumbnailPath: staged["thumbnail"],
		}
	} else {
		var req videoUpdateRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(ctx, w, err)
			return
		}
		in = catalog.VideoUpdate{Title: req.Title, Description: req.Description}
	}

	video, err := h.Catalog.UpdateVideo(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["videoId"], in)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, models.NewVideoView(video, nil), "video updated successfully")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	video, err := h.Catalog.TogglePublish(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["videoId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, models.NewVideoView(video, nil), "publish status toggled")
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Catalog.DeleteVideo(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["videoId"]); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}
