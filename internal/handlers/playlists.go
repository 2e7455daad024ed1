package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vidfriends/mediahub/internal/aggregate"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/catalog"
)

// PlaylistHandler implements playlist endpoints. Every route requires an authenticated principal.
type PlaylistHandler struct {
	Catalog CatalogService
	Reads   ReadModels
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req catalog.PlaylistInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Catalog.CreatePlaylist(ctx, authz.PrincipalFromContext(ctx), req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.Reads.PlaylistWithVideosFor(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["playlistId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlist, "playlist fetched successfully")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req catalog.PlaylistInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	playlist, err := h.Catalog.UpdatePlaylist(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["playlistId"], req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Catalog.DeletePlaylist(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["playlistId"]); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, struct{}{}, "playlist deleted successfully")
}

// AddVideo handles POST /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	result, err := h.Catalog.AddVideoToPlaylist(ctx, authz.PrincipalFromContext(ctx), vars["playlistId"], vars["videoId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, result.Playlist, result.Message)
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	playlist, err := h.Catalog.RemoveVideoFromPlaylist(ctx, authz.PrincipalFromContext(ctx), vars["playlistId"], vars["videoId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlist, "video removed from playlist")
}

// UserPlaylists handles GET /api/v1/playlists/user/{userId}?sort=latest|oldest.
func (h PlaylistHandler) UserPlaylists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := aggregate.ParseSortOrder(r.URL.Query().Get("sort"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	playlists, err := h.Reads.UserPlaylists(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["userId"], order)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// UserPlaylistNames handles GET /api/v1/playlists/user/{userId}/names.
func (h PlaylistHandler) UserPlaylistNames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	names, err := h.Reads.UserPlaylistNames(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["userId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, names, "playlist names fetched successfully")
}

// ContainingVideo handles GET /api/v1/playlists/contains-video/{videoId}.
func (h PlaylistHandler) ContainingVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberships, err := h.Reads.PlaylistsContainingVideo(ctx, authz.PrincipalFromContext(ctx), mux.Vars(r)["videoId"])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, memberships, "playlists fetched successfully")
}
