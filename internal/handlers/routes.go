package handlers

import (
	"net/http"
	"net/netip"

	"github.com/gorilla/mux"

	"github.com/vidfriends/mediahub/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts     AccountService
	Sessions     SessionIssuer
	Catalog      CatalogService
	Reads        ReadModels
	Uploads      Uploads
	AuthLimiter  middleware.RateLimiter
	Database     Pinger
	SecureCookie bool

	// TrustedProxies are the peers allowed to name the client via X-Forwarded-For.
	TrustedProxies []netip.Prefix
}

// RegisterRoutes wires HTTP handlers into the provided router.
func RegisterRoutes(router *mux.Router, deps Dependencies) {
	health := HealthHandler{Database: deps.Database}
	users := UserHandler{
		Accounts:     deps.Accounts,
		Sessions:     deps.Sessions,
		Reads:        deps.Reads,
		Uploads:      deps.Uploads,
		SecureCookie: deps.SecureCookie,
	}
	playlists := PlaylistHandler{Catalog: deps.Catalog, Reads: deps.Reads}
	videos := VideoHandler{Catalog: deps.Catalog, Reads: deps.Reads, Uploads: deps.Uploads}
	social := SocialHandler{Catalog: deps.Catalog, Reads: deps.Reads}

	requireAuth := middleware.RequireAuth(deps.Sessions)
	optionalAuth := middleware.OptionalAuth(deps.Sessions)
	limited := func(scope string, h http.HandlerFunc) http.Handler {
		return middleware.RateLimit(deps.AuthLimiter, scope, deps.TrustedProxies...)(h)
	}

	router.HandleFunc("/healthz", health.Handle).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	// Public account routes.
	api.HandleFunc("/users/register", users.Register).Methods(http.MethodPost)
	api.Handle("/users/login", limited("login", users.Login)).Methods(http.MethodPost)
	api.Handle("/users/refresh-token", limited("refresh", users.RefreshToken)).Methods(http.MethodPost)

	// Routes that tolerate anonymous viewers.
	open := api.NewRoute().Subrouter()
	open.Use(optionalAuth)
	open.HandleFunc("/videos", videos.ChannelVideos).Methods(http.MethodGet)
	open.HandleFunc("/videos/{videoId}", videos.Get).Methods(http.MethodGet)
	open.HandleFunc("/videos/{videoId}/comments", social.Comments).Methods(http.MethodGet)

	secured := api.NewRoute().Subrouter()
	secured.Use(requireAuth)

	secured.HandleFunc("/users/logout", users.Logout).Methods(http.MethodPost)
	secured.HandleFunc("/users/current-user", users.CurrentUser).Methods(http.MethodGet)
	secured.HandleFunc("/users/change-password", users.ChangePassword).Methods(http.MethodPost)
	secured.HandleFunc("/users/update-account", users.UpdateAccount).Methods(http.MethodPatch)
	secured.HandleFunc("/users/avatar", users.UpdateAvatar).Methods(http.MethodPatch)
	secured.HandleFunc("/users/avatar", users.DeleteAvatar).Methods(http.MethodDelete)
	secured.HandleFunc("/users/cover-image", users.UpdateCoverImage).Methods(http.MethodPatch)
	secured.HandleFunc("/users/cover-image", users.DeleteCoverImage).Methods(http.MethodDelete)
	secured.HandleFunc("/users/c/{username}", users.ChannelProfile).Methods(http.MethodGet)
	secured.HandleFunc("/users/history", users.WatchHistory).Methods(http.MethodGet)

	secured.HandleFunc("/videos", videos.Publish).Methods(http.MethodPost)
	secured.HandleFunc("/videos/{videoId}", videos.Update).Methods(http.MethodPatch)
	secured.HandleFunc("/videos/{videoId}", videos.Delete).Methods(http.MethodDelete)
	secured.HandleFunc("/videos/{videoId}/publish", videos.TogglePublish).Methods(http.MethodPatch)
	secured.HandleFunc("/videos/{videoId}/comments", social.AddComment).Methods(http.MethodPost)

	secured.HandleFunc("/likes/videos/{videoId}", social.ToggleVideoLike).Methods(http.MethodPost)
	secured.HandleFunc("/likes/comments/{commentId}", social.ToggleCommentLike).Methods(http.MethodPost)

	secured.HandleFunc("/subscriptions/c/{channelId}", social.ToggleSubscription).Methods(http.MethodPost)
	secured.HandleFunc("/subscriptions/c/{channelId}", social.ChannelSubscribers).Methods(http.MethodGet)
	secured.HandleFunc("/subscriptions/u/{subscriberId}", social.SubscribedChannels).Methods(http.MethodGet)

	secured.HandleFunc("/playlists", playlists.Create).Methods(http.MethodPost)
	secured.HandleFunc("/playlists/user/{userId}/names", playlists.UserPlaylistNames).Methods(http.MethodGet)
	secured.HandleFunc("/playlists/user/{userId}", playlists.UserPlaylists).Methods(http.MethodGet)
	secured.HandleFunc("/playlists/contains-video/{videoId}", playlists.ContainingVideo).Methods(http.MethodGet)
	secured.HandleFunc("/playlists/{playlistId}", playlists.Get).Methods(http.MethodGet)
	secured.HandleFunc("/playlists/{playlistId}", playlists.Update).Methods(http.MethodPatch)
	secured.HandleFunc("/playlists/{playlistId}", playlists.Delete).Methods(http.MethodDelete)
	secured.HandleFunc("/playlists/{playlistId}/videos/{videoId}", playlists.AddVideo).Methods(http.MethodPost)
	secured.HandleFunc("/playlists/{playlistId}/videos/{videoId}", playlists.RemoveVideo).Methods(http.MethodDelete)
}
