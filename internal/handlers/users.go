package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/catalog"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/middleware"
	"github.com/vidfriends/mediahub/internal/models"
)

const refreshCookie = "refreshToken"

// UserHandler implements account, session and channel endpoints.
type UserHandler struct {
	Accounts     AccountService
	Sessions     SessionIssuer
	Reads        ReadModels
	Uploads      Uploads
	SecureCookie bool
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type sessionResponse struct {
	User         models.AccountView `json:"user"`
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	staged, err := h.Uploads.stage(w, r, "avatar", "coverImage")
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer staged.cleanup(r)

	user, err := h.Accounts.Register(ctx, catalog.Registration{
		Username:   r.FormValue("username"),
		Email:      r.FormValue("email"),
		FullName:   r.FormValue("fullName"),
		Password:   r.FormValue("password"),
		AvatarPath: staged["avatar"],
		CoverPath:  staged["coverImage"],
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	logging.FromContext(ctx).Info("user registered", "userId", user.ID)
	respond(ctx, w, http.StatusCreated, models.NewAccountView(user), "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	identifier := req.Email
	if strings.TrimSpace(identifier) == "" {
		identifier = req.Username
	}

	user, err := h.Accounts.Login(ctx, identifier, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, sessionResponse{
		User:         models.NewAccountView(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := authz.PrincipalFromContext(ctx)
	if principal == nil {
		respondError(ctx, w, apperr.Unauthorized("unauthorized request"))
		return
	}

	if err := h.Sessions.Revoke(ctx, principal.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	h.clearSessionCookies(w)
	respond(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The refresh token is read from
// its cookie, falling back to the JSON body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	presented := ""
	if cookie, err := r.Cookie(refreshCookie); err == nil {
		presented = strings.TrimSpace(cookie.Value)
	}
	if presented == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(ctx, w, err)
			return
		}
		presented = strings.TrimSpace(req.RefreshToken)
	}
	if presented == "" {
		respondError(ctx, w, apperr.Unauthorized("unauthorized request: no refresh token provided"))
		return
	}

	tokens, user, err := h.Sessions.Rotate(ctx, presented)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	h.setSessionCookies(w, tokens)
	respond(ctx, w, http.StatusOK, sessionResponse{
		User:         models.NewAccountView(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "access token refreshed")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.Accounts.CurrentUser(ctx, authz.PrincipalFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, models.NewAccountView(user), "current user fetched successfully")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Accounts.ChangePassword(ctx, authz.PrincipalFromContext(ctx), req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req catalog.AccountUpdate
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	user, err := h.Accounts.UpdateAccount(ctx, authz.PrincipalFromContext(ctx), req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, models.NewAccountView(user), "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, models.UserImageAvatar, "avatar")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, models.UserImageCover, "coverImage")
}

// DeleteAvatar handles DELETE /api/v1/users/avatar.
func (h UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	h.deleteImage(w, r, models.UserImageAvatar)
}

// DeleteCoverImage handles DELETE /api/v1/users/cover-image.
func (h UserHandler) DeleteCoverImage(w http.ResponseWriter, r *http.Request) {
	h.deleteImage(w, r, models.UserImageCover)
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, image models.UserImage, field string) {
	ctx := r.Context()

	staged, err := h.Uploads.stage(w, r, field)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	defer staged.cleanup(r)

	user, err := h.Accounts.UpdateImage(ctx, authz.PrincipalFromContext(ctx), image, staged[field])
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, models.NewAccountView(user), "user "+string(image)+" updated successfully")
}

func (h UserHandler) deleteImage(w http.ResponseWriter, r *http.Request, image models.UserImage) {
	ctx := r.Context()
	user, err := h.Accounts.DeleteImage(ctx, authz.PrincipalFromContext(ctx), image)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, models.NewAccountView(user), "user "+string(image)+" deleted successfully")
}

// ChannelProfile handles GET /api/v1/users/c/{username}.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.Reads.ChannelProfile(ctx, mux.Vars(r)["username"], authz.PrincipalFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, profile, "channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	history, err := h.Reads.WatchHistory(ctx, authz.PrincipalFromContext(ctx))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respond(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}

func (h UserHandler) setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, h.cookie(middleware.AccessCookie, tokens.AccessToken, tokens.AccessExpiresAt))
	http.SetCookie(w, h.cookie(refreshCookie, tokens.RefreshToken, tokens.RefreshExpiresAt))
}

func (h UserHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessCookie, refreshCookie} {
		cookie := h.cookie(name, "", time.Unix(0, 0))
		cookie.MaxAge = -1
		http.SetCookie(w, cookie)
	}
}

func (h UserHandler) cookie(name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
