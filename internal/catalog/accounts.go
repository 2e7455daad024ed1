package catalog

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/auth"
	"github.com/vidfriends/mediahub/internal/authz"
	"github.com/vidfriends/mediahub/internal/logging"
	"github.com/vidfriends/mediahub/internal/media"
	"github.com/vidfriends/mediahub/internal/models"
	"github.com/vidfriends/mediahub/internal/repositories"
)

// Registration is a sign-up request with its staged profile images.
type Registration struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	AvatarPath string
	CoverPath  string
}

// AccountUpdate carries the editable account details.
type AccountUpdate struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Register creates an account. The avatar is required and the cover image optional.
func (s *Service) Register(ctx context.Context, in Registration) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.Register")
	defer span.End()

	username := models.NormalizeHandle(in.Username)
	email := models.NormalizeHandle(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	if username == "" || email == "" || fullName == "" || strings.TrimSpace(in.Password) == "" {
		return models.User{}, apperr.BadRequest("all fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, apperr.BadRequest("invalid email address")
	}
	if in.AvatarPath == "" {
		return models.User{}, apperr.BadRequest("avatar image is required")
	}

	if err := s.ensureHandlesFree(ctx, username, email); err != nil {
		return models.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, apperr.Internal("failed to secure password", err)
	}

	avatar, err := s.upload(ctx, in.AvatarPath, "avatar")
	if err != nil {
		return models.User{}, err
	}
	var cover media.Asset
	if in.CoverPath != "" {
		cover, err = s.upload(ctx, in.CoverPath, "cover image")
		if err != nil {
			s.discard(ctx, avatar.PublicID)
			return models.User{}, err
		}
	}

	now := s.now()
	user := models.User{
		ID:            s.newID(),
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		AvatarURL:     avatar.URL,
		CoverImageURL: cover.URL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		s.discard(ctx, avatar.PublicID)
		s.discard(ctx, cover.PublicID)
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("user already exists")
		}
		return models.User{}, apperr.Internal("something went wrong while creating user", err)
	}
	return user.Sanitized(), nil
}

func (s *Service) ensureHandlesFree(ctx context.Context, username, email string) error {
	lookups := []struct {
		find  func(context.Context, string) (models.User, error)
		value string
	}{
		{s.store.FindUserByUsername, username},
		{s.store.FindUserByEmail, email},
	}
	for _, lookup := range lookups {
		_, err := lookup.find(ctx, lookup.value)
		switch {
		case err == nil:
			return apperr.Conflict("user already exists")
		case errors.Is(err, repositories.ErrNotFound):
		default:
			return apperr.Internal("failed to check existing users", err)
		}
	}
	return nil
}

// Login authenticates by username or email and password.
func (s *Service) Login(ctx context.Context, identifier, password string) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.Login")
	defer span.End()

	handle := models.NormalizeHandle(identifier)
	if handle == "" || password == "" {
		return models.User{}, apperr.BadRequest("email or username and password are required")
	}

	var (
		user models.User
		err  error
	)
	if strings.Contains(handle, "@") {
		user, err = s.store.FindUserByEmail(ctx, handle)
	} else {
		user, err = s.store.FindUserByUsername(ctx, handle)
	}
	if err != nil {
		return models.User{}, storeError(err, "user", "load")
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return models.User{}, apperr.Unauthorized("invalid credentials")
		}
		return models.User{}, apperr.Internal("failed to verify credentials", err)
	}
	return user.Sanitized(), nil
}

// CurrentUser returns the principal's own account.
func (s *Service) CurrentUser(ctx context.Context, principal *authz.Principal) (models.User, error) {
	if principal == nil {
		return models.User{}, apperr.Unauthorized("unauthorized request")
	}
	user, err := s.store.FindUserByID(ctx, principal.ID)
	if err != nil {
		return models.User{}, storeError(err, "user", "load")
	}
	return user.Sanitized(), nil
}

// ChangePassword replaces the principal's password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, principal *authz.Principal, oldPassword, newPassword string) error {
	ctx, span := logging.StartSpan(ctx, "catalog.ChangePassword")
	defer span.End()

	if principal == nil {
		return apperr.Unauthorized("unauthorized request")
	}
	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return apperr.BadRequest("old and new password are required")
	}

	user, err := s.store.FindUserByID(ctx, principal.ID)
	if err != nil {
		return storeError(err, "user", "load")
	}
	if err := auth.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return apperr.BadRequest("invalid password")
		}
		return apperr.Internal("failed to verify credentials", err)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("failed to secure password", err)
	}
	if err := s.store.UpdateUserPassword(ctx, user.ID, hash, s.now()); err != nil {
		return storeError(err, "user", "update")
	}
	return nil
}

// UpdateAccount replaces the principal's full name and email.
func (s *Service) UpdateAccount(ctx context.Context, principal *authz.Principal, in AccountUpdate) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.UpdateAccount")
	defer span.End()

	if principal == nil {
		return models.User{}, apperr.Unauthorized("unauthorized request")
	}
	fullName := strings.TrimSpace(in.FullName)
	email := models.NormalizeHandle(in.Email)
	if fullName == "" || email == "" {
		return models.User{}, apperr.BadRequest("full name and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, apperr.BadRequest("invalid email address")
	}

	user, err := s.store.UpdateUserDetails(ctx, principal.ID, fullName, email, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.User{}, apperr.Conflict("email is already in use")
		}
		return models.User{}, storeError(err, "user", "update")
	}
	return user.Sanitized(), nil
}

// UpdateImage uploads a new avatar or cover image and schedules the old one for removal.
func (s *Service) UpdateImage(ctx context.Context, principal *authz.Principal, image models.UserImage, localPath string) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.UpdateImage")
	defer span.End()

	current, err := s.imageOwner(ctx, principal, image)
	if err != nil {
		return models.User{}, err
	}
	if localPath == "" {
		return models.User{}, apperr.BadRequest(string(image) + " image is required")
	}

	asset, err := s.upload(ctx, localPath, string(image)+" image")
	if err != nil {
		return models.User{}, err
	}
	user, err := s.store.SetUserImage(ctx, current.ID, image, asset.URL, s.now())
	if err != nil {
		s.discard(ctx, asset.PublicID)
		return models.User{}, storeError(err, "user", "update")
	}
	s.discardURL(ctx, imageURL(current, image))
	return user.Sanitized(), nil
}

// DeleteImage clears an avatar or cover image and schedules it for removal.
func (s *Service) DeleteImage(ctx context.Context, principal *authz.Principal, image models.UserImage) (models.User, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.DeleteImage")
	defer span.End()

	current, err := s.imageOwner(ctx, principal, image)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.store.SetUserImage(ctx, current.ID, image, "", s.now())
	if err != nil {
		return models.User{}, storeError(err, "user", "update")
	}
	s.discardURL(ctx, imageURL(current, image))
	return user.Sanitized(), nil
}

func (s *Service) imageOwner(ctx context.Context, principal *authz.Principal, image models.UserImage) (models.User, error) {
	if principal == nil {
		return models.User{}, apperr.Unauthorized("unauthorized request")
	}
	if image != models.UserImageAvatar && image != models.UserImageCover {
		return models.User{}, apperr.BadRequest("unknown image slot")
	}
	user, err := s.store.FindUserByID(ctx, principal.ID)
	if err != nil {
		return models.User{}, storeError(err, "user", "load")
	}
	return user, nil
}

func imageURL(user models.User, image models.UserImage) string {
	if image == models.UserImageCover {
		return user.CoverImageURL
	}
	return user.AvatarURL
}
