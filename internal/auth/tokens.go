package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidfriends/mediahub/internal/apperr"
	"github.com/vidfriends/mediahub/internal/models"
	"github.com/vidfriends/mediahub/internal/repositories"
)

var (
	errMissingToken   = apperr.Unauthorized("unauthorized request")
	errInvalidAccess  = apperr.Unauthorized("invalid access token")
	errInvalidRefresh = apperr.Unauthorized("refresh token is expired or used")
)

// UserStore is the subset of the entity store the token service reads and writes.
type UserStore interface {
	FindUserByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	SwapRefreshToken(ctx context.Context, userID, current, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID string) error
}

// Config holds the signing secrets and lifetimes of both token kinds.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AccessClaims is the body of an access token: the principal id plus a profile snapshot.
type AccessClaims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// refreshClaims carries only the principal id. The jti keeps successive tokens distinct.
type refreshClaims struct {
	jwt.RegisteredClaims
}

// Option customises a TokenService.
type Option func(*TokenService)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// TokenService issues, verifies, rotates and revokes access/refresh token pairs.
// Only the most recently issued refresh token of a user is ever valid.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration

	users UserStore
	now   func() time.Time
}

// NewTokenService validates cfg and constructs a TokenService.
func NewTokenService(cfg Config, users UserStore, opts ...Option) (*TokenService, error) {
	if users == nil {
		return nil, errors.New("auth: user store must not be nil")
	}
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}

	s := &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		users:         users,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a fresh pair for the user and persists the refresh token, overwriting
// whatever token preceded it.
func (s *TokenService) Issue(ctx context.Context, user models.User) (models.SessionTokens, error) {
	if user.ID == "" {
		return models.SessionTokens{}, apperr.BadRequest("user id must be provided")
	}

	tokens, err := s.sign(user)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, tokens.RefreshToken); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, apperr.NotFound("user does not exist")
		}
		return models.SessionTokens{}, apperr.Internal("something went wrong while generating tokens", err)
	}
	return tokens, nil
}

// VerifyAccess checks the access token and resolves it to the current user record,
// stripped of credential fields.
func (s *TokenService) VerifyAccess(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, errMissingToken
	}

	claims := &AccessClaims{}
	if _, err := s.parse(token, claims, s.accessSecret); err != nil {
		return models.User{}, errInvalidAccess.Wrap(err)
	}

	user, err := s.users.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, errInvalidAccess
		}
		return models.User{}, apperr.Internal("failed to load user", err)
	}
	return user.Sanitized(), nil
}

// Rotate exchanges the presented refresh token for a new pair. A token that no longer
// matches the persisted value is rejected without issuing anything, and the swap itself
// only succeeds while the presented token is still current.
func (s *TokenService) Rotate(ctx context.Context, presented string) (models.SessionTokens, models.User, error) {
	if presented == "" {
		return models.SessionTokens{}, models.User{}, errMissingToken
	}

	claims := &refreshClaims{}
	if _, err := s.parse(presented, claims, s.refreshSecret); err != nil {
		return models.SessionTokens{}, models.User{}, errInvalidRefresh.Wrap(err)
	}

	user, err := s.users.FindUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, models.User{}, errInvalidRefresh
		}
		return models.SessionTokens{}, models.User{}, apperr.Internal("failed to load user", err)
	}

	if subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		return models.SessionTokens{}, models.User{}, errInvalidRefresh
	}

	tokens, err := s.sign(user)
	if err != nil {
		return models.SessionTokens{}, models.User{}, err
	}

	swapped, err := s.users.SwapRefreshToken(ctx, user.ID, presented, tokens.RefreshToken)
	if err != nil {
		return models.SessionTokens{}, models.User{}, apperr.Internal("something went wrong while refreshing tokens", err)
	}
	if !swapped {
		return models.SessionTokens{}, models.User{}, errInvalidRefresh
	}
	return tokens, user.Sanitized(), nil
}

// Revoke clears the persisted refresh token. Outstanding access tokens stay valid
// until they expire.
func (s *TokenService) Revoke(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return errMissingToken
		}
		return apperr.Internal("failed to revoke session", err)
	}
	return nil
}

func (s *TokenService) sign(user models.User) (models.SessionTokens, error) {
	now := s.now().UTC()
	accessExpires := now.Add(s.accessTTL)
	refreshExpires := now.Add(s.refreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpires),
		},
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return models.SessionTokens{}, apperr.Internal("something went wrong while generating tokens", fmt.Errorf("sign access token: %w", err))
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(refreshExpires),
		},
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return models.SessionTokens{}, apperr.Internal("something went wrong while generating tokens", fmt.Errorf("sign refresh token: %w", err))
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpires,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpires,
	}, nil
}

// parse verifies signature, algorithm and expiry with no leeway.
func (s *TokenService) parse(token string, claims jwt.Claims, secret []byte) (*jwt.Token, error) {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, errors.New("token has no subject")
	}
	return parsed, nil
}
