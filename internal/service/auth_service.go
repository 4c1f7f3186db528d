package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"

	"blognest/api/internal/ids"
	"blognest/api/internal/models"
	"blognest/api/internal/repository"
	"blognest/api/internal/security"
)

var (
	ErrMissingFields       = errors.New("all fields are required")
	ErrUserExists          = errors.New("user with this email or username already exists")
	ErrUserNotFound        = errors.New("user does not exist")
	ErrInvalidCredentials  = errors.New("invalid user credentials")
	ErrInvalidRefreshToken = errors.New("refresh token is invalid, expired or already used")
	ErrAvatarRequired      = errors.New("avatar is required")
)

// MediaUploader is the media-host collaborator: it accepts an uploaded file
// and returns the hosted URL.
type MediaUploader interface {
	UploadImage(ctx context.Context, ownerID string, file multipart.File, header *multipart.FileHeader) (string, error)
}

// AuthService orchestrates registration and the session lifecycle: login,
// refresh rotation, logout and password change.
type AuthService struct {
	users  repository.UserStore
	media  MediaUploader
	tokens *security.TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(users repository.UserStore, media MediaUploader, tokens *security.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		media:  media,
		tokens: tokens,
		log:    log,
	}
}

type RegisterInput struct {
	UserName   string
	Email      string
	FullName   string
	Password   string
	Avatar     multipart.File
	AvatarMeta *multipart.FileHeader
	Cover      multipart.File
	CoverMeta  *multipart.FileHeader
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.PublicUser, error) {
	input.UserName = strings.TrimSpace(strings.ToLower(input.UserName))
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	if input.UserName == "" || input.Email == "" || input.FullName == "" || input.Password == "" {
		return models.PublicUser{}, ErrMissingFields
	}

	exists, err := s.users.ExistsByEmailOrUserName(ctx, input.Email, input.UserName)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return models.PublicUser{}, ErrUserExists
	}

	if input.Avatar == nil || input.AvatarMeta == nil {
		return models.PublicUser{}, ErrAvatarRequired
	}

	userID := ids.New()

	avatarURL, err := s.media.UploadImage(ctx, userID, input.Avatar, input.AvatarMeta)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("%w: upload failed", ErrAvatarRequired)
	}

	var coverURL *string
	if input.Cover != nil && input.CoverMeta != nil {
		url, err := s.media.UploadImage(ctx, userID, input.Cover, input.CoverMeta)
		if err != nil {
			s.log.Warn().Err(err).Str("user_name", input.UserName).Msg("cover image upload failed")
		} else {
			coverURL = &url
		}
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:            userID,
		UserName:      input.UserName,
		Email:         input.Email,
		FullName:      input.FullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return models.PublicUser{}, ErrUserExists
		}
		return models.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	created, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("load created user: %w", err)
	}
	return created.Public(), nil
}

type LoginInput struct {
	Identifier string // email or username
	Password   string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         models.PublicUser
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	input.Identifier = strings.TrimSpace(strings.ToLower(input.Identifier))
	if input.Identifier == "" || input.Password == "" {
		return AuthResult{}, ErrMissingFields
	}

	user, err := s.users.FindByIdentifier(ctx, input.Identifier)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrUserNotFound
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}

	// Overwriting the single slot revokes whatever refresh token the user
	// held before.
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		return AuthResult{}, fmt.Errorf("persist refresh token: %w", err)
	}

	return AuthResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Public(),
	}, nil
}

// Refresh exchanges a valid refresh token for a new pair. Rotation is a
// compare-and-swap on the stored token, so each refresh token is usable at
// most once even under concurrent requests.
func (s *AuthService) Refresh(ctx context.Context, presented string) (AuthResult, error) {
	if presented == "" {
		return AuthResult{}, ErrInvalidRefreshToken
	}

	claims, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		return AuthResult{}, ErrInvalidRefreshToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return AuthResult{}, ErrInvalidRefreshToken
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue tokens: %w", err)
	}

	if err := s.users.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			return AuthResult{}, ErrInvalidRefreshToken
		}
		return AuthResult{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return AuthResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Public(),
	}, nil
}

// Logout clears the stored refresh token. With a single slot per user this
// revokes every outstanding refresh token at once.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// ChangePassword re-hashes the secret and revokes the stored refresh token,
// so a stolen refresh token dies with the old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return ErrMissingFields
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	ok, err := security.VerifyPassword(oldPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.users.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("revoke refresh token after password change failed")
	}
	return nil
}

func (s *AuthService) CurrentUser(ctx context.Context, userID string) (models.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.PublicUser{}, ErrUserNotFound
		}
		return models.PublicUser{}, fmt.Errorf("find user: %w", err)
	}
	return user.Public(), nil
}
