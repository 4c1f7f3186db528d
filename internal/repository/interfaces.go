package repository

import (
	"context"
	"errors"
	"time"

	"blognest/api/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateUser        = errors.New("duplicate user")
	ErrRefreshTokenMismatch = errors.New("refresh token mismatch")
	ErrCategoryExists       = errors.New("category already exists")
	ErrAlreadySubscribed    = errors.New("already subscribed")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// UserStore is the credential store contract. Services depend on this
// interface so tests can substitute in-memory fakes.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
	FindByUserName(ctx context.Context, userName string) (models.User, error)
	ExistsByEmailOrUserName(ctx context.Context, email, userName string) (bool, error)
	UpdateProfile(ctx context.Context, id, userName, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id, url string) (models.User, error)
	UpdatePassword(ctx context.Context, id string, hash []byte) error

	// SetRefreshToken overwrites the single refresh-token slot, revoking
	// whatever session held it before.
	SetRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error
	// RotateRefreshToken swaps old for new in one conditional update and
	// returns ErrRefreshTokenMismatch when the stored value no longer equals
	// old. This is what makes refresh tokens single-use under concurrency.
	RotateRefreshToken(ctx context.Context, id, old, new string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, id string) error
	ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)

	ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error)
}

type SubscriptionStore interface {
	Create(ctx context.Context, sub models.Subscription) error
	Delete(ctx context.Context, subscriberID, channelID string) error
}

type PostStore interface {
	Create(ctx context.Context, post models.Post) error
	List(ctx context.Context) ([]models.Post, error)
}

type CategoryStore interface {
	Create(ctx context.Context, category models.PostCategory) error
	FindByName(ctx context.Context, name string) (models.PostCategory, bool, error)
	List(ctx context.Context) ([]models.PostCategory, error)
}
