package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"blognest/api/internal/models"
)

const userColumns = `
	id, user_name, email, full_name, password_hash, avatar_url, cover_image_url,
	refresh_token, refresh_expires_at, created_at, updated_at
`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, user_name, email, full_name, password_hash, avatar_url, cover_image_url, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.UserName,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.AvatarURL,
		user.CoverImageURL,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// FindByIdentifier matches a login identifier against either the email or
// the username column.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR user_name = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, identifier))
}

func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE user_name = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, userName))
}

func (r *UserRepository) ExistsByEmailOrUserName(ctx context.Context, email, userName string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR user_name = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email, userName).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, userName, fullName, email string) (models.User, error) {
	const query = `
		UPDATE users
		SET user_name = $2, full_name = $3, email = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := r.scanOne(r.pool.QueryRow(ctx, query, id, userName, fullName, email))
	if isUniqueViolation(err) {
		return models.User{}, ErrDuplicateUser
	}
	return user, err
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, url string) (models.User, error) {
	const query = `
		UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1
		RETURNING ` + userColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, id, url))
}

func (r *UserRepository) UpdateCoverImage(ctx context.Context, id, url string) (models.User, error) {
	const query = `
		UPDATE users SET cover_image_url = $2, updated_at = NOW() WHERE id = $1
		RETURNING ` + userColumns
	return r.scanOne(r.pool.QueryRow(ctx, query, id, url))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, hash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET refresh_token = $2, refresh_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, token, expiresAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RotateRefreshToken is a compare-and-swap: the stored token is replaced only
// if it still equals the presented one, so concurrent refreshes cannot both
// succeed with the same token.
func (r *UserRepository) RotateRefreshToken(ctx context.Context, id, old, new string, expiresAt time.Time) error {
	const query = `
		UPDATE users SET refresh_token = $3, refresh_expires_at = $4, updated_at = NOW()
		WHERE id = $1 AND refresh_token = $2
	`
	cmd, err := r.pool.Exec(ctx, query, id, old, new, expiresAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

func (r *UserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	const query = `
		UPDATE users SET refresh_token = NULL, refresh_expires_at = NULL, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE users SET refresh_token = NULL, refresh_expires_at = NULL, updated_at = NOW()
		WHERE refresh_expires_at IS NOT NULL AND refresh_expires_at < $1
	`
	cmd, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// ChannelProfile aggregates a user with its subscription relationships in a
// single query: follower count, following count, and whether the viewer is
// among the followers.
func (r *UserRepository) ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error) {
	const query = `
		SELECT
			u.id, u.user_name, u.email, u.full_name, u.avatar_url, u.cover_image_url,
			u.created_at, u.updated_at,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscriber_count,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS subscribed_count,
			EXISTS (
				SELECT 1 FROM subscriptions s
				WHERE s.channel_id = u.id AND s.subscriber_id = $2
			) AS is_subscribed
		FROM users u
		WHERE u.user_name = $1
	`

	row := r.pool.QueryRow(ctx, query, userName, viewerID)

	var (
		profile models.ChannelProfile
		cover   *string
	)
	if err := row.Scan(
		&profile.ID,
		&profile.UserName,
		&profile.Email,
		&profile.FullName,
		&profile.AvatarURL,
		&cover,
		&profile.CreatedAt,
		&profile.UpdatedAt,
		&profile.SubscriberCount,
		&profile.SubscribedChannelCount,
		&profile.IsSubscribed,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrUserNotFound
		}
		return models.ChannelProfile{}, err
	}
	if cover != nil {
		profile.CoverImageURL = *cover
	}
	return profile, nil
}

func (r *UserRepository) scanOne(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.UserName,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.RefreshToken,
		&user.RefreshExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
