package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"blognest/api/internal/models"
)

type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub models.Subscription) error {
	const query = `
		INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.pool.Exec(ctx, query, sub.ID, sub.SubscriberID, sub.ChannelID)
	if isUniqueViolation(err) {
		return ErrAlreadySubscribed
	}
	return err
}

func (r *SubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	const query = `DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`
	cmd, err := r.pool.Exec(ctx, query, subscriberID, channelID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}
