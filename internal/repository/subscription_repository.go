package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidtube/internal/model"
)

const channelProfileSelect = `u.id, u.full_name, u.username, u.email, u.avatar, u.cover_image,
	(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
	(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
	EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?) AS is_subscribed`

// SubscriptionRepository defines subscription edge persistence and the
// channel profile read model built on top of it.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *model.Subscription) error
	ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*model.ChannelProfile, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create creates a new subscription edge.
func (r *subscriptionRepository) Create(ctx context.Context, sub *model.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// ChannelProfile counts inbound and outbound edges of the account named
// username and tells whether viewerID is one of its subscribers. It returns
// gorm.ErrRecordNotFound when no account matches.
func (r *subscriptionRepository) ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*model.ChannelProfile, error) {
	var profile model.ChannelProfile
	res := r.db.WithContext(ctx).
		Table("users AS u").
		Select(channelProfileSelect, viewerID).
		Where("u.username = ?", username).
		Limit(1).
		Scan(&profile)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &profile, nil
}
