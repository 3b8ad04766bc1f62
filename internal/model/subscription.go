package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscription is a directed edge: Subscriber follows Channel.
type Subscription struct {
	ID           uuid.UUID `json:"_id" gorm:"type:char(36);primaryKey"`
	SubscriberID uuid.UUID `json:"subscriber" gorm:"type:char(36);not null;uniqueIndex:idx_subscriber_channel"`
	ChannelID    uuid.UUID `json:"channel" gorm:"type:char(36);not null;uniqueIndex:idx_subscriber_channel;index"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ChannelProfile is the read model returned for a channel page. It is
// computed per request and never stored.
type ChannelProfile struct {
	ID                        uuid.UUID `json:"_id"`
	FullName                  string    `json:"fullName"`
	Username                  string    `json:"username"`
	Email                     string    `json:"email"`
	Avatar                    string    `json:"avatar"`
	CoverImage                string    `json:"coverImage"`
	SubscribersCount          int64     `json:"subscribersCount"`
	ChannelsSubscribedToCount int64     `json:"channelsSubscribedToCount"`
	IsSubscribed              bool      `json:"isSubscribed"`
}
