package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video is a published media item. This service only reads videos, they are
// referenced from watch history.
type Video struct {
	ID          uuid.UUID   `json:"_id" gorm:"type:char(36);primaryKey"`
	VideoFile   string      `json:"videoFile" gorm:"size:1024;not null"`
	Thumbnail   string      `json:"thumbnail" gorm:"size:1024;not null"`
	Title       string      `json:"title" gorm:"size:255;not null"`
	Description string      `json:"description" gorm:"type:text"`
	Duration    float64     `json:"duration"`
	Views       int64       `json:"views" gorm:"default:0"`
	IsPublished bool        `json:"isPublished" gorm:"default:true"`
	OwnerID     uuid.UUID   `json:"-" gorm:"type:char(36);not null;index"`
	Owner       *VideoOwner `json:"owner" gorm:"foreignKey:OwnerID"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VideoOwner is the public projection of a user embedded in a video.
type VideoOwner struct {
	ID       uuid.UUID `json:"_id" gorm:"type:char(36);primaryKey"`
	FullName string    `json:"fullName"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
}

func (VideoOwner) TableName() string {
	return "users"
}

// WatchHistoryEntry references a video the user watched, in watch order.
type WatchHistoryEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uuid.UUID `gorm:"type:char(36);not null;index"`
	VideoID   uuid.UUID `gorm:"type:char(36);not null"`
	WatchedAt time.Time `gorm:"not null;index"`
}

func (WatchHistoryEntry) TableName() string {
	return "watch_history"
}
