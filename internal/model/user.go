package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a platform account. Password and RefreshToken are never
// serialized.
type User struct {
	ID           uuid.UUID `json:"_id" gorm:"type:char(36);primaryKey"`
	FullName     string    `json:"fullName" gorm:"size:255;not null;index"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:255;not null"`
	Password     string    `json:"-" gorm:"size:255;not null"`
	Avatar       string    `json:"avatar" gorm:"size:1024;not null"`
	CoverImage   string    `json:"coverImage" gorm:"size:1024;not null;default:''"`
	RefreshToken *string   `json:"-" gorm:"size:1024"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	WatchHistory []WatchHistoryEntry `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PublicColumns are the columns a sanitized account lookup may select.
var PublicColumns = []string{"id", "full_name", "email", "username", "avatar", "cover_image", "created_at", "updated_at"}
