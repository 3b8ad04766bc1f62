package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidtube/internal/model"
)

// VideoRepository defines video persistence and the watch history read model.
type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	FindByOwnerAndTitle(ctx context.Context, ownerID uuid.UUID, title string) (*model.Video, error)
	InWatchHistory(ctx context.Context, userID, videoID uuid.UUID) (bool, error)
	AddToWatchHistory(ctx context.Context, userID, videoID uuid.UUID, watchedAt time.Time) error
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]model.Video, error)
}

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new video repository.
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *model.Video) error {
	return r.db.WithContext(ctx).Create(video).Error
}

func (r *videoRepository) FindByOwnerAndTitle(ctx context.Context, ownerID uuid.UUID, title string) (*model.Video, error) {
	var video model.Video
	err := r.db.WithContext(ctx).Where("owner_id = ? AND title = ?", ownerID, title).First(&video).Error
	if err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *videoRepository) InWatchHistory(ctx context.Context, userID, videoID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WatchHistoryEntry{}).
		Where("user_id = ? AND video_id = ?", userID, videoID).
		Count(&count).Error
	return count > 0, err
}

func (r *videoRepository) AddToWatchHistory(ctx context.Context, userID, videoID uuid.UUID, watchedAt time.Time) error {
	return r.db.WithContext(ctx).Create(&model.WatchHistoryEntry{
		UserID:    userID,
		VideoID:   videoID,
		WatchedAt: watchedAt,
	}).Error
}

// WatchHistory resolves every video in the user's history, oldest first,
// with the owner's public fields attached as a single object.
func (r *videoRepository) WatchHistory(ctx context.Context, userID uuid.UUID) ([]model.Video, error) {
	videos := []model.Video{}
	err := r.db.WithContext(ctx).
		Model(&model.Video{}).
		Select("videos.*").
		Joins("JOIN watch_history wh ON wh.video_id = videos.id").
		Where("wh.user_id = ?", userID).
		Order("wh.watched_at ASC").
		Order("wh.id ASC").
		Preload("Owner", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "full_name", "username", "avatar")
		}).
		Find(&videos).Error
	if err != nil {
		return nil, err
	}
	return videos, nil
}
