package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "vidtube/internal/errors"
	"vidtube/internal/model"
	"vidtube/internal/repository"
)

const (
	msgUsernameMissing = "username is missing"
	msgChannelNotFound = "channel does not exist"
)

// ChannelService builds the read models shown on channel and history pages.
type ChannelService interface {
	ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*model.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]model.Video, error)
}

type channelService struct {
	subscriptions repository.SubscriptionRepository
	videos        repository.VideoRepository
}

// NewChannelService creates a new channel service.
func NewChannelService(subscriptions repository.SubscriptionRepository, videos repository.VideoRepository) ChannelService {
	return &channelService{subscriptions: subscriptions, videos: videos}
}

func (s *channelService) ChannelProfile(ctx context.Context, username string, viewerID uuid.UUID) (*model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, apperrors.BadRequest(msgUsernameMissing)
	}

	profile, err := s.subscriptions.ChannelProfile(ctx, username, viewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgChannelNotFound)
		}
		return nil, fmt.Errorf("channel profile: %w", err)
	}
	return profile, nil
}

func (s *channelService) WatchHistory(ctx context.Context, userID uuid.UUID) ([]model.Video, error) {
	videos, err := s.videos.WatchHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("watch history: %w", err)
	}
	if videos == nil {
		videos = []model.Video{}
	}
	return videos, nil
}
