package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vidtube/internal/config"
	"vidtube/internal/db"
	"vidtube/internal/logger"
	"vidtube/internal/model"
	"vidtube/internal/repository"
)

//go:embed seed.json
var defaultSeed []byte

var (
	configPath = pflag.String("config", "", "Path to a config file (toml, yaml or json)")
	seedPath   = pflag.String("file", "", "Seed data file, the bundled demo data is used when empty")
)

// SeedData is the structure of the seed file.
type SeedData struct {
	Users []struct {
		FullName   string `json:"fullName"`
		Email      string `json:"email"`
		Username   string `json:"username"`
		Password   string `json:"password"`
		Avatar     string `json:"avatar"`
		CoverImage string `json:"coverImage"`
	} `json:"users"`
	Videos []struct {
		Owner       string  `json:"owner"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		VideoFile   string  `json:"videoFile"`
		Thumbnail   string  `json:"thumbnail"`
		Duration    float64 `json:"duration"`
	} `json:"videos"`
	Subscriptions []struct {
		Subscriber string `json:"subscriber"`
		Channel    string `json:"channel"`
	} `json:"subscriptions"`
	History []struct {
		User  string `json:"user"`
		Video string `json:"video"`
	} `json:"history"`
}

func main() {
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Setup(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting seed script")

	gormDB, err := db.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	raw := defaultSeed
	if *seedPath != "" {
		if raw, err = os.ReadFile(*seedPath); err != nil {
			log.Fatal("Failed to read seed file", zap.String("path", *seedPath), zap.Error(err))
		}
	}

	var data SeedData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Fatal("Failed to parse seed data", zap.Error(err))
	}

	s := newSeeder(gormDB, log)
	if err := s.run(context.Background(), data); err != nil {
		log.Fatal("Seed failed", zap.Error(err))
	}

	log.Info("Seed completed successfully",
		zap.Int("users_created", s.usersCreated),
		zap.Int("videos_created", s.videosCreated),
		zap.Int("subscriptions_created", s.subscriptionsCreated),
		zap.Int("history_entries", s.historyCreated),
	)
}

type seeder struct {
	users         repository.UserRepository
	videos        repository.VideoRepository
	subscriptions repository.SubscriptionRepository
	log           *zap.Logger

	userIDs  map[string]uuid.UUID
	videoIDs map[string]uuid.UUID

	usersCreated         int
	videosCreated        int
	subscriptionsCreated int
	historyCreated       int
}

func newSeeder(gormDB *gorm.DB, log *zap.Logger) *seeder {
	return &seeder{
		users:         repository.NewUserRepository(gormDB),
		videos:        repository.NewVideoRepository(gormDB),
		subscriptions: repository.NewSubscriptionRepository(gormDB),
		log:           log,
		userIDs:       map[string]uuid.UUID{},
		videoIDs:      map[string]uuid.UUID{},
	}
}

// run creates whatever in data is missing. Users are matched by email or
// username, videos by owner and title, and edges and history by their pair.
func (s *seeder) run(ctx context.Context, data SeedData) error {
	for _, u := range data.Users {
		existing, err := s.users.FindByEmailOrUsername(ctx, u.Email, u.Username)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("error checking user %s: %w", u.Username, err)
		}
		if existing != nil {
			s.log.Debug("User already present", zap.String("username", u.Username))
			s.userIDs[u.Username] = existing.ID
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}

		user := &model.User{
			FullName:   u.FullName,
			Email:      u.Email,
			Username:   u.Username,
			Password:   string(hashed),
			Avatar:     u.Avatar,
			CoverImage: u.CoverImage,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return fmt.Errorf("error creating user %s: %w", u.Username, err)
		}
		s.userIDs[u.Username] = user.ID
		s.usersCreated++
	}

	for _, v := range data.Videos {
		ownerID, ok := s.userIDs[v.Owner]
		if !ok {
			s.log.Warn("Skipping video with unknown owner", zap.String("title", v.Title), zap.String("owner", v.Owner))
			continue
		}

		existing, err := s.videos.FindByOwnerAndTitle(ctx, ownerID, v.Title)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("error checking video %q: %w", v.Title, err)
		}
		if existing != nil {
			s.videoIDs[v.Title] = existing.ID
			continue
		}

		video := &model.Video{
			VideoFile:   v.VideoFile,
			Thumbnail:   v.Thumbnail,
			Title:       v.Title,
			Description: v.Description,
			Duration:    v.Duration,
			IsPublished: true,
			OwnerID:     ownerID,
		}
		if err := s.videos.Create(ctx, video); err != nil {
			return fmt.Errorf("error creating video %q: %w", v.Title, err)
		}
		s.videoIDs[v.Title] = video.ID
		s.videosCreated++
	}

	for _, sub := range data.Subscriptions {
		subscriberID, ok1 := s.userIDs[sub.Subscriber]
		channelID, ok2 := s.userIDs[sub.Channel]
		if !ok1 || !ok2 {
			s.log.Warn("Skipping subscription with unknown user", zap.String("subscriber", sub.Subscriber), zap.String("channel", sub.Channel))
			continue
		}
		err := s.subscriptions.Create(ctx, &model.Subscription{SubscriberID: subscriberID, ChannelID: channelID})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("error creating subscription %s -> %s: %w", sub.Subscriber, sub.Channel, err)
		}
		s.subscriptionsCreated++
	}

	watchedAt := time.Now().Add(-time.Duration(len(data.History)) * time.Hour)
	for _, h := range data.History {
		userID, ok1 := s.userIDs[h.User]
		videoID, ok2 := s.videoIDs[h.Video]
		if !ok1 || !ok2 {
			s.log.Warn("Skipping history entry", zap.String("user", h.User), zap.String("video", h.Video))
			continue
		}
		watchedAt = watchedAt.Add(time.Hour)

		watched, err := s.videos.InWatchHistory(ctx, userID, videoID)
		if err != nil {
			return fmt.Errorf("error checking history for %s: %w", h.User, err)
		}
		if watched {
			continue
		}
		if err := s.videos.AddToWatchHistory(ctx, userID, videoID, watchedAt); err != nil {
			return fmt.Errorf("error adding history for %s: %w", h.User, err)
		}
		s.historyCreated++
	}

	return nil
}
