package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"vidtube/docs"
	"vidtube/internal/auth"
	"vidtube/internal/cache"
	"vidtube/internal/config"
	"vidtube/internal/db"
	"vidtube/internal/handler"
	"vidtube/internal/logger"
	"vidtube/internal/media"
	"vidtube/internal/repository"
	"vidtube/internal/router"
	"vidtube/internal/service"
)

var configPath = pflag.String("config", "", "Path to a config file (toml, yaml or json)")

// @title VidTube Users API
// @version 1.0
// @description Account, session and channel endpoints of the video platform.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
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

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.New(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn("Redis unreachable, running without cache and token blacklist", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}

	uploader, err := media.NewS3(ctx, media.S3Options{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		PublicURL:       cfg.S3PublicURL,
		KeyPrefix:       "users",
	})
	if err != nil {
		return fmt.Errorf("media storage init: %w", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	subscriptionRepo := repository.NewSubscriptionRepository(gormDB)
	videoRepo := repository.NewVideoRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(auth.Options{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessExpiry:  cfg.AccessTokenExpiry,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshExpiry: cfg.RefreshTokenExpiry,
	})
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, uploader)
	userService := service.NewUserService(userRepo, cacheClient, uploader)
	channelService := service.NewChannelService(subscriptionRepo, videoRepo)

	// Initialize handlers
	cookies := handler.CookieOptions{
		Secure:        cfg.CookieSecure,
		AccessMaxAge:  jwtService.AccessExpiry(),
		RefreshMaxAge: jwtService.RefreshExpiry(),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 60 * time.Second

	router.Register(e, router.Deps{
		Config:         cfg,
		Logger:         log,
		JWT:            jwtService,
		TokenStore:     tokenStore,
		Accounts:       userService,
		AuthHandler:    handler.NewAuthHandler(authService, cookies),
		UserHandler:    handler.NewUserHandler(userService),
		ChannelHandler: handler.NewChannelHandler(channelService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	} else {
		docs.SwaggerInfo.Host = "localhost:" + cfg.ServerPort
	}
	log.Info("Swagger documentation available", zap.String("url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html"))

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("Server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
