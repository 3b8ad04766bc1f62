package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vidtube/internal/cache"
	apperrors "vidtube/internal/errors"
	"vidtube/internal/media"
	"vidtube/internal/model"
	"vidtube/internal/repository"
	"vidtube/internal/validators"
)

const userCacheTTL = 5 * time.Minute

const (
	msgPasswordsRequired   = "Old password and new password are required"
	msgIncorrectPassword   = "Incorrect Password"
	msgBothFieldsRequired  = "Both the fields are required"
	msgAvatarMissing       = "avatar file is missing"
	msgCoverMissing        = "cover image file is missing"
	msgAvatarUploadFailed  = "Error while uploading avatar"
	msgCoverUploadFailed   = "Error while uploading cover image"
	msgEmailTaken          = "Email is already in use"
	msgInvalidAccessToken  = "Invalid Access Token"
	msgAccountUpdateFailed = "Something went wrong while updating the account"
)

// UserService exposes operations on the authenticated account.
type UserService interface {
	CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error
	UpdateAccountDetails(ctx context.Context, id uuid.UUID, fullName, email string) (*model.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, localPath string) (*model.User, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, localPath string) (*model.User, error)
}

type userService struct {
	repo     repository.UserRepository
	cache    *cache.Client
	uploader media.Uploader
}

// NewUserService builds a UserService with repository, cache and media host.
func NewUserService(repo repository.UserRepository, cache *cache.Client, uploader media.Uploader) UserService {
	return &userService{repo: repo, cache: cache, uploader: uploader}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

// CurrentUser returns the sanitized account. Unknown ids are Unauthorized
// because the only caller is the auth stage.
func (s *userService) CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindPublicByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized(msgInvalidAccessToken)
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, id uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperrors.BadRequest(msgPasswordsRequired)
	}
	if !validators.PasswordLength(newPassword) {
		return apperrors.BadRequest(msgPasswordTooLong)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apperrors.BadRequest(msgIncorrectPassword)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, string(hashed)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *userService) UpdateAccountDetails(ctx context.Context, id uuid.UUID, fullName, email string) (*model.User, error) {
	if !validators.Required(fullName, email) {
		return nil, apperrors.BadRequest(msgBothFieldsRequired)
	}

	email = strings.TrimSpace(email)
	if !validators.Email(email) {
		return nil, apperrors.BadRequest(msgInvalidEmail)
	}

	if err := s.repo.UpdateDetails(ctx, id, strings.TrimSpace(fullName), email); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(msgEmailTaken)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, msgAccountUpdateFailed, err)
	}

	return s.reload(ctx, id)
}

func (s *userService) UpdateAvatar(ctx context.Context, id uuid.UUID, localPath string) (*model.User, error) {
	if localPath == "" {
		return nil, apperrors.BadRequest(msgAvatarMissing)
	}

	url := s.upload(ctx, localPath)
	if url == "" {
		return nil, apperrors.BadRequest(msgAvatarUploadFailed)
	}

	if err := s.repo.UpdateAvatar(ctx, id, url); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, msgAccountUpdateFailed, err)
	}

	return s.reload(ctx, id)
}

func (s *userService) UpdateCoverImage(ctx context.Context, id uuid.UUID, localPath string) (*model.User, error) {
	if localPath == "" {
		return nil, apperrors.BadRequest(msgCoverMissing)
	}

	url := s.upload(ctx, localPath)
	if url == "" {
		return nil, apperrors.BadRequest(msgCoverUploadFailed)
	}

	if err := s.repo.UpdateCoverImage(ctx, id, url); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, msgAccountUpdateFailed, err)
	}

	return s.reload(ctx, id)
}

func (s *userService) upload(ctx context.Context, localPath string) string {
	asset, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		zap.L().Error("Media upload failed", zap.Error(err))
		return ""
	}
	if asset == nil {
		return ""
	}
	return asset.URL
}

// reload drops the cached copy and returns the fresh sanitized account.
func (s *userService) reload(ctx context.Context, id uuid.UUID) (*model.User, error) {
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	user, err := s.repo.FindPublicByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return user, nil
}
