package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"vidtube/internal/auth"
	apperrors "vidtube/internal/errors"
	"vidtube/internal/media"
	"vidtube/internal/model"
	"vidtube/internal/repository"
	"vidtube/internal/validators"
)

const bcryptCost = 10

const (
	msgAllFieldsRequired  = "All fields are required"
	msgInvalidEmail       = "Invalid email address"
	msgUserExists         = "User already exists"
	msgAvatarRequired     = "Avatar is required"
	msgRegisterFailed     = "Something went wrong while registering user"
	msgLoginIdentifier    = "Email or username is required"
	msgPasswordRequired   = "Password is required"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
	msgUserNotFound       = "User does not exist"
	msgInvalidCredentials = "Invalid credentials"
	msgTokenIssueFailed   = "Something went wrong while generating refresh and access token"
	msgUnauthorized       = "unauthorized request"
	msgInvalidRefresh     = "Invalid Refresh Token"
	msgRefreshUsed        = "Refresh Token is Expired or used"
)

// RegisterInput is the data collected by the register endpoint. File paths
// point at local temporary copies saved by the upload stage.
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// TokenPair is a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User *model.User
	TokenPair
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, userID uuid.UUID, accessJTI string, accessUntil time.Time) error
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	uploader   media.Uploader
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	uploader media.Uploader,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		uploader:   uploader,
	}
}

// Register creates a new account with hashed password and uploaded media.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if !validators.Required(in.FullName, in.Email, in.Username, in.Password) {
		return nil, apperrors.BadRequest(msgAllFieldsRequired)
	}

	email := strings.TrimSpace(in.Email)
	username := strings.ToLower(strings.TrimSpace(in.Username))

	if !validators.Email(email) {
		return nil, apperrors.BadRequest(msgInvalidEmail)
	}

	if !validators.PasswordLength(in.Password) {
		return nil, apperrors.BadRequest(msgPasswordTooLong)
	}

	existing, err := s.userRepo.FindByEmailOrUsername(ctx, email, username)
	if err == nil && existing != nil {
		return nil, apperrors.Conflict(msgUserExists)
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.KindInternal, msgRegisterFailed, fmt.Errorf("check account existence: %w", err))
	}

	if in.AvatarPath == "" {
		return nil, apperrors.BadRequest(msgAvatarRequired)
	}

	avatar, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil || avatar == nil || avatar.URL == "" {
		zap.L().Warn("Avatar upload failed", zap.String("username", username), zap.Error(err))
		return nil, apperrors.BadRequest(msgAvatarRequired)
	}

	var coverURL string
	if in.CoverImagePath != "" {
		cover, err := s.uploader.Upload(ctx, in.CoverImagePath)
		if err != nil {
			zap.L().Warn("Cover image upload failed", zap.String("username", username), zap.Error(err))
		} else if cover != nil {
			coverURL = cover.URL
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, msgRegisterFailed, fmt.Errorf("hash password: %w", err))
	}

	user := &model.User{
		ID:         uuid.New(),
		FullName:   strings.TrimSpace(in.FullName),
		Email:      email,
		Username:   username,
		Password:   string(hashedPassword),
		Avatar:     avatar.URL,
		CoverImage: coverURL,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(msgUserExists)
		}
		return nil, apperrors.Wrap(apperrors.KindInternal, msgRegisterFailed, fmt.Errorf("create account: %w", err))
	}

	created, err := s.userRepo.FindPublicByID(ctx, user.ID)
	if err != nil || created == nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, msgRegisterFailed, err)
	}

	zap.L().Info("Account registered", zap.String("user_id", created.ID.String()), zap.String("username", created.Username))
	return created, nil
}

// Login authenticates an account by email or username and issues a token pair.
func (s *authService) Login(ctx context.Context, email, username, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	username = strings.ToLower(strings.TrimSpace(username))

	if email == "" && username == "" {
		return nil, apperrors.BadRequest(msgLoginIdentifier)
	}
	if password == "" {
		return nil, apperrors.BadRequest(msgPasswordRequired)
	}

	user, err := s.userRepo.FindByEmailOrUsername(ctx, email, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("find account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.Unauthorized(msgInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	sanitized, err := s.userRepo.FindPublicByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}

	return &LoginResult{User: sanitized, TokenPair: *pair}, nil
}

// Logout clears the stored refresh token and revokes the access token that
// made the request for the rest of its lifetime.
func (s *authService) Logout(ctx context.Context, userID uuid.UUID, accessJTI string, accessUntil time.Time) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}

	if err := s.tokenStore.BlacklistAccessToken(ctx, accessJTI, time.Until(accessUntil)); err != nil {
		zap.L().Warn("Failed to blacklist access token", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return nil
}

// RefreshToken rotates the token pair. The presented token must be the one
// currently stored for the account.
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.Unauthorized(msgUnauthorized)
	}

	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUnauthorized, err.Error(), err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized(msgInvalidRefresh)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized(msgInvalidRefresh)
		}
		return nil, apperrors.Wrap(apperrors.KindUnauthorized, msgInvalidRefresh, err)
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return nil, apperrors.Unauthorized(msgRefreshUsed)
	}

	pair, err := s.issueTokenPair(ctx, user.ID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, apperrors.Wrap(apperrors.KindUnauthorized, appErr.Message, err)
		}
		return nil, apperrors.Wrap(apperrors.KindUnauthorized, err.Error(), err)
	}
	return pair, nil
}

// issueTokenPair signs a new pair for the account and persists the refresh
// token as the only one honored from now on.
func (s *authService) issueTokenPair(ctx context.Context, userID uuid.UUID) (*TokenPair, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, msgTokenIssueFailed, err)
	}

	accessToken, err := s.jwtService.GenerateAccessToken(auth.Identity{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, msgTokenIssueFailed, fmt.Errorf("generate access token: %w", err))
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, msgTokenIssueFailed, fmt.Errorf("generate refresh token: %w", err))
	}

	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &refreshToken); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, msgTokenIssueFailed, fmt.Errorf("store refresh token: %w", err))
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
