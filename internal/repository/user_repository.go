package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidtube/internal/model"
)

// UserRepository defines account persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindPublicByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateDetails(ctx context.Context, id uuid.UUID, fullName, email string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error
	UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads the full record, including password hash and refresh token.
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindPublicByID loads the record without password and refresh token.
func (r *userRepository) FindPublicByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).
		Select(model.PublicColumns).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmailOrUsername matches on whichever of email and username is
// non-empty. With both empty it returns gorm.ErrRecordNotFound.
func (r *userRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	q := r.db.WithContext(ctx).Model(&model.User{})
	switch {
	case email != "" && username != "":
		q = q.Where("email = ? OR username = ?", email, username)
	case email != "":
		q = q.Where("email = ?", email)
	case username != "":
		q = q.Where("username = ?", username)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	var user model.User
	if err := q.First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateRefreshToken writes only the refresh_token column. A nil token
// clears it.
func (r *userRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token *string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"refresh_token": token})
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"password": hash})
}

func (r *userRepository) UpdateDetails(ctx context.Context, id uuid.UUID, fullName, email string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"full_name": fullName,
		"email":     email,
	})
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"avatar": url})
}

func (r *userRepository) UpdateCoverImage(ctx context.Context, id uuid.UUID, url string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"cover_image": url})
}

func (r *userRepository) updateColumns(ctx context.Context, id uuid.UUID, values map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Updates(values).Error
}
