package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	// DefaultAccessTokenExpiry is used when the service is built with a zero expiry.
	DefaultAccessTokenExpiry = 24 * time.Hour
	// DefaultRefreshTokenExpiry is used when the service is built with a zero expiry.
	DefaultRefreshTokenExpiry = 10 * 24 * time.Hour
)

// AccessClaims are carried by short-lived access tokens.
type AccessClaims struct {
	UserID   string `json:"_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// RefreshClaims are carried by refresh tokens. They name the account only.
type RefreshClaims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// Identity is the account data encoded into an access token.
type Identity struct {
	ID       uuid.UUID
	Email    string
	Username string
	FullName string
}

// Options configures a JWTService. Each token kind has its own secret.
type Options struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	accessSecret  []byte
	accessExpiry  time.Duration
	refreshSecret []byte
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewJWTService creates a new JWT service with the given options.
func NewJWTService(opts Options) *JWTService {
	if opts.AccessExpiry <= 0 {
		opts.AccessExpiry = DefaultAccessTokenExpiry
	}
	if opts.RefreshExpiry <= 0 {
		opts.RefreshExpiry = DefaultRefreshTokenExpiry
	}
	return &JWTService{
		accessSecret:  []byte(opts.AccessSecret),
		accessExpiry:  opts.AccessExpiry,
		refreshSecret: []byte(opts.RefreshSecret),
		refreshExpiry: opts.RefreshExpiry,
		now:           time.Now,
	}
}

// AccessExpiry is the lifetime of access tokens, used for cookie max-age.
func (s *JWTService) AccessExpiry() time.Duration { return s.accessExpiry }

// RefreshExpiry is the lifetime of refresh tokens, used for cookie max-age.
func (s *JWTService) RefreshExpiry() time.Duration { return s.refreshExpiry }

// GenerateAccessToken generates a new access token for the account.
func (s *JWTService) GenerateAccessToken(id Identity) (string, error) {
	now := s.now()
	claims := &AccessClaims{
		UserID:   id.ID.String(),
		Email:    id.Email,
		Username: id.Username,
		FullName: id.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.accessSecret)
}

// GenerateRefreshToken generates a new refresh token for the account. Every
// call yields a distinct token because of the random JTI.
func (s *JWTService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := &RefreshClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.refreshSecret)
}

// ValidateAccessToken verifies signature and expiry of an access token.
func (s *JWTService) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := parse(tokenString, claims, s.accessSecret); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, errors.New("invalid token subject")
	}
	return claims, nil
}

// ValidateRefreshToken verifies signature and expiry of a refresh token.
func (s *JWTService) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := parse(tokenString, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, errors.New("invalid token subject")
	}
	return claims, nil
}

func parse(tokenString string, claims jwt.Claims, secret []byte) error {
	if tokenString == "" {
		return errors.New("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}

	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
