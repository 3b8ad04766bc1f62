// Package middleware holds the request pipeline stages routes opt into.
package middleware

import (
	"context"
	"errors"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"vidtube/internal/auth"
	apperrors "vidtube/internal/errors"
	"vidtube/internal/model"
	"vidtube/internal/reqctx"
)

const (
	claimsContextKey = "accessClaims"

	// AccessTokenCookie and RefreshTokenCookie name the cookies that carry
	// the token pair.
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	msgUnauthorized       = "unauthorized request"
	msgInvalidAccessToken = "Invalid Access Token"
)

// AccountLoader resolves the sanitized account behind a token.
type AccountLoader interface {
	CurrentUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Authenticate verifies the access token from the accessToken cookie or the
// Authorization header, rejects revoked tokens and attaches the account to
// the request context.
func Authenticate(jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface, accounts AccountLoader) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "cookie:" + AccessTokenCookie + ",header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := jwtService.ValidateAccessToken(token)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.KindUnauthorized, msgInvalidAccessToken, err)
			}

			revoked, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				zap.L().Warn("Blacklist lookup failed", zap.Error(err))
			}
			if revoked {
				return nil, apperrors.Unauthorized(msgInvalidAccessToken)
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return appErr
			}
			return apperrors.Wrap(apperrors.KindUnauthorized, msgUnauthorized, err)
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(attachAccount(accounts, next))
	}
}

func attachAccount(accounts AccountLoader, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get(claimsContextKey).(*auth.AccessClaims)
		if !ok {
			return apperrors.Unauthorized(msgUnauthorized)
		}

		id, err := uuid.Parse(claims.UserID)
		if err != nil {
			return apperrors.Unauthorized(msgInvalidAccessToken)
		}

		user, err := accounts.CurrentUser(c.Request().Context(), id)
		if err != nil {
			return err
		}

		rc := reqctx.From(c)
		rc.UserID = user.ID
		rc.User = user
		rc.AccessJTI = claims.ID
		if claims.ExpiresAt != nil {
			rc.AccessUntil = claims.ExpiresAt.Time
		}
		return next(c)
	}
}
