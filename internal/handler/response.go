package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"vidtube/internal/middleware"
)

// ApiResponse is the envelope of every successful response.
type ApiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c echo.Context, status int, data any, message string) error {
	if data == nil {
		data = struct{}{}
	}
	return c.JSON(status, ApiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// CookieOptions controls the token cookies.
type CookieOptions struct {
	Secure        bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

func (o CookieOptions) setTokens(c echo.Context, accessToken, refreshToken string) {
	c.SetCookie(o.cookie(middleware.AccessTokenCookie, accessToken, o.AccessMaxAge))
	c.SetCookie(o.cookie(middleware.RefreshTokenCookie, refreshToken, o.RefreshMaxAge))
}

func (o CookieOptions) clearTokens(c echo.Context) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		cookie := o.cookie(name, "", 0)
		cookie.MaxAge = -1
		cookie.Expires = time.Unix(0, 0)
		c.SetCookie(cookie)
	}
}

func (o CookieOptions) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
