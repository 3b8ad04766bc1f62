package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "vidtube/internal/errors"
	"vidtube/internal/middleware"
	"vidtube/internal/model"
	"vidtube/internal/reqctx"
	"vidtube/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookies     CookieOptions
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// RegisterRequest represents the text fields of a registration form.
type RegisterRequest struct {
	FullName string `json:"fullName" form:"fullName" validate:"max=100"`
	Email    string `json:"email" form:"email" validate:"max=255"`
	Username string `json:"username" form:"username" validate:"max=50"`
	Password string `json:"password" form:"password" validate:"max=72"`
}

// LoginRequest represents a login request. Either email or username is used.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"max=255"`
	Username string `json:"username" form:"username" validate:"max=50"`
	Password string `json:"password" form:"password" validate:"max=72"`
}

// RefreshRequest carries the refresh token for clients that do not send cookies.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	User         *model.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param fullName formData string true "Full name"
// @Param email formData string true "Email"
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} ApiResponse{data=model.User}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Wrap(apperrors.KindBadRequest, "invalid request body", err)
	}

	if err := c.Validate(&req); err != nil {
		return apperrors.Wrap(apperrors.KindBadRequest, err.Error(), err)
	}

	rc := reqctx.From(c)
	user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		FullName:       req.FullName,
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		AvatarPath:     rc.File("avatar"),
		CoverImagePath: rc.File("coverImage"),
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, user, "User registered successfully")
}

// Login godoc
// @Summary Login with email or username
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} ApiResponse{data=LoginResponse}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Wrap(apperrors.KindBadRequest, "invalid request body", err)
	}

	if err := c.Validate(&req); err != nil {
		return apperrors.Wrap(apperrors.KindBadRequest, err.Error(), err)
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Username, req.Password)
	if err != nil {
		return err
	}

	h.cookies.setTokens(c, result.AccessToken, result.RefreshToken)

	return respond(c, http.StatusOK, LoginResponse{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, "User Logged in successfully")
}

// Logout godoc
// @Summary Logout the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ApiResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	rc := reqctx.From(c)
	if err := h.authService.Logout(c.Request().Context(), rc.UserID, rc.AccessJTI, rc.AccessUntil); err != nil {
		return err
	}

	h.cookies.clearTokens(c)
	return respond(c, http.StatusOK, nil, "User logged out")
}

// RefreshToken godoc
// @Summary Rotate the token pair
// @Tags users
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token, when not sent as cookie"
// @Success 200 {object} ApiResponse{data=service.TokenPair}
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/refresh-token [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var presented string
	if cookie, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req RefreshRequest
		if err := c.Bind(&req); err != nil {
			return apperrors.Wrap(apperrors.KindBadRequest, "invalid request body", err)
		}
		presented = req.RefreshToken
	}

	pair, err := h.authService.RefreshToken(c.Request().Context(), presented)
	if err != nil {
		return err
	}

	h.cookies.setTokens(c, pair.AccessToken, pair.RefreshToken)
	return respond(c, http.StatusOK, pair, "Access Token refreshed successfully")
}
