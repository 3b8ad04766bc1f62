package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "vidtube/internal/errors"
	"vidtube/internal/reqctx"
	"vidtube/internal/service"
)

// UserHandler serves the authenticated account endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// ChangePasswordRequest represents a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"oldPassword" validate:"max=72"`
	NewPassword string `json:"newPassword" form:"newPassword" validate:"max=72"`
}

// UpdateDetailsRequest represents an account details update.
type UpdateDetailsRequest struct {
	FullName string `json:"fullName" form:"fullName" validate:"max=100"`
	Email    string `json:"email" form:"email" validate:"max=255"`
}

// ChangePassword godoc
// @Summary Change the current user's password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Old and new password"
// @Success 200 {object} ApiResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/change-password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Wrap(apperrors.KindBadRequest, "invalid request body", err)
	}

	if err := c.Validate(&req); err != nil {
		return apperrors.Wrap(apperrors.KindBadRequest, err.Error(), err)
	}

	rc := reqctx.From(c)
	if err := h.svc.ChangePassword(c.Request().Context(), rc.UserID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return respond(c, http.StatusOK, nil, "Password Updated Successfully")
}

// GetCurrentUser godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ApiResponse{data=model.User}
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/get-user [post]
func (h *UserHandler) GetCurrentUser(c echo.Context) error {
	return respond(c, http.StatusOK, reqctx.From(c).User, "current user fetched successfully")
}

// UpdateAccountDetails godoc
// @Summary Update full name and email
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateDetailsRequest true "New details"
// @Success 200 {object} ApiResponse{data=model.User}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/update-details [post]
func (h *UserHandler) UpdateAccountDetails(c echo.Context) error {
	var req UpdateDetailsRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Wrap(apperrors.KindBadRequest, "invalid request body", err)
	}

	if err := c.Validate(&req); err != nil {
		return apperrors.Wrap(apperrors.KindBadRequest, err.Error(), err)
	}

	user, err := h.svc.UpdateAccountDetails(c.Request().Context(), reqctx.From(c).UserID, req.FullName, req.Email)
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, user, "details updated successfully")
}

// UpdateAvatar godoc
// @Summary Replace the avatar image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} ApiResponse{data=model.User}
// @Failure 400 {object} errors.ErrorResponse
// @Router /users/update-avatar [post]
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	rc := reqctx.From(c)
	user, err := h.svc.UpdateAvatar(c.Request().Context(), rc.UserID, rc.File("avatar"))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, user, "Avatar updated Successfully")
}

// UpdateCoverImage godoc
// @Summary Replace the cover image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} ApiResponse{data=model.User}
// @Failure 400 {object} errors.ErrorResponse
// @Router /users/update-coverImage [post]
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	rc := reqctx.From(c)
	user, err := h.svc.UpdateCoverImage(c.Request().Context(), rc.UserID, rc.File("coverImage"))
	if err != nil {
		return err
	}

	return respond(c, http.StatusOK, user, "Cover image updated Successfully")
}
