package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"vidtube/internal/reqctx"
	"vidtube/internal/service"
)

// ChannelHandler serves channel pages and watch history.
type ChannelHandler struct {
	svc service.ChannelService
}

// NewChannelHandler creates a new channel handler.
func NewChannelHandler(svc service.ChannelService) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

// ChannelProfile godoc
// @Summary Channel profile with subscription counts
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param username path string true "Channel username"
// @Success 200 {object} ApiResponse{data=model.ChannelProfile}
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/c/{username} [get]
func (h *ChannelHandler) ChannelProfile(c echo.Context) error {
	profile, err := h.svc.ChannelProfile(c.Request().Context(), c.Param("username"), reqctx.From(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, profile, "Channel data fetched successfully")
}

// WatchHistory godoc
// @Summary Videos the current user watched
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ApiResponse{data=[]model.Video}
// @Failure 401 {object} errors.ErrorResponse
// @Router /users/history [get]
func (h *ChannelHandler) WatchHistory(c echo.Context) error {
	videos, err := h.svc.WatchHistory(c.Request().Context(), reqctx.From(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, videos, "Watch History fetched successfully")
}
