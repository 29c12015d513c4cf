package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stream-user-service/internal/middleware"
	"github.com/iliyamo/stream-user-service/internal/repository"
)

// ChannelHandler serves the channel-profile aggregation and the
// subscription toggle.
type ChannelHandler struct {
	Users *repository.UserRepo
	Subs  *repository.SubscriptionRepo
}

func NewChannelHandler(u *repository.UserRepo, s *repository.SubscriptionRepo) *ChannelHandler {
	return &ChannelHandler{Users: u, Subs: s}
}

// GetChannelProfile returns the channel owned by :username with subscriber
// count, subscribed-to count, and whether the requesting viewer is
// subscribed.
func (h *ChannelHandler) GetChannelProfile(c echo.Context) error {
	viewer, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized request"})
	}
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Subs.ChannelProfile(ctx, username, viewer.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load channel failed"})
	}
	return c.JSON(http.StatusOK, profile)
}

// ToggleSubscription subscribes the viewer to :username's channel, or
// unsubscribes when already subscribed.  Subscribing to your own channel
// is rejected.
func (h *ChannelHandler) ToggleSubscription(c echo.Context) error {
	viewer, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized request"})
	}
	username := strings.TrimSpace(c.Param("username"))
	if username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	channel, err := h.Users.GetByUsername(ctx, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "channel does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load channel failed"})
	}
	if channel.ID == viewer.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot subscribe to your own channel"})
	}

	subscribed, err := h.Subs.Toggle(ctx, viewer.ID, channel.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle subscription failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"subscribed": subscribed})
}
