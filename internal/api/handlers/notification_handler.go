package handlers

import (
	"net/http"

	"property-bidding/internal/domain"
	"property-bidding/pkg/logger"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	store domain.NotificationStore
	log   logger.Logger
}

func NewNotificationHandler(store domain.NotificationStore, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		store: store,
		log:   log,
	}
}

// Notifications lists a user's notifications, newest first.
func (h *NotificationHandler) Notifications(c echo.Context) error {
	userID := c.Param("id")

	notifications, err := h.store.NotificationsForUser(c.Request().Context(), userID)
	if err != nil {
		h.log.Error("Failed to load notifications", "user_id", userID, "error", err)
		return errorJSON(c, err)
	}

	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	return c.JSON(http.StatusOK, notifications)
}
