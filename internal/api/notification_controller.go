package api

import (
	"github.com/gin-gonic/gin"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/service"
)

// NotificationController serves a user's in-app notifications.
type NotificationController struct {
	notifications *service.NotificationService
}

// NewNotificationController creates a notification controller.
func NewNotificationController(notifications *service.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

// List returns the caller's notifications, newest first.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "limit"
// @Success 200 {object} Response
// @Router /api/v1/notifications [get]
func (ctl *NotificationController) List(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	notifications, err := ctl.notifications.ListForUser(c.GetString("user_id"), limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, notifications)
}

// MarkRead marks one of the caller's notifications as read.
// @Summary Mark notification read
// @Tags notifications
// @Param id path string true "notification ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/notifications/{id}/read [post]
func (ctl *NotificationController) MarkRead(c *gin.Context) {
	if err := ctl.notifications.MarkRead(c.Param("id"), c.GetString("user_id")); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}
