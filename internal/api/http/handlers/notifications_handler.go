package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// NotificationsHandler serves the inbox of the calling principal.
type NotificationsHandler struct {
	notifications *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{notifications: notificationService}
}

// List handles GET /notifications?unread=true.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c, defaultPageSize)
	page, err := h.notifications.List(c.UserContext(), principal.SubjectType, principal.ID(),
		parseBoolQuery(c, "unread", false), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, notificationResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.NotificationListResponse{Items: items, Unread: page.Unread}})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if id == "" {
		return apperrors.NewValidationError("notification id required", nil)
	}
	if err := h.notifications.MarkRead(c.UserContext(), principal.SubjectType, principal.ID(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationsHandler) MarkAllRead(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkAllRead(c.UserContext(), principal.SubjectType, principal.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"marked": n}})
}
