package dto

import (
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// NotificationResponse is one inbox entry.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Kind      domain.NotificationKind `json:"kind"`
	TicketID  *string                 `json:"ticket_id"`
	Title     string                  `json:"title"`
	Body      string                  `json:"body"`
	ReadAt    *time.Time              `json:"read_at"`
	CreatedAt time.Time               `json:"created_at"`
}

// NotificationListResponse is a page of the inbox.
type NotificationListResponse struct {
	Items  []NotificationResponse `json:"items"`
	Unread int                    `json:"unread"`
}
