package domain

import "time"

// NotificationKind classifies inbox entries.
type NotificationKind string

const (
	NotificationMention       NotificationKind = "MENTION"
	NotificationAssigned      NotificationKind = "ASSIGNED"
	NotificationStatusChanged NotificationKind = "STATUS_CHANGED"
	NotificationSLAWarning    NotificationKind = "SLA_WARNING"
	NotificationSLABreached   NotificationKind = "SLA_BREACHED"
)

// Notification is an inbox entry for a user or staff member.
type Notification struct {
	ID            string
	RecipientType SubjectType
	RecipientID   string
	Kind          NotificationKind
	TicketID      *string
	Title         string
	Body          string
	ReadAt        *time.Time
	CreatedAt     time.Time
}
