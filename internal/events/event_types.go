package events

import (
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketLevelChanged    EventType = "ticket_level_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketMessageAdded    EventType = "ticket_message_added"
	EventTicketDeadlineChanged EventType = "ticket_deadline_changed"
	EventSLAWarning            EventType = "sla_warning"
	EventSLABreached           EventType = "sla_breached"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.SubjectType `json:"type"`
	UserID  *string            `json:"user_id,omitempty"`
	StaffID *string            `json:"staff_id,omitempty"`
}

// SystemActor is used for events raised by background workers.
var SystemActor = Actor{Type: "SYSTEM"}

// UserActor builds an actor for a requester.
func UserActor(userID string) Actor {
	return Actor{Type: domain.SubjectTypeUser, UserID: &userID}
}

// StaffActor builds an actor for a staff member.
func StaffActor(staffID string) Actor {
	return Actor{Type: domain.SubjectTypeStaff, StaffID: &staffID}
}

// ID returns whichever principal id is set.
func (a Actor) ID() string {
	switch {
	case a.StaffID != nil:
		return *a.StaffID
	case a.UserID != nil:
		return *a.UserID
	}
	return ""
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	SectorID    string                  `json:"sector_id"`
	TeamID      *string                 `json:"team_id,omitempty"`
	RequesterID string                  `json:"requester_id"`
	Level       domain.CriticalityLevel `json:"level"`
	Title       string                  `json:"title"`
	DueAt       time.Time               `json:"due_at"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	RequesterID string              `json:"requester_id"`
	AssigneeID  *string             `json:"assignee_id,omitempty"`
	OldStatus   domain.TicketStatus `json:"old_status"`
	NewStatus   domain.TicketStatus `json:"new_status"`
	Comment     string              `json:"comment,omitempty"`
}

// TicketLevelChangedPayload payload.
type TicketLevelChangedPayload struct {
	OldLevel domain.CriticalityLevel `json:"old_level"`
	NewLevel domain.CriticalityLevel `json:"new_level"`
	DueAt    time.Time               `json:"due_at"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeStaffID *string `json:"assignee_staff_id,omitempty"`
	TeamID          *string `json:"team_id,omitempty"`
	Title           string  `json:"title"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   string                   `json:"message_id"`
	MessageType domain.TicketMessageType `json:"message_type"`
	AuthorType  domain.MessageAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id,omitempty"`
	BodyPreview string                   `json:"body_preview"`
	Title       string                   `json:"title"`
	// Mentions holds the @handles found in the body.
	Mentions []string `json:"mentions,omitempty"`
}

// TicketDeadlineChangedPayload payload. NewDeadline is nil when an override is cleared.
type TicketDeadlineChangedPayload struct {
	OldDeadline *time.Time `json:"old_deadline,omitempty"`
	NewDeadline *time.Time `json:"new_deadline,omitempty"`
	DueAt       time.Time  `json:"due_at"`
	Reason      string     `json:"reason,omitempty"`
}

// SLAPayload is carried by EventSLAWarning and EventSLABreached.
type SLAPayload struct {
	SectorID   string                  `json:"sector_id"`
	Level      domain.CriticalityLevel `json:"level"`
	AssigneeID *string                 `json:"assignee_id,omitempty"`
	Title      string                  `json:"title"`
	Deadline   time.Time               `json:"deadline"`
	Remaining  time.Duration           `json:"remaining"`
}
