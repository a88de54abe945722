package dto

import (
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	SectorID    string                  `json:"sector_id" validate:"required"`
	TeamID      *string                 `json:"team_id"`
	Title       string                  `json:"title" validate:"required,max=200"`
	Description string                  `json:"description" validate:"required,max=20000"`
	Level       domain.CriticalityLevel `json:"level" validate:"omitempty,level"`
	Tags        []string                `json:"tags" validate:"max=10,dive,max=40"`
}

// SLAResponse is the SLA block carried by every ticket response.
type SLAResponse struct {
	Deadline         time.Time  `json:"deadline"`
	Source           string     `json:"source"`
	WindowHours      float64    `json:"window_hours"`
	RemainingSeconds int64      `json:"remaining_seconds"`
	Overdue          bool       `json:"overdue"`
	Band             string     `json:"band"`
	BreachedAt       *time.Time `json:"breached_at,omitempty"`
	MetSLA           *bool      `json:"met_sla,omitempty"`
}

// TicketSummary response.
type TicketSummary struct {
	ID          string                  `json:"id"`
	ExternalKey string                  `json:"external_key"`
	SectorID    string                  `json:"sector_id"`
	TeamID      *string                 `json:"team_id"`
	AssigneeID  *string                 `json:"assignee_id"`
	Title       string                  `json:"title"`
	Status      domain.TicketStatus     `json:"status"`
	Level       domain.CriticalityLevel `json:"level"`
	Tags        []string                `json:"tags"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
	SLA         SLAResponse             `json:"sla"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description      string                  `json:"description"`
	InternalDeadline *time.Time              `json:"internal_deadline,omitempty"`
	ResolvedAt       *time.Time              `json:"resolved_at"`
	ClosedAt         *time.Time              `json:"closed_at"`
	Messages         []TicketMessageResponse `json:"messages"`
	History          []TicketHistoryResponse `json:"history,omitempty"`
}

// TicketMessageResponse represents thread message.
type TicketMessageResponse struct {
	ID          string                   `json:"id"`
	MessageType domain.TicketMessageType `json:"message_type"`
	AuthorType  domain.MessageAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id"`
	Body        string                   `json:"body"`
	Mentions    []string                 `json:"mentions,omitempty"`
	Attachments []AttachmentResponse     `json:"attachments"`
	CreatedAt   time.Time                `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url,omitempty"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID            string                   `json:"id"`
	ChangeType    domain.TicketChangeType  `json:"change_type"`
	ChangedByType domain.MessageAuthorType `json:"changed_by_type"`
	ChangedByID   *string                  `json:"changed_by_id"`
	OldValue      map[string]any           `json:"old_value"`
	NewValue      map[string]any           `json:"new_value"`
	CreatedAt     time.Time                `json:"created_at"`
}

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Body        string                    `json:"body" validate:"required,max=20000"`
	MessageType *domain.TicketMessageType `json:"message_type,omitempty" validate:"omitempty,oneof=PUBLIC_REPLY INTERNAL_NOTE"`
	Attachments []AttachmentRequest       `json:"attachments" validate:"max=10,dive"`
}

// AttachmentRequest describes an uploaded object to link to a message.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key" validate:"required"`
	FileName   string `json:"file_name" validate:"required,max=255"`
	MimeType   string `json:"mime_type" validate:"max=255"`
	SizeBytes  int64  `json:"size_bytes" validate:"gte=0"`
}

// UploadURLRequest asks for a presigned upload URL.
type UploadURLRequest struct {
	FileName string `json:"file_name" validate:"required,max=255"`
}

// UploadURLResponse returns where to PUT the file and the key to reference it by.
type UploadURLResponse struct {
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.TicketStatus `json:"status" validate:"required,ticket_status"`
	Comment string              `json:"comment" validate:"max=2000"`
}

// UpdateLevelRequest payload.
type UpdateLevelRequest struct {
	Level domain.CriticalityLevel `json:"level" validate:"required,level"`
}

// AssignStaffRequest payload.
type AssignStaffRequest struct {
	StaffID string `json:"staff_id" validate:"required"`
}

// AssignTeamRequest payload.
type AssignTeamRequest struct {
	TeamID string `json:"team_id" validate:"required"`
}

// SetDeadlineRequest sets a manual internal deadline.
type SetDeadlineRequest struct {
	Deadline time.Time `json:"deadline" validate:"required"`
	Reason   string    `json:"reason" validate:"max=500"`
}

// ExtendDeadlineRequest pushes the current deadline back.
type ExtendDeadlineRequest struct {
	Hours  int    `json:"hours" validate:"required,gt=0,lte=8760"`
	Reason string `json:"reason" validate:"max=500"`
}
