package domain

import "time"

// MessageAuthorType indicates who authored a message or change.
type MessageAuthorType string

const (
	AuthorTypeUser   MessageAuthorType = "USER"
	AuthorTypeStaff  MessageAuthorType = "STAFF"
	AuthorTypeSystem MessageAuthorType = "SYSTEM"
)

// TicketMessageType differentiates between public replies and internal comments.
type TicketMessageType string

const (
	MessageTypePublicReply  TicketMessageType = "PUBLIC_REPLY"
	MessageTypeInternalNote TicketMessageType = "INTERNAL_NOTE"
)

// TicketMessage is a reply or internal comment in a ticket thread.
type TicketMessage struct {
	ID          string
	TicketID    string
	AuthorType  MessageAuthorType
	AuthorID    *string
	MessageType TicketMessageType
	Body        string
	Mentions    []string
	Attachments []Attachment
	CreatedAt   time.Time
}

// Attachment is the metadata of a file stored in the object store.
type Attachment struct {
	ID              string
	TicketID        string
	TicketMessageID string
	StorageKey      string
	FileName        string
	MimeType        string
	SizeBytes       int64
	CreatedAt       time.Time
}
