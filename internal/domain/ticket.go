package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// ActiveStatuses lists the statuses an SLA clock still runs for.
var ActiveStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// IsTerminal reports whether the ticket is resolved or closed.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// CriticalityLevel ranks ticket urgency; P0 is the most critical.
type CriticalityLevel string

const (
	LevelP0 CriticalityLevel = "P0"
	LevelP1 CriticalityLevel = "P1"
	LevelP2 CriticalityLevel = "P2"
	LevelP3 CriticalityLevel = "P3"
)

// Levels lists every criticality level from most to least critical.
var Levels = []CriticalityLevel{LevelP0, LevelP1, LevelP2, LevelP3}

// Valid reports whether l is a known level.
func (l CriticalityLevel) Valid() bool {
	switch l {
	case LevelP0, LevelP1, LevelP2, LevelP3:
		return true
	}
	return false
}

// Ticket is the aggregate for support and improvement requests.
type Ticket struct {
	ID               string
	ExternalKey      string
	RequesterID      string
	SectorID         string
	TeamID           *string
	AssigneeID       *string
	Title            string
	Description      string
	Status           TicketStatus
	Level            CriticalityLevel
	Tags             []string
	InternalDeadline *time.Time
	DueAt            time.Time
	SLABreachedAt    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ResolvedAt       *time.Time
	ClosedAt         *time.Time
}
