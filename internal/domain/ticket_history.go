package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeStatus   TicketChangeType = "STATUS_CHANGE"
	ChangeTypeAssignee TicketChangeType = "ASSIGNEE_CHANGE"
	ChangeTypeLevel    TicketChangeType = "LEVEL_CHANGE"
	ChangeTypeTeam     TicketChangeType = "TEAM_CHANGE"
	ChangeTypeSector   TicketChangeType = "SECTOR_CHANGE"
	ChangeTypeDeadline TicketChangeType = "DEADLINE_CHANGE"
	ChangeTypeSLA      TicketChangeType = "SLA_BREACH"
)

// RequesterVisible reports whether requesters may see entries of this type.
func (c TicketChangeType) RequesterVisible() bool {
	switch c {
	case ChangeTypeStatus, ChangeTypeAssignee, ChangeTypeTeam, ChangeTypeSector:
		return true
	}
	return false
}

// TicketHistory is an immutable audit trail entry.
type TicketHistory struct {
	ID            string
	TicketID      string
	ChangedByType MessageAuthorType
	ChangedByID   *string
	ChangeType    TicketChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
