package domain

import (
	"strings"
	"time"
)

// StaffRole enumerates internal operator roles.
type StaffRole string

const (
	StaffRoleAgent    StaffRole = "AGENT"
	StaffRoleTeamLead StaffRole = "TEAM_LEAD"
	StaffRoleAdmin    StaffRole = "ADMIN"
)

// Valid reports whether r is a known role.
func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleAgent, StaffRoleTeamLead, StaffRoleAdmin:
		return true
	}
	return false
}

// StaffMember models a support agent, team lead or administrator.
type StaffMember struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         StaffRole
	SectorID     *string
	TeamID       *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Handle is the mention handle of the staff member: the lower-cased local part of the email.
func (s *StaffMember) Handle() string {
	local, _, _ := strings.Cut(strings.ToLower(s.Email), "@")
	return local
}

// IsPrivileged reports whether the member may bypass locked SLA policies.
func (s *StaffMember) IsPrivileged() bool {
	return s != nil && (s.Role == StaffRoleAdmin || s.Role == StaffRoleTeamLead)
}
