package sla

import (
	"errors"
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

var (
	ErrOverrideLocked     = errors.New("sla: sector policy is fixed; only team leads and admins may change deadlines")
	ErrOverrideNotStaff   = errors.New("sla: only staff may change deadlines")
	ErrOverrideBeforeOpen = errors.New("sla: deadline must be after ticket creation")
	ErrInvalidExtension   = errors.New("sla: extension must be a positive number of hours")
)

// CheckOverride decides whether actor may set, extend or clear a manual
// deadline on a ticket governed by policy. It runs on the write path only.
func CheckOverride(policy *domain.SLAPolicy, actor *domain.StaffMember) error {
	if actor == nil {
		return ErrOverrideNotStaff
	}
	if actor.IsPrivileged() {
		return nil
	}
	if policy != nil && policy.Mode == domain.SLAModeFixed {
		return ErrOverrideLocked
	}
	return nil
}

// ValidateOverride checks a requested manual deadline for t.
func ValidateOverride(t *domain.Ticket, deadline time.Time) error {
	if !deadline.After(t.CreatedAt) {
		return ErrOverrideBeforeOpen
	}
	return nil
}

// Extend returns the effective deadline of t pushed back by hours.
func (c *Calculator) Extend(t *domain.Ticket, policy *domain.SLAPolicy, hours int) (time.Time, error) {
	if hours <= 0 {
		return time.Time{}, ErrInvalidExtension
	}
	return c.Deadline(t, policy).At.Add(time.Duration(hours) * time.Hour), nil
}
