package service

import (
	"context"
	"errors"
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/sla"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// SetDeadline stores a manual internal deadline that takes precedence over
// the sector policy.
func (s *TicketService) SetDeadline(ctx context.Context, staff *domain.StaffMember, ticketID string, deadline time.Time, reason string) (*domain.Ticket, error) {
	ticket, policy, err := s.overridable(ctx, staff, ticketID)
	if err != nil {
		return nil, err
	}
	deadline = deadline.UTC()
	if err := sla.ValidateOverride(ticket, deadline); err != nil {
		return nil, overrideErr(err)
	}
	return s.changeDeadline(ctx, staff, ticket, policy, &deadline, reason)
}

// ExtendDeadline pushes the effective deadline back by hours.
func (s *TicketService) ExtendDeadline(ctx context.Context, staff *domain.StaffMember, ticketID string, hours int, reason string) (*domain.Ticket, error) {
	ticket, policy, err := s.overridable(ctx, staff, ticketID)
	if err != nil {
		return nil, err
	}
	extended, err := s.sla.Calculator().Extend(ticket, policy, hours)
	if err != nil {
		return nil, overrideErr(err)
	}
	return s.changeDeadline(ctx, staff, ticket, policy, &extended, reason)
}

// ClearDeadline drops the manual deadline so the policy applies again.
func (s *TicketService) ClearDeadline(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, error) {
	ticket, policy, err := s.overridable(ctx, staff, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.InternalDeadline == nil {
		return ticket, nil
	}
	return s.changeDeadline(ctx, staff, ticket, policy, nil, "cleared")
}

func (s *TicketService) overridable(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, *domain.SLAPolicy, error) {
	ticket, err := s.ticketForStaff(ctx, staff, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, nil, apperrors.NewConflict("deadline of a resolved or closed ticket cannot change", map[string]any{"status": ticket.Status})
	}
	policy, err := s.sla.PolicyFor(ctx, ticket.SectorID)
	if err != nil {
		return nil, nil, err
	}
	if err := sla.CheckOverride(policy, staff); err != nil {
		return nil, nil, overrideErr(err)
	}
	return ticket, policy, nil
}

func (s *TicketService) changeDeadline(ctx context.Context, staff *domain.StaffMember, ticket *domain.Ticket, policy *domain.SLAPolicy, deadline *time.Time, reason string) (*domain.Ticket, error) {
	old := ticket.InternalDeadline
	oldDue := ticket.DueAt
	ticket.InternalDeadline = deadline
	ticket.DueAt = s.sla.Calculator().Deadline(ticket, policy).At
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	reason = sanitizeText(reason)
	newValue := map[string]any{"internal_deadline": deadline, "due_at": ticket.DueAt}
	if reason != "" {
		newValue["reason"] = reason
	}
	if err := s.recordHistory(ctx, domain.AuthorTypeStaff, &staff.ID, ticket.ID, domain.ChangeTypeDeadline,
		map[string]any{"internal_deadline": old, "due_at": oldDue}, newValue); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeadlineChanged,
		TicketID: ticket.ID,
		Actor:    events.StaffActor(staff.ID),
		Payload: events.TicketDeadlineChangedPayload{
			OldDeadline: old,
			NewDeadline: deadline,
			DueAt:       ticket.DueAt,
			Reason:      reason,
		},
	})
	return ticket, nil
}

func overrideErr(err error) error {
	switch {
	case errors.Is(err, sla.ErrOverrideLocked), errors.Is(err, sla.ErrOverrideNotStaff):
		return apperrors.NewForbidden(err.Error())
	case errors.Is(err, sla.ErrOverrideBeforeOpen), errors.Is(err, sla.ErrInvalidExtension):
		return apperrors.NewValidationError(err.Error(), nil)
	}
	return apperrors.MapError(err)
}
