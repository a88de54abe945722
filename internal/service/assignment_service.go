package service

import (
	"context"
	"hash/fnv"
	"sort"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	tickets    repository.TicketRepository
	staff      repository.StaffRepository
	teams      repository.TeamRepository
	history    repository.TicketHistoryRepository
	sla        *SLAService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo  repository.TicketRepository
	StaffRepo   repository.StaffRepository
	TeamRepo    repository.TeamRepository
	HistoryRepo repository.TicketHistoryRepository
	SLA         *SLAService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		tickets:    deps.TicketRepo,
		staff:      deps.StaffRepo,
		teams:      deps.TeamRepo,
		history:    deps.HistoryRepo,
		sla:        deps.SLA,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// SelfAssignTicket assigns a ticket to the calling staff member.
func (s *AssignmentService) SelfAssignTicket(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.accessible(ctx, staff, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket already resolved", map[string]any{"status": ticket.Status})
	}
	if err := s.assign(ctx, events.StaffActor(staff.ID), ticket, &staff.ID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// AssignTicketToStaff assigns ticket to another staff member (TEAM_LEAD/ADMIN).
func (s *AssignmentService) AssignTicketToStaff(ctx context.Context, actor *domain.StaffMember, ticketID, assigneeStaffID string) (*domain.Ticket, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	assignee, err := s.staff.GetByID(ctx, assigneeStaffID)
	if err != nil {
		return nil, lookupErr(err, "staff", assigneeStaffID)
	}
	if !assignee.Active {
		return nil, apperrors.NewConflict("assignee inactive", map[string]any{"staff_id": assigneeStaffID})
	}
	ticket, err := s.accessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !staffInScope(assignee, ticket) && actor.Role != domain.StaffRoleAdmin {
		return nil, apperrors.NewForbidden("assignee outside ticket scope")
	}
	if err := s.assign(ctx, events.StaffActor(actor.ID), ticket, &assignee.ID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// AssignTicketToTeam moves a ticket to another team, and to that team's
// sector when it differs. A sector change re-derives the SLA deadline.
func (s *AssignmentService) AssignTicketToTeam(ctx context.Context, actor *domain.StaffMember, ticketID, teamID string) (*domain.Ticket, error) {
	if err := requireAssignPriv(actor); err != nil {
		return nil, err
	}
	team, err := s.activeTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.accessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if team.SectorID != ticket.SectorID && actor.Role != domain.StaffRoleAdmin {
		return nil, apperrors.NewForbidden("only admins may move tickets between sectors")
	}
	if err := s.moveToTeam(ctx, events.StaffActor(actor.ID), ticket, team, nil); err != nil {
		return nil, err
	}
	return ticket, nil
}

// AutoAssignTicket places a ticket in a team and picks an active member of
// that team deterministically from the ticket id.
func (s *AssignmentService) AutoAssignTicket(ctx context.Context, ticketID, teamID string) (*domain.Ticket, error) {
	team, err := s.activeTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	members, err := s.staff.List(ctx, repository.StaffFilter{
		TeamID: &teamID,
		Active: ptrBool(true),
		Limit:  1000,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(members) == 0 {
		return nil, apperrors.NewConflict("no eligible staff for team", map[string]any{"team_id": teamID})
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].CreatedAt.Before(members[j].CreatedAt)
	})

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupErr(err, "ticket", ticketID)
	}
	assignee := members[selectIndex(ticket.ID, len(members))]
	if err := s.moveToTeam(ctx, events.SystemActor, ticket, team, &assignee.ID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// HandleTicketCreated auto-assigns new tickets that were opened against a team.
func (s *AssignmentService) HandleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.TeamID == nil {
		return nil
	}
	_, err := s.AutoAssignTicket(ctx, event.TicketID, *payload.TeamID)
	if apperrors.HasCode(err, apperrors.CodeConflict) {
		s.logger.Info("ticket left unassigned", zap.String("ticket_id", event.TicketID), zap.Error(err))
		return nil
	}
	return err
}

func (s *AssignmentService) accessible(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, error) {
	if err := requireStaff(staff); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupErr(err, "ticket", ticketID)
	}
	if !staffCanAccess(staff, ticket) {
		return nil, apperrors.NewForbidden("ticket outside your scope")
	}
	return ticket, nil
}

func (s *AssignmentService) activeTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, lookupErr(err, "team", teamID)
	}
	if !team.IsActive {
		return nil, apperrors.NewConflict("team inactive", map[string]any{"team_id": teamID})
	}
	return team, nil
}

func (s *AssignmentService) assign(ctx context.Context, actor events.Actor, ticket *domain.Ticket, assigneeID *string) error {
	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = assigneeID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.record(ctx, actor, ticket.ID, domain.ChangeTypeAssignee, "assignee_staff_id", oldAssignee, assigneeID); err != nil {
		return err
	}
	s.publishAssignmentEvent(ctx, actor, ticket)
	return nil
}

// moveToTeam sets team, sector and assignee in one update. assigneeID nil
// clears the current assignee.
func (s *AssignmentService) moveToTeam(ctx context.Context, actor events.Actor, ticket *domain.Ticket, team *domain.Team, assigneeID *string) error {
	oldTeam := ticket.TeamID
	oldSector := ticket.SectorID
	oldAssignee := ticket.AssigneeID
	ticket.TeamID = &team.ID
	ticket.SectorID = team.SectorID
	ticket.AssigneeID = assigneeID
	if oldSector != team.SectorID && s.sla != nil {
		if _, err := s.sla.ApplyDeadline(ctx, ticket); err != nil {
			return err
		}
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return apperrors.MapError(err)
	}
	if !samePtr(oldTeam, ticket.TeamID) {
		if err := s.record(ctx, actor, ticket.ID, domain.ChangeTypeTeam, "team_id", oldTeam, ticket.TeamID); err != nil {
			return err
		}
	}
	if oldSector != ticket.SectorID {
		if err := s.record(ctx, actor, ticket.ID, domain.ChangeTypeSector, "sector_id", oldSector, ticket.SectorID); err != nil {
			return err
		}
	}
	if !samePtr(oldAssignee, ticket.AssigneeID) {
		if err := s.record(ctx, actor, ticket.ID, domain.ChangeTypeAssignee, "assignee_staff_id", oldAssignee, ticket.AssigneeID); err != nil {
			return err
		}
	}
	s.publishAssignmentEvent(ctx, actor, ticket)
	return nil
}

func (s *AssignmentService) record(ctx context.Context, actor events.Actor, ticketID string, change domain.TicketChangeType, field string, oldValue, newValue any) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: authorTypeOf(actor),
		ChangeType:    change,
		OldValue:      map[string]any{field: oldValue},
		NewValue:      map[string]any{field: newValue},
	}
	if id := actor.ID(); id != "" {
		entry.ChangedByID = &id
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, actor events.Actor, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketAssignedPayload{
			AssigneeStaffID: ticket.AssigneeID,
			TeamID:          ticket.TeamID,
			Title:           ticket.Title,
		},
	})
}

func authorTypeOf(actor events.Actor) domain.MessageAuthorType {
	switch actor.Type {
	case domain.SubjectTypeStaff:
		return domain.AuthorTypeStaff
	case domain.SubjectTypeUser:
		return domain.AuthorTypeUser
	}
	return domain.AuthorTypeSystem
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// selectIndex spreads tickets over n candidates by hashing the ticket id.
func selectIndex(key string, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}

func requireAssignPriv(staff *domain.StaffMember) error {
	if staff == nil {
		return apperrors.NewUnauthorized("staff required")
	}
	if !staff.IsPrivileged() {
		return apperrors.NewForbidden("insufficient role for assignment")
	}
	return nil
}
