package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/repository"
	"github.com/deskflow/helpdesk/internal/sla"
	"github.com/deskflow/helpdesk/internal/storage"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

const (
	maxTags         = 10
	userHistoryPage = 100
	previewLength   = 120
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	sectors     repository.SectorRepository
	teams       repository.TeamRepository
	staff       repository.StaffRepository
	history     repository.TicketHistoryRepository
	sla         *SLAService
	storage     storage.ObjectStorage
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	SectorRepo     repository.SectorRepository
	TeamRepo       repository.TeamRepository
	StaffRepo      repository.StaffRepository
	HistoryRepo    repository.TicketHistoryRepository
	SLA            *SLAService
	Storage        storage.ObjectStorage
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	SectorID    string
	TeamID      *string
	Title       string
	Description string
	Level       domain.CriticalityLevel
	Tags        []string
}

// TicketUserFilter describes requester listing filters.
type TicketUserFilter struct {
	Statuses    []domain.TicketStatus
	Levels      []domain.CriticalityLevel
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketStaffFilter describes staff listing filters.
type TicketStaffFilter struct {
	SectorID    *string
	TeamID      *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Levels      []domain.CriticalityLevel
	SearchTerm  *string
	Overdue     bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
	Limit       int
	Offset      int
}

// MessageAttachmentInput defines attachment metadata for an uploaded object.
type MessageAttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// TicketSummary is a ticket with its SLA state at listing time.
type TicketSummary struct {
	Ticket domain.Ticket
	SLA    sla.Evaluation
}

// TicketView is the detail read model of a ticket.
type TicketView struct {
	Ticket   *domain.Ticket
	SLA      sla.Evaluation
	Messages []domain.TicketMessage
	// DownloadURLs maps attachment id to a presigned GET URL.
	DownloadURLs map[string]string
}

// UploadTarget is where a client should PUT an attachment.
type UploadTarget struct {
	StorageKey string
	URL        string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		sectors:     deps.SectorRepo,
		teams:       deps.TeamRepo,
		staff:       deps.StaffRepo,
		history:     deps.HistoryRepo,
		sla:         deps.SLA,
		storage:     deps.Storage,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         utcNow,
	}
}

// CreateTicket opens a ticket for a requester and stamps its SLA deadline.
func (s *TicketService) CreateTicket(ctx context.Context, userID string, input TicketCreateInput) (*domain.Ticket, error) {
	sector, err := s.sectors.GetByID(ctx, input.SectorID)
	if err != nil {
		return nil, lookupErr(err, "sector", input.SectorID)
	}
	if !sector.IsActive {
		return nil, apperrors.NewValidationError("sector inactive", map[string]any{"sector_id": sector.ID})
	}
	if input.TeamID != nil {
		if err := s.checkTeam(ctx, *input.TeamID, sector.ID); err != nil {
			return nil, err
		}
	}
	level := input.Level
	if level == "" {
		level = domain.LevelP3
	}
	if !level.Valid() {
		return nil, apperrors.NewValidationError("invalid criticality level", map[string]any{"level": level})
	}
	title := strings.TrimSpace(bodyPolicy.Sanitize(input.Title))
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	ticket := &domain.Ticket{
		ExternalKey: generateTicketKey(),
		RequesterID: userID,
		SectorID:    sector.ID,
		TeamID:      input.TeamID,
		Title:       title,
		Description: sanitizeBody(input.Description),
		Status:      domain.TicketStatusOpen,
		Level:       level,
		Tags:        normalizeTags(input.Tags),
		CreatedAt:   s.now(),
	}
	if _, err := s.sla.ApplyDeadline(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.UserActor(userID),
		Payload: events.TicketCreatedPayload{
			SectorID:    ticket.SectorID,
			TeamID:      ticket.TeamID,
			RequesterID: userID,
			Level:       ticket.Level,
			Title:       ticket.Title,
			DueAt:       ticket.DueAt,
		},
	})
	return ticket, nil
}

// ListUserTickets returns a requester's tickets with their SLA state.
func (s *TicketService) ListUserTickets(ctx context.Context, userID string, filter TicketUserFilter) ([]TicketSummary, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		RequesterID: &userID,
		Statuses:    filter.Statuses,
		Levels:      filter.Levels,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.summaries(ctx, tickets)
}

// GetTicketForUser fetches a ticket owned by the requester with public messages only.
func (s *TicketService) GetTicketForUser(ctx context.Context, userID, ticketID string) (*TicketView, error) {
	ticket, err := s.ticketForUser(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, ticket, false)
}

// ListStaffTickets returns tickets visible to staff.
func (s *TicketService) ListStaffTickets(ctx context.Context, staff *domain.StaffMember, filter TicketStaffFilter) ([]TicketSummary, error) {
	if err := requireStaff(staff); err != nil {
		return nil, err
	}
	repoFilter := repository.TicketFilter{
		SectorID:    filter.SectorID,
		TeamID:      filter.TeamID,
		AssigneeID:  filter.AssigneeID,
		Statuses:    filter.Statuses,
		Levels:      filter.Levels,
		SearchTerm:  filter.SearchTerm,
		Overdue:     filter.Overdue,
		Now:         s.now(),
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		UpdatedFrom: filter.UpdatedFrom,
		UpdatedTo:   filter.UpdatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	applyStaffScope(&repoFilter, staff)
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.summaries(ctx, tickets)
}

// GetTicketForStaff fetches a ticket with internal notes included.
func (s *TicketService) GetTicketForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string) (*TicketView, error) {
	ticket, err := s.ticketForStaff(ctx, staff, ticketID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, ticket, true)
}

// AddMessage appends a reply or internal note, records mentions and links
// previously uploaded attachments.
func (s *TicketService) AddMessage(ctx context.Context, actor domain.SubjectType, actorID string, staff *domain.StaffMember, ticketID string, messageType domain.TicketMessageType, body string, attachments []MessageAttachmentInput) (*domain.TicketMessage, error) {
	var ticket *domain.Ticket
	var err error
	switch actor {
	case domain.SubjectTypeUser:
		ticket, err = s.ticketForUser(ctx, actorID, ticketID)
		if err != nil {
			return nil, err
		}
		if messageType == "" {
			messageType = domain.MessageTypePublicReply
		}
		if messageType != domain.MessageTypePublicReply {
			return nil, apperrors.NewForbidden("requesters can only post public replies")
		}
	case domain.SubjectTypeStaff:
		ticket, err = s.ticketForStaff(ctx, staff, ticketID)
		if err != nil {
			return nil, err
		}
		if messageType == "" {
			messageType = domain.MessageTypeInternalNote
		}
		if messageType != domain.MessageTypePublicReply && messageType != domain.MessageTypeInternalNote {
			return nil, apperrors.NewValidationError("invalid message type", map[string]any{"message_type": messageType})
		}
	default:
		return nil, apperrors.NewUnauthorized("unknown actor")
	}

	clean := sanitizeBody(body)
	if clean == "" && len(attachments) == 0 {
		return nil, apperrors.NewValidationError("message body is required", nil)
	}
	for _, att := range attachments {
		if !storage.KeyBelongsTo(att.StorageKey, ticket.ID) {
			return nil, apperrors.NewValidationError("attachment does not belong to ticket", map[string]any{"storage_key": att.StorageKey})
		}
	}

	msg := &domain.TicketMessage{
		TicketID:    ticket.ID,
		MessageType: messageType,
		Body:        clean,
		Mentions:    ExtractMentions(clean),
	}
	if actor == domain.SubjectTypeUser {
		msg.AuthorType = domain.AuthorTypeUser
	} else {
		msg.AuthorType = domain.AuthorTypeStaff
	}
	authorID := actorID
	msg.AuthorID = &authorID

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, att := range attachments {
		record := &domain.Attachment{
			TicketID:        ticket.ID,
			TicketMessageID: msg.ID,
			StorageKey:      att.StorageKey,
			FileName:        att.FileName,
			MimeType:        att.MimeType,
			SizeBytes:       att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
		msg.Attachments = append(msg.Attachments, *record)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		Actor:    actorFromSubject(actor, actorID),
		Payload: events.TicketMessageAddedPayload{
			MessageID:   msg.ID,
			MessageType: msg.MessageType,
			AuthorType:  msg.AuthorType,
			AuthorID:    msg.AuthorID,
			BodyPreview: stringPreview(msg.Body, previewLength),
			Title:       ticket.Title,
			Mentions:    msg.Mentions,
		},
	})
	return msg, nil
}

// RequestUploadURL issues a presigned PUT URL for a new attachment.
func (s *TicketService) RequestUploadURL(ctx context.Context, actor domain.SubjectType, actorID string, staff *domain.StaffMember, ticketID, fileName string) (*UploadTarget, error) {
	if s.storage == nil {
		return nil, apperrors.NewDomainError("STORAGE_DISABLED", "attachment storage is not configured", http.StatusServiceUnavailable, nil)
	}
	var ticket *domain.Ticket
	var err error
	if actor == domain.SubjectTypeStaff {
		ticket, err = s.ticketForStaff(ctx, staff, ticketID)
	} else {
		ticket, err = s.ticketForUser(ctx, actorID, ticketID)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, apperrors.NewValidationError("file_name is required", nil)
	}
	key := storage.ObjectKey(ticket.ID, fileName)
	u, err := s.storage.PresignUpload(ctx, key)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &UploadTarget{StorageKey: key, URL: u.String()}, nil
}

// CloseTicketAsUser lets the requester close a resolved ticket.
func (s *TicketService) CloseTicketAsUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.ticketForUser(ctx, userID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, apperrors.NewConflict("ticket can only be closed once resolved", map[string]any{"status": ticket.Status})
	}
	oldStatus := ticket.Status
	s.applyStatus(ticket, domain.TicketStatusClosed)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, domain.AuthorTypeUser, &userID, ticket.ID, oldStatus, ticket.Status, "user_closed"); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.UserActor(userID),
		Payload: events.TicketStatusChangedPayload{
			RequesterID: ticket.RequesterID,
			AssigneeID:  ticket.AssigneeID,
			OldStatus:   oldStatus,
			NewStatus:   ticket.Status,
			Comment:     "user_closed",
		},
	})
	return ticket, nil
}

// UpdateStatus moves a ticket through its lifecycle.
func (s *TicketService) UpdateStatus(ctx context.Context, staff *domain.StaffMember, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	ticket, err := s.ticketForStaff(ctx, staff, ticketID)
	if err != nil {
		return nil, err
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{"from": ticket.Status, "to": newStatus})
	}
	oldStatus := ticket.Status
	s.applyStatus(ticket, newStatus)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	comment = sanitizeText(comment)
	if err := s.recordStatusChange(ctx, domain.AuthorTypeStaff, &staff.ID, ticket.ID, oldStatus, newStatus, comment); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    events.StaffActor(staff.ID),
		Payload: events.TicketStatusChangedPayload{
			RequesterID: ticket.RequesterID,
			AssigneeID:  ticket.AssigneeID,
			OldStatus:   oldStatus,
			NewStatus:   newStatus,
			Comment:     comment,
		},
	})
	return ticket, nil
}

// UpdateLevel changes the criticality level and re-derives the deadline.
func (s *TicketService) UpdateLevel(ctx context.Context, staff *domain.StaffMember, ticketID string, newLevel domain.CriticalityLevel) (*domain.Ticket, error) {
	ticket, err := s.ticketForStaff(ctx, staff, ticketID)
	if err != nil {
		return nil, err
	}
	if !newLevel.Valid() {
		return nil, apperrors.NewValidationError("invalid criticality level", map[string]any{"level": newLevel})
	}
	if ticket.Level == newLevel {
		return ticket, nil
	}
	oldLevel := ticket.Level
	oldDue := ticket.DueAt
	ticket.Level = newLevel
	if _, err := s.sla.ApplyDeadline(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordHistory(ctx, domain.AuthorTypeStaff, &staff.ID, ticket.ID, domain.ChangeTypeLevel,
		map[string]any{"level": oldLevel, "due_at": oldDue},
		map[string]any{"level": newLevel, "due_at": ticket.DueAt}); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketLevelChanged,
		TicketID: ticket.ID,
		Actor:    events.StaffActor(staff.ID),
		Payload: events.TicketLevelChangedPayload{
			OldLevel: oldLevel,
			NewLevel: newLevel,
			DueAt:    ticket.DueAt,
		},
	})
	return ticket, nil
}

// ListHistoryForStaff returns history entries for staff.
func (s *TicketService) ListHistoryForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.ticketForStaff(ctx, staff, ticketID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticketID, limit, offset)
	return entries, apperrors.MapError(err)
}

// ListHistoryForUser returns the entries a requester may see.
func (s *TicketService) ListHistoryForUser(ctx context.Context, userID, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.ticketForUser(ctx, userID, ticketID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticketID, userHistoryPage, 0)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	allowed := make([]domain.TicketHistory, 0, len(entries))
	for _, entry := range entries {
		if entry.ChangeType.RequesterVisible() {
			allowed = append(allowed, entry)
		}
	}
	return allowed, nil
}

func (s *TicketService) ticketForUser(ctx context.Context, userID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, lookupErr(err, "ticket", ticketID)
	}
	if ticket.RequesterID != userID {
		// requesters must not learn about tickets they do not own
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func (s *TicketService) ticketForStaff(ctx context.Context, staff *domain.StaffMember, ticketID string) (*domain.Ticket, error) {
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

func (s *TicketService) checkTeam(ctx context.Context, teamID, sectorID string) error {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return lookupErr(err, "team", teamID)
	}
	if !team.IsActive {
		return apperrors.NewValidationError("team inactive", map[string]any{"team_id": teamID})
	}
	if team.SectorID != sectorID {
		return apperrors.NewValidationError("team not part of sector", map[string]any{"team_id": teamID, "sector_id": sectorID})
	}
	return nil
}

// applyStatus sets status and the lifecycle timestamps that go with it.
func (s *TicketService) applyStatus(ticket *domain.Ticket, status domain.TicketStatus) {
	now := s.now()
	if status.IsTerminal() && ticket.ResolvedAt == nil {
		ticket.ResolvedAt = ptrTime(now)
	}
	if status == domain.TicketStatusClosed {
		ticket.ClosedAt = ptrTime(now)
	}
	ticket.Status = status
}

// Summarize evaluates a single ticket for a response.
func (s *TicketService) Summarize(ctx context.Context, ticket *domain.Ticket) (*TicketSummary, error) {
	eval, err := s.sla.Evaluate(ctx, ticket)
	if err != nil {
		return nil, err
	}
	return &TicketSummary{Ticket: *ticket, SLA: eval}, nil
}

func (s *TicketService) summaries(ctx context.Context, tickets []domain.Ticket) ([]TicketSummary, error) {
	evals, err := s.sla.EvaluateMany(ctx, tickets)
	if err != nil {
		return nil, err
	}
	out := make([]TicketSummary, len(tickets))
	for i := range tickets {
		out[i] = TicketSummary{Ticket: tickets[i], SLA: evals[i]}
	}
	return out, nil
}

func (s *TicketService) view(ctx context.Context, ticket *domain.Ticket, includeInternal bool) (*TicketView, error) {
	eval, err := s.sla.Evaluate(ctx, ticket)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messagesWithAttachments(ctx, ticket.ID, includeInternal)
	if err != nil {
		return nil, err
	}
	view := &TicketView{Ticket: ticket, SLA: eval, Messages: msgs, DownloadURLs: map[string]string{}}
	if s.storage == nil {
		return view, nil
	}
	for _, msg := range msgs {
		for _, att := range msg.Attachments {
			u, err := s.storage.PresignDownload(ctx, att.StorageKey, att.FileName)
			if err != nil {
				s.logger.Warn("presign download failed", zap.String("attachment_id", att.ID), zap.Error(err))
				continue
			}
			view.DownloadURLs[att.ID] = u.String()
		}
	}
	return view, nil
}

func (s *TicketService) messagesWithAttachments(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error) {
	msgs, err := s.messages.ListByTicket(ctx, ticketID, includeInternal)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(msgs) == 0 || s.attachments == nil {
		return msgs, nil
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byMessage := make(map[string][]domain.Attachment, len(attachments))
	for _, att := range attachments {
		byMessage[att.TicketMessageID] = append(byMessage[att.TicketMessageID], att)
	}
	for i := range msgs {
		msgs[i].Attachments = byMessage[msgs[i].ID]
	}
	return msgs, nil
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(bodyPolicy.Sanitize(tag)))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func actorFromSubject(subject domain.SubjectType, id string) events.Actor {
	if subject == domain.SubjectTypeStaff {
		return events.StaffActor(id)
	}
	return events.UserActor(id)
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusInProgress: {domain.TicketStatusOpen, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *TicketService) recordStatusChange(ctx context.Context, actorType domain.MessageAuthorType, actorID *string, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string) error {
	newValue := map[string]any{"status": newStatus}
	if comment != "" {
		newValue["comment"] = comment
	}
	return s.recordHistory(ctx, actorType, actorID, ticketID, domain.ChangeTypeStatus, map[string]any{"status": oldStatus}, newValue)
}

func (s *TicketService) recordHistory(ctx context.Context, actorType domain.MessageAuthorType, actorID *string, ticketID string, change domain.TicketChangeType, oldValue, newValue map[string]any) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    change,
		OldValue:      oldValue,
		NewValue:      newValue,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
