package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// Publisher fans serialized notifications out to realtime consumers.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationService turns domain events into inbox entries.
type NotificationService struct {
	repo       repository.NotificationRepository
	staff      repository.StaffRepository
	dispatcher events.Dispatcher
	publisher  Publisher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NotificationDependencies bundles collaborators of the notification service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	StaffRepo        repository.StaffRepository
	Dispatcher       events.Dispatcher
	Publisher        Publisher
	Logger           *zap.Logger
	Config           config.NotificationConfig
}

// NotificationPage is one page of an inbox plus the unread total.
type NotificationPage struct {
	Items  []domain.Notification
	Unread int
}

// realtimeMessage is the JSON document published on the notification channel.
type realtimeMessage struct {
	ID            string                  `json:"id"`
	RecipientType domain.SubjectType      `json:"recipient_type"`
	RecipientID   string                  `json:"recipient_id"`
	Kind          domain.NotificationKind `json:"kind"`
	TicketID      *string                 `json:"ticket_id,omitempty"`
	Title         string                  `json:"title"`
	Body          string                  `json:"body"`
	CreatedAt     time.Time               `json:"created_at"`
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:       deps.NotificationRepo,
		staff:      deps.StaffRepo,
		dispatcher: deps.Dispatcher,
		publisher:  deps.Publisher,
		logger:     logger,
		cfg:        deps.Config,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.handleTicketMessageAdded)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventSLAWarning, n.handleSLA)
	n.dispatcher.Subscribe(events.EventSLABreached, n.handleSLA)
}

// List returns a page of the caller's inbox.
func (n *NotificationService) List(ctx context.Context, recipientType domain.SubjectType, recipientID string, unreadOnly bool, limit, offset int) (*NotificationPage, error) {
	items, err := n.repo.ListByRecipient(ctx, recipientType, recipientID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	unread, err := n.repo.CountUnread(ctx, recipientType, recipientID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &NotificationPage{Items: items, Unread: unread}, nil
}

// MarkRead marks one of the caller's notifications read.
func (n *NotificationService) MarkRead(ctx context.Context, recipientType domain.SubjectType, recipientID, id string) error {
	if err := n.repo.MarkRead(ctx, id, recipientType, recipientID); err != nil {
		return lookupErr(err, "notification", id)
	}
	return nil
}

// MarkAllRead marks the caller's whole inbox read.
func (n *NotificationService) MarkAllRead(ctx context.Context, recipientType domain.SubjectType, recipientID string) (int64, error) {
	count, err := n.repo.MarkAllRead(ctx, recipientType, recipientID)
	return count, apperrors.MapError(err)
}

func (n *NotificationService) handleTicketMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketMessageAddedPayload)
	if !ok || len(payload.Mentions) == 0 {
		return nil
	}
	mentioned, err := n.staff.GetByHandles(ctx, payload.Mentions)
	if err != nil {
		return err
	}
	author := ""
	if payload.AuthorType == domain.AuthorTypeStaff && payload.AuthorID != nil {
		author = *payload.AuthorID
	}
	for _, member := range mentioned {
		if member.ID == author {
			continue
		}
		n.notify(ctx, &domain.Notification{
			RecipientType: domain.SubjectTypeStaff,
			RecipientID:   member.ID,
			Kind:          domain.NotificationMention,
			TicketID:      &event.TicketID,
			Title:         fmt.Sprintf("You were mentioned on %q", payload.Title),
			Body:          payload.BodyPreview,
		})
	}
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AssigneeStaffID == nil {
		return nil
	}
	if event.Actor.StaffID != nil && *event.Actor.StaffID == *payload.AssigneeStaffID {
		return nil
	}
	n.notify(ctx, &domain.Notification{
		RecipientType: domain.SubjectTypeStaff,
		RecipientID:   *payload.AssigneeStaffID,
		Kind:          domain.NotificationAssigned,
		TicketID:      &event.TicketID,
		Title:         fmt.Sprintf("Ticket %q was assigned to you", payload.Title),
	})
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok || payload.RequesterID == "" {
		return nil
	}
	if event.Actor.UserID != nil && *event.Actor.UserID == payload.RequesterID {
		return nil
	}
	n.notify(ctx, &domain.Notification{
		RecipientType: domain.SubjectTypeUser,
		RecipientID:   payload.RequesterID,
		Kind:          domain.NotificationStatusChanged,
		TicketID:      &event.TicketID,
		Title:         fmt.Sprintf("Ticket status changed to %s", payload.NewStatus),
		Body:          payload.Comment,
	})
	return nil
}

// handleSLA alerts the assignee and the sector's team leads.
func (n *NotificationService) handleSLA(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SLAPayload)
	if !ok {
		return nil
	}
	kind := domain.NotificationSLAWarning
	title := fmt.Sprintf("%s ticket %q is close to its deadline", payload.Level, payload.Title)
	if event.Type == events.EventSLABreached {
		kind = domain.NotificationSLABreached
		title = fmt.Sprintf("%s ticket %q missed its deadline", payload.Level, payload.Title)
	}
	body := "Due " + payload.Deadline.UTC().Format(time.RFC3339)

	recipients := make(map[string]struct{})
	if payload.AssigneeID != nil {
		recipients[*payload.AssigneeID] = struct{}{}
	}
	role := domain.StaffRoleTeamLead
	sectorID := payload.SectorID
	leads, err := n.staff.List(ctx, repository.StaffFilter{
		Role:     &role,
		SectorID: &sectorID,
		Active:   ptrBool(true),
		Limit:    100,
	})
	if err != nil {
		return err
	}
	for _, lead := range leads {
		recipients[lead.ID] = struct{}{}
	}
	for id := range recipients {
		n.notify(ctx, &domain.Notification{
			RecipientType: domain.SubjectTypeStaff,
			RecipientID:   id,
			Kind:          kind,
			TicketID:      &event.TicketID,
			Title:         title,
			Body:          body,
		})
	}
	return nil
}

// notify stores a notification and publishes it. Failures are logged so one
// bad recipient does not block the rest.
func (n *NotificationService) notify(ctx context.Context, notification *domain.Notification) {
	if err := n.repo.Create(ctx, notification); err != nil {
		n.logger.Warn("store notification failed",
			zap.String("recipient_id", notification.RecipientID),
			zap.String("kind", string(notification.Kind)),
			zap.Error(err))
		return
	}
	if n.publisher == nil || n.cfg.Channel == "" {
		return
	}
	body, err := json.Marshal(realtimeMessage{
		ID:            notification.ID,
		RecipientType: notification.RecipientType,
		RecipientID:   notification.RecipientID,
		Kind:          notification.Kind,
		TicketID:      notification.TicketID,
		Title:         notification.Title,
		Body:          notification.Body,
		CreatedAt:     notification.CreatedAt,
	})
	if err != nil {
		n.logger.Warn("encode notification failed", zap.Error(err))
		return
	}
	if err := n.publisher.Publish(ctx, n.cfg.Channel, body); err != nil {
		n.logger.Warn("publish notification failed", zap.String("channel", n.cfg.Channel), zap.Error(err))
	}
}
