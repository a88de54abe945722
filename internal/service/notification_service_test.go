package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
)

type fakeNotifications struct {
	rows []domain.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	n.ID = fmt.Sprintf("n-%d", len(f.rows)+1)
	n.CreatedAt = t0
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotifications) ListByRecipient(_ context.Context, recipientType domain.SubjectType, recipientID string, unreadOnly bool, _, _ int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range f.rows {
		if n.RecipientType != recipientType || n.RecipientID != recipientID {
			continue
		}
		if unreadOnly && n.ReadAt != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotifications) CountUnread(ctx context.Context, recipientType domain.SubjectType, recipientID string) (int, error) {
	unread, _ := f.ListByRecipient(ctx, recipientType, recipientID, true, 0, 0)
	return len(unread), nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id string, recipientType domain.SubjectType, recipientID string) error {
	for i := range f.rows {
		n := &f.rows[i]
		if n.ID == id && n.RecipientType == recipientType && n.RecipientID == recipientID {
			n.ReadAt = ptrTime(t0)
			return nil
		}
	}
	return errNoRowsForTest
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, recipientType domain.SubjectType, recipientID string) (int64, error) {
	var count int64
	for i := range f.rows {
		n := &f.rows[i]
		if n.RecipientType == recipientType && n.RecipientID == recipientID && n.ReadAt == nil {
			n.ReadAt = ptrTime(t0)
			count++
		}
	}
	return count, nil
}

func (f *fakeNotifications) forRecipient(id string) []domain.Notification {
	var out []domain.Notification
	for _, n := range f.rows {
		if n.RecipientID == id {
			out = append(out, n)
		}
	}
	return out
}

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, channel string, payload []byte) error {
	return m.Called(ctx, channel, payload).Error(0)
}

func newNotificationFixture(t *testing.T) (*fixture, *fakeNotifications, *publisherMock, *NotificationService) {
	t.Helper()
	f := newFixture(t)
	repo := &fakeNotifications{}
	pub := &publisherMock{}
	pub.On("Publish", mock.Anything, "helpdesk:notifications", mock.Anything).Return(nil)
	svc := NewNotificationService(NotificationDependencies{
		NotificationRepo: repo,
		StaffRepo:        f.staff,
		Dispatcher:       f.dispatcher,
		Publisher:        pub,
		Config:           config.NotificationConfig{Channel: "helpdesk:notifications"},
	})
	svc.RegisterHandlers()
	return f, repo, pub, svc
}

func TestNotifications_MentionsSkipAuthorAndUnknownHandles(t *testing.T) {
	f, repo, pub, _ := newNotificationFixture(t)
	ticket := f.create(t, "ops", domain.LevelP2)

	_, err := f.svc.AddMessage(context.Background(), domain.SubjectTypeStaff, f.agent.ID, f.agent, ticket.ID,
		domain.MessageTypeInternalNote, "@lena @ana @nobody please check", nil)
	require.NoError(t, err)

	require.Len(t, repo.rows, 1)
	n := repo.rows[0]
	assert.Equal(t, f.lead.ID, n.RecipientID)
	assert.Equal(t, domain.NotificationMention, n.Kind)
	assert.Equal(t, ticket.ID, *n.TicketID)

	pub.AssertNumberOfCalls(t, "Publish", 1)
	payload := pub.Calls[0].Arguments.Get(2).([]byte)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "MENTION", decoded["kind"])
	assert.Equal(t, f.lead.ID, decoded["recipient_id"])
}

func TestNotifications_StatusAndAssignment(t *testing.T) {
	f, repo, _, svc := newNotificationFixture(t)
	ctx := context.Background()
	ticket := f.create(t, "ops", domain.LevelP2)

	_, err := f.assign.AssignTicketToStaff(ctx, f.lead, ticket.ID, f.agent.ID)
	require.NoError(t, err)
	_, err = f.assign.SelfAssignTicket(ctx, f.lead, ticket.ID)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.lead, ticket.ID, domain.TicketStatusResolved, "done")
	require.NoError(t, err)

	assigned := repo.forRecipient(f.agent.ID)
	require.Len(t, assigned, 1)
	assert.Equal(t, domain.NotificationAssigned, assigned[0].Kind)
	assert.Empty(t, repo.forRecipient(f.lead.ID))

	page, err := svc.List(ctx, domain.SubjectTypeUser, "user-1", false, 20, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, domain.NotificationStatusChanged, page.Items[0].Kind)
	assert.Equal(t, 1, page.Unread)

	require.NoError(t, svc.MarkRead(ctx, domain.SubjectTypeUser, "user-1", page.Items[0].ID))
	page, err = svc.List(ctx, domain.SubjectTypeUser, "user-1", true, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Unread)

	// closing their own ticket does not notify the requester
	_, err = f.svc.CloseTicketAsUser(ctx, "user-1", ticket.ID)
	require.NoError(t, err)
	count, err := svc.MarkAllRead(ctx, domain.SubjectTypeUser, "user-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotifications_SLAEventsReachAssigneeAndLeads(t *testing.T) {
	f, repo, _, _ := newNotificationFixture(t)

	err := f.dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventSLABreached,
		TicketID: "t-9",
		Actor:    events.SystemActor,
		Payload: events.SLAPayload{
			SectorID:   "ops",
			Level:      domain.LevelP0,
			AssigneeID: strPtr(f.agent.ID),
			Title:      "Outage",
			Deadline:   t0,
		},
	})
	require.NoError(t, err)

	require.Len(t, repo.rows, 2)
	recipients := []string{repo.rows[0].RecipientID, repo.rows[1].RecipientID}
	assert.ElementsMatch(t, []string{f.agent.ID, f.lead.ID}, recipients)
	for _, n := range repo.rows {
		assert.Equal(t, domain.NotificationSLABreached, n.Kind)
		assert.Contains(t, n.Title, "missed its deadline")
	}
}

func TestNotifications_MarkReadUnknown(t *testing.T) {
	_, _, _, svc := newNotificationFixture(t)
	err := svc.MarkRead(context.Background(), domain.SubjectTypeStaff, "lead", "n-404")
	assert.Error(t, err)
}
