package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/sla"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

type fixture struct {
	tickets     *fakeTickets
	policies    *fakePolicies
	sectors     *fakeSectors
	teams       *fakeTeams
	staff       *fakeStaff
	history     *fakeHistory
	messages    *fakeMessages
	attachments *fakeAttachments
	dispatcher  *recordingDispatcher
	sla         *SLAService
	svc         *TicketService
	assign      *AssignmentService

	admin   *domain.StaffMember
	lead    *domain.StaffMember
	agent   *domain.StaffMember
	agentIT *domain.StaffMember
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ops, it := "ops", "it"
	f := &fixture{
		tickets: newFakeTickets(),
		policies: newFakePolicies(domain.SLAPolicy{
			SectorID:      ops,
			Mode:          domain.SLAModeFixed,
			HoursPerLevel: map[domain.CriticalityLevel]int{domain.LevelP0: 2, domain.LevelP1: 8, domain.LevelP2: 24, domain.LevelP3: 48},
		}),
		sectors: newFakeSectors(
			domain.Sector{ID: ops, Name: "Operations", IsActive: true},
			domain.Sector{ID: it, Name: "IT", IsActive: true},
		),
		teams: newFakeTeams(
			domain.Team{ID: "ops-desk", SectorID: ops, Name: "Desk", IsActive: true},
			domain.Team{ID: "it-net", SectorID: it, Name: "Network", IsActive: true},
		),
		history:     &fakeHistory{},
		messages:    &fakeMessages{},
		attachments: &fakeAttachments{},
		dispatcher:  newRecordingDispatcher(),
		admin:       &domain.StaffMember{ID: "admin", Email: "root@corp.io", Role: domain.StaffRoleAdmin, Active: true},
		lead:        &domain.StaffMember{ID: "lead", Email: "lena@corp.io", Role: domain.StaffRoleTeamLead, SectorID: strPtr(ops), Active: true},
		agent:       &domain.StaffMember{ID: "agent", Email: "ana@corp.io", Role: domain.StaffRoleAgent, SectorID: strPtr(ops), TeamID: strPtr("ops-desk"), Active: true},
		agentIT:     &domain.StaffMember{ID: "agent-it", Email: "ian@corp.io", Role: domain.StaffRoleAgent, SectorID: strPtr(it), TeamID: strPtr("it-net"), Active: true},
	}
	f.staff = newFakeStaff(*f.admin, *f.lead, *f.agent, *f.agentIT)
	f.sla = NewSLAService(SLADependencies{
		Calculator: sla.NewCalculator(nil),
		PolicyRepo: f.policies,
		SectorRepo: f.sectors,
		TicketRepo: f.tickets,
	})
	f.sla.now = fixedClock(t0)
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		MessageRepo:    f.messages,
		AttachmentRepo: f.attachments,
		SectorRepo:     f.sectors,
		TeamRepo:       f.teams,
		StaffRepo:      f.staff,
		HistoryRepo:    f.history,
		SLA:            f.sla,
		Dispatcher:     f.dispatcher,
	})
	f.svc.now = fixedClock(t0)
	f.assign = NewAssignmentService(AssignmentDependencies{
		TicketRepo:  f.tickets,
		StaffRepo:   f.staff,
		TeamRepo:    f.teams,
		HistoryRepo: f.history,
		SLA:         f.sla,
		Dispatcher:  f.dispatcher,
	})
	return f
}

func (f *fixture) at(now time.Time) {
	f.sla.now = fixedClock(now)
	f.svc.now = fixedClock(now)
}

func (f *fixture) create(t *testing.T, sectorID string, level domain.CriticalityLevel) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), "user-1", TicketCreateInput{
		SectorID:    sectorID,
		Title:       "Printer on fire",
		Description: "It is <b>really</b> on fire<script>alert(1)</script>",
		Level:       level,
		Tags:        []string{" Hardware ", "hardware", ""},
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateTicket_StampsDeadlineFromPolicy(t *testing.T) {
	f := newFixture(t)

	ticket := f.create(t, "ops", domain.LevelP1)
	assert.Equal(t, t0.Add(8*time.Hour), ticket.DueAt)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "It is <b>really</b> on fire", ticket.Description)
	assert.Equal(t, []string{"hardware"}, ticket.Tags)
	assert.Regexp(t, `^TCK-[0-9A-F]{8}$`, ticket.ExternalKey)

	created := f.dispatcher.ofType(events.EventTicketCreated)
	require.Len(t, created, 1)
	assert.Equal(t, ticket.DueAt, created[0].Payload.(events.TicketCreatedPayload).DueAt)
}

func TestCreateTicket_DefaultTableWithoutPolicy(t *testing.T) {
	f := newFixture(t)

	ticket := f.create(t, "it", domain.LevelP0)
	assert.Equal(t, t0.Add(4*time.Hour), ticket.DueAt)

	ticket = f.create(t, "it", "")
	assert.Equal(t, domain.LevelP3, ticket.Level)
	assert.Equal(t, t0.Add(168*time.Hour), ticket.DueAt)
}

func TestCreateTicket_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateTicket(ctx, "user-1", TicketCreateInput{SectorID: "nope", Title: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = f.svc.CreateTicket(ctx, "user-1", TicketCreateInput{SectorID: "ops", Title: "x", TeamID: strPtr("it-net")})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.svc.CreateTicket(ctx, "user-1", TicketCreateInput{SectorID: "ops", Title: "x", Level: "P9"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.svc.CreateTicket(ctx, "user-1", TicketCreateInput{SectorID: "ops", Title: "<script></script>"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestGetTicketForUser_HidesForeignTickets(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, "ops", domain.LevelP2)

	_, err := f.svc.GetTicketForUser(context.Background(), "user-2", ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	view, err := f.svc.GetTicketForUser(context.Background(), "user-1", ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, sla.SourcePolicy, view.SLA.Source)
	assert.Equal(t, sla.BandNormal, view.SLA.Band)
	assert.Equal(t, 24*time.Hour, view.SLA.Remaining)
}

func TestStaffScope(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, "ops", domain.LevelP2)
	ctx := context.Background()

	_, err := f.svc.GetTicketForStaff(ctx, f.agentIT, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.svc.GetTicketForStaff(ctx, f.admin, ticket.ID)
	assert.NoError(t, err)

	list, err := f.svc.ListStaffTickets(ctx, f.agentIT, TicketStaffFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.svc.ListStaffTickets(ctx, f.agent, TicketStaffFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListStaffTickets_Overdue(t *testing.T) {
	f := newFixture(t)
	late := f.create(t, "ops", domain.LevelP0)
	f.create(t, "ops", domain.LevelP3)
	f.at(t0.Add(3 * time.Hour))

	list, err := f.svc.ListStaffTickets(context.Background(), f.lead, TicketStaffFilter{Overdue: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, late.ID, list[0].Ticket.ID)
	assert.True(t, list[0].SLA.Overdue)
	assert.Equal(t, sla.BandExpired, list[0].SLA.Band)
}

func TestUpdateStatus_LifecycleAndResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, "ops", domain.LevelP0)

	f.at(t0.Add(time.Hour))
	got, err := f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)
	assert.Nil(t, got.ResolvedAt)

	got, err = f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatusResolved, "fixed <i>it</i> & shipped")
	require.NoError(t, err)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, t0.Add(time.Hour), *got.ResolvedAt)

	_, err = f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatusInProgress, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	// long past the deadline a resolved ticket stays not overdue
	f.at(t0.Add(72 * time.Hour))
	view, err := f.svc.GetTicketForStaff(ctx, f.agent, ticket.ID)
	require.NoError(t, err)
	assert.False(t, view.SLA.Overdue)
	assert.Equal(t, sla.BandNone, view.SLA.Band)
	require.NotNil(t, view.SLA.MetSLA)
	assert.True(t, *view.SLA.MetSLA)

	statusChanges := f.history.ofType(domain.ChangeTypeStatus)
	require.Len(t, statusChanges, 2)
	assert.Equal(t, "fixed it & shipped", statusChanges[1].NewValue["comment"])
	assert.Len(t, f.dispatcher.ofType(events.EventTicketStatusChanged), 2)
}

func TestCloseTicketAsUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, "ops", domain.LevelP2)

	_, err := f.svc.CloseTicketAsUser(ctx, "user-1", ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = f.svc.UpdateStatus(ctx, f.agent, ticket.ID, domain.TicketStatusResolved, "")
	require.NoError(t, err)

	closed, err := f.svc.CloseTicketAsUser(ctx, "user-1", ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	history, err := f.svc.ListHistoryForUser(ctx, "user-1", ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestUpdateLevel_RecomputesDeadline(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, "ops", domain.LevelP3)

	got, err := f.svc.UpdateLevel(context.Background(), f.agent, ticket.ID, domain.LevelP0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(2*time.Hour), got.DueAt)

	stored, _ := f.tickets.GetByID(context.Background(), ticket.ID)
	assert.Equal(t, t0.Add(2*time.Hour), stored.DueAt)

	entries := f.history.ofType(domain.ChangeTypeLevel)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LevelP3, entries[0].OldValue["level"])

	// level history is internal
	history, err := f.svc.ListHistoryForUser(context.Background(), "user-1", ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAddMessage_Rules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, "ops", domain.LevelP2)

	_, err := f.svc.AddMessage(ctx, domain.SubjectTypeUser, "user-1", nil, ticket.ID, domain.MessageTypeInternalNote, "hi", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = f.svc.AddMessage(ctx, domain.SubjectTypeUser, "user-1", nil, ticket.ID, "", "   ", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = f.svc.AddMessage(ctx, domain.SubjectTypeStaff, f.agent.ID, f.agent, ticket.ID, "", "see attachment", []MessageAttachmentInput{
		{StorageKey: "tickets/other/x.png", FileName: "x.png"},
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	note, err := f.svc.AddMessage(ctx, domain.SubjectTypeStaff, f.agent.ID, f.agent, ticket.ID, "", "ping @Lena about this", []MessageAttachmentInput{
		{StorageKey: "tickets/" + ticket.ID + "/abc-log.txt", FileName: "log.txt", MimeType: "text/plain", SizeBytes: 12},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeInternalNote, note.MessageType)
	assert.Equal(t, []string{"lena"}, note.Mentions)
	require.Len(t, note.Attachments, 1)

	_, err = f.svc.AddMessage(ctx, domain.SubjectTypeUser, "user-1", nil, ticket.ID, "", "any news?", nil)
	require.NoError(t, err)

	userView, err := f.svc.GetTicketForUser(ctx, "user-1", ticket.ID)
	require.NoError(t, err)
	require.Len(t, userView.Messages, 1)
	assert.Equal(t, "any news?", userView.Messages[0].Body)

	staffView, err := f.svc.GetTicketForStaff(ctx, f.agent, ticket.ID)
	require.NoError(t, err)
	require.Len(t, staffView.Messages, 2)
	assert.Len(t, staffView.Messages[0].Attachments, 1)
	assert.Empty(t, staffView.DownloadURLs)
}

func TestRequestUploadURL_StorageDisabled(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, "ops", domain.LevelP2)

	_, err := f.svc.RequestUploadURL(context.Background(), domain.SubjectTypeUser, "user-1", nil, ticket.ID, "a.png")
	assert.True(t, apperrors.HasCode(err, "STORAGE_DISABLED"))
}
