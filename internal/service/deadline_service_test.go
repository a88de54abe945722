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

func TestSetDeadline_FixedPolicyNeedsPrivilege(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, "ops", domain.LevelP2)
	want := t0.Add(5 * time.Hour)

	_, err := f.svc.SetDeadline(ctx, f.agent, ticket.ID, want, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	got, err := f.svc.SetDeadline(ctx, f.lead, ticket.ID, want, "customer escalation & <b>renewal</b>")
	require.NoError(t, err)
	require.NotNil(t, got.InternalDeadline)
	assert.Equal(t, want, *got.InternalDeadline)
	assert.Equal(t, want, got.DueAt)

	entries := f.history.ofType(domain.ChangeTypeDeadline)
	require.Len(t, entries, 1)
	assert.Equal(t, "customer escalation & renewal", entries[0].NewValue["reason"])

	changed := f.dispatcher.ofType(events.EventTicketDeadlineChanged)
	require.Len(t, changed, 1)
	payload := changed[0].Payload.(events.TicketDeadlineChangedPayload)
	assert.Nil(t, payload.OldDeadline)
	assert.Equal(t, want, payload.DueAt)

	view, err := f.svc.GetTicketForStaff(ctx, f.agent, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, sla.SourceOverride, view.SLA.Source)
	assert.Equal(t, 5*time.Hour, view.SLA.Window)
}

func TestSetDeadline_AgentAllowedWithoutPolicy(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, "it", domain.LevelP2)

	got, err := f.svc.SetDeadline(context.Background(), f.agentIT, ticket.ID, t0.Add(time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Hour), got.DueAt)
}

func TestSetDeadline_RejectsDeadlineBeforeCreation(t *testing.T) {
	f := newFixture(t)
	ticket := f.create(t, "ops", domain.LevelP2)

	_, err := f.svc.SetDeadline(context.Background(), f.admin, ticket.ID, t0, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestSetDeadline_TerminalTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, "ops", domain.LevelP2)
	_, err := f.svc.UpdateStatus(ctx, f.lead, ticket.ID, domain.TicketStatusClosed, "")
	require.NoError(t, err)

	_, err = f.svc.SetDeadline(ctx, f.lead, ticket.ID, t0.Add(time.Hour), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestExtendAndClearDeadline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, "ops", domain.LevelP1)

	_, err := f.svc.ExtendDeadline(ctx, f.lead, ticket.ID, 0, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	got, err := f.svc.ExtendDeadline(ctx, f.lead, ticket.ID, 4, "waiting on vendor")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(12*time.Hour), got.DueAt)

	got, err = f.svc.ExtendDeadline(ctx, f.lead, ticket.ID, 4, "")
	require.NoError(t, err)
	assert.Equal(t, t0.Add(16*time.Hour), got.DueAt)

	_, err = f.svc.ClearDeadline(ctx, f.agent, ticket.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	got, err = f.svc.ClearDeadline(ctx, f.lead, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, got.InternalDeadline)
	assert.Equal(t, t0.Add(8*time.Hour), got.DueAt)
	assert.Len(t, f.history.ofType(domain.ChangeTypeDeadline), 3)
}

func TestOverrideSurvivesLevelChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.create(t, "ops", domain.LevelP3)
	_, err := f.svc.SetDeadline(ctx, f.lead, ticket.ID, t0.Add(30*time.Hour), "")
	require.NoError(t, err)

	got, err := f.svc.UpdateLevel(ctx, f.lead, ticket.ID, domain.LevelP0)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(30*time.Hour), got.DueAt)
}
