package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/internal/sla"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestTicketSummary_SLABlock(t *testing.T) {
	calc := sla.NewCalculator(nil)
	ticket := &domain.Ticket{
		ID:        "t-1",
		SectorID:  "ops",
		Level:     domain.LevelP0,
		Status:    domain.TicketStatusOpen,
		CreatedAt: t0,
	}
	ev := calc.Evaluate(ticket, nil, t0.Add(3*time.Hour+45*time.Minute))

	got := ticketSummary(ticket, ev)
	assert.Equal(t, t0.Add(4*time.Hour), got.SLA.Deadline)
	assert.Equal(t, "default", got.SLA.Source)
	assert.Equal(t, 4.0, got.SLA.WindowHours)
	assert.Equal(t, int64(15*60), got.SLA.RemainingSeconds)
	assert.False(t, got.SLA.Overdue)
	assert.Equal(t, string(sla.BandCritical), got.SLA.Band)
	assert.NotNil(t, got.Tags)
}

func TestTicketSummary_TerminalHasNoCountdown(t *testing.T) {
	calc := sla.NewCalculator(nil)
	resolved := t0.Add(2 * time.Hour)
	ticket := &domain.Ticket{
		ID:         "t-2",
		Level:      domain.LevelP0,
		Status:     domain.TicketStatusResolved,
		CreatedAt:  t0,
		ResolvedAt: &resolved,
	}
	got := ticketSummary(ticket, calc.Evaluate(ticket, nil, t0.Add(10*time.Hour)))
	assert.Zero(t, got.SLA.RemainingSeconds)
	assert.False(t, got.SLA.Overdue)
	assert.Equal(t, string(sla.BandNone), got.SLA.Band)
	if assert.NotNil(t, got.SLA.MetSLA) {
		assert.True(t, *got.SLA.MetSLA)
	}
}

func TestPolicyResponse_WithoutStoredPolicy(t *testing.T) {
	view := &service.PolicyView{
		SectorID:  "it",
		Effective: map[domain.CriticalityLevel]int{domain.LevelP0: 4},
		Sources:   map[domain.CriticalityLevel]sla.Source{domain.LevelP0: sla.SourceDefault},
	}
	got := policyResponse(view)
	assert.Nil(t, got.Mode)
	assert.Nil(t, got.UpdatedAt)
	assert.Equal(t, "default", got.Sources[domain.LevelP0])
}

func TestStatsResponse(t *testing.T) {
	sector := "ops"
	got := statsResponse(&sector, sla.Summary{
		Total:          3,
		Overdue:        1,
		ByBand:         map[sla.Band]int{sla.BandExpired: 1, sla.BandNormal: 2},
		ComplianceRate: 0.5,
	})
	assert.Equal(t, 1, got.ByBand["expired"])
	assert.Equal(t, 2, got.ByBand["normal"])
	assert.Equal(t, "ops", *got.SectorID)
}
