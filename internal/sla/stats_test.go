package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deskflow/helpdesk/internal/domain"
)

func TestSummarize(t *testing.T) {
	calc := NewCalculator(nil)
	now := t0.Add(30 * time.Hour)

	onTime := t0.Add(time.Hour)
	late := t0.Add(50 * time.Hour)

	openFresh := ticketAt(domain.LevelP3, domain.TicketStatusOpen)
	openOverdue := ticketAt(domain.LevelP1, domain.TicketStatusInProgress)
	resolvedOnTime := ticketAt(domain.LevelP0, domain.TicketStatusResolved)
	resolvedOnTime.ResolvedAt = &onTime
	closedLate := ticketAt(domain.LevelP1, domain.TicketStatusClosed)
	closedLate.ResolvedAt = &late

	evals := []Evaluation{
		calc.Evaluate(openFresh, nil, now),
		calc.Evaluate(openOverdue, nil, now),
		calc.Evaluate(resolvedOnTime, nil, now),
		calc.Evaluate(closedLate, nil, now),
	}
	s := Summarize(evals)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Active)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 1, s.ByBand[BandNormal])
	assert.Equal(t, 1, s.ByBand[BandExpired])
	assert.Equal(t, 2, s.ByBand[BandNone])
	assert.Equal(t, 2, s.ByLevel[domain.LevelP1])
	assert.Equal(t, 1, s.ResolvedWithinSLA)
	assert.Equal(t, 1, s.ResolvedLate)
	assert.InDelta(t, 0.5, s.ComplianceRate, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.ComplianceRate)
	assert.NotNil(t, s.ByBand)
}
