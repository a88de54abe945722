package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func ticketAt(level domain.CriticalityLevel, status domain.TicketStatus) *domain.Ticket {
	return &domain.Ticket{
		ID:        "t-1",
		SectorID:  "sector-1",
		Level:     level,
		Status:    status,
		CreatedAt: t0,
	}
}

func TestDeadline_DefaultTable(t *testing.T) {
	calc := NewCalculator(nil)
	cases := map[domain.CriticalityLevel]time.Duration{
		domain.LevelP0: 4 * time.Hour,
		domain.LevelP1: 24 * time.Hour,
		domain.LevelP2: 72 * time.Hour,
		domain.LevelP3: 168 * time.Hour,
	}
	for level, want := range cases {
		t.Run(string(level), func(t *testing.T) {
			d := calc.Deadline(ticketAt(level, domain.TicketStatusOpen), nil)
			assert.Equal(t, t0.Add(want), d.At)
			assert.Equal(t, want, d.Window)
			assert.Equal(t, SourceDefault, d.Source)
		})
	}
}

func TestDeadline_PolicyHoursWin(t *testing.T) {
	calc := NewCalculator(nil)
	policy := &domain.SLAPolicy{
		SectorID:      "sector-1",
		Mode:          domain.SLAModeCustom,
		HoursPerLevel: map[domain.CriticalityLevel]int{domain.LevelP1: 8},
	}

	d := calc.Deadline(ticketAt(domain.LevelP1, domain.TicketStatusOpen), policy)
	assert.Equal(t, t0.Add(8*time.Hour), d.At)
	assert.Equal(t, SourcePolicy, d.Source)

	// levels missing from a custom policy fall back to the default table
	d = calc.Deadline(ticketAt(domain.LevelP2, domain.TicketStatusOpen), policy)
	assert.Equal(t, t0.Add(72*time.Hour), d.At)
	assert.Equal(t, SourceDefault, d.Source)
}

func TestDeadline_OverrideIsAuthoritative(t *testing.T) {
	calc := NewCalculator(nil)
	override := t0.Add(90 * time.Minute)
	policy := &domain.SLAPolicy{
		Mode:          domain.SLAModeFixed,
		HoursPerLevel: map[domain.CriticalityLevel]int{domain.LevelP0: 1, domain.LevelP1: 2, domain.LevelP2: 3, domain.LevelP3: 4},
	}
	for _, level := range domain.Levels {
		tk := ticketAt(level, domain.TicketStatusOpen)
		tk.InternalDeadline = &override
		for _, p := range []*domain.SLAPolicy{nil, policy} {
			d := calc.Deadline(tk, p)
			assert.Equal(t, override, d.At)
			assert.Equal(t, SourceOverride, d.Source)
			assert.Equal(t, 90*time.Minute, d.Window)
		}
	}
}

func TestDeadline_Deterministic(t *testing.T) {
	calc := NewCalculator(nil)
	policy := &domain.SLAPolicy{Mode: domain.SLAModeCustom, HoursPerLevel: map[domain.CriticalityLevel]int{domain.LevelP0: 2}}
	for _, level := range domain.Levels {
		for _, p := range []*domain.SLAPolicy{nil, policy} {
			tk := ticketAt(level, domain.TicketStatusInProgress)
			assert.Equal(t, calc.Deadline(tk, p), calc.Deadline(tk, p))
		}
	}
}

func TestDeadline_MonotonicInHours(t *testing.T) {
	calc := NewCalculator(nil)
	prev := time.Time{}
	for h := 1; h <= 200; h++ {
		p := &domain.SLAPolicy{Mode: domain.SLAModeCustom, HoursPerLevel: map[domain.CriticalityLevel]int{domain.LevelP2: h}}
		at := calc.Deadline(ticketAt(domain.LevelP2, domain.TicketStatusOpen), p).At
		assert.True(t, at.After(prev), "deadline must grow with hours")
		prev = at
	}
}

func TestNewCalculator_LayersDefaults(t *testing.T) {
	calc := NewCalculator(Table{domain.LevelP0: 2, domain.LevelP3: -1, "P9": 5})
	defaults := calc.Defaults()
	assert.Equal(t, 2, defaults[domain.LevelP0])
	assert.Equal(t, 168, defaults[domain.LevelP3])
	_, hasUnknown := defaults["P9"]
	assert.False(t, hasUnknown)

	// the returned table is a copy
	defaults[domain.LevelP1] = 1
	h, _ := calc.Hours(domain.LevelP1, nil)
	assert.Equal(t, 24, h)
}

func TestIsOverdue(t *testing.T) {
	deadline := t0.Add(4 * time.Hour)

	assert.False(t, IsOverdue(domain.TicketStatusOpen, deadline, deadline), "deadline instant itself is not overdue")
	assert.True(t, IsOverdue(domain.TicketStatusOpen, deadline, deadline.Add(time.Nanosecond)))
	assert.True(t, IsOverdue(domain.TicketStatusInProgress, deadline, deadline.Add(time.Hour)))
	assert.False(t, IsOverdue(domain.TicketStatusResolved, deadline, deadline.Add(1000*time.Hour)))
	assert.False(t, IsOverdue(domain.TicketStatusClosed, deadline, deadline.Add(time.Hour)))
}

func TestIsOverdue_FlipsExactlyOnce(t *testing.T) {
	deadline := t0.Add(24 * time.Hour)
	flips := 0
	prev := false
	for now := t0; now.Before(t0.Add(48 * time.Hour)); now = now.Add(15 * time.Minute) {
		cur := IsOverdue(domain.TicketStatusOpen, deadline, now)
		if cur != prev {
			flips++
			require.True(t, cur, "overdue must never flip back to false")
		}
		prev = cur
	}
	assert.Equal(t, 1, flips)
}

func TestEvaluate_ActiveTicket(t *testing.T) {
	calc := NewCalculator(nil)
	tk := ticketAt(domain.LevelP0, domain.TicketStatusOpen)

	ev := calc.Evaluate(tk, nil, t0.Add(time.Hour))
	assert.Equal(t, t0.Add(4*time.Hour), ev.Deadline)
	assert.Equal(t, 3*time.Hour, ev.Remaining)
	assert.False(t, ev.Overdue)
	assert.Equal(t, BandNormal, ev.Band)
	assert.False(t, ev.Terminal)
	assert.Nil(t, ev.MetSLA)

	ev = calc.Evaluate(tk, nil, t0.Add(5*time.Hour))
	assert.True(t, ev.Overdue)
	assert.Equal(t, BandExpired, ev.Band)
	assert.Equal(t, -time.Hour, ev.Remaining)
}

func TestEvaluate_ResolvedNeverOverdue(t *testing.T) {
	calc := NewCalculator(nil)
	resolvedAt := t0.Add(10 * time.Hour)
	tk := ticketAt(domain.LevelP0, domain.TicketStatusResolved)
	tk.ResolvedAt = &resolvedAt

	for _, now := range []time.Time{t0, t0.Add(5 * time.Hour), t0.Add(10000 * time.Hour)} {
		ev := calc.Evaluate(tk, nil, now)
		assert.False(t, ev.Overdue)
		assert.True(t, ev.Terminal)
		assert.Equal(t, BandNone, ev.Band)
		assert.Zero(t, ev.Remaining)
		require.NotNil(t, ev.MetSLA)
		assert.False(t, *ev.MetSLA, "resolved six hours late")
	}
}

func TestEvaluate_ClosedUsesClosedAtWhenResolvedAtMissing(t *testing.T) {
	calc := NewCalculator(nil)
	closedAt := t0.Add(2 * time.Hour)
	tk := ticketAt(domain.LevelP0, domain.TicketStatusClosed)
	tk.ClosedAt = &closedAt

	ev := calc.Evaluate(tk, nil, t0.Add(100*time.Hour))
	require.NotNil(t, ev.MetSLA)
	assert.True(t, *ev.MetSLA)
}
