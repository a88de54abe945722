package sla

import (
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// Source records which rule produced a deadline.
type Source string

const (
	SourceOverride Source = "override"
	SourcePolicy   Source = "policy"
	SourceDefault  Source = "default"
)

// Deadline is a resolved due-by instant together with the window it closes.
type Deadline struct {
	At     time.Time
	Window time.Duration
	Source Source
}

// Calculator is the single place deadlines are derived. It is safe for
// concurrent use once constructed.
type Calculator struct {
	defaults Table
}

// NewCalculator builds a calculator whose fallback table is DefaultTable with
// any valid entries of defaults layered on top.
func NewCalculator(defaults Table) *Calculator {
	table := DefaultTable()
	for lvl, h := range defaults {
		if lvl.Valid() && h > 0 {
			table[lvl] = h
		}
	}
	return &Calculator{defaults: table}
}

// Defaults returns a copy of the fallback table.
func (c *Calculator) Defaults() Table {
	return c.defaults.Clone()
}

// Hours resolves the resolution window for level under policy.
func (c *Calculator) Hours(level domain.CriticalityLevel, policy *domain.SLAPolicy) (int, Source) {
	if policy != nil {
		if h, ok := policy.HoursPerLevel[level]; ok && h > 0 {
			return h, SourcePolicy
		}
	}
	if h, ok := c.defaults[level]; ok {
		return h, SourceDefault
	}
	// unknown levels are treated as the least critical
	return c.defaults[domain.LevelP3], SourceDefault
}

// PolicyDeadline derives the deadline from level and policy only, ignoring overrides.
func (c *Calculator) PolicyDeadline(createdAt time.Time, level domain.CriticalityLevel, policy *domain.SLAPolicy) Deadline {
	h, src := c.Hours(level, policy)
	window := time.Duration(h) * time.Hour
	return Deadline{At: createdAt.Add(window), Window: window, Source: src}
}

// Deadline derives the effective deadline of t. A manual internal deadline
// always wins over the policy-derived one.
func (c *Calculator) Deadline(t *domain.Ticket, policy *domain.SLAPolicy) Deadline {
	if t.InternalDeadline != nil {
		at := *t.InternalDeadline
		return Deadline{At: at, Window: at.Sub(t.CreatedAt), Source: SourceOverride}
	}
	return c.PolicyDeadline(t.CreatedAt, t.Level, policy)
}

// IsOverdue reports whether a ticket in status is past deadline at now.
// Resolved and closed tickets are never overdue.
func IsOverdue(status domain.TicketStatus, deadline, now time.Time) bool {
	if status.IsTerminal() {
		return false
	}
	return now.After(deadline)
}

// Evaluation is the SLA state of one ticket at one instant.
type Evaluation struct {
	TicketID  string
	SectorID  string
	Level     domain.CriticalityLevel
	Status    domain.TicketStatus
	Deadline  time.Time
	Window    time.Duration
	Source    Source
	Remaining time.Duration
	Overdue   bool
	Band      Band
	Terminal  bool
	// MetSLA is set for terminal tickets with a known resolution time.
	MetSLA *bool
}

// Evaluate computes the SLA state of t at now.
func (c *Calculator) Evaluate(t *domain.Ticket, policy *domain.SLAPolicy, now time.Time) Evaluation {
	d := c.Deadline(t, policy)
	ev := Evaluation{
		TicketID: t.ID,
		SectorID: t.SectorID,
		Level:    t.Level,
		Status:   t.Status,
		Deadline: d.At,
		Window:   d.Window,
		Source:   d.Source,
	}
	if t.Status.IsTerminal() {
		ev.Terminal = true
		ev.Band = BandNone
		finished := t.ResolvedAt
		if finished == nil {
			finished = t.ClosedAt
		}
		if finished != nil {
			met := !finished.After(d.At)
			ev.MetSLA = &met
		}
		return ev
	}
	ev.Remaining = d.At.Sub(now)
	ev.Overdue = IsOverdue(t.Status, d.At, now)
	ev.Band = BandFor(d.At, d.Window, now)
	return ev
}
