// Package sla derives ticket resolution deadlines from criticality levels and
// sector policies, and classifies how close a ticket is to breaching them.
package sla

import (
	"errors"
	"fmt"

	"github.com/deskflow/helpdesk/internal/domain"
)

var (
	ErrUnknownLevel = errors.New("sla: unknown criticality level")
	ErrInvalidHours = errors.New("sla: hours must be positive")
	ErrMissingLevel = errors.New("sla: missing hours for level")
	ErrInvalidMode  = errors.New("sla: unknown policy mode")
	ErrNilPolicy    = errors.New("sla: policy required")
)

// Table maps criticality levels to resolution hours.
type Table map[domain.CriticalityLevel]int

// DefaultTable returns the built-in hours used when a sector has no policy.
func DefaultTable() Table {
	return Table{
		domain.LevelP0: 4,
		domain.LevelP1: 24,
		domain.LevelP2: 72,
		domain.LevelP3: 168,
	}
}

// Clone returns an independent copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for lvl, h := range t {
		out[lvl] = h
	}
	return out
}

// Validate checks every entry; when complete is set all four levels must be present.
func (t Table) Validate(complete bool) error {
	for _, lvl := range domain.Levels {
		h, ok := t[lvl]
		if !ok {
			if complete {
				return fmt.Errorf("%w %s", ErrMissingLevel, lvl)
			}
			continue
		}
		if h <= 0 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidHours, lvl, h)
		}
	}
	for lvl := range t {
		if !lvl.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownLevel, lvl)
		}
	}
	return nil
}

// ValidatePolicy checks a sector policy before it is stored. FIXED policies
// must cover every level; CUSTOM policies may leave levels to the defaults.
func ValidatePolicy(p *domain.SLAPolicy) error {
	if p == nil {
		return ErrNilPolicy
	}
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, p.Mode)
	}
	return Table(p.HoursPerLevel).Validate(p.Mode == domain.SLAModeFixed)
}
