package domain

import "time"

// SLAMode controls whether a sector's deadlines may be overridden freely.
type SLAMode string

const (
	// SLAModeFixed locks deadlines: only privileged staff may override them.
	SLAModeFixed SLAMode = "FIXED"
	// SLAModeCustom lets any staff member with ticket access override deadlines.
	SLAModeCustom SLAMode = "CUSTOM"
)

// Valid reports whether m is a known mode.
func (m SLAMode) Valid() bool {
	return m == SLAModeFixed || m == SLAModeCustom
}

// SLAPolicy is the per-sector resolution target table.
type SLAPolicy struct {
	SectorID      string
	Mode          SLAMode
	HoursPerLevel map[CriticalityLevel]int
	UpdatedBy     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
