package dto

import (
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// SLAPolicyRequest replaces a sector's policy.
type SLAPolicyRequest struct {
	Mode          domain.SLAMode                  `json:"mode" validate:"required,sla_mode"`
	HoursPerLevel map[domain.CriticalityLevel]int `json:"hours_per_level" validate:"required,min=1,dive,keys,level,endkeys,gt=0"`
}

// SLAPolicyResponse shows the stored policy and the hours in force per level.
type SLAPolicyResponse struct {
	SectorID      string                             `json:"sector_id"`
	Mode          *domain.SLAMode                    `json:"mode"`
	HoursPerLevel map[domain.CriticalityLevel]int    `json:"hours_per_level,omitempty"`
	Effective     map[domain.CriticalityLevel]int    `json:"effective_hours"`
	Sources       map[domain.CriticalityLevel]string `json:"sources"`
	UpdatedBy     *string                            `json:"updated_by,omitempty"`
	UpdatedAt     *time.Time                         `json:"updated_at,omitempty"`
}

// SLAStatsResponse is the aggregate SLA picture of a scope.
type SLAStatsResponse struct {
	SectorID          *string                         `json:"sector_id"`
	Total             int                             `json:"total"`
	Active            int                             `json:"active"`
	Overdue           int                             `json:"overdue"`
	ByBand            map[string]int                  `json:"by_band"`
	ByLevel           map[domain.CriticalityLevel]int `json:"by_level"`
	ResolvedWithinSLA int                             `json:"resolved_within_sla"`
	ResolvedLate      int                             `json:"resolved_late"`
	ComplianceRate    float64                         `json:"compliance_rate"`
}
