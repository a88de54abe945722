package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

func TestValidate_CreateTicket(t *testing.T) {
	ok := CreateTicketRequest{SectorID: "ops", Title: "VPN down", Description: "cannot connect", Level: domain.LevelP1}
	assert.NoError(t, Validate(ok))

	// level may be omitted and defaults later
	ok.Level = ""
	assert.NoError(t, Validate(ok))

	bad := CreateTicketRequest{Level: "P9"}
	err := Validate(bad)
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Equal(t, "required", de.Details["sector_id"])
	assert.Equal(t, "required", de.Details["title"])
	assert.Equal(t, "level", de.Details["level"])
}

func TestValidate_SLAPolicy(t *testing.T) {
	ok := SLAPolicyRequest{
		Mode:          domain.SLAModeFixed,
		HoursPerLevel: map[domain.CriticalityLevel]int{domain.LevelP0: 2, domain.LevelP1: 8},
	}
	assert.NoError(t, Validate(ok))

	err := Validate(SLAPolicyRequest{Mode: "LOOSE", HoursPerLevel: map[domain.CriticalityLevel]int{"PX": 1}})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "sla_mode", de.Details["mode"])

	err = Validate(SLAPolicyRequest{Mode: domain.SLAModeCustom, HoursPerLevel: map[domain.CriticalityLevel]int{domain.LevelP2: 0}})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestValidate_ExtendDeadline(t *testing.T) {
	assert.NoError(t, Validate(ExtendDeadlineRequest{Hours: 12}))

	de := apperrors.ToDomainError(Validate(ExtendDeadlineRequest{Hours: -3}))
	require.NotNil(t, de)
	assert.Contains(t, de.Details, "hours")
}

func TestValidate_StaffRole(t *testing.T) {
	req := StaffCreateRequest{Name: "Ana", Email: "ana@example.com", Password: "longenough", Role: "ROOT"}
	de := apperrors.ToDomainError(Validate(req))
	require.NotNil(t, de)
	assert.Equal(t, "staff_role", de.Details["role"])

	req.Role = domain.StaffRoleAgent
	assert.NoError(t, Validate(req))
}
