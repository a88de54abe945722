package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
)

func TestCheckOverride(t *testing.T) {
	fixed := &domain.SLAPolicy{Mode: domain.SLAModeFixed}
	custom := &domain.SLAPolicy{Mode: domain.SLAModeCustom}
	agent := &domain.StaffMember{ID: "a", Role: domain.StaffRoleAgent}
	lead := &domain.StaffMember{ID: "l", Role: domain.StaffRoleTeamLead}
	admin := &domain.StaffMember{ID: "x", Role: domain.StaffRoleAdmin}

	cases := []struct {
		name   string
		policy *domain.SLAPolicy
		actor  *domain.StaffMember
		want   error
	}{
		{"agent on fixed", fixed, agent, ErrOverrideLocked},
		{"agent on custom", custom, agent, nil},
		{"agent without policy", nil, agent, nil},
		{"lead on fixed", fixed, lead, nil},
		{"admin on fixed", fixed, admin, nil},
		{"no actor", custom, nil, ErrOverrideNotStaff},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckOverride(tc.policy, tc.actor)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidateOverride(t *testing.T) {
	tk := ticketAt(domain.LevelP1, domain.TicketStatusOpen)
	assert.NoError(t, ValidateOverride(tk, t0.Add(time.Minute)))
	assert.ErrorIs(t, ValidateOverride(tk, t0), ErrOverrideBeforeOpen)
	assert.ErrorIs(t, ValidateOverride(tk, t0.Add(-time.Hour)), ErrOverrideBeforeOpen)
}

func TestExtend(t *testing.T) {
	calc := NewCalculator(nil)
	tk := ticketAt(domain.LevelP0, domain.TicketStatusOpen)

	at, err := calc.Extend(tk, nil, 6)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(10*time.Hour), at)

	// extending an overridden ticket stacks on the override
	tk.InternalDeadline = &at
	at, err = calc.Extend(tk, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(12*time.Hour), at)

	_, err = calc.Extend(tk, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidExtension)
}
