package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskflow/helpdesk/internal/domain"
)

func TestHoursColumns(t *testing.T) {
	cols := hoursColumns(map[domain.CriticalityLevel]int{domain.LevelP0: 2, domain.LevelP2: 48})
	require.NotNil(t, cols[0])
	assert.Equal(t, 2, *cols[0])
	assert.Nil(t, cols[1])
	require.NotNil(t, cols[2])
	assert.Equal(t, 48, *cols[2])
	assert.Nil(t, cols[3])
}
