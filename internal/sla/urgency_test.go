package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBandFor(t *testing.T) {
	window := 10 * time.Hour
	deadline := t0.Add(window)

	cases := []struct {
		name      string
		remaining time.Duration
		want      Band
	}{
		{"fresh", 10 * time.Hour, BandNormal},
		{"just above warning", 2*time.Hour + 31*time.Minute, BandNormal},
		{"warning boundary", 150 * time.Minute, BandWarning},
		{"inside warning", 2 * time.Hour, BandWarning},
		{"just above critical", 61 * time.Minute, BandWarning},
		{"critical boundary", time.Hour, BandCritical},
		{"inside critical", 10 * time.Minute, BandCritical},
		{"at deadline", 0, BandCritical},
		{"past deadline", -time.Second, BandExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			now := deadline.Add(-tc.remaining)
			assert.Equal(t, tc.want, BandFor(deadline, window, now))
		})
	}
}

func TestBandFor_NonPositiveWindow(t *testing.T) {
	deadline := t0
	assert.Equal(t, BandCritical, BandFor(deadline, 0, t0.Add(-time.Hour)))
	assert.Equal(t, BandCritical, BandFor(deadline, -time.Hour, t0))
	assert.Equal(t, BandExpired, BandFor(deadline, 0, t0.Add(time.Minute)))
}
