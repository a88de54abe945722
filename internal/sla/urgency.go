package sla

import "time"

// Band is the urgency classification shown on badges and countdowns.
type Band string

const (
	BandNormal   Band = "normal"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
	BandExpired  Band = "expired"
	// BandNone is used for resolved and closed tickets.
	BandNone Band = "none"
)

const (
	criticalFraction = 0.10
	warningFraction  = 0.25
)

// Bands lists every band in display order.
var Bands = []Band{BandNormal, BandWarning, BandCritical, BandExpired, BandNone}

// BandFor classifies the remaining fraction of window before deadline.
// A non-positive window has no meaningful fraction and reads as critical
// until the deadline passes.
func BandFor(deadline time.Time, window time.Duration, now time.Time) Band {
	remaining := deadline.Sub(now)
	if remaining < 0 {
		return BandExpired
	}
	if window <= 0 {
		return BandCritical
	}
	fraction := float64(remaining) / float64(window)
	switch {
	case fraction <= criticalFraction:
		return BandCritical
	case fraction <= warningFraction:
		return BandWarning
	default:
		return BandNormal
	}
}
