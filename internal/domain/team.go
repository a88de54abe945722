package domain

import "time"

// Team is a working group inside a sector.
type Team struct {
	ID          string
	SectorID    string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
