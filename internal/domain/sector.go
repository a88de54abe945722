package domain

import "time"

// Sector is the organizational unit that owns tickets and their SLA policy.
type Sector struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
