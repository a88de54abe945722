package dto

import "github.com/deskflow/helpdesk/internal/domain"

// StaffLoginRequest payload.
type StaffLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// AdminPasswordResetRequest is the admin tool for setting a staff password.
type AdminPasswordResetRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// SectorRequest creates or updates a sector.
type SectorRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

// SectorResponse payload.
type SectorResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// TeamRequest creates or updates a team.
type TeamRequest struct {
	SectorID    *string `json:"sector_id" validate:"omitempty,min=1"`
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

// TeamResponse payload.
type TeamResponse struct {
	ID          string `json:"id"`
	SectorID    string `json:"sector_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}

// StaffCreateRequest payload.
type StaffCreateRequest struct {
	Name     string           `json:"name" validate:"required,max=120"`
	Email    string           `json:"email" validate:"required,email"`
	Password string           `json:"password" validate:"required,min=8"`
	Role     domain.StaffRole `json:"role" validate:"required,staff_role"`
	SectorID *string          `json:"sector_id"`
	TeamID   *string          `json:"team_id"`
	Active   *bool            `json:"active"`
}

// StaffUpdateRequest payload.
type StaffUpdateRequest struct {
	Name     string           `json:"name" validate:"omitempty,max=120"`
	Email    string           `json:"email" validate:"omitempty,email"`
	Role     domain.StaffRole `json:"role" validate:"omitempty,staff_role"`
	SectorID *string          `json:"sector_id"`
	TeamID   *string          `json:"team_id"`
	Active   *bool            `json:"active"`
}

// StaffResponse payload.
type StaffResponse struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Handle   string           `json:"handle"`
	Role     domain.StaffRole `json:"role"`
	SectorID *string          `json:"sector_id"`
	TeamID   *string          `json:"team_id"`
	Active   bool             `json:"active"`
}
