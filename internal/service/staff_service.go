package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// StaffService manages sectors, teams and staff members.
type StaffService struct {
	sectors    repository.SectorRepository
	teams      repository.TeamRepository
	staff      repository.StaffRepository
	bcryptCost int
}

// OrgDependencies encapsulates repositories required for org management.
type OrgDependencies struct {
	SectorRepo repository.SectorRepository
	TeamRepo   repository.TeamRepository
	StaffRepo  repository.StaffRepository
}

// StaffListFilters define listing parameters.
type StaffListFilters struct {
	Role     *domain.StaffRole
	TeamID   *string
	SectorID *string
	Active   *bool
	Limit    int
	Offset   int
}

// TeamListFilters define query params for teams.
type TeamListFilters struct {
	SectorID        *string
	IncludeInactive bool
}

// StaffMemberInput carries the editable fields of a staff account.
type StaffMemberInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.StaffRole
	SectorID *string
	TeamID   *string
	Active   bool
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, deps OrgDependencies) *StaffService {
	return &StaffService{
		sectors:    deps.SectorRepo,
		teams:      deps.TeamRepo,
		staff:      deps.StaffRepo,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// CreateSector creates a new sector.
func (s *StaffService) CreateSector(ctx context.Context, actor *domain.StaffMember, name, description string) (*domain.Sector, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	sector := &domain.Sector{
		Name:        name,
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := s.sectors.Create(ctx, sector); err != nil {
		return nil, apperrors.MapError(err)
	}
	return sector, nil
}

// ListSectors returns sectors. Any staff member may list active sectors;
// inactive ones are admin only.
func (s *StaffService) ListSectors(ctx context.Context, actor *domain.StaffMember, includeInactive bool) ([]domain.Sector, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	if includeInactive {
		if err := requireAdmin(actor); err != nil {
			return nil, err
		}
	}
	sectors, err := s.sectors.List(ctx, includeInactive)
	return sectors, apperrors.MapError(err)
}

// ListPublicSectors returns the active sectors requesters may file tickets in.
func (s *StaffService) ListPublicSectors(ctx context.Context) ([]domain.Sector, error) {
	sectors, err := s.sectors.List(ctx, false)
	return sectors, apperrors.MapError(err)
}

// GetSectorByID fetches a sector.
func (s *StaffService) GetSectorByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Sector, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	sector, err := s.sectors.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "sector", id)
	}
	return sector, nil
}

// UpdateSector modifies sector metadata.
func (s *StaffService) UpdateSector(ctx context.Context, actor *domain.StaffMember, id string, name, description *string, active *bool) (*domain.Sector, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	sector, err := s.sectors.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "sector", id)
	}
	if name != nil {
		if strings.TrimSpace(*name) == "" {
			return nil, apperrors.NewValidationError("name cannot be empty", nil)
		}
		sector.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		sector.Description = strings.TrimSpace(*description)
	}
	if active != nil {
		sector.IsActive = *active
	}
	if err := s.sectors.Update(ctx, sector); err != nil {
		return nil, apperrors.MapError(err)
	}
	return sector, nil
}

// CreateTeam creates a team inside a sector.
func (s *StaffService) CreateTeam(ctx context.Context, actor *domain.StaffMember, sectorID, name, description string) (*domain.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.activeSector(ctx, sectorID); err != nil {
		return nil, err
	}
	team := &domain.Team{
		SectorID:    sectorID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// ListTeams lists teams optionally filtered by sector.
func (s *StaffService) ListTeams(ctx context.Context, actor *domain.StaffMember, filters TeamListFilters) ([]domain.Team, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	teams, err := s.teams.List(ctx, filters.SectorID, filters.IncludeInactive)
	return teams, apperrors.MapError(err)
}

// GetTeamByID fetches team.
func (s *StaffService) GetTeamByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.Team, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "team", id)
	}
	return team, nil
}

// UpdateTeam updates team metadata.
func (s *StaffService) UpdateTeam(ctx context.Context, actor *domain.StaffMember, id string, sectorID, name, description *string, active *bool) (*domain.Team, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "team", id)
	}
	if sectorID != nil && *sectorID != team.SectorID {
		if err := s.activeSector(ctx, *sectorID); err != nil {
			return nil, err
		}
		team.SectorID = *sectorID
	}
	if name != nil {
		team.Name = strings.TrimSpace(*name)
	}
	if description != nil {
		team.Description = strings.TrimSpace(*description)
	}
	if active != nil {
		team.IsActive = *active
	}
	if err := s.teams.Update(ctx, team); err != nil {
		return nil, apperrors.MapError(err)
	}
	return team, nil
}

// CreateStaffMember adds a new staff account.
func (s *StaffService) CreateStaffMember(ctx context.Context, actor *domain.StaffMember, input StaffMemberInput) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	email := normalizeEmail(input.Email)
	if err := s.emailFree(ctx, email, ""); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	sectorID, err := s.placement(ctx, input.SectorID, input.TeamID)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if errors.Is(err, auth.ErrWeakPassword) {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	staff := &domain.StaffMember{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		SectorID:     sectorID,
		TeamID:       input.TeamID,
		Active:       true,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

// ListStaffMembers lists staff with filters.
func (s *StaffService) ListStaffMembers(ctx context.Context, actor *domain.StaffMember, filters StaffListFilters) ([]domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	members, err := s.staff.List(ctx, repository.StaffFilter{
		Role:     filters.Role,
		TeamID:   filters.TeamID,
		SectorID: filters.SectorID,
		Active:   filters.Active,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	})
	return members, apperrors.MapError(err)
}

// GetStaffMemberByID fetches staff.
func (s *StaffService) GetStaffMemberByID(ctx context.Context, actor *domain.StaffMember, id string) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	member, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "staff", id)
	}
	return member, nil
}

// UpdateStaffMember updates staff details. The password is left untouched.
func (s *StaffService) UpdateStaffMember(ctx context.Context, actor *domain.StaffMember, staffID string, input StaffMemberInput) (*domain.StaffMember, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, lookupErr(err, "staff", staffID)
	}
	email := normalizeEmail(input.Email)
	if email != "" && email != staff.Email {
		if err := s.emailFree(ctx, email, staff.ID); err != nil {
			return nil, err
		}
		staff.Email = email
	}
	if input.Role != "" {
		if !input.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
		}
		staff.Role = input.Role
	}
	sectorID, err := s.placement(ctx, input.SectorID, input.TeamID)
	if err != nil {
		return nil, err
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		staff.Name = name
	}
	staff.SectorID = sectorID
	staff.TeamID = input.TeamID
	staff.Active = input.Active

	if err := s.staff.Update(ctx, staff); err != nil {
		return nil, apperrors.MapError(err)
	}
	return staff, nil
}

func (s *StaffService) activeSector(ctx context.Context, sectorID string) error {
	sector, err := s.sectors.GetByID(ctx, sectorID)
	if err != nil {
		return lookupErr(err, "sector", sectorID)
	}
	if !sector.IsActive {
		return apperrors.NewConflict("sector inactive", map[string]any{"sector_id": sectorID})
	}
	return nil
}

func (s *StaffService) emailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.staff.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	if existing.ID != selfID {
		return apperrors.NewConflict("staff email already exists", map[string]any{"email": email})
	}
	return nil
}

// placement resolves the sector of a staff member. A team implies its
// sector; an explicit sector must agree with it.
func (s *StaffService) placement(ctx context.Context, sectorID, teamID *string) (*string, error) {
	if teamID != nil && *teamID != "" {
		team, err := s.teams.GetByID(ctx, *teamID)
		if err != nil {
			return nil, lookupErr(err, "team", *teamID)
		}
		if !team.IsActive {
			return nil, apperrors.NewConflict("team inactive", map[string]any{"team_id": *teamID})
		}
		if sectorID != nil && *sectorID != "" && *sectorID != team.SectorID {
			return nil, apperrors.NewValidationError("team not part of sector", map[string]any{"team_id": *teamID, "sector_id": *sectorID})
		}
		return &team.SectorID, nil
	}
	if sectorID != nil && *sectorID != "" {
		if err := s.activeSector(ctx, *sectorID); err != nil {
			return nil, err
		}
		return sectorID, nil
	}
	return nil, nil
}
