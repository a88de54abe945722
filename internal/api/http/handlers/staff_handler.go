package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

// StaffHandler exposes staff auth and organization endpoints.
type StaffHandler struct {
	authService *service.AuthService
	orgService  *service.StaffService
	// exposeResetTokens returns reset tokens in the response body; outside
	// production there is no mailer to deliver them.
	exposeResetTokens bool
}

// NewStaffHandler constructs handler.
func NewStaffHandler(authService *service.AuthService, orgService *service.StaffService, exposeResetTokens bool) *StaffHandler {
	return &StaffHandler{authService: authService, orgService: orgService, exposeResetTokens: exposeResetTokens}
}

// Login handles POST /auth/staff/login.
func (h *StaffHandler) Login(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	staff, session, err := h.authService.LoginStaff(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"staff": staffResponse(staff),
			"auth":  dto.AuthResponse{Token: session.Token, ExpiresAt: session.ExpiresAt},
		},
	})
}

// RequestPasswordReset handles POST /auth/password/reset/request. The
// response is the same whether or not the email is known.
func (h *StaffHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	token, err := h.authService.RequestPasswordReset(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	data := fiber.Map{"status": "reset_requested"}
	if token != nil && h.exposeResetTokens {
		data["reset_token"] = token.Token
		data["expires_at"] = token.ExpiresAt
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": data})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *StaffHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}

// ChangePassword handles POST /auth/password/change.
func (h *StaffHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PasswordChangeRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	subject := service.AuthSubject{Type: principal.SubjectType, ID: principal.ID()}
	if subject.ID == "" {
		return apperrors.NewUnauthorized("unknown subject")
	}
	if err := h.authService.ChangePassword(c.UserContext(), subject, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_changed"}})
}

// ListPublicSectors handles GET /sectors for requesters picking a sector.
func (h *StaffHandler) ListPublicSectors(c *fiber.Ctx) error {
	sectors, err := h.orgService.ListPublicSectors(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.SectorResponse, 0, len(sectors))
	for i := range sectors {
		resp = append(resp, sectorResponse(&sectors[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateSector handles POST /staff/sectors.
func (h *StaffHandler) CreateSector(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SectorRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	if req.Name == nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"name": "required"})
	}
	var description string
	if req.Description != nil {
		description = *req.Description
	}
	sector, err := h.orgService.CreateSector(c.UserContext(), staff, *req.Name, description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": sectorResponse(sector)})
}

// ListSectors handles GET /staff/sectors.
func (h *StaffHandler) ListSectors(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	sectors, err := h.orgService.ListSectors(c.UserContext(), staff, parseBoolQuery(c, "include_inactive", false))
	if err != nil {
		return err
	}
	resp := make([]dto.SectorResponse, 0, len(sectors))
	for i := range sectors {
		resp = append(resp, sectorResponse(&sectors[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetSector handles GET /staff/sectors/:id.
func (h *StaffHandler) GetSector(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	sector, err := h.orgService.GetSectorByID(c.UserContext(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sectorResponse(sector)})
}

// UpdateSector handles PUT /staff/sectors/:id.
func (h *StaffHandler) UpdateSector(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SectorRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	sector, err := h.orgService.UpdateSector(c.UserContext(), staff, c.Params("id"), req.Name, req.Description, req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sectorResponse(sector)})
}

// CreateTeam handles POST /staff/teams.
func (h *StaffHandler) CreateTeam(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TeamRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	if req.SectorID == nil || req.Name == nil {
		return apperrors.NewValidationError("sector_id and name required", nil)
	}
	var description string
	if req.Description != nil {
		description = *req.Description
	}
	team, err := h.orgService.CreateTeam(c.UserContext(), staff, *req.SectorID, *req.Name, description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": teamResponse(team)})
}

// ListTeams handles GET /staff/teams.
func (h *StaffHandler) ListTeams(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	teams, err := h.orgService.ListTeams(c.UserContext(), staff, service.TeamListFilters{
		SectorID:        optionalQuery(c, "sector_id"),
		IncludeInactive: parseBoolQuery(c, "include_inactive", false),
	})
	if err != nil {
		return err
	}
	resp := make([]dto.TeamResponse, 0, len(teams))
	for i := range teams {
		resp = append(resp, teamResponse(&teams[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetTeam handles GET /staff/teams/:id.
func (h *StaffHandler) GetTeam(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	team, err := h.orgService.GetTeamByID(c.UserContext(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// UpdateTeam handles PUT /staff/teams/:id.
func (h *StaffHandler) UpdateTeam(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TeamRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	team, err := h.orgService.UpdateTeam(c.UserContext(), staff, c.Params("id"), req.SectorID, req.Name, req.Description, req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": teamResponse(team)})
}

// CreateStaff handles POST /staff/members.
func (h *StaffHandler) CreateStaff(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StaffCreateRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	staff, err := h.orgService.CreateStaffMember(c.UserContext(), actor, service.StaffMemberInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		SectorID: req.SectorID,
		TeamID:   req.TeamID,
		Active:   active,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(staff)})
}

// ListStaff handles GET /staff/members.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	list, err := h.orgService.ListStaffMembers(c.UserContext(), actor, parseStaffListFilters(c))
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, staffResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetStaff handles GET /staff/members/:id.
func (h *StaffHandler) GetStaff(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	staff, err := h.orgService.GetStaffMemberByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(staff)})
}

// UpdateStaff handles PUT /staff/members/:id. Omitted active keeps the
// current value.
func (h *StaffHandler) UpdateStaff(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StaffUpdateRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	current, err := h.orgService.GetStaffMemberByID(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	input := service.StaffMemberInput{
		Name:     req.Name,
		Email:    req.Email,
		Role:     req.Role,
		SectorID: req.SectorID,
		TeamID:   req.TeamID,
		Active:   current.Active,
	}
	if req.SectorID == nil && req.TeamID == nil {
		input.SectorID, input.TeamID = current.SectorID, current.TeamID
	}
	if req.Active != nil {
		input.Active = *req.Active
	}
	updated, err := h.orgService.UpdateStaffMember(c.UserContext(), actor, current.ID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(updated)})
}

// ResetStaffPassword handles POST /staff/members/:id/password-reset.
func (h *StaffHandler) ResetStaffPassword(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AdminPasswordResetRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	if err := h.authService.AdminResetPassword(c.UserContext(), actor, c.Params("id"), req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_reset"}})
}

func parseStaffListFilters(c *fiber.Ctx) service.StaffListFilters {
	var filters service.StaffListFilters
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.StaffRole(roleStr)
		filters.Role = &role
	}
	filters.TeamID = optionalQuery(c, "team_id")
	filters.SectorID = optionalQuery(c, "sector_id")
	if c.Query("active") != "" {
		active := parseBoolQuery(c, "active", true)
		filters.Active = &active
	}
	filters.Limit, filters.Offset = pagination(c, 50)
	return filters
}
