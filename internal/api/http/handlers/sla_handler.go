package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
)

// SLAHandler serves sector policies and SLA statistics.
type SLAHandler struct {
	sla *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{sla: slaService}
}

// GetPolicy handles GET /staff/sectors/:id/sla-policy.
func (h *SLAHandler) GetPolicy(c *fiber.Ctx) error {
	if _, err := staffPrincipal(c); err != nil {
		return err
	}
	view, err := h.sla.GetPolicy(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policyResponse(view)})
}

// PutPolicy handles PUT /staff/sectors/:id/sla-policy.
func (h *SLAHandler) PutPolicy(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SLAPolicyRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	view, err := h.sla.SavePolicy(c.UserContext(), staff, &domain.SLAPolicy{
		SectorID:      c.Params("id"),
		Mode:          req.Mode,
		HoursPerLevel: req.HoursPerLevel,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": policyResponse(view)})
}

// DeletePolicy handles DELETE /staff/sectors/:id/sla-policy.
func (h *SLAHandler) DeletePolicy(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.sla.DeletePolicy(c.UserContext(), staff, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Stats handles GET /staff/sla/stats?sector_id=&since=.
func (h *SLAHandler) Stats(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	sectorID := optionalQuery(c, "sector_id")
	summary, err := h.sla.Stats(c.UserContext(), staff, sectorID, parseTime(c.Query("since")))
	if err != nil {
		return err
	}
	if sectorID == nil && staff.Role != domain.StaffRoleAdmin {
		sectorID = staff.SectorID
	}
	return c.JSON(fiber.Map{"data": statsResponse(sectorID, summary)})
}
