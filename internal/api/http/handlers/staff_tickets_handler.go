package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
)

// StaffTicketsHandler handles the staff side of the ticket workflow.
type StaffTicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService, assignmentService *service.AssignmentService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService, assignments: assignmentService}
}

// ListStaffTickets GET /staff/tickets.
func (h *StaffTicketsHandler) ListStaffTickets(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListStaffTickets(c.UserContext(), staff, parseStaffTicketFilter(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// GetStaffTicket GET /staff/tickets/:id.
func (h *StaffTicketsHandler) GetStaffTicket(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	view, err := h.tickets.GetTicketForStaff(c.UserContext(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.tickets.ListHistoryForStaff(c.UserContext(), staff, view.Ticket.ID, maxPageSize, 0)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(view, history)})
}

// UpdateStatus PATCH /staff/tickets/:id/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), staff, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	return respondTicket(c, h.tickets, http.StatusOK, ticket)
}

// UpdateLevel PATCH /staff/tickets/:id/level.
func (h *StaffTicketsHandler) UpdateLevel(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateLevelRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateLevel(c.UserContext(), staff, c.Params("id"), req.Level)
	if err != nil {
		return err
	}
	return respondTicket(c, h.tickets, http.StatusOK, ticket)
}

// AssignStaff POST /staff/tickets/:id/assign.
func (h *StaffTicketsHandler) AssignStaff(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignStaffRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.assignments.AssignTicketToStaff(c.UserContext(), staff, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return respondTicket(c, h.tickets, http.StatusOK, ticket)
}

// SelfAssign POST /staff/tickets/:id/self-assign.
func (h *StaffTicketsHandler) SelfAssign(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.assignments.SelfAssignTicket(c.UserContext(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return respondTicket(c, h.tickets, http.StatusOK, ticket)
}

// AssignTeam POST /staff/tickets/:id/team.
func (h *StaffTicketsHandler) AssignTeam(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignTeamRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.assignments.AssignTicketToTeam(c.UserContext(), staff, c.Params("id"), req.TeamID)
	if err != nil {
		return err
	}
	return respondTicket(c, h.tickets, http.StatusOK, ticket)
}

// AddStaffMessage POST /staff/tickets/:id/messages. Without an explicit
// message_type the message is an internal note.
func (h *StaffTicketsHandler) AddStaffMessage(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	var msgType domain.TicketMessageType
	if req.MessageType != nil {
		msgType = *req.MessageType
	}
	msg, err := h.tickets.AddMessage(c.UserContext(), domain.SubjectTypeStaff, staff.ID, staff, c.Params("id"),
		msgType, req.Body, attachmentInputs(req.Attachments))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg, nil)})
}

// RequestUploadURL POST /staff/tickets/:id/attachments/upload-url.
func (h *StaffTicketsHandler) RequestUploadURL(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UploadURLRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	target, err := h.tickets.RequestUploadURL(c.UserContext(), domain.SubjectTypeStaff, staff.ID, staff, c.Params("id"), req.FileName)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UploadURLResponse{StorageKey: target.StorageKey, URL: target.URL}})
}

// SetDeadline PUT /staff/tickets/:id/deadline.
func (h *StaffTicketsHandler) SetDeadline(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SetDeadlineRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.SetDeadline(c.UserContext(), staff, c.Params("id"), req.Deadline.UTC(), req.Reason)
	if err != nil {
		return err
	}
	return respondTicket(c, h.tickets, http.StatusOK, ticket)
}

// ExtendDeadline POST /staff/tickets/:id/deadline/extend.
func (h *StaffTicketsHandler) ExtendDeadline(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ExtendDeadlineRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.ExtendDeadline(c.UserContext(), staff, c.Params("id"), req.Hours, req.Reason)
	if err != nil {
		return err
	}
	return respondTicket(c, h.tickets, http.StatusOK, ticket)
}

// ClearDeadline DELETE /staff/tickets/:id/deadline.
func (h *StaffTicketsHandler) ClearDeadline(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.ClearDeadline(c.UserContext(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return respondTicket(c, h.tickets, http.StatusOK, ticket)
}

// ListHistory GET /staff/tickets/:id/history.
func (h *StaffTicketsHandler) ListHistory(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c, 50)
	history, err := h.tickets.ListHistoryForStaff(c.UserContext(), staff, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(history)})
}

func parseStaffTicketFilter(c *fiber.Ctx) service.TicketStaffFilter {
	limit, offset := pagination(c, defaultPageSize)
	return service.TicketStaffFilter{
		SectorID:    optionalQuery(c, "sector_id"),
		TeamID:      optionalQuery(c, "team_id"),
		AssigneeID:  optionalQuery(c, "assignee_id"),
		Statuses:    splitStatuses(c.Query("status")),
		Levels:      splitLevels(c.Query("level")),
		SearchTerm:  optionalQuery(c, "search"),
		Overdue:     parseBoolQuery(c, "overdue", false),
		CreatedFrom: parseTime(c.Query("created_from")),
		CreatedTo:   parseTime(c.Query("created_to")),
		UpdatedFrom: parseTime(c.Query("updated_from")),
		UpdatedTo:   parseTime(c.Query("updated_to")),
		Limit:       limit,
		Offset:      offset,
	}
}
