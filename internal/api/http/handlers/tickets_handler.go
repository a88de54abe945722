package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
)

// TicketsHandler manages requester ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := userPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), user.ID, service.TicketCreateInput{
		SectorID:    req.SectorID,
		TeamID:      req.TeamID,
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		Tags:        req.Tags,
	})
	if err != nil {
		return err
	}
	return respondTicket(c, h.service, http.StatusCreated, ticket)
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := userPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := pagination(c, defaultPageSize)
	filter := service.TicketUserFilter{
		Statuses:    splitStatuses(c.Query("status")),
		Levels:      splitLevels(c.Query("level")),
		CreatedFrom: parseTime(c.Query("created_from")),
		CreatedTo:   parseTime(c.Query("created_to")),
		Limit:       limit,
		Offset:      offset,
	}
	tickets, err := h.service.ListUserTickets(c.UserContext(), user.ID, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := userPrincipal(c)
	if err != nil {
		return err
	}
	view, err := h.service.GetTicketForUser(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.service.ListHistoryForUser(c.UserContext(), user.ID, view.Ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(view, history)})
}

// AddMessage POST /tickets/:id/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	user, err := userPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateMessageRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	msg, err := h.service.AddMessage(c.UserContext(), domain.SubjectTypeUser, user.ID, nil, c.Params("id"),
		domain.MessageTypePublicReply, req.Body, attachmentInputs(req.Attachments))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketMessageResponse(msg, nil)})
}

// RequestUploadURL POST /tickets/:id/attachments/upload-url.
func (h *TicketsHandler) RequestUploadURL(c *fiber.Ctx) error {
	user, err := userPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UploadURLRequest
	if err := dto.Bind(c, &req); err != nil {
		return err
	}
	target, err := h.service.RequestUploadURL(c.UserContext(), domain.SubjectTypeUser, user.ID, nil, c.Params("id"), req.FileName)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.UploadURLResponse{StorageKey: target.StorageKey, URL: target.URL}})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	user, err := userPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.CloseTicketAsUser(c.UserContext(), user.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return respondTicket(c, h.service, http.StatusOK, ticket)
}
