package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/helpdesk/internal/api/dto"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/service"
	"github.com/deskflow/helpdesk/internal/sla"
)

func slaResponse(ticket *domain.Ticket, ev sla.Evaluation) dto.SLAResponse {
	resp := dto.SLAResponse{
		Deadline:    ev.Deadline,
		Source:      string(ev.Source),
		WindowHours: ev.Window.Hours(),
		Overdue:     ev.Overdue,
		Band:        string(ev.Band),
		BreachedAt:  ticket.SLABreachedAt,
		MetSLA:      ev.MetSLA,
	}
	if !ev.Terminal {
		resp.RemainingSeconds = int64(ev.Remaining / time.Second)
	}
	return resp
}

func ticketSummary(ticket *domain.Ticket, ev sla.Evaluation) dto.TicketSummary {
	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TicketSummary{
		ID:          ticket.ID,
		ExternalKey: ticket.ExternalKey,
		SectorID:    ticket.SectorID,
		TeamID:      ticket.TeamID,
		AssigneeID:  ticket.AssigneeID,
		Title:       ticket.Title,
		Status:      ticket.Status,
		Level:       ticket.Level,
		Tags:        tags,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
		SLA:         slaResponse(ticket, ev),
	}
}

func ticketSummaries(items []service.TicketSummary) []dto.TicketSummary {
	resp := make([]dto.TicketSummary, 0, len(items))
	for i := range items {
		resp = append(resp, ticketSummary(&items[i].Ticket, items[i].SLA))
	}
	return resp
}

func ticketDetail(view *service.TicketView, history []domain.TicketHistory) dto.TicketDetailResponse {
	msgs := make([]dto.TicketMessageResponse, 0, len(view.Messages))
	for i := range view.Messages {
		msgs = append(msgs, ticketMessageResponse(&view.Messages[i], view.DownloadURLs))
	}
	return dto.TicketDetailResponse{
		TicketSummary:    ticketSummary(view.Ticket, view.SLA),
		Description:      view.Ticket.Description,
		InternalDeadline: view.Ticket.InternalDeadline,
		ResolvedAt:       view.Ticket.ResolvedAt,
		ClosedAt:         view.Ticket.ClosedAt,
		Messages:         msgs,
		History:          historyResponses(history),
	}
}

func ticketMessageResponse(msg *domain.TicketMessage, urls map[string]string) dto.TicketMessageResponse {
	attachments := make([]dto.AttachmentResponse, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		attachments = append(attachments, dto.AttachmentResponse{
			ID:        att.ID,
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: att.SizeBytes,
			URL:       urls[att.ID],
		})
	}
	return dto.TicketMessageResponse{
		ID:          msg.ID,
		MessageType: msg.MessageType,
		AuthorType:  msg.AuthorType,
		AuthorID:    msg.AuthorID,
		Body:        msg.Body,
		Mentions:    msg.Mentions,
		Attachments: attachments,
		CreatedAt:   msg.CreatedAt,
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	if entries == nil {
		return nil
	}
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}

func attachmentInputs(reqs []dto.AttachmentRequest) []service.MessageAttachmentInput {
	out := make([]service.MessageAttachmentInput, 0, len(reqs))
	for _, att := range reqs {
		out = append(out, service.MessageAttachmentInput{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	return out
}

func sectorResponse(sector *domain.Sector) dto.SectorResponse {
	return dto.SectorResponse{
		ID:          sector.ID,
		Name:        sector.Name,
		Description: sector.Description,
		IsActive:    sector.IsActive,
	}
}

func teamResponse(team *domain.Team) dto.TeamResponse {
	return dto.TeamResponse{
		ID:          team.ID,
		SectorID:    team.SectorID,
		Name:        team.Name,
		Description: team.Description,
		IsActive:    team.IsActive,
	}
}

func staffResponse(staff *domain.StaffMember) dto.StaffResponse {
	return dto.StaffResponse{
		ID:       staff.ID,
		Name:     staff.Name,
		Email:    staff.Email,
		Handle:   staff.Handle(),
		Role:     staff.Role,
		SectorID: staff.SectorID,
		TeamID:   staff.TeamID,
		Active:   staff.Active,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{ID: user.ID, Name: user.Name, Email: user.Email, Status: user.Status}
}

func policyResponse(view *service.PolicyView) dto.SLAPolicyResponse {
	resp := dto.SLAPolicyResponse{
		SectorID:  view.SectorID,
		Effective: view.Effective,
		Sources:   make(map[domain.CriticalityLevel]string, len(view.Sources)),
	}
	for lvl, src := range view.Sources {
		resp.Sources[lvl] = string(src)
	}
	if p := view.Policy; p != nil {
		mode := p.Mode
		updatedAt := p.UpdatedAt
		resp.Mode = &mode
		resp.HoursPerLevel = p.HoursPerLevel
		resp.UpdatedBy = p.UpdatedBy
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

func statsResponse(sectorID *string, s sla.Summary) dto.SLAStatsResponse {
	byBand := make(map[string]int, len(s.ByBand))
	for band, n := range s.ByBand {
		byBand[string(band)] = n
	}
	return dto.SLAStatsResponse{
		SectorID:          sectorID,
		Total:             s.Total,
		Active:            s.Active,
		Overdue:           s.Overdue,
		ByBand:            byBand,
		ByLevel:           s.ByLevel,
		ResolvedWithinSLA: s.ResolvedWithinSLA,
		ResolvedLate:      s.ResolvedLate,
		ComplianceRate:    s.ComplianceRate,
	}
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Kind:      n.Kind,
		TicketID:  n.TicketID,
		Title:     n.Title,
		Body:      n.Body,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// respondTicket renders a freshly mutated ticket with its SLA block.
func respondTicket(c *fiber.Ctx, tickets *service.TicketService, status int, ticket *domain.Ticket) error {
	summary, err := tickets.Summarize(c.UserContext(), ticket)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(fiber.Map{"data": ticketSummary(&summary.Ticket, summary.SLA)})
}
