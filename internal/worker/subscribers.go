package worker

import (
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/service"
)

// RegisterSubscribers attaches the event consumers: inbox notifications and
// auto-assignment of tickets opened against a team.
func RegisterSubscribers(dispatcher events.Dispatcher, notifications *service.NotificationService, assignments *service.AssignmentService) {
	if dispatcher == nil {
		return
	}
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if assignments != nil {
		dispatcher.Subscribe(events.EventTicketCreated, assignments.HandleTicketCreated)
	}
}
