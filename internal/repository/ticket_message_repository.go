package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// TicketMessageRepository manages ticket thread messages.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	GetByID(ctx context.Context, id string) (*domain.TicketMessage, error)
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error)
}

type ticketMessageRepository struct {
	db DB
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(db DB) TicketMessageRepository {
	return &ticketMessageRepository{db: db}
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, author_type, author_id, message_type, body, mentions)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	mentions := msg.Mentions
	if mentions == nil {
		mentions = []string{}
	}
	return r.db.QueryRow(ctx, query,
		msg.TicketID,
		msg.AuthorType,
		msg.AuthorID,
		msg.MessageType,
		msg.Body,
		mentions,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *ticketMessageRepository) GetByID(ctx context.Context, id string) (*domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, author_type, author_id, message_type, body, mentions, created_at
        FROM ticket_messages WHERE id=$1`
	msg, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error) {
	query := `
        SELECT id, ticket_id, author_type, author_id, message_type, body, mentions, created_at
        FROM ticket_messages WHERE ticket_id=$1`
	args := []any{ticketID}
	if !includeInternal {
		query += ` AND message_type=$2`
		args = append(args, domain.MessageTypePublicReply)
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY created_at ASC`, args...)
	return collect(rows, err, scanMessage)
}

func scanMessage(row rowScanner) (domain.TicketMessage, error) {
	var m domain.TicketMessage
	err := row.Scan(&m.ID, &m.TicketID, &m.AuthorType, &m.AuthorID, &m.MessageType, &m.Body, &m.Mentions, &m.CreatedAt)
	return m, err
}
