package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// AttachmentRepository persists attachment metadata; file bytes live in object storage.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error)
}

type attachmentRepository struct {
	db DB
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(db DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, a *domain.Attachment) error {
	const query = `
        INSERT INTO attachments (ticket_id, ticket_message_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		a.TicketID,
		a.TicketMessageID,
		a.StorageKey,
		a.FileName,
		a.MimeType,
		a.SizeBytes,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *attachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	const query = `
        SELECT id, ticket_id, ticket_message_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM attachments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	return collect(rows, err, func(row rowScanner) (domain.Attachment, error) {
		var a domain.Attachment
		err := row.Scan(&a.ID, &a.TicketID, &a.TicketMessageID, &a.StorageKey, &a.FileName, &a.MimeType, &a.SizeBytes, &a.CreatedAt)
		return a, err
	})
}
