package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// NotificationRepository persists inbox entries.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientType domain.SubjectType, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientType domain.SubjectType, recipientID string) (int, error)
	MarkRead(ctx context.Context, id string, recipientType domain.SubjectType, recipientID string) error
	MarkAllRead(ctx context.Context, recipientType domain.SubjectType, recipientID string) (int64, error)
}

type notificationRepository struct {
	db DB
}

// NewNotificationRepository builds the repository.
func NewNotificationRepository(db DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	const query = `
        INSERT INTO notifications (recipient_type, recipient_id, kind, ticket_id, title, body)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, n.RecipientType, n.RecipientID, n.Kind, n.TicketID, n.Title, n.Body).
		Scan(&n.ID, &n.CreatedAt)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientType domain.SubjectType, recipientID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	var w whereBuilder
	w.add("recipient_type=?", recipientType)
	w.add("recipient_id=?", recipientID)
	if unreadOnly {
		w.add("read_at IS NULL")
	}
	query := `SELECT id, recipient_type, recipient_id, kind, ticket_id, title, body, read_at, created_at
        FROM notifications` + w.sql() + ` ORDER BY created_at DESC` + page(limit, offset, 50)
	rows, err := r.db.Query(ctx, query, w.args...)
	return collect(rows, err, func(row rowScanner) (domain.Notification, error) {
		var n domain.Notification
		err := row.Scan(&n.ID, &n.RecipientType, &n.RecipientID, &n.Kind, &n.TicketID, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt)
		return n, err
	})
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientType domain.SubjectType, recipientID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_type=$1 AND recipient_id=$2 AND read_at IS NULL`,
		recipientType, recipientID,
	).Scan(&count)
	return count, err
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, recipientType domain.SubjectType, recipientID string) error {
	const query = `
        UPDATE notifications SET read_at=COALESCE(read_at, NOW())
        WHERE id=$1 AND recipient_type=$2 AND recipient_id=$3`
	return expectOne(r.db.Exec(ctx, query, id, recipientType, recipientID))
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientType domain.SubjectType, recipientID string) (int64, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE notifications SET read_at=NOW() WHERE recipient_type=$1 AND recipient_id=$2 AND read_at IS NULL`,
		recipientType, recipientID,
	)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
