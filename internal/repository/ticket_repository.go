package repository

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// TicketFilter captures staff search parameters.
type TicketFilter struct {
	RequesterID *string
	SectorID    *string
	TeamID      *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Levels      []domain.CriticalityLevel
	SearchTerm  *string
	// Overdue restricts to active tickets whose due_at is before Now.
	Overdue     bool
	Now         time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	UpdatedFrom *time.Time
	UpdatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// ListActive pages through open and in-progress tickets ordered by id,
	// starting after afterID.
	ListActive(ctx context.Context, sectorID *string, afterID string, limit int) ([]domain.Ticket, error)
	// ListForStats returns every ticket of a sector (or all sectors) created since since.
	ListForStats(ctx context.Context, sectorID *string, since *time.Time) ([]domain.Ticket, error)
	UpdateDueAt(ctx context.Context, id string, dueAt time.Time) error
	// MarkBreached stamps sla_breached_at once; it reports false when the
	// ticket was already stamped or is no longer active.
	MarkBreached(ctx context.Context, id string, at time.Time) (bool, error)
}

const ticketColumns = `id, external_key, requester_user_id, sector_id, team_id, assignee_staff_id,
        title, description, status, level, tags, internal_deadline, due_at, sla_breached_at,
        created_at, updated_at, resolved_at, closed_at`

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, requester_user_id, sector_id, team_id, assignee_staff_id, title,
            description, status, level, tags, internal_deadline, due_at, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.RequesterID,
		ticket.SectorID,
		ticket.TeamID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Level,
		ticket.Tags,
		ticket.InternalDeadline,
		ticket.DueAt,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET sector_id=$1, team_id=$2, assignee_staff_id=$3, title=$4, description=$5,
            status=$6, level=$7, tags=$8, internal_deadline=$9, due_at=$10, resolved_at=$11, closed_at=$12,
            updated_at=NOW()
        WHERE id=$13
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.SectorID,
		ticket.TeamID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Level,
		ticket.Tags,
		ticket.InternalDeadline,
		ticket.DueAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id))
}

func (r *ticketRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE external_key=$1`, key))
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{RequesterID: &userID, Limit: limit, Offset: offset})
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	w := ticketWhere(filter)
	query := `SELECT ` + ticketColumns + ` FROM tickets` + w.sql()
	if filter.Overdue {
		query += ` ORDER BY due_at ASC`
	} else {
		query += ` ORDER BY updated_at DESC`
	}
	query += page(filter.Limit, filter.Offset, 20)
	rows, err := r.db.Query(ctx, query, w.args...)
	return collect(rows, err, scanTicketValue)
}

func ticketWhere(filter TicketFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.RequesterID != nil {
		w.add("requester_user_id=?", *filter.RequesterID)
	}
	if filter.SectorID != nil {
		w.add("sector_id=?", *filter.SectorID)
	}
	if filter.TeamID != nil {
		w.add("team_id=?", *filter.TeamID)
	}
	if filter.AssigneeID != nil {
		w.add("assignee_staff_id=?", *filter.AssigneeID)
	}
	in(w, "status", filter.Statuses)
	in(w, "level", filter.Levels)
	if filter.Overdue {
		now := filter.Now
		if now.IsZero() {
			now = time.Now().UTC()
		}
		in(w, "status", domain.ActiveStatuses)
		w.add("due_at < ?", now)
	}
	if filter.CreatedFrom != nil {
		w.add("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		w.add("created_at <= ?", *filter.CreatedTo)
	}
	if filter.UpdatedFrom != nil {
		w.add("updated_at >= ?", *filter.UpdatedFrom)
	}
	if filter.UpdatedTo != nil {
		w.add("updated_at <= ?", *filter.UpdatedTo)
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		w.add("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(external_key) LIKE ?)", search, search, search)
	}
	return w
}

func (r *ticketRepository) ListActive(ctx context.Context, sectorID *string, afterID string, limit int) ([]domain.Ticket, error) {
	w := &whereBuilder{}
	in(w, "status", domain.ActiveStatuses)
	if sectorID != nil {
		w.add("sector_id=?", *sectorID)
	}
	if afterID != "" {
		w.add("id > ?", afterID)
	}
	if limit <= 0 {
		limit = 200
	}
	w.args = append(w.args, limit)
	query := `SELECT ` + ticketColumns + ` FROM tickets` + w.sql() + ` ORDER BY id ASC LIMIT $` + strconv.Itoa(len(w.args))
	rows, err := r.db.Query(ctx, query, w.args...)
	return collect(rows, err, scanTicketValue)
}

func (r *ticketRepository) ListForStats(ctx context.Context, sectorID *string, since *time.Time) ([]domain.Ticket, error) {
	w := &whereBuilder{}
	if sectorID != nil {
		w.add("sector_id=?", *sectorID)
	}
	if since != nil {
		w.add("created_at >= ?", *since)
	}
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets`+w.sql(), w.args...)
	return collect(rows, err, scanTicketValue)
}

func (r *ticketRepository) UpdateDueAt(ctx context.Context, id string, dueAt time.Time) error {
	return expectOne(r.db.Exec(ctx, `UPDATE tickets SET due_at=$1 WHERE id=$2`, dueAt, id))
}

func (r *ticketRepository) MarkBreached(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE tickets SET sla_breached_at=$1
        WHERE id=$2 AND sla_breached_at IS NULL AND status IN ('OPEN','IN_PROGRESS')`
	cmd, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := row.Scan(
		&t.ID,
		&t.ExternalKey,
		&t.RequesterID,
		&t.SectorID,
		&t.TeamID,
		&t.AssigneeID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Level,
		&t.Tags,
		&t.InternalDeadline,
		&t.DueAt,
		&t.SLABreachedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ResolvedAt,
		&t.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTicketValue(row rowScanner) (domain.Ticket, error) {
	t, err := scanTicket(row)
	if err != nil {
		return domain.Ticket{}, err
	}
	return *t, nil
}
