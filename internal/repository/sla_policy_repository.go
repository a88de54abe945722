package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// SLAPolicyRepository persists per-sector SLA policies.
type SLAPolicyRepository interface {
	GetBySector(ctx context.Context, sectorID string) (*domain.SLAPolicy, error)
	Upsert(ctx context.Context, policy *domain.SLAPolicy) error
	Delete(ctx context.Context, sectorID string) error
	List(ctx context.Context) ([]domain.SLAPolicy, error)
}

const slaPolicyColumns = `sector_id, mode, hours_p0, hours_p1, hours_p2, hours_p3, updated_by, created_at, updated_at`

type slaPolicyRepository struct {
	db DB
}

// NewSLAPolicyRepository builds the repository.
func NewSLAPolicyRepository(db DB) SLAPolicyRepository {
	return &slaPolicyRepository{db: db}
}

func (r *slaPolicyRepository) GetBySector(ctx context.Context, sectorID string) (*domain.SLAPolicy, error) {
	p, err := scanPolicy(r.db.QueryRow(ctx, `SELECT `+slaPolicyColumns+` FROM sla_policies WHERE sector_id=$1`, sectorID))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *slaPolicyRepository) Upsert(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        INSERT INTO sla_policies (sector_id, mode, hours_p0, hours_p1, hours_p2, hours_p3, updated_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (sector_id) DO UPDATE
        SET mode=EXCLUDED.mode, hours_p0=EXCLUDED.hours_p0, hours_p1=EXCLUDED.hours_p1,
            hours_p2=EXCLUDED.hours_p2, hours_p3=EXCLUDED.hours_p3, updated_by=EXCLUDED.updated_by,
            updated_at=NOW()
        RETURNING created_at, updated_at`
	hours := hoursColumns(policy.HoursPerLevel)
	return r.db.QueryRow(ctx, query,
		policy.SectorID,
		policy.Mode,
		hours[0], hours[1], hours[2], hours[3],
		policy.UpdatedBy,
	).Scan(&policy.CreatedAt, &policy.UpdatedAt)
}

func (r *slaPolicyRepository) Delete(ctx context.Context, sectorID string) error {
	return expectOne(r.db.Exec(ctx, `DELETE FROM sla_policies WHERE sector_id=$1`, sectorID))
}

func (r *slaPolicyRepository) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	rows, err := r.db.Query(ctx, `SELECT `+slaPolicyColumns+` FROM sla_policies ORDER BY sector_id`)
	return collect(rows, err, scanPolicy)
}

// hoursColumns spreads the level map over the nullable hours_p0..hours_p3 columns.
func hoursColumns(m map[domain.CriticalityLevel]int) [4]*int {
	var out [4]*int
	for i, lvl := range domain.Levels {
		if h, ok := m[lvl]; ok {
			h := h
			out[i] = &h
		}
	}
	return out
}

func scanPolicy(row rowScanner) (domain.SLAPolicy, error) {
	var (
		p     domain.SLAPolicy
		hours [4]*int
	)
	if err := row.Scan(
		&p.SectorID,
		&p.Mode,
		&hours[0], &hours[1], &hours[2], &hours[3],
		&p.UpdatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return domain.SLAPolicy{}, err
	}
	p.HoursPerLevel = make(map[domain.CriticalityLevel]int, len(domain.Levels))
	for i, lvl := range domain.Levels {
		if hours[i] != nil {
			p.HoursPerLevel[lvl] = *hours[i]
		}
	}
	return p, nil
}
