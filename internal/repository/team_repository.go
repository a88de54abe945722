package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// TeamRepository manages persistence for teams.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	List(ctx context.Context, sectorID *string, includeInactive bool) ([]domain.Team, error)
}

const teamColumns = `id, sector_id, name, description, is_active, created_at, updated_at`

type teamRepository struct {
	db DB
}

// NewTeamRepository constructs repository.
func NewTeamRepository(db DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (sector_id, name, description, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, team.SectorID, team.Name, team.Description, team.IsActive).
		Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET sector_id=$1, name=$2, description=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	return expectOne(r.db.Exec(ctx, query, team.SectorID, team.Name, team.Description, team.IsActive, team.ID))
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	t, err := scanTeam(r.db.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teamRepository) List(ctx context.Context, sectorID *string, includeInactive bool) ([]domain.Team, error) {
	var w whereBuilder
	if sectorID != nil {
		w.add("sector_id=?", *sectorID)
	}
	if !includeInactive {
		w.add("is_active = TRUE")
	}
	rows, err := r.db.Query(ctx, `SELECT `+teamColumns+` FROM teams`+w.sql()+` ORDER BY name ASC`, w.args...)
	return collect(rows, err, scanTeam)
}

func scanTeam(row rowScanner) (domain.Team, error) {
	var t domain.Team
	err := row.Scan(&t.ID, &t.SectorID, &t.Name, &t.Description, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}
