package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// SectorRepository manages sector persistence.
type SectorRepository interface {
	Create(ctx context.Context, sector *domain.Sector) error
	Update(ctx context.Context, sector *domain.Sector) error
	GetByID(ctx context.Context, id string) (*domain.Sector, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Sector, error)
}

const sectorColumns = `id, name, description, is_active, created_at, updated_at`

type sectorRepository struct {
	db DB
}

// NewSectorRepository builds the repository.
func NewSectorRepository(db DB) SectorRepository {
	return &sectorRepository{db: db}
}

func (r *sectorRepository) Create(ctx context.Context, sector *domain.Sector) error {
	const query = `
        INSERT INTO sectors (name, description, is_active)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query, sector.Name, sector.Description, sector.IsActive).
		Scan(&sector.ID, &sector.CreatedAt, &sector.UpdatedAt)
}

func (r *sectorRepository) Update(ctx context.Context, sector *domain.Sector) error {
	const query = `
        UPDATE sectors SET name=$1, description=$2, is_active=$3, updated_at=NOW()
        WHERE id=$4`
	return expectOne(r.db.Exec(ctx, query, sector.Name, sector.Description, sector.IsActive, sector.ID))
}

func (r *sectorRepository) GetByID(ctx context.Context, id string) (*domain.Sector, error) {
	var s domain.Sector
	err := r.db.QueryRow(ctx, `SELECT `+sectorColumns+` FROM sectors WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sectorRepository) List(ctx context.Context, includeInactive bool) ([]domain.Sector, error) {
	query := `SELECT ` + sectorColumns + ` FROM sectors`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	rows, err := r.db.Query(ctx, query+` ORDER BY name ASC`)
	return collect(rows, err, func(row rowScanner) (domain.Sector, error) {
		var s domain.Sector
		err := row.Scan(&s.ID, &s.Name, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
		return s, err
	})
}
