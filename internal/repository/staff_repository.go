package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// StaffRepository handles persistence for staff members.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffMember) error
	Update(ctx context.Context, staff *domain.StaffMember) error
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error)
	// GetByHandles resolves mention handles (email local parts) to active staff.
	GetByHandles(ctx context.Context, handles []string) ([]domain.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	Role     *domain.StaffRole
	TeamID   *string
	SectorID *string
	Active   *bool
	Limit    int
	Offset   int
}

const staffColumns = `id, name, email, password_hash, role, sector_id, team_id, active_flag, created_at, updated_at`

type staffRepository struct {
	db DB
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(db DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        INSERT INTO staff_members (name, email, password_hash, role, sector_id, team_id, active_flag)
        VALUES ($1,lower($2),$3,$4,$5,$6,$7)
        RETURNING id, email, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.SectorID,
		staff.TeamID,
		staff.Active,
	).Scan(&staff.ID, &staff.Email, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        UPDATE staff_members
        SET name=$1, email=lower($2), password_hash=$3, role=$4, sector_id=$5, team_id=$6, active_flag=$7, updated_at=NOW()
        WHERE id=$8`
	return expectOne(r.db.Exec(ctx, query,
		staff.Name,
		staff.Email,
		staff.PasswordHash,
		staff.Role,
		staff.SectorID,
		staff.TeamID,
		staff.Active,
		staff.ID,
	))
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	return scanStaff(r.db.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff_members WHERE id=$1`, id))
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffMember, error) {
	return scanStaff(r.db.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff_members WHERE email=lower($1)`, email))
}

func (r *staffRepository) GetByHandles(ctx context.Context, handles []string) ([]domain.StaffMember, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	const query = `SELECT ` + staffColumns + `
        FROM staff_members
        WHERE active_flag = TRUE AND split_part(email, '@', 1) = ANY($1)`
	rows, err := r.db.Query(ctx, query, handles)
	return collect(rows, err, scanStaffValue)
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	var w whereBuilder
	if filter.Role != nil {
		w.add("role=?", *filter.Role)
	}
	if filter.TeamID != nil {
		w.add("team_id=?", *filter.TeamID)
	}
	if filter.SectorID != nil {
		w.add("sector_id=?", *filter.SectorID)
	}
	if filter.Active != nil {
		w.add("active_flag=?", *filter.Active)
	}
	query := `SELECT ` + staffColumns + ` FROM staff_members` + w.sql() +
		` ORDER BY created_at DESC` + page(filter.Limit, filter.Offset, 50)
	rows, err := r.db.Query(ctx, query, w.args...)
	return collect(rows, err, scanStaffValue)
}

func scanStaff(row rowScanner) (*domain.StaffMember, error) {
	var s domain.StaffMember
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Email,
		&s.PasswordHash,
		&s.Role,
		&s.SectorID,
		&s.TeamID,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanStaffValue(row rowScanner) (domain.StaffMember, error) {
	s, err := scanStaff(row)
	if err != nil {
		return domain.StaffMember{}, err
	}
	return *s, nil
}
