package repository

import (
	"context"

	"github.com/deskflow/helpdesk/internal/domain"
)

// UserRepository defines persistence access for requesters.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

const userColumns = `id, name, email, password_hash, status, created_at, updated_at`

type userRepository struct {
	db DB
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, status)
        VALUES ($1, lower($2), $3, $4)
        RETURNING id, email, created_at, updated_at`
	return r.db.QueryRow(ctx, query, user.Name, user.Email, user.PasswordHash, user.Status).
		Scan(&user.ID, &user.Email, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=lower($2), password_hash=$3, status=$4, updated_at=NOW()
        WHERE id=$5`
	return expectOne(r.db.Exec(ctx, query, user.Name, user.Email, user.PasswordHash, user.Status, user.ID))
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=lower($1)`, email))
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
