package repository

import (
	"context"
	"time"

	"github.com/deskflow/helpdesk/internal/domain"
)

// PasswordResetToken represents a stored one-time reset token.
type PasswordResetToken struct {
	ID          string
	SubjectType domain.SubjectType
	SubjectID   string
	Token       string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

// Usable reports whether the token is unused and unexpired at now.
func (t *PasswordResetToken) Usable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, token *PasswordResetToken) error
	GetByToken(ctx context.Context, token string) (*PasswordResetToken, error)
	// MarkUsed consumes the token; it returns pgx.ErrNoRows if it was already used.
	MarkUsed(ctx context.Context, id string) error
}

type passwordResetRepository struct {
	db DB
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(db DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, token *PasswordResetToken) error {
	const query = `
        INSERT INTO password_reset_tokens (subject_type, subject_id, token, expires_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, token.SubjectType, token.SubjectID, token.Token, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, value string) (*PasswordResetToken, error) {
	const query = `
        SELECT id, subject_type, subject_id, token, expires_at, used_at, created_at
        FROM password_reset_tokens WHERE token=$1`
	var t PasswordResetToken
	if err := r.db.QueryRow(ctx, query, value).Scan(
		&t.ID, &t.SubjectType, &t.SubjectID, &t.Token, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string) error {
	return expectOne(r.db.Exec(ctx, `UPDATE password_reset_tokens SET used_at=NOW() WHERE id=$1 AND used_at IS NULL`, id))
}
