package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/auth"
	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

var errInvalidCredentials = apperrors.NewUnauthorized("invalid credentials")

// AuthSubject identifies the caller when changing password.
type AuthSubject struct {
	Type domain.SubjectType
	ID   string
}

// Session is an issued access token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	staff      repository.StaffRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	StaffRepo         repository.StaffRepository
	PasswordResetRepo repository.PasswordResetRepository
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		staff:      deps.StaffRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		now:        utcNow,
	}
}

// RegisterUser creates a requester account and signs it in.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*domain.User, *Session, error) {
	email = normalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, nil, err
	}
	user := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	session, err := s.issue(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// LoginUser authenticates a requester.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, *Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, errInvalidCredentials
	}
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, errInvalidCredentials
	}
	if !user.CanSignIn() {
		return nil, nil, apperrors.NewForbidden("account suspended")
	}
	session, err := s.issue(user.ID, domain.SubjectTypeUser, nil)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// LoginStaff authenticates staff and returns a role-bearing token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (*domain.StaffMember, *Session, error) {
	staff, err := s.staff.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, errInvalidCredentials
	}
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(staff.PasswordHash, password); err != nil {
		return nil, nil, errInvalidCredentials
	}
	if !staff.Active {
		return nil, nil, apperrors.NewForbidden("staff account inactive")
	}
	session, err := s.issue(staff.ID, domain.SubjectTypeStaff, &staff.Role)
	if err != nil {
		return nil, nil, err
	}
	return staff, session, nil
}

// RequestPasswordReset persists a reset token for a user or staff email. An
// unknown email yields a nil token and no error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	email = normalizeEmail(email)
	token := &repository.PasswordResetToken{
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		token.SubjectType = domain.SubjectTypeUser
		token.SubjectID = user.ID
	case errors.Is(err, pgx.ErrNoRows):
		staff, staffErr := s.staff.GetByEmail(ctx, email)
		if errors.Is(staffErr, pgx.ErrNoRows) {
			s.logger.Info("password reset for unknown email")
			return nil, nil
		}
		if staffErr != nil {
			return nil, apperrors.MapError(staffErr)
		}
		token.SubjectType = domain.SubjectTypeStaff
		token.SubjectID = staff.ID
	default:
		return nil, apperrors.MapError(err)
	}

	if err := s.resets.Create(ctx, token); err != nil {
		return nil, apperrors.MapError(err)
	}
	return token, nil
}

// ConfirmPasswordReset consumes a reset token and stores the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewValidationError("invalid reset token", nil)
	}
	if err != nil {
		return apperrors.MapError(err)
	}
	if !token.Usable(s.now()) {
		return apperrors.NewValidationError("reset token expired or used", nil)
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	// consume first so a token cannot be replayed concurrently
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("reset token expired or used", nil)
		}
		return apperrors.MapError(err)
	}
	return s.storeHash(ctx, AuthSubject{Type: token.SubjectType, ID: token.SubjectID}, hash)
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, subject AuthSubject, currentPassword, newPassword string) error {
	var current string
	switch subject.Type {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, subject.ID)
		if err != nil {
			return lookupErr(err, "user", subject.ID)
		}
		current = user.PasswordHash
	case domain.SubjectTypeStaff:
		staff, err := s.staff.GetByID(ctx, subject.ID)
		if err != nil {
			return lookupErr(err, "staff", subject.ID)
		}
		current = staff.PasswordHash
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}
	if err := auth.ComparePassword(current, currentPassword); err != nil {
		return errInvalidCredentials
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	return s.storeHash(ctx, subject, hash)
}

// AdminResetPassword lets an admin set a staff member's password directly.
func (s *AuthService) AdminResetPassword(ctx context.Context, actor *domain.StaffMember, staffID, newPassword string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.storeHash(ctx, AuthSubject{Type: domain.SubjectTypeStaff, ID: staffID}, hash); err != nil {
		return err
	}
	s.logger.Info("staff password reset by admin", zap.String("staff_id", staffID), zap.String("actor_id", actor.ID))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) storeHash(ctx context.Context, subject AuthSubject, hash string) error {
	switch subject.Type {
	case domain.SubjectTypeUser:
		user, err := s.users.GetByID(ctx, subject.ID)
		if err != nil {
			return lookupErr(err, "user", subject.ID)
		}
		user.PasswordHash = hash
		return apperrors.MapError(s.users.Update(ctx, user))
	case domain.SubjectTypeStaff:
		staff, err := s.staff.GetByID(ctx, subject.ID)
		if err != nil {
			return lookupErr(err, "staff", subject.ID)
		}
		staff.PasswordHash = hash
		return apperrors.MapError(s.staff.Update(ctx, staff))
	}
	return apperrors.NewValidationError("unknown subject type", map[string]any{"subject_type": subject.Type})
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if errors.Is(err, auth.ErrWeakPassword) {
		return "", apperrors.NewValidationError(err.Error(), nil)
	}
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func (s *AuthService) issue(subjectID string, subject domain.SubjectType, role *domain.StaffRole) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(subjectID, subject, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{Token: token, ExpiresAt: exp}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
