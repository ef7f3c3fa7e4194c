package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/config"
	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/repository"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

const (
	msgEmailTaken         = "Email already registered"
	msgInvalidCredentials = "Invalid email or password"
	msgAccountDeactivated = "Account is deactivated"
	msgUserNotFound       = "User not found"
)

// AuthService coordinates registration, login and session lifecycle.
type AuthService struct {
	users       repository.UserRepository
	sessions    repository.SessionRepository
	memberships repository.MembershipRepository
	bcryptCost  int
	sessionTTL  time.Duration
	now         Clock
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo       repository.UserRepository
	SessionRepo    repository.SessionRepository
	MembershipRepo repository.MembershipRepository
	Clock          Clock
}

// RegisterInput is a validated registration payload.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		sessions:    deps.SessionRepo,
		memberships: deps.MembershipRepo,
		bcryptCost:  cfg.Auth.BcryptCost,
		sessionTTL:  cfg.Session.MaxAge(),
		now:         clockOrNow(deps.Clock),
	}
}

// Register creates an account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.Session, error) {
	email := normalizeEmail(input.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict(msgEmailTaken)
	} else if !apperrors.IsNotFound(err) {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return nil, nil, apperrors.NewValidationError("Password must be at most 72 bytes",
			map[string]any{"password": "too long"})
	}
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, nil, apperrors.NewConflict(msgEmailTaken)
		}
		return nil, nil, err
	}

	session, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Login verifies credentials, stamps last_login_at and opens a session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewUnauthorized(msgInvalidCredentials)
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperrors.NewUnauthorized(msgAccountDeactivated)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized(msgInvalidCredentials)
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, nil, err
	}
	user.LastLoginAt = &now

	session, err := s.sessions.Create(ctx, user.ID, s.sessionTTL)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// Logout destroys the session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Profile returns the user with their active team memberships.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, []domain.UserMembership, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil, apperrors.NewNotFound(msgUserNotFound)
		}
		return nil, nil, err
	}
	memberships, err := s.memberships.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, memberships, nil
}

// SetUserActive enables or soft-disables an account by email.
func (s *AuthService) SetUserActive(ctx context.Context, email string, active bool) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound(msgUserNotFound)
		}
		return nil, err
	}
	if err := s.users.SetActive(ctx, user.ID, active); err != nil {
		return nil, err
	}
	user.IsActive = active
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
