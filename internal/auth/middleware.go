package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/repository"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"
	// UserIDKey holds the authenticated user id as a string for request logging.
	UserIDKey = "user_id"
)

const msgLoginRequired = "Please log in to access this resource"

// Principal represents the authenticated caller.
type Principal struct {
	User    *domain.User
	Session *domain.Session
}

// UserLookup loads accounts by id.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// SessionMiddleware resolves the session cookie into a Principal.
type SessionMiddleware struct {
	signer   *SessionSigner
	sessions repository.SessionRepository
	users    UserLookup
	cookie   string
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(signer *SessionSigner, sessions repository.SessionRepository, users UserLookup, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{signer: signer, sessions: sessions, users: users, cookie: cookieName}
}

// Handle enforces authentication for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.resolve(c)
	if err != nil {
		return err
	}
	if principal == nil {
		return apperrors.NewUnauthorized(msgLoginRequired)
	}
	setPrincipal(c, principal)
	return c.Next()
}

// Optional loads the principal when a valid session exists and continues either way.
func (m *SessionMiddleware) Optional(c *fiber.Ctx) error {
	principal, err := m.resolve(c)
	if err != nil {
		return err
	}
	if principal != nil {
		setPrincipal(c, principal)
	}
	return c.Next()
}

func setPrincipal(c *fiber.Ctx, principal *Principal) {
	c.Locals(principalKey, principal)
	c.Locals(UserIDKey, principal.User.ID)
}

// resolve returns nil without error when the request carries no usable session.
func (m *SessionMiddleware) resolve(c *fiber.Ctx) (*Principal, error) {
	value := c.Cookies(m.cookie)
	if value == "" {
		return nil, nil
	}
	sid, err := m.signer.Parse(value)
	if err != nil {
		return nil, nil
	}

	ctx := c.UserContext()
	session, err := m.sessions.Get(ctx, sid)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return &Principal{User: user, Session: session}, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil && principal.User != nil
}

// RequirePrincipal returns the authenticated principal or Unauthorized.
func RequirePrincipal(c *fiber.Ctx) (*Principal, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized(msgLoginRequired)
	}
	return principal, nil
}
