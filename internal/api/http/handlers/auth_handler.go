package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-task-service/internal/api/dto"
	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/service"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
	"github.com/spec-kit/team-task-service/pkg/util/validation"
)

// AuthHandler exposes registration, login and session endpoints.
type AuthHandler struct {
	auth    *service.AuthService
	signer  *auth.SessionSigner
	cookies auth.CookieSettings
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, signer *auth.SessionSigner, cookies auth.CookieSettings) *AuthHandler {
	return &AuthHandler{auth: authService, signer: signer, cookies: cookies}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, &req, func() {
		req.FirstName = validation.StripTags(req.FirstName)
		req.LastName = validation.StripTags(req.LastName)
	}); err != nil {
		return err
	}

	user, session, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return err
	}
	if err := h.setSessionCookie(c, session); err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Registration successful", fiber.Map{"user": dto.NewUserResponse(user)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req, nil); err != nil {
		return err
	}

	user, session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := h.setSessionCookie(c, session); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Login successful", fiber.Map{"user": dto.NewUserResponse(user)})
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, err := auth.RequirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.auth.Logout(c.UserContext(), principal.Session.ID); err != nil {
		return err
	}
	c.Cookie(h.cookies.ClearCookie())
	return respond(c, http.StatusOK, "Logout successful", nil)
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, err := actorID(c)
	if err != nil {
		return err
	}
	user, memberships, err := h.auth.Profile(c.UserContext(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", fiber.Map{"user": dto.NewProfileResponse(user, memberships)})
}

// Status handles GET /auth/status. It never fails for anonymous callers.
func (h *AuthHandler) Status(c *fiber.Ctx) error {
	resp := dto.AuthStatusResponse{}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		user := dto.NewUserResponse(principal.User)
		resp.IsAuthenticated = true
		resp.User = &user
	}
	return respond(c, http.StatusOK, "", resp)
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, session *domain.Session) error {
	value, err := h.signer.Sign(session)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	c.Cookie(h.cookies.SessionCookie(value, session.ExpiresAt))
	return nil
}
