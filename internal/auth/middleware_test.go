package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/repository"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

type stubUsers map[string]*domain.User

func (s stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func newMiddlewareApp(t *testing.T) (*fiber.App, repository.SessionRepository, *SessionSigner) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := repository.NewRedisSessionRepository(client)
	signer := NewSessionSigner("test-secret")
	users := stubUsers{
		"u1": {ID: "u1", Email: "a@example.com", IsActive: true},
		"u2": {ID: "u2", Email: "b@example.com", IsActive: false},
	}
	mw := NewSessionMiddleware(signer, sessions, users, "sessionId")

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Message)
		},
	})
	app.Get("/private", mw.Handle, func(c *fiber.Ctx) error {
		p, err := RequirePrincipal(c)
		if err != nil {
			return err
		}
		return c.SendString(p.User.ID)
	})
	app.Get("/optional", mw.Optional, func(c *fiber.Ctx) error {
		_, ok := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"authenticated": ok})
	})
	return app, sessions, signer
}

func cookieFor(t *testing.T, sessions repository.SessionRepository, signer *SessionSigner, userID string) string {
	t.Helper()
	session, err := sessions.Create(context.Background(), userID, time.Hour)
	require.NoError(t, err)
	token, err := signer.Sign(session)
	require.NoError(t, err)
	return token
}

func TestSessionMiddleware(t *testing.T) {
	app, sessions, signer := newMiddlewareApp(t)

	do := func(path, cookie string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "sessionId", Value: cookie})
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("no cookie", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("/private", "").StatusCode)
	})

	t.Run("valid session", func(t *testing.T) {
		resp := do("/private", cookieFor(t, sessions, signer, "u1"))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("forged cookie", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("/private", "forged").StatusCode)
	})

	t.Run("deleted session", func(t *testing.T) {
		token := cookieFor(t, sessions, signer, "u1")
		sid, err := signer.Parse(token)
		require.NoError(t, err)
		require.NoError(t, sessions.Delete(context.Background(), sid))
		assert.Equal(t, http.StatusUnauthorized, do("/private", token).StatusCode)
	})

	t.Run("deactivated user", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("/private", cookieFor(t, sessions, signer, "u2")).StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("/private", cookieFor(t, sessions, signer, "ghost")).StatusCode)
	})

	t.Run("optional without session", func(t *testing.T) {
		resp := do("/optional", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.False(t, body["authenticated"])
	})

	t.Run("optional with session", func(t *testing.T) {
		resp := do("/optional", cookieFor(t, sessions, signer, "u1"))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body["authenticated"])
	})
}
