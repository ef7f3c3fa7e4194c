package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-task-service/internal/config"
)

// CookieSettings describes how the session cookie is issued.
type CookieSettings struct {
	Name   string
	Secure bool
	// SameSite is None in production so a separately hosted frontend can send it.
	SameSite string
}

// NewCookieSettings derives cookie attributes from configuration.
func NewCookieSettings(app config.AppConfig, session config.SessionConfig) CookieSettings {
	settings := CookieSettings{Name: session.CookieName, SameSite: fiber.CookieSameSiteLaxMode}
	if app.IsProduction() {
		settings.Secure = true
		settings.SameSite = fiber.CookieSameSiteNoneMode
	}
	return settings
}

// SessionCookie builds the cookie carrying a signed session token.
func (s CookieSettings) SessionCookie(value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     s.Name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	}
}

// ClearCookie expires the session cookie on the client.
func (s CookieSettings) ClearCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	}
}
