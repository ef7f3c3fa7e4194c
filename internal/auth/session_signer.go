package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// ErrInvalidSessionToken is returned for cookies that fail verification.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionSigner signs the session id carried in the cookie so clients cannot
// forge or tamper with it. The token holds only the opaque id.
type SessionSigner struct {
	secret []byte
	now    func() time.Time
}

// NewSessionSigner builds a signer for the given secret.
func NewSessionSigner(secret string) *SessionSigner {
	return &SessionSigner{secret: []byte(secret), now: time.Now}
}

// Sign returns the cookie value for session.
func (s *SessionSigner) Sign(session *domain.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies value and returns the session id it carries.
func (s *SessionSigner) Parse(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", ErrInvalidSessionToken
	}
	return claims.ID, nil
}
