package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository maps opaque session ids to users. Get never returns an
// expired session.
type SessionRepository interface {
	Create(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// sessionPayload is the JSON stored for a session.
type sessionPayload struct {
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newSession(userID string, ttl time.Duration, now time.Time) *domain.Session {
	return &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (p sessionPayload) toSession(id string) *domain.Session {
	return &domain.Session{ID: id, UserID: p.UserID, CreatedAt: p.CreatedAt, ExpiresAt: p.ExpiresAt}
}

type pgSessionRepository struct {
	db  DBTX
	now func() time.Time
}

// NewSessionRepository stores sessions in the session table.
func NewSessionRepository(db DBTX) SessionRepository {
	return &pgSessionRepository{db: db, now: time.Now}
}

func (r *pgSessionRepository) Create(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	session := newSession(userID, ttl, r.now())
	sess, err := json.Marshal(sessionPayload{UserID: userID, CreatedAt: session.CreatedAt, ExpiresAt: session.ExpiresAt})
	if err != nil {
		return nil, err
	}

	const query = `INSERT INTO session (sid, sess, expire) VALUES ($1, $2, $3)`
	if _, err := r.db.Exec(ctx, query, session.ID, sess, session.ExpiresAt); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *pgSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var (
		raw    []byte
		expire time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT sess, expire FROM session WHERE sid=$1`, id).Scan(&raw, &expire)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	payload.ExpiresAt = expire

	session := payload.toSession(id)
	if session.Expired(r.now()) {
		_ = r.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *pgSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM session WHERE sid=$1`, id)
	return err
}
