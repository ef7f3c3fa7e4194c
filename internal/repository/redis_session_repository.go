package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/team-task-service/internal/domain"
)

const sessionKeyPrefix = "session:"

type redisSessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisSessionRepository stores sessions as JSON strings with a TTL.
func NewRedisSessionRepository(client *redis.Client) SessionRepository {
	return &redisSessionRepository{client: client, now: time.Now}
}

func (r *redisSessionRepository) Create(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	session := newSession(userID, ttl, r.now())
	payload, err := json.Marshal(sessionPayload{UserID: userID, CreatedAt: session.CreatedAt, ExpiresAt: session.ExpiresAt})
	if err != nil {
		return nil, err
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *redisSessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var payload sessionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	session := payload.toSession(id)
	if session.Expired(r.now()) {
		_ = r.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}
