package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/team-task-service/internal/config"
)

func TestNewRedis(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("reachable", func(t *testing.T) {
		s := miniredis.RunT(t)
		r, err := NewRedis(ctx, config.RedisConfig{Addr: s.Addr()}, true, logger)
		require.NoError(t, err)
		defer r.Close()
		assert.NoError(t, r.Ping(ctx))
	})

	t.Run("unreachable and required", func(t *testing.T) {
		s := miniredis.RunT(t)
		addr := s.Addr()
		s.Close()
		_, err := NewRedis(ctx, config.RedisConfig{Addr: addr}, true, logger)
		require.Error(t, err)
	})

	t.Run("unreachable and optional", func(t *testing.T) {
		s := miniredis.RunT(t)
		addr := s.Addr()
		s.Close()
		r, err := NewRedis(ctx, config.RedisConfig{Addr: addr}, false, logger)
		require.NoError(t, err)
		defer r.Close()
		assert.Error(t, r.Ping(ctx))
	})

	t.Run("nil wrapper", func(t *testing.T) {
		var r *Redis
		assert.Error(t, r.Ping(ctx))
	})
}
