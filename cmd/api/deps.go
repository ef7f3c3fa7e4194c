package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/config"
	"github.com/spec-kit/team-task-service/internal/events"
	"github.com/spec-kit/team-task-service/internal/persistence"
	"github.com/spec-kit/team-task-service/internal/repository"
	"github.com/spec-kit/team-task-service/internal/service"
	"github.com/spec-kit/team-task-service/migrations"
)

// stack is the storage and service graph shared by every command.
type stack struct {
	postgres *persistence.Postgres
	redis    *persistence.Redis

	users    repository.UserRepository
	sessions repository.SessionRepository

	dispatcher events.Dispatcher
	auth       *service.AuthService
	teams      *service.TeamService
	members    *service.MembershipService
	tasks      *service.TaskService
}

// needsRedis reports whether any configured component depends on Redis.
func needsRedis(c *config.Config) bool {
	return c.Session.Store == config.SessionStoreRedis || c.RateLimit.UseRedis
}

func openStack(ctx context.Context, c *config.Config, log *zap.Logger) (*stack, error) {
	pg, err := persistence.NewPostgres(ctx, c.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if c.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), migrations.FS, log); err != nil {
			pg.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	s := &stack{postgres: pg}
	if needsRedis(c) {
		s.redis, err = persistence.NewRedis(ctx, c.Redis, true, log)
		if err != nil {
			pg.Close()
			return nil, err
		}
	}

	pool := pg.PoolHandle()
	s.users = repository.NewUserRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	membershipRepo := repository.NewMembershipRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)

	if c.Session.Store == config.SessionStoreRedis {
		s.sessions = repository.NewRedisSessionRepository(s.redis.Client)
	} else {
		s.sessions = repository.NewSessionRepository(pool)
	}

	s.dispatcher = events.NewInMemoryDispatcher(log)
	authz := auth.NewTeamAuthorizer(membershipRepo)

	s.auth = service.NewAuthService(*c, service.AuthDependencies{
		UserRepo:       s.users,
		SessionRepo:    s.sessions,
		MembershipRepo: membershipRepo,
	})
	s.teams = service.NewTeamService(service.TeamDependencies{
		TeamRepo:       teamRepo,
		MembershipRepo: membershipRepo,
		Transactor:     repository.NewTransactor(pool),
		Authorizer:     authz,
		Dispatcher:     s.dispatcher,
	})
	s.members = service.NewMembershipService(service.MembershipDependencies{
		MembershipRepo: membershipRepo,
		TeamRepo:       teamRepo,
		UserRepo:       s.users,
		Authorizer:     authz,
		Dispatcher:     s.dispatcher,
	})
	s.tasks = service.NewTaskService(service.TaskDependencies{
		TaskRepo:       taskRepo,
		MembershipRepo: membershipRepo,
		Authorizer:     authz,
		Dispatcher:     s.dispatcher,
	})
	return s, nil
}

func (s *stack) Close() {
	s.redis.Close()
	s.postgres.Close()
}
