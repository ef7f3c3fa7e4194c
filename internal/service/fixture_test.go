package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/config"
	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/events"
	"github.com/spec-kit/team-task-service/internal/repository/memrepo"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) last() events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.events) == 0 {
		return events.Event{}
	}
	return d.events[len(d.events)-1]
}

func (d *recordingDispatcher) count(eventType events.EventType) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, e := range d.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type fixture struct {
	ctx     context.Context
	now     time.Time
	store   *memrepo.Store
	events  *recordingDispatcher
	auth    *AuthService
	teams   *TeamService
	members *MembershipService
	tasks   *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:    context.Background(),
		now:    time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC),
		events: &recordingDispatcher{},
	}
	clock := func() time.Time { return f.now }
	f.store = memrepo.New(clock)
	authz := auth.NewTeamAuthorizer(f.store.Memberships())

	cfg := config.Config{
		Auth:    config.AuthConfig{BcryptCost: bcrypt.MinCost},
		Session: config.SessionConfig{MaxAgeMinutes: 60},
	}
	f.auth = NewAuthService(cfg, AuthDependencies{
		UserRepo:       f.store.Users(),
		SessionRepo:    f.store.Sessions(),
		MembershipRepo: f.store.Memberships(),
		Clock:          clock,
	})
	f.teams = NewTeamService(TeamDependencies{
		TeamRepo:       f.store.Teams(),
		MembershipRepo: f.store.Memberships(),
		Transactor:     f.store.Transactor(),
		Authorizer:     authz,
		Dispatcher:     f.events,
	})
	f.members = NewMembershipService(MembershipDependencies{
		MembershipRepo: f.store.Memberships(),
		TeamRepo:       f.store.Teams(),
		UserRepo:       f.store.Users(),
		Authorizer:     authz,
		Dispatcher:     f.events,
	})
	f.tasks = NewTaskService(TaskDependencies{
		TaskRepo:       f.store.Tasks(),
		MembershipRepo: f.store.Memberships(),
		Authorizer:     authz,
		Dispatcher:     f.events,
		Clock:          clock,
	})
	return f
}

func (f *fixture) register(t *testing.T, email string) *domain.User {
	t.Helper()
	user, _, err := f.auth.Register(f.ctx, RegisterInput{
		Email:     email,
		Password:  "Password1",
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) createTeam(t *testing.T, ownerID, name string) *domain.Team {
	t.Helper()
	team, err := f.teams.Create(f.ctx, ownerID, TeamCreateInput{Name: name})
	require.NoError(t, err)
	return team
}

func (f *fixture) addMember(t *testing.T, inviterID, teamID, email string, role domain.Role) *domain.Membership {
	t.Helper()
	membership, err := f.members.AddMember(f.ctx, inviterID, teamID, email, role)
	require.NoError(t, err)
	return membership
}

func (f *fixture) createTask(t *testing.T, actorID string, input TaskCreateInput) *domain.TaskDetail {
	t.Helper()
	task, err := f.tasks.Create(f.ctx, actorID, input)
	require.NoError(t, err)
	return task
}

func requireDomainError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, status, de.HTTPStatus)
	if message != "" {
		assert.Equal(t, message, de.Message)
	}
}

func requireForbidden(t *testing.T, err error, message string) {
	t.Helper()
	requireDomainError(t, err, http.StatusForbidden, message)
}

func ptr[T any](v T) *T { return &v }
