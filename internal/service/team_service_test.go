package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/events"
	"github.com/spec-kit/team-task-service/internal/repository"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

func TestTeamService_CreateMakesCreatorOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	team, err := f.teams.Create(f.ctx, owner.ID, TeamCreateInput{Name: " Platform ", Description: ptr("  ")})
	require.NoError(t, err)
	assert.Equal(t, "Platform", team.Name)
	assert.Nil(t, team.Description)

	membership, err := f.store.Memberships().GetActive(f.ctx, owner.ID, team.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, membership.Role)
	assert.Equal(t, domain.MembershipStatusActive, membership.Status)

	detail, err := f.teams.Get(f.ctx, owner.ID, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.MemberCount)
	assert.Equal(t, 0, detail.TaskCount)
	require.NotNil(t, detail.Creator.Email)
	assert.Equal(t, "owner@example.com", *detail.Creator.Email)

	teams, err := f.teams.ListForUser(f.ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, domain.RoleOwner, teams[0].Role)

	assert.Equal(t, events.EventTeamCreated, f.events.last().Type)
}

type failingOwnerTx struct {
	inner  repository.Transactor
	teamID string
}

func (f *failingOwnerTx) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.TxRepositories) error) error {
	return f.inner.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		repos.Memberships = failingMembershipCreate{MembershipRepository: repos.Memberships, tx: f}
		return fn(ctx, repos)
	})
}

type failingMembershipCreate struct {
	repository.MembershipRepository
	tx *failingOwnerTx
}

func (r failingMembershipCreate) Create(_ context.Context, m *domain.Membership) error {
	r.tx.teamID = m.TeamID
	return errors.New("insert failed")
}

func TestTeamService_CreateRollsBackWhenOwnerInsertFails(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")

	tx := &failingOwnerTx{inner: f.store.Transactor()}
	svc := NewTeamService(TeamDependencies{
		TeamRepo:       f.store.Teams(),
		MembershipRepo: f.store.Memberships(),
		Transactor:     tx,
		Authorizer:     auth.NewTeamAuthorizer(f.store.Memberships()),
		Dispatcher:     f.events,
	})

	_, err := svc.Create(f.ctx, owner.ID, TeamCreateInput{Name: "Doomed"})
	require.Error(t, err)
	require.NotEmpty(t, tx.teamID)

	_, err = f.store.Teams().GetByID(f.ctx, tx.teamID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Zero(t, f.events.count(events.EventTeamCreated))
}

func TestTeamService_GetRequiresMembership(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	outsider := f.register(t, "outsider@example.com")
	team := f.createTeam(t, owner.ID, "Platform")

	_, err := f.teams.Get(f.ctx, outsider.ID, team.ID)
	requireForbidden(t, err, "You are not a member of this team")

	_, err = f.teams.Get(f.ctx, owner.ID, "7f9c1d2e-3b4a-4c5d-8e6f-0a1b2c3d4e5f")
	requireDomainError(t, err, http.StatusNotFound, "Team not found")

	_, err = f.teams.Members(f.ctx, outsider.ID, team.ID)
	requireForbidden(t, err, "You are not a member of this team")
}

func TestTeamService_UpdateIsOwnerOnly(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	admin := f.register(t, "admin@example.com")
	team, err := f.teams.Create(f.ctx, owner.ID, TeamCreateInput{Name: "Platform", Description: ptr("Infra")})
	require.NoError(t, err)
	f.addMember(t, owner.ID, team.ID, admin.Email, domain.RoleAdmin)

	_, err = f.teams.Update(f.ctx, admin.ID, team.ID, TeamUpdateInput{Name: ptr("Hijacked")})
	requireForbidden(t, err, "Only team owner can update team")

	_, err = f.teams.Update(f.ctx, owner.ID, team.ID, TeamUpdateInput{})
	requireDomainError(t, err, http.StatusBadRequest, "")

	updated, err := f.teams.Update(f.ctx, owner.ID, team.ID, TeamUpdateInput{
		Name:        ptr("Core Platform"),
		Description: Null[string](),
	})
	require.NoError(t, err)
	assert.Equal(t, "Core Platform", updated.Name)
	assert.Nil(t, updated.Description)
}

func TestTeamService_DeleteIsSoftAndKeepsTasks(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	member := f.register(t, "member@example.com")
	outsider := f.register(t, "outsider@example.com")
	team := f.createTeam(t, owner.ID, "Platform")
	f.addMember(t, owner.ID, team.ID, member.Email, domain.RoleMember)
	task := f.createTask(t, owner.ID, TaskCreateInput{TeamID: team.ID, Title: "Ship it"})

	requireForbidden(t, f.teams.Delete(f.ctx, member.ID, team.ID), "Only team owner can delete team")
	requireForbidden(t, f.teams.Delete(f.ctx, outsider.ID, team.ID), "Only team owner can delete team")

	require.NoError(t, f.teams.Delete(f.ctx, owner.ID, team.ID))

	_, err := f.teams.Get(f.ctx, owner.ID, team.ID)
	requireDomainError(t, err, http.StatusNotFound, "Team not found")

	teams, err := f.teams.ListForUser(f.ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, teams)

	stored, err := f.store.Tasks().GetByID(f.ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}

func TestTeamService_MembersOrderedByRole(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "owner@example.com")
	member := f.register(t, "member@example.com")
	admin := f.register(t, "admin@example.com")
	team := f.createTeam(t, owner.ID, "Platform")
	f.addMember(t, owner.ID, team.ID, member.Email, domain.RoleMember)
	f.addMember(t, owner.ID, team.ID, admin.Email, domain.RoleAdmin)

	members, err := f.teams.Members(f.ctx, member.ID, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	var roles []domain.Role
	for _, m := range members {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []domain.Role{domain.RoleOwner, domain.RoleAdmin, domain.RoleMember}, roles)
	assert.Equal(t, "member@example.com", members[2].Email)
}
