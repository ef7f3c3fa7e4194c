package service

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/events"
	"github.com/spec-kit/team-task-service/internal/repository"
)

type taskFixture struct {
	*fixture
	owner    *domain.User
	member   *domain.User
	outsider *domain.User
	team     *domain.Team
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	f := &taskFixture{fixture: newFixture(t)}
	f.owner = f.register(t, "owner@example.com")
	f.member = f.register(t, "member@example.com")
	f.outsider = f.register(t, "outsider@example.com")
	f.team = f.createTeam(t, f.owner.ID, "Platform")
	f.addMember(t, f.owner.ID, f.team.ID, f.member.Email, domain.RoleMember)
	return f
}

func TestTaskService_CreateDefaults(t *testing.T) {
	f := newTaskFixture(t)

	task := f.createTask(t, f.member.ID, TaskCreateInput{
		TeamID:     f.team.ID,
		Title:      " Write docs ",
		AssignedTo: &f.owner.ID,
	})
	assert.Equal(t, "Write docs", task.Title)
	assert.Equal(t, domain.TaskStatusTodo, task.Status)
	assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, f.member.ID, task.CreatedBy)
	require.NotNil(t, task.TeamName)
	assert.Equal(t, "Platform", *task.TeamName)
	require.NotNil(t, task.Assignee.Email)
	assert.Equal(t, "owner@example.com", *task.Assignee.Email)

	payload, ok := f.events.last().Payload.(events.TaskCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, task.ID, payload.TaskID)
}

func TestTaskService_CreateRejects(t *testing.T) {
	f := newTaskFixture(t)

	_, err := f.tasks.Create(f.ctx, f.outsider.ID, TaskCreateInput{TeamID: f.team.ID, Title: "x"})
	requireForbidden(t, err, "You are not a member of this team")

	_, err = f.tasks.Create(f.ctx, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "x", AssignedTo: &f.outsider.ID})
	requireDomainError(t, err, http.StatusBadRequest, "Assignee is not a member of this team")

	past := f.now.Add(-time.Hour)
	_, err = f.tasks.Create(f.ctx, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "x", DueDate: &past})
	requireDomainError(t, err, http.StatusBadRequest, "Due date must be in the future")
}

func TestTaskService_CreateCompletedStampsCompletion(t *testing.T) {
	f := newTaskFixture(t)

	task := f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Done already", Status: domain.TaskStatusCompleted})
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, f.now, *task.CompletedAt)
}

func TestTaskService_StatusTransitionsTrackCompletion(t *testing.T) {
	f := newTaskFixture(t)
	task := f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Ship"})

	completed := domain.TaskStatusCompleted
	updated, err := f.tasks.Update(f.ctx, f.member.ID, task.ID, TaskUpdateInput{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, f.now, *updated.CompletedAt)
	assert.Equal(t, 1, f.events.count(events.EventTaskStatusChanged))

	f.now = f.now.Add(2 * time.Hour)
	resaved, err := f.tasks.Update(f.ctx, f.member.ID, task.ID, TaskUpdateInput{Status: &completed})
	require.NoError(t, err)
	require.NotNil(t, resaved.CompletedAt)
	assert.Equal(t, f.now, *resaved.CompletedAt)
	assert.Equal(t, 1, f.events.count(events.EventTaskStatusChanged))

	todo := domain.TaskStatusTodo
	reopened, err := f.tasks.Update(f.ctx, f.member.ID, task.ID, TaskUpdateInput{Status: &todo})
	require.NoError(t, err)
	assert.Nil(t, reopened.CompletedAt)

	renamed, err := f.tasks.Update(f.ctx, f.member.ID, task.ID, TaskUpdateInput{Title: ptr("Ship v2")})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusTodo, renamed.Status)
	assert.Nil(t, renamed.CompletedAt)
}

func TestTaskService_UpdateValidation(t *testing.T) {
	f := newTaskFixture(t)
	task := f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Ship"})

	_, err := f.tasks.Update(f.ctx, f.owner.ID, task.ID, TaskUpdateInput{})
	requireDomainError(t, err, http.StatusBadRequest, "At least one field is required to update")

	_, err = f.tasks.Update(f.ctx, f.outsider.ID, task.ID, TaskUpdateInput{Title: ptr("mine")})
	requireForbidden(t, err, "You are not a member of this team")

	_, err = f.tasks.Update(f.ctx, f.owner.ID, task.ID, TaskUpdateInput{AssignedTo: Some(f.outsider.ID)})
	requireDomainError(t, err, http.StatusBadRequest, "Assignee is not a member of this team")

	_, err = f.tasks.Update(f.ctx, f.owner.ID, "7f9c1d2e-3b4a-4c5d-8e6f-0a1b2c3d4e5f", TaskUpdateInput{Title: ptr("x")})
	requireDomainError(t, err, http.StatusNotFound, "Task not found")
}

func TestTaskService_Reassignment(t *testing.T) {
	f := newTaskFixture(t)
	task := f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Ship", AssignedTo: &f.member.ID})

	// An unchanged assignee is not revalidated even after they left.
	require.NoError(t, f.members.Leave(f.ctx, f.member.ID, f.team.ID))
	_, err := f.tasks.Update(f.ctx, f.owner.ID, task.ID, TaskUpdateInput{Title: ptr("Ship it"), AssignedTo: Some(f.member.ID)})
	require.NoError(t, err)
	assert.Zero(t, f.events.count(events.EventTaskAssigned))

	unassigned, err := f.tasks.Update(f.ctx, f.owner.ID, task.ID, TaskUpdateInput{AssignedTo: Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssignedTo)

	payload, ok := f.events.last().Payload.(events.TaskAssignedPayload)
	require.True(t, ok)
	assert.Nil(t, payload.AssigneeID)
	require.NotNil(t, payload.PrevAssignee)
	assert.Equal(t, f.member.ID, *payload.PrevAssignee)

	reassigned, err := f.tasks.Update(f.ctx, f.owner.ID, task.ID, TaskUpdateInput{AssignedTo: Some(f.owner.ID)})
	require.NoError(t, err)
	require.NotNil(t, reassigned.AssignedTo)
	assert.Equal(t, f.owner.ID, *reassigned.AssignedTo)
}

func TestTaskService_DueSoonAndOverdue(t *testing.T) {
	f := newTaskFixture(t)
	due := f.now.Add(7 * 24 * time.Hour)
	task := f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Report", AssignedTo: &f.member.ID, DueDate: &due})

	soon, err := f.tasks.DueSoon(f.ctx, f.member.ID, 3)
	require.NoError(t, err)
	assert.Empty(t, soon)

	soon, err = f.tasks.DueSoon(f.ctx, f.member.ID, 10)
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, task.ID, soon[0].ID)

	soon, err = f.tasks.DueSoon(f.ctx, f.owner.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, soon, "only assigned tasks count")

	f.now = f.now.Add(8 * 24 * time.Hour)
	overdue, err := f.tasks.Overdue(f.ctx, f.member.ID)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	completed := domain.TaskStatusCompleted
	_, err = f.tasks.Update(f.ctx, f.member.ID, task.ID, TaskUpdateInput{Status: &completed})
	require.NoError(t, err)

	overdue, err = f.tasks.Overdue(f.ctx, f.member.ID)
	require.NoError(t, err)
	assert.Empty(t, overdue)

	f.now = f.now.Add(-8 * 24 * time.Hour)
	soon, err = f.tasks.DueSoon(f.ctx, f.member.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, soon)
}

func TestTaskService_DueSoonDefaultsWindow(t *testing.T) {
	f := newTaskFixture(t)
	in2d := f.now.Add(2 * 24 * time.Hour)
	in5d := f.now.Add(5 * 24 * time.Hour)
	f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "a", AssignedTo: &f.member.ID, DueDate: &in2d})
	f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "b", AssignedTo: &f.member.ID, DueDate: &in5d})

	soon, err := f.tasks.DueSoon(f.ctx, f.member.ID, 0)
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, "a", soon[0].Title)

	soon, err = f.tasks.DueSoon(f.ctx, f.member.ID, -4)
	require.NoError(t, err)
	assert.Empty(t, soon)

	soon, err = f.tasks.DueSoon(f.ctx, f.member.ID, 10000)
	require.NoError(t, err)
	assert.Len(t, soon, 2)
}

func TestTaskService_UpdateAcceptsPastDueDate(t *testing.T) {
	f := newTaskFixture(t)
	tomorrow := f.now.Add(24 * time.Hour)
	task := f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Backfill", AssignedTo: &f.member.ID, DueDate: &tomorrow})

	yesterday := f.now.Add(-24 * time.Hour)
	updated, err := f.tasks.Update(f.ctx, f.owner.ID, task.ID, TaskUpdateInput{DueDate: Some(yesterday)})
	require.NoError(t, err)
	require.NotNil(t, updated.DueDate)
	assert.True(t, updated.DueDate.Equal(yesterday))

	overdue, err := f.tasks.Overdue(f.ctx, f.member.ID)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, task.ID, overdue[0].ID)
}

func TestTaskService_Dashboard(t *testing.T) {
	f := newTaskFixture(t)
	tomorrow := f.now.Add(24 * time.Hour)
	nextWeek := f.now.Add(7 * 24 * time.Hour)
	assign := func(title string, status domain.TaskStatus, due *time.Time) {
		f.createTask(t, f.owner.ID, TaskCreateInput{
			TeamID:     f.team.ID,
			Title:      title,
			AssignedTo: &f.member.ID,
			Status:     status,
			DueDate:    due,
		})
	}
	assign("a", domain.TaskStatusTodo, &tomorrow)
	assign("b", domain.TaskStatusInProgress, &nextWeek)
	assign("c", domain.TaskStatusReview, nil)
	assign("d", domain.TaskStatusCompleted, &tomorrow)
	f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "unassigned"})

	f.now = f.now.Add(2 * 24 * time.Hour)
	dash, err := f.tasks.Dashboard(f.ctx, f.member.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.TaskStats{
		Total:      4,
		Todo:       1,
		InProgress: 1,
		Review:     1,
		Completed:  1,
		DueSoon:    0,
		Overdue:    1,
	}, dash.Stats)
	require.Len(t, dash.Overdue, 1)
	assert.Equal(t, "a", dash.Overdue[0].Title)
	assert.Empty(t, dash.DueSoon)
}

func TestTaskService_GetAndDelete(t *testing.T) {
	f := newTaskFixture(t)
	task := f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Ship"})

	_, err := f.tasks.Get(f.ctx, f.outsider.ID, task.ID)
	requireForbidden(t, err, "You are not a member of this team")

	requireForbidden(t, f.tasks.Delete(f.ctx, f.outsider.ID, task.ID), "You are not a member of this team")
	require.NoError(t, f.tasks.Delete(f.ctx, f.member.ID, task.ID))

	_, err = f.tasks.Get(f.ctx, f.owner.ID, task.ID)
	requireDomainError(t, err, http.StatusNotFound, "Task not found")
}

func TestTaskService_Listings(t *testing.T) {
	f := newTaskFixture(t)
	high := f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Fix login bug", Priority: domain.TaskPriorityHigh})
	low := f.createTask(t, f.owner.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Tidy readme", Priority: domain.TaskPriorityLow, AssignedTo: &f.member.ID})
	urgent := f.createTask(t, f.member.ID, TaskCreateInput{TeamID: f.team.ID, Title: "Outage", Priority: domain.TaskPriorityUrgent})

	byPriority, err := f.tasks.ListForTeam(f.ctx, f.member.ID, repository.TaskTeamFilter{
		TeamID:    f.team.ID,
		SortBy:    repository.TaskSortPriority,
		SortOrder: repository.SortAsc,
	})
	require.NoError(t, err)
	require.Len(t, byPriority, 3)
	assert.Equal(t, []string{low.ID, high.ID, urgent.ID}, []string{byPriority[0].ID, byPriority[1].ID, byPriority[2].ID})

	search, err := f.tasks.ListForTeam(f.ctx, f.member.ID, repository.TaskTeamFilter{TeamID: f.team.ID, Search: ptr("LOGIN")})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, high.ID, search[0].ID)

	_, err = f.tasks.ListForTeam(f.ctx, f.outsider.ID, repository.TaskTeamFilter{TeamID: f.team.ID})
	requireForbidden(t, err, "You are not a member of this team")

	mine, err := f.tasks.ListForUser(f.ctx, f.member.ID, repository.TaskUserFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	assigned, err := f.tasks.ListForUser(f.ctx, f.member.ID, repository.TaskUserFilter{AssignedToMe: true})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, low.ID, assigned[0].ID)
}
