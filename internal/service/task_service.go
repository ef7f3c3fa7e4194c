package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/events"
	"github.com/spec-kit/team-task-service/internal/repository"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

const (
	msgTaskNotFound        = "Task not found"
	msgAssigneeNotMember   = "Assignee is not a member of this team"
	msgDueDateInPast       = "Due date must be in the future"
	defaultDueSoonDays     = 3
	maxDueSoonDays         = 365
	dashboardDueSoonWindow = defaultDueSoonDays * 24 * time.Hour
)

// TaskService coordinates task workflows.
type TaskService struct {
	tasks       repository.TaskRepository
	memberships repository.MembershipRepository
	authz       *auth.TeamAuthorizer
	dispatcher  events.Dispatcher
	now         Clock
}

// TaskDependencies bundles repositories for task service.
type TaskDependencies struct {
	TaskRepo       repository.TaskRepository
	MembershipRepo repository.MembershipRepository
	Authorizer     *auth.TeamAuthorizer
	Dispatcher     events.Dispatcher
	Clock          Clock
}

// TaskCreateInput describes task creation payload. Empty Status and Priority
// take the todo and medium defaults.
type TaskCreateInput struct {
	TeamID      string
	Title       string
	Description *string
	AssignedTo  *string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

// TaskUpdateInput is a partial task update. Nullable fields accept an explicit null.
type TaskUpdateInput struct {
	Title       *string
	Description Nullable[string]
	AssignedTo  Nullable[string]
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDate     Nullable[time.Time]
}

func (in TaskUpdateInput) empty() bool {
	return in.Title == nil && in.Status == nil && in.Priority == nil &&
		!in.Description.Set && !in.AssignedTo.Set && !in.DueDate.Set
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:       deps.TaskRepo,
		memberships: deps.MembershipRepo,
		authz:       deps.Authorizer,
		dispatcher:  deps.Dispatcher,
		now:         clockOrNow(deps.Clock),
	}
}

// Create adds a task to a team the actor belongs to.
func (s *TaskService) Create(ctx context.Context, actorID string, input TaskCreateInput) (*domain.TaskDetail, error) {
	if _, err := s.authz.RequireMember(ctx, actorID, input.TeamID); err != nil {
		return nil, err
	}
	if input.AssignedTo != nil {
		if err := s.requireAssignee(ctx, *input.AssignedTo, input.TeamID); err != nil {
			return nil, err
		}
	}
	now := s.now()
	if input.DueDate != nil && input.DueDate.Before(now) {
		return nil, apperrors.NewBadRequest(msgDueDateInPast)
	}

	status := input.Status
	if status == "" {
		status = domain.TaskStatusTodo
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}

	task := &domain.Task{
		Title:       strings.TrimSpace(input.Title),
		Description: emptyToNil(input.Description),
		TeamID:      input.TeamID,
		CreatedBy:   actorID,
		AssignedTo:  input.AssignedTo,
		Priority:    priority,
		DueDate:     input.DueDate,
	}
	task.ApplyStatus(status, now)

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTaskCreated,
		TeamID:  task.TeamID,
		ActorID: actorID,
		Payload: events.TaskCreatedPayload{
			TaskID:     task.ID,
			Title:      task.Title,
			Priority:   task.Priority,
			AssignedTo: task.AssignedTo,
		},
	})

	return s.detail(ctx, task.ID)
}

// Get returns a task with display fields when the actor belongs to its team.
func (s *TaskService) Get(ctx context.Context, actorID, taskID string) (*domain.TaskDetail, error) {
	detail, err := s.detail(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.RequireMember(ctx, actorID, detail.TeamID); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListForTeam returns the team's tasks matching filter.
func (s *TaskService) ListForTeam(ctx context.Context, actorID string, filter repository.TaskTeamFilter) ([]domain.TaskDetail, error) {
	if _, err := s.authz.RequireMember(ctx, actorID, filter.TeamID); err != nil {
		return nil, err
	}
	return s.tasks.ListByTeam(ctx, filter)
}

// ListForUser returns tasks the actor created or is assigned to.
func (s *TaskService) ListForUser(ctx context.Context, actorID string, filter repository.TaskUserFilter) ([]domain.TaskDetail, error) {
	filter.UserID = actorID
	return s.tasks.ListByUser(ctx, filter)
}

// DueSoon returns the actor's open assigned tasks due in the next days days.
// Zero days means the default window. A negative window matches nothing.
func (s *TaskService) DueSoon(ctx context.Context, actorID string, days int) ([]domain.TaskDetail, error) {
	if days == 0 {
		days = defaultDueSoonDays
	}
	if days > maxDueSoonDays {
		days = maxDueSoonDays
	}
	now := s.now()
	return s.tasks.ListDueSoon(ctx, actorID, now, now.Add(time.Duration(days)*24*time.Hour))
}

// Overdue returns the actor's open assigned tasks past their due date.
func (s *TaskService) Overdue(ctx context.Context, actorID string) ([]domain.TaskDetail, error) {
	return s.tasks.ListOverdue(ctx, actorID, s.now())
}

// Dashboard summarizes the actor's assigned tasks.
func (s *TaskService) Dashboard(ctx context.Context, actorID string) (*domain.Dashboard, error) {
	stats, err := s.tasks.CountByStatus(ctx, actorID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	dueSoon, err := s.tasks.ListDueSoon(ctx, actorID, now, now.Add(dashboardDueSoonWindow))
	if err != nil {
		return nil, err
	}
	overdue, err := s.tasks.ListOverdue(ctx, actorID, now)
	if err != nil {
		return nil, err
	}

	stats.DueSoon = len(dueSoon)
	stats.Overdue = len(overdue)
	return &domain.Dashboard{Stats: *stats, DueSoon: dueSoon, Overdue: overdue}, nil
}

// Update applies a partial update. Whenever status is present completed_at is
// restamped or cleared, even if the status is unchanged.
func (s *TaskService) Update(ctx context.Context, actorID, taskID string, input TaskUpdateInput) (*domain.TaskDetail, error) {
	if input.empty() {
		return nil, apperrors.NewBadRequest("At least one field is required to update")
	}
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, taskLookupErr(err)
	}
	if _, err := s.authz.RequireMember(ctx, actorID, task.TeamID); err != nil {
		return nil, err
	}

	prevAssignee := task.AssignedTo
	prevStatus := task.Status
	reassigned := false

	if input.AssignedTo.Set {
		next := input.AssignedTo.Value
		if next != nil && (prevAssignee == nil || *prevAssignee != *next) {
			if err := s.requireAssignee(ctx, *next, task.TeamID); err != nil {
				return nil, err
			}
		}
		reassigned = !sameID(prevAssignee, next)
		task.AssignedTo = next
	}

	now := s.now()
	// Unlike Create, a past due date is allowed.
	if input.DueDate.Set {
		task.DueDate = input.DueDate.Value
	}
	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description.Set {
		task.Description = emptyToNil(input.Description.Value)
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		task.ApplyStatus(*input.Status, now)
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, taskLookupErr(err)
	}

	if reassigned {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventTaskAssigned,
			TeamID:  task.TeamID,
			ActorID: actorID,
			Payload: events.TaskAssignedPayload{
				TaskID:       task.ID,
				Title:        task.Title,
				AssigneeID:   task.AssignedTo,
				PrevAssignee: prevAssignee,
			},
		})
	}
	if input.Status != nil && prevStatus != task.Status {
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventTaskStatusChanged,
			TeamID:  task.TeamID,
			ActorID: actorID,
			Payload: events.TaskStatusChangedPayload{TaskID: task.ID, OldStatus: prevStatus, NewStatus: task.Status},
		})
	}

	return s.detail(ctx, task.ID)
}

// Delete soft-deletes a task of a team the actor belongs to.
func (s *TaskService) Delete(ctx context.Context, actorID, taskID string) error {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return taskLookupErr(err)
	}
	if _, err := s.authz.RequireMember(ctx, actorID, task.TeamID); err != nil {
		return err
	}
	if err := s.tasks.SoftDelete(ctx, taskID); err != nil {
		return taskLookupErr(err)
	}
	return nil
}

func (s *TaskService) requireAssignee(ctx context.Context, userID, teamID string) error {
	if _, err := s.memberships.GetActive(ctx, userID, teamID); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewBadRequest(msgAssigneeNotMember)
		}
		return err
	}
	return nil
}

func (s *TaskService) detail(ctx context.Context, taskID string) (*domain.TaskDetail, error) {
	detail, err := s.tasks.GetDetail(ctx, taskID)
	if err != nil {
		return nil, taskLookupErr(err)
	}
	return detail, nil
}

func taskLookupErr(err error) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(msgTaskNotFound)
	}
	return err
}

func sameID(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
