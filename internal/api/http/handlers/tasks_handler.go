package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/team-task-service/internal/api/dto"
	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/repository"
	"github.com/spec-kit/team-task-service/internal/service"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
	"github.com/spec-kit/team-task-service/pkg/util/validation"
)

const (
	defaultDueSoonDays = 3
	maxSearchLength    = 100
)

// TasksHandler manages task endpoints.
type TasksHandler struct {
	tasks *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{tasks: taskService}
}

// Create POST /tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	var req dto.CreateTaskRequest
	if err := parseBody(c, &req, func() {
		req.Title = validation.StripTags(req.Title)
		req.Description = validation.StripTagsPtr(req.Description)
	}); err != nil {
		return err
	}

	task, err := h.tasks.Create(c.UserContext(), actor, service.TaskCreateInput{
		TeamID:      req.TeamID,
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "Task created successfully", fiber.Map{"task": dto.NewTaskResponse(task)})
}

// List GET /tasks returns tasks the caller created or is assigned to.
func (h *TasksHandler) List(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}

	var filter repository.TaskUserFilter
	if teamID := c.Query("team_id"); teamID != "" {
		if !validation.IsUUID(teamID) {
			return apperrors.NewBadRequest("Invalid team ID format")
		}
		filter.TeamID = &teamID
	}
	if filter.Status, err = statusQuery(c); err != nil {
		return err
	}
	if filter.Priority, err = priorityQuery(c); err != nil {
		return err
	}
	if filter.Search, err = searchQuery(c); err != nil {
		return err
	}
	filter.AssignedToMe = c.QueryBool("assigned_to_me", false)
	filter.Limit, filter.Offset = pagination(c)

	tasks, err := h.tasks.ListForUser(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", fiber.Map{"tasks": dto.NewTaskResponses(tasks)})
}

// ListForTeam GET /teams/:teamId/tasks.
func (h *TasksHandler) ListForTeam(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	teamID, err := uuidParam(c, "teamId", "team")
	if err != nil {
		return err
	}

	filter := repository.TaskTeamFilter{TeamID: teamID}
	if filter.Status, err = statusQuery(c); err != nil {
		return err
	}
	if filter.Priority, err = priorityQuery(c); err != nil {
		return err
	}
	if filter.Search, err = searchQuery(c); err != nil {
		return err
	}
	if assignee := c.Query("assigned_to"); assignee != "" {
		if !validation.IsUUID(assignee) {
			return apperrors.NewBadRequest("Invalid assignee ID format")
		}
		filter.AssignedTo = &assignee
	}
	if creator := c.Query("created_by"); creator != "" {
		if !validation.IsUUID(creator) {
			return apperrors.NewBadRequest("Invalid creator ID format")
		}
		filter.CreatedBy = &creator
	}
	if filter.SortBy, filter.SortOrder, err = sortQuery(c); err != nil {
		return err
	}
	filter.Limit, filter.Offset = pagination(c)

	tasks, err := h.tasks.ListForTeam(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", fiber.Map{"tasks": dto.NewTaskResponses(tasks)})
}

// Dashboard GET /tasks/dashboard.
func (h *TasksHandler) Dashboard(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	dashboard, err := h.tasks.Dashboard(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", dto.NewDashboardResponse(dashboard))
}

// DueSoon GET /tasks/due-soon?days=N.
func (h *TasksHandler) DueSoon(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	days, err := strconv.Atoi(c.Query("days"))
	if err != nil {
		days = defaultDueSoonDays
	}
	tasks, err := h.tasks.DueSoon(c.UserContext(), actor, days)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", fiber.Map{"tasks": dto.NewTaskResponses(tasks)})
}

// Overdue GET /tasks/overdue.
func (h *TasksHandler) Overdue(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	tasks, err := h.tasks.Overdue(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", fiber.Map{"tasks": dto.NewTaskResponses(tasks)})
}

// Get GET /tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	taskID, err := uuidParam(c, "id", "task")
	if err != nil {
		return err
	}
	task, err := h.tasks.Get(c.UserContext(), actor, taskID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "", fiber.Map{"task": dto.NewTaskResponse(task)})
}

// Update PUT /tasks/:id.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	taskID, err := uuidParam(c, "id", "task")
	if err != nil {
		return err
	}
	var req dto.UpdateTaskRequest
	if err := parseBody(c, &req, func() {
		req.Title = validation.StripTagsPtr(req.Title)
	}); err != nil {
		return err
	}

	input := service.TaskUpdateInput{
		Title:       req.Title,
		Description: optionalText(req.Description),
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if err := maxLen("Description", input.Description.Value, 2000); err != nil {
		return err
	}
	if req.AssignedTo.Set {
		if req.AssignedTo.Value == nil || *req.AssignedTo.Value == "" {
			input.AssignedTo = service.Null[string]()
		} else if !validation.IsUUID(*req.AssignedTo.Value) {
			return apperrors.NewBadRequest("Invalid assignee ID format")
		} else {
			input.AssignedTo = service.Some(*req.AssignedTo.Value)
		}
	}
	if req.DueDate.Set {
		if req.DueDate.Value == nil {
			input.DueDate = service.Null[time.Time]()
		} else {
			input.DueDate = service.Some(*req.DueDate.Value)
		}
	}

	task, err := h.tasks.Update(c.UserContext(), actor, taskID, input)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Task updated successfully", fiber.Map{"task": dto.NewTaskResponse(task)})
}

// Delete DELETE /tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorID(c)
	if err != nil {
		return err
	}
	taskID, err := uuidParam(c, "id", "task")
	if err != nil {
		return err
	}
	if err := h.tasks.Delete(c.UserContext(), actor, taskID); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Task deleted successfully", nil)
}

func statusQuery(c *fiber.Ctx) (*domain.TaskStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return nil, nil
	}
	status := domain.TaskStatus(raw)
	if !status.Valid() {
		return nil, apperrors.NewBadRequest("Invalid status")
	}
	return &status, nil
}

func priorityQuery(c *fiber.Ctx) (*domain.TaskPriority, error) {
	raw := c.Query("priority")
	if raw == "" {
		return nil, nil
	}
	priority := domain.TaskPriority(raw)
	if !priority.Valid() {
		return nil, apperrors.NewBadRequest("Invalid priority")
	}
	return &priority, nil
}

func searchQuery(c *fiber.Ctx) (*string, error) {
	search := strings.TrimSpace(c.Query("search"))
	if search == "" {
		return nil, nil
	}
	if len([]rune(search)) > maxSearchLength {
		return nil, apperrors.NewBadRequest("Search term must not exceed 100 characters")
	}
	return &search, nil
}

func sortQuery(c *fiber.Ctx) (repository.TaskSortField, repository.SortOrder, error) {
	field := repository.TaskSortCreatedAt
	if raw := c.Query("sortBy"); raw != "" {
		switch f := repository.TaskSortField(raw); f {
		case repository.TaskSortCreatedAt, repository.TaskSortDueDate, repository.TaskSortPriority, repository.TaskSortStatus:
			field = f
		default:
			return "", "", apperrors.NewBadRequest("Invalid sort field")
		}
	}
	order := repository.SortDesc
	switch strings.ToLower(c.Query("sortOrder")) {
	case "", "desc":
	case "asc":
		order = repository.SortAsc
	default:
		return "", "", apperrors.NewBadRequest("Invalid sort order")
	}
	return field, order, nil
}
