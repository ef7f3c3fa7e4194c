package dto

import (
	"time"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// CreateTaskRequest payload.
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"required,min=1,max=255"`
	Description *string             `json:"description" validate:"omitempty,max=2000"`
	TeamID      string              `json:"team_id" validate:"required,uuid"`
	AssignedTo  *string             `json:"assigned_to" validate:"omitempty,uuid"`
	Status      domain.TaskStatus   `json:"status" validate:"omitempty,oneof=todo in_progress review completed"`
	Priority    domain.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *time.Time          `json:"due_date"`
}

// UpdateTaskRequest is a partial update. description, assigned_to and due_date accept null.
type UpdateTaskRequest struct {
	Title       *string              `json:"title" validate:"omitempty,min=1,max=255"`
	Description Optional[string]     `json:"description"`
	AssignedTo  Optional[string]     `json:"assigned_to"`
	Status      *domain.TaskStatus   `json:"status" validate:"omitempty,oneof=todo in_progress review completed"`
	Priority    *domain.TaskPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     Optional[time.Time]  `json:"due_date"`
}

// TaskResponse is a task with joined display fields. Joined fields are omitted
// when the listing does not load them.
type TaskResponse struct {
	ID                string              `json:"id"`
	Title             string              `json:"title"`
	Description       *string             `json:"description"`
	TeamID            string              `json:"team_id"`
	CreatedBy         string              `json:"created_by"`
	AssignedTo        *string             `json:"assigned_to"`
	Status            domain.TaskStatus   `json:"status"`
	Priority          domain.TaskPriority `json:"priority"`
	DueDate           *time.Time          `json:"due_date"`
	CompletedAt       *time.Time          `json:"completed_at"`
	IsActive          bool                `json:"is_active"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	CreatorFirstName  *string             `json:"creator_first_name,omitempty"`
	CreatorLastName   *string             `json:"creator_last_name,omitempty"`
	CreatorEmail      *string             `json:"creator_email,omitempty"`
	AssigneeFirstName *string             `json:"assignee_first_name,omitempty"`
	AssigneeLastName  *string             `json:"assignee_last_name,omitempty"`
	AssigneeEmail     *string             `json:"assignee_email,omitempty"`
	TeamName          *string             `json:"team_name,omitempty"`
}

// TaskStatsResponse counts the caller's assigned tasks.
type TaskStatsResponse struct {
	Total      int `json:"total"`
	Todo       int `json:"todo"`
	InProgress int `json:"in_progress"`
	Review     int `json:"review"`
	Completed  int `json:"completed"`
	DueSoon    int `json:"due_soon"`
	Overdue    int `json:"overdue"`
}

// DashboardResponse is the caller's task summary.
type DashboardResponse struct {
	Stats   TaskStatsResponse `json:"stats"`
	DueSoon []TaskResponse    `json:"due_soon"`
	Overdue []TaskResponse    `json:"overdue"`
}

// NewTaskResponse maps a task detail.
func NewTaskResponse(t *domain.TaskDetail) TaskResponse {
	return TaskResponse{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		TeamID:            t.TeamID,
		CreatedBy:         t.CreatedBy,
		AssignedTo:        t.AssignedTo,
		Status:            t.Status,
		Priority:          t.Priority,
		DueDate:           t.DueDate,
		CompletedAt:       t.CompletedAt,
		IsActive:          t.IsActive,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		CreatorFirstName:  t.Creator.FirstName,
		CreatorLastName:   t.Creator.LastName,
		CreatorEmail:      t.Creator.Email,
		AssigneeFirstName: t.Assignee.FirstName,
		AssigneeLastName:  t.Assignee.LastName,
		AssigneeEmail:     t.Assignee.Email,
		TeamName:          t.TeamName,
	}
}

// NewTaskResponses maps a listing.
func NewTaskResponses(tasks []domain.TaskDetail) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTaskResponse(&tasks[i]))
	}
	return out
}

// NewDashboardResponse maps the dashboard summary.
func NewDashboardResponse(d *domain.Dashboard) DashboardResponse {
	return DashboardResponse{
		Stats: TaskStatsResponse{
			Total:      d.Stats.Total,
			Todo:       d.Stats.Todo,
			InProgress: d.Stats.InProgress,
			Review:     d.Stats.Review,
			Completed:  d.Stats.Completed,
			DueSoon:    d.Stats.DueSoon,
			Overdue:    d.Stats.Overdue,
		},
		DueSoon: NewTaskResponses(d.DueSoon),
		Overdue: NewTaskResponses(d.Overdue),
	}
}
