package events

import (
	"time"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTeamCreated       EventType = "team_created"
	EventTeamDeleted       EventType = "team_deleted"
	EventMemberAdded       EventType = "member_added"
	EventMemberRoleChanged EventType = "member_role_changed"
	EventMemberRemoved     EventType = "member_removed"
	EventMemberLeft        EventType = "member_left"
	EventTaskCreated       EventType = "task_created"
	EventTaskAssigned      EventType = "task_assigned"
	EventTaskStatusChanged EventType = "task_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TeamID    string      `json:"team_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TeamPayload describes team lifecycle events.
type TeamPayload struct {
	Name string `json:"name"`
}

// MemberPayload describes membership changes.
type MemberPayload struct {
	MembershipID string      `json:"membership_id"`
	UserID       string      `json:"user_id"`
	Role         domain.Role `json:"role"`
	OldRole      domain.Role `json:"old_role,omitempty"`
}

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	TaskID     string              `json:"task_id"`
	Title      string              `json:"title"`
	Priority   domain.TaskPriority `json:"priority"`
	AssignedTo *string             `json:"assigned_to,omitempty"`
}

// TaskAssignedPayload payload.
type TaskAssignedPayload struct {
	TaskID       string  `json:"task_id"`
	Title        string  `json:"title"`
	AssigneeID   *string `json:"assignee_id,omitempty"`
	PrevAssignee *string `json:"previous_assignee_id,omitempty"`
}

// TaskStatusChangedPayload payload.
type TaskStatusChangedPayload struct {
	TaskID    string            `json:"task_id"`
	OldStatus domain.TaskStatus `json:"old_status"`
	NewStatus domain.TaskStatus `json:"new_status"`
}
