package domain

import "time"

// TaskStatus enumerates workflow states for tasks.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview, TaskStatusCompleted:
		return true
	}
	return false
}

// TaskPriority enumerates urgency levels.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task is a unit of work scoped to a team.
type Task struct {
	ID          string
	Title       string
	Description *string
	TeamID      string
	CreatedBy   string
	AssignedTo  *string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	CompletedAt *time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplyStatus sets the status and stamps or clears CompletedAt accordingly.
// Re-applying completed refreshes the timestamp.
func (t *Task) ApplyStatus(status TaskStatus, now time.Time) {
	t.Status = status
	if status == TaskStatusCompleted {
		t.CompletedAt = &now
		return
	}
	t.CompletedAt = nil
}

// TaskDetail is a task joined with creator, assignee and team display fields.
// Joined fields are nil when the query does not select them.
type TaskDetail struct {
	Task
	Creator  PersonRef
	Assignee PersonRef
	TeamName *string
}

// TaskStats counts a user's assigned tasks by status.
type TaskStats struct {
	Total      int
	Todo       int
	InProgress int
	Review     int
	Completed  int
	DueSoon    int
	Overdue    int
}

// Dashboard summarizes a user's assigned work.
type Dashboard struct {
	Stats   TaskStats
	DueSoon []TaskDetail
	Overdue []TaskDetail
}
