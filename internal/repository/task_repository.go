package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// TaskSortField is a whitelisted sort column for team task listings.
type TaskSortField string

const (
	TaskSortCreatedAt TaskSortField = "created_at"
	TaskSortDueDate   TaskSortField = "due_date"
	TaskSortPriority  TaskSortField = "priority"
	TaskSortStatus    TaskSortField = "status"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Priority and status sort in workflow order rather than alphabetically.
var taskSortExpr = map[TaskSortField]string{
	TaskSortCreatedAt: "t.created_at",
	TaskSortDueDate:   "t.due_date",
	TaskSortPriority:  "CASE t.priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 ELSE 3 END",
	TaskSortStatus:    "CASE t.status WHEN 'todo' THEN 0 WHEN 'in_progress' THEN 1 WHEN 'review' THEN 2 ELSE 3 END",
}

// TaskTeamFilter narrows a team's task listing. Nil fields are not applied.
// A zero Limit returns every match.
type TaskTeamFilter struct {
	TeamID     string
	Status     *domain.TaskStatus
	Priority   *domain.TaskPriority
	AssignedTo *string
	CreatedBy  *string
	Search     *string
	SortBy     TaskSortField
	SortOrder  SortOrder
	Limit      int
	Offset     int
}

// TaskUserFilter narrows the tasks a user created or is assigned to.
type TaskUserFilter struct {
	UserID       string
	TeamID       *string
	Status       *domain.TaskStatus
	Priority     *domain.TaskPriority
	AssignedToMe bool
	Search       *string
	Limit        int
	Offset       int
}

// TaskRepository encapsulates task persistence. Reads only return active tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetDetail(ctx context.Context, id string) (*domain.TaskDetail, error)
	Update(ctx context.Context, task *domain.Task) error
	SoftDelete(ctx context.Context, id string) error
	ListByTeam(ctx context.Context, filter TaskTeamFilter) ([]domain.TaskDetail, error)
	ListByUser(ctx context.Context, filter TaskUserFilter) ([]domain.TaskDetail, error)
	// ListDueSoon returns open tasks assigned to userID due within [from, to].
	ListDueSoon(ctx context.Context, userID string, from, to time.Time) ([]domain.TaskDetail, error)
	// ListOverdue returns open tasks assigned to userID due before now.
	ListOverdue(ctx context.Context, userID string, now time.Time) ([]domain.TaskDetail, error)
	// CountByStatus counts active tasks assigned to userID.
	CountByStatus(ctx context.Context, userID string) (*domain.TaskStats, error)
}

type taskRepository struct {
	db DBTX
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(db DBTX) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `t.id, t.title, t.description, t.team_id, t.created_by, t.assigned_to, t.status, t.priority,
               t.due_date, t.completed_at, t.is_active, t.created_at, t.updated_at`

const taskDetailSelect = `
        SELECT ` + taskColumns + `,
               c.first_name, c.last_name, c.email,
               a.first_name, a.last_name, a.email,
               tm.name
        FROM tasks t
        LEFT JOIN users c ON c.id = t.created_by
        LEFT JOIN users a ON a.id = t.assigned_to
        LEFT JOIN teams tm ON tm.id = t.team_id`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (title, description, team_id, created_by, assigned_to, status, priority, due_date, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, is_active, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.TeamID,
		task.CreatedBy,
		task.AssignedTo,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CompletedAt,
	).Scan(&task.ID, &task.IsActive, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id=$1 AND t.is_active`

	var task domain.Task
	if err := r.db.QueryRow(ctx, query, id).Scan(taskScanTargets(&task)...); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) GetDetail(ctx context.Context, id string) (*domain.TaskDetail, error) {
	query := taskDetailSelect + ` WHERE t.id=$1 AND t.is_active`

	var detail domain.TaskDetail
	if err := r.db.QueryRow(ctx, query, id).Scan(taskDetailScanTargets(&detail)...); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET title=$1, description=$2, assigned_to=$3, status=$4, priority=$5,
            due_date=$6, completed_at=$7, updated_at=NOW()
        WHERE id=$8 AND is_active
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.AssignedTo,
		task.Status,
		task.Priority,
		task.DueDate,
		task.CompletedAt,
		task.ID,
	).Scan(&task.UpdatedAt)
}

func (r *taskRepository) SoftDelete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `UPDATE tasks SET is_active=FALSE, updated_at=NOW() WHERE id=$1 AND is_active`, id)
}

func (r *taskRepository) ListByTeam(ctx context.Context, filter TaskTeamFilter) ([]domain.TaskDetail, error) {
	query, args := buildTeamTaskQuery(filter)
	return r.list(ctx, query, args...)
}

func (r *taskRepository) ListByUser(ctx context.Context, filter TaskUserFilter) ([]domain.TaskDetail, error) {
	query, args := buildUserTaskQuery(filter)
	return r.list(ctx, query, args...)
}

func (r *taskRepository) ListDueSoon(ctx context.Context, userID string, from, to time.Time) ([]domain.TaskDetail, error) {
	query := taskDetailSelect + `
        WHERE t.assigned_to=$1 AND t.is_active AND t.status <> 'completed'
          AND t.due_date >= $2 AND t.due_date <= $3
        ORDER BY t.due_date ASC`
	return r.list(ctx, query, userID, from, to)
}

func (r *taskRepository) ListOverdue(ctx context.Context, userID string, now time.Time) ([]domain.TaskDetail, error) {
	query := taskDetailSelect + `
        WHERE t.assigned_to=$1 AND t.is_active AND t.status <> 'completed'
          AND t.due_date < $2
        ORDER BY t.due_date ASC`
	return r.list(ctx, query, userID, now)
}

func (r *taskRepository) CountByStatus(ctx context.Context, userID string) (*domain.TaskStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='todo'),
               COUNT(*) FILTER (WHERE status='in_progress'),
               COUNT(*) FILTER (WHERE status='review'),
               COUNT(*) FILTER (WHERE status='completed')
        FROM tasks WHERE assigned_to=$1 AND is_active`

	var stats domain.TaskStats
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.Total,
		&stats.Todo,
		&stats.InProgress,
		&stats.Review,
		&stats.Completed,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *taskRepository) list(ctx context.Context, query string, args ...any) ([]domain.TaskDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTaskDetails(rows)
}

// queryBuilder accumulates WHERE clauses with positional arguments.
type queryBuilder struct {
	clauses []string
	args    []any
}

func (b *queryBuilder) add(format string, value any) {
	b.args = append(b.args, value)
	b.clauses = append(b.clauses, fmt.Sprintf(format, len(b.args)))
}

func (b *queryBuilder) addSearch(search *string) {
	if search == nil || strings.TrimSpace(*search) == "" {
		return
	}
	b.args = append(b.args, "%"+strings.TrimSpace(*search)+"%")
	n := len(b.args)
	b.clauses = append(b.clauses, fmt.Sprintf("(t.title ILIKE $%d OR t.description ILIKE $%d)", n, n))
}

func (b *queryBuilder) where() string {
	return strings.Join(b.clauses, " AND ")
}

func buildTeamTaskQuery(f TaskTeamFilter) (string, []any) {
	b := &queryBuilder{}
	b.add("t.team_id=$%d", f.TeamID)
	b.clauses = append(b.clauses, "t.is_active")
	if f.Status != nil {
		b.add("t.status=$%d", *f.Status)
	}
	if f.Priority != nil {
		b.add("t.priority=$%d", *f.Priority)
	}
	if f.AssignedTo != nil {
		b.add("t.assigned_to=$%d", *f.AssignedTo)
	}
	if f.CreatedBy != nil {
		b.add("t.created_by=$%d", *f.CreatedBy)
	}
	b.addSearch(f.Search)

	sortExpr, ok := taskSortExpr[f.SortBy]
	if !ok {
		sortExpr = taskSortExpr[TaskSortCreatedAt]
	}
	order := "DESC"
	if f.SortOrder == SortAsc {
		order = "ASC"
	}

	query := fmt.Sprintf("%s\n        WHERE %s\n        ORDER BY %s %s, t.id%s",
		taskDetailSelect, b.where(), sortExpr, order, paginate(f.Limit, f.Offset))
	return query, b.args
}

func buildUserTaskQuery(f TaskUserFilter) (string, []any) {
	b := &queryBuilder{}
	b.add("(t.assigned_to=$%[1]d OR t.created_by=$%[1]d)", f.UserID)
	b.clauses = append(b.clauses, "t.is_active")
	if f.TeamID != nil {
		b.add("t.team_id=$%d", *f.TeamID)
	}
	if f.Status != nil {
		b.add("t.status=$%d", *f.Status)
	}
	if f.Priority != nil {
		b.add("t.priority=$%d", *f.Priority)
	}
	if f.AssignedToMe {
		b.add("t.assigned_to=$%d", f.UserID)
	}
	b.addSearch(f.Search)

	query := fmt.Sprintf("%s\n        WHERE %s\n        ORDER BY t.created_at DESC, t.id%s",
		taskDetailSelect, b.where(), paginate(f.Limit, f.Offset))
	return query, b.args
}

func paginate(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}

func taskScanTargets(t *domain.Task) []any {
	return []any{
		&t.ID,
		&t.Title,
		&t.Description,
		&t.TeamID,
		&t.CreatedBy,
		&t.AssignedTo,
		&t.Status,
		&t.Priority,
		&t.DueDate,
		&t.CompletedAt,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
}

func taskDetailScanTargets(d *domain.TaskDetail) []any {
	return append(taskScanTargets(&d.Task),
		&d.Creator.FirstName,
		&d.Creator.LastName,
		&d.Creator.Email,
		&d.Assignee.FirstName,
		&d.Assignee.LastName,
		&d.Assignee.Email,
		&d.TeamName,
	)
}

func scanTaskDetails(rows pgx.Rows) ([]domain.TaskDetail, error) {
	result := []domain.TaskDetail{}
	for rows.Next() {
		var detail domain.TaskDetail
		if err := rows.Scan(taskDetailScanTargets(&detail)...); err != nil {
			return nil, err
		}
		result = append(result, detail)
	}
	return result, rows.Err()
}
