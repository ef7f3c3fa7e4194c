package memrepo

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/repository"
)

type taskRepo struct{ s *Store }

func (r taskRepo) Create(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	task.ID = r.s.newID()
	task.IsActive = true
	task.CreatedAt, task.UpdatedAt = now, now
	r.s.tasks[task.ID] = *task
	return nil
}

func (r taskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || !t.IsActive {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r taskRepo) GetDetail(_ context.Context, id string) (*domain.TaskDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || !t.IsActive {
		return nil, pgx.ErrNoRows
	}
	detail := r.s.taskDetail(t)
	return &detail, nil
}

func (s *Store) taskDetail(t domain.Task) domain.TaskDetail {
	detail := domain.TaskDetail{Task: t, Creator: s.personRef(t.CreatedBy)}
	if t.AssignedTo != nil {
		detail.Assignee = s.personRef(*t.AssignedTo)
	}
	if team, ok := s.teams[t.TeamID]; ok {
		name := team.Name
		detail.TeamName = &name
	}
	return detail
}

func (r taskRepo) Update(_ context.Context, task *domain.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.tasks[task.ID]
	if !ok || !current.IsActive {
		return pgx.ErrNoRows
	}
	task.UpdatedAt = r.s.now()
	task.IsActive = true
	task.CreatedAt = current.CreatedAt
	r.s.tasks[task.ID] = *task
	return nil
}

func (r taskRepo) SoftDelete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || !t.IsActive {
		return pgx.ErrNoRows
	}
	t.IsActive = false
	t.UpdatedAt = r.s.now()
	r.s.tasks[id] = t
	return nil
}

func matchSearch(t domain.Task, search *string) bool {
	if search == nil || strings.TrimSpace(*search) == "" {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(*search))
	if strings.Contains(strings.ToLower(t.Title), needle) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), needle)
}

func eqPtr[T comparable](want *T, got T) bool {
	return want == nil || *want == got
}

var (
	priorityRank = map[domain.TaskPriority]int{
		domain.TaskPriorityLow: 0, domain.TaskPriorityMedium: 1, domain.TaskPriorityHigh: 2, domain.TaskPriorityUrgent: 3,
	}
	statusRank = map[domain.TaskStatus]int{
		domain.TaskStatusTodo: 0, domain.TaskStatusInProgress: 1, domain.TaskStatusReview: 2, domain.TaskStatusCompleted: 3,
	}
)

// compareTasks orders by field ascending; nil due dates sort last as in Postgres.
func compareTasks(a, b domain.Task, field repository.TaskSortField) int {
	switch field {
	case repository.TaskSortPriority:
		return priorityRank[a.Priority] - priorityRank[b.Priority]
	case repository.TaskSortStatus:
		return statusRank[a.Status] - statusRank[b.Status]
	case repository.TaskSortDueDate:
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return 0
		case a.DueDate == nil:
			return 1
		case b.DueDate == nil:
			return -1
		}
		return a.DueDate.Compare(*b.DueDate)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		return items
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (r taskRepo) ListByTeam(_ context.Context, f repository.TaskTeamFilter) ([]domain.TaskDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []domain.Task
	for _, t := range r.s.tasks {
		if t.TeamID != f.TeamID || !t.IsActive {
			continue
		}
		if !eqPtr(f.Status, t.Status) || !eqPtr(f.Priority, t.Priority) || !eqPtr(f.CreatedBy, t.CreatedBy) {
			continue
		}
		if f.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *f.AssignedTo) {
			continue
		}
		if !matchSearch(t, f.Search) {
			continue
		}
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		c := compareTasks(matched[i], matched[j], f.SortBy)
		if c == 0 {
			return r.s.seq[matched[i].ID] < r.s.seq[matched[j].ID]
		}
		if f.SortOrder == repository.SortAsc {
			return c < 0
		}
		return c > 0
	})
	return r.s.details(page(matched, f.Limit, f.Offset)), nil
}

func (r taskRepo) ListByUser(_ context.Context, f repository.TaskUserFilter) ([]domain.TaskDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []domain.Task
	for _, t := range r.s.tasks {
		if !t.IsActive {
			continue
		}
		assigned := t.AssignedTo != nil && *t.AssignedTo == f.UserID
		if !assigned && t.CreatedBy != f.UserID {
			continue
		}
		if f.AssignedToMe && !assigned {
			continue
		}
		if !eqPtr(f.TeamID, t.TeamID) || !eqPtr(f.Status, t.Status) || !eqPtr(f.Priority, t.Priority) {
			continue
		}
		if !matchSearch(t, f.Search) {
			continue
		}
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return r.s.before(matched[j].CreatedAt, matched[i].CreatedAt, matched[j].ID, matched[i].ID)
	})
	return r.s.details(page(matched, f.Limit, f.Offset)), nil
}

func (r taskRepo) ListDueSoon(_ context.Context, userID string, from, to time.Time) ([]domain.TaskDetail, error) {
	return r.openAssigned(userID, func(due time.Time) bool {
		return !due.Before(from) && !due.After(to)
	}), nil
}

func (r taskRepo) ListOverdue(_ context.Context, userID string, now time.Time) ([]domain.TaskDetail, error) {
	return r.openAssigned(userID, func(due time.Time) bool { return due.Before(now) }), nil
}

func (r taskRepo) openAssigned(userID string, due func(time.Time) bool) []domain.TaskDetail {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []domain.Task
	for _, t := range r.s.tasks {
		if !t.IsActive || t.Status == domain.TaskStatusCompleted || t.DueDate == nil {
			continue
		}
		if t.AssignedTo == nil || *t.AssignedTo != userID || !due(*t.DueDate) {
			continue
		}
		matched = append(matched, t)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return r.s.before(*matched[i].DueDate, *matched[j].DueDate, matched[i].ID, matched[j].ID)
	})
	return r.s.details(matched)
}

func (r taskRepo) CountByStatus(_ context.Context, userID string) (*domain.TaskStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var stats domain.TaskStats
	for _, t := range r.s.tasks {
		if !t.IsActive || t.AssignedTo == nil || *t.AssignedTo != userID {
			continue
		}
		stats.Total++
		switch t.Status {
		case domain.TaskStatusTodo:
			stats.Todo++
		case domain.TaskStatusInProgress:
			stats.InProgress++
		case domain.TaskStatusReview:
			stats.Review++
		case domain.TaskStatusCompleted:
			stats.Completed++
		}
	}
	return &stats, nil
}

func (s *Store) details(tasks []domain.Task) []domain.TaskDetail {
	out := make([]domain.TaskDetail, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, s.taskDetail(t))
	}
	return out
}
