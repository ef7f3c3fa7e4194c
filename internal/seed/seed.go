// Package seed loads demo accounts, teams and tasks through the services so the
// same rules apply as for API traffic.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/service"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "Password123"

// Services are the entry points the seed runs through.
type Services struct {
	Auth    *service.AuthService
	Teams   *service.TeamService
	Members *service.MembershipService
	Tasks   *service.TaskService
}

// Result summarizes what was created.
type Result struct {
	Users []*domain.User
	Teams []*domain.Team
	Tasks []*domain.TaskDetail
}

var demoUsers = []service.RegisterInput{
	{Email: "john@example.com", Password: DemoPassword, FirstName: "John", LastName: "Doe"},
	{Email: "jane@example.com", Password: DemoPassword, FirstName: "Jane", LastName: "Smith"},
	{Email: "bob@example.com", Password: DemoPassword, FirstName: "Bob", LastName: "Wilson"},
}

// ErrAlreadySeeded is returned when the demo accounts already exist.
var ErrAlreadySeeded = errors.New("demo data already present")

// Run creates the demo data set. now anchors relative due dates.
func Run(ctx context.Context, svc Services, now time.Time, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	res := &Result{}

	for _, in := range demoUsers {
		user, _, err := svc.Auth.Register(ctx, in)
		if err != nil {
			if apperrors.ToDomainError(err).Code == apperrors.CodeConflict {
				return nil, ErrAlreadySeeded
			}
			return nil, fmt.Errorf("register %s: %w", in.Email, err)
		}
		res.Users = append(res.Users, user)
	}
	john, jane, bob := res.Users[0], res.Users[1], res.Users[2]

	dev, err := svc.Teams.Create(ctx, john.ID, service.TeamCreateInput{
		Name:        "Development Team",
		Description: strPtr("Frontend and Backend development team"),
	})
	if err != nil {
		return nil, fmt.Errorf("create development team: %w", err)
	}
	marketing, err := svc.Teams.Create(ctx, jane.ID, service.TeamCreateInput{
		Name:        "Marketing Team",
		Description: strPtr("Marketing and growth team"),
	})
	if err != nil {
		return nil, fmt.Errorf("create marketing team: %w", err)
	}
	res.Teams = append(res.Teams, dev, marketing)

	memberships := []struct {
		inviter *domain.User
		team    *domain.Team
		email   string
	}{
		{john, dev, jane.Email},
		{john, dev, bob.Email},
		{jane, marketing, john.Email},
	}
	for _, m := range memberships {
		if _, err := svc.Members.AddMember(ctx, m.inviter.ID, m.team.ID, m.email, domain.RoleMember); err != nil {
			return nil, fmt.Errorf("add %s to %s: %w", m.email, m.team.Name, err)
		}
	}

	day := 24 * time.Hour
	tasks := []struct {
		creator *domain.User
		input   service.TaskCreateInput
	}{
		{john, service.TaskCreateInput{
			TeamID:      dev.ID,
			Title:       "Setup project repository",
			Description: strPtr("Initialize the project with proper structure and configurations"),
			AssignedTo:  &john.ID,
			Status:      domain.TaskStatusCompleted,
			Priority:    domain.TaskPriorityHigh,
		}},
		{john, service.TaskCreateInput{
			TeamID:      dev.ID,
			Title:       "Implement authentication",
			Description: strPtr("Add login and registration functionality"),
			AssignedTo:  &jane.ID,
			Status:      domain.TaskStatusInProgress,
			Priority:    domain.TaskPriorityHigh,
			DueDate:     timePtr(now.Add(3 * day)),
		}},
		{jane, service.TaskCreateInput{
			TeamID:      marketing.ID,
			Title:       "Design landing page",
			Description: strPtr("Create mockups for the landing page"),
			AssignedTo:  &john.ID,
			Status:      domain.TaskStatusTodo,
			Priority:    domain.TaskPriorityMedium,
			DueDate:     timePtr(now.Add(7 * day)),
		}},
		{john, service.TaskCreateInput{
			TeamID:      dev.ID,
			Title:       "Write API documentation",
			Description: strPtr("Document all API endpoints"),
			AssignedTo:  &bob.ID,
			Status:      domain.TaskStatusTodo,
			Priority:    domain.TaskPriorityLow,
			DueDate:     timePtr(now.Add(14 * day)),
		}},
	}
	for _, t := range tasks {
		task, err := svc.Tasks.Create(ctx, t.creator.ID, t.input)
		if err != nil {
			return nil, fmt.Errorf("create task %q: %w", t.input.Title, err)
		}
		res.Tasks = append(res.Tasks, task)
	}

	logger.Info("demo data seeded",
		zap.Int("users", len(res.Users)),
		zap.Int("teams", len(res.Teams)),
		zap.Int("tasks", len(res.Tasks)))
	return res, nil
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
