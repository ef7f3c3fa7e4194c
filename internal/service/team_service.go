package service

import (
	"context"
	"strings"

	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/events"
	"github.com/spec-kit/team-task-service/internal/repository"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

const msgTeamNotFound = "Team not found"

// TeamService coordinates team workflows.
type TeamService struct {
	teams       repository.TeamRepository
	memberships repository.MembershipRepository
	tx          repository.Transactor
	authz       *auth.TeamAuthorizer
	dispatcher  events.Dispatcher
}

// TeamDependencies bundles repositories for team service.
type TeamDependencies struct {
	TeamRepo       repository.TeamRepository
	MembershipRepo repository.MembershipRepository
	Transactor     repository.Transactor
	Authorizer     *auth.TeamAuthorizer
	Dispatcher     events.Dispatcher
}

// TeamCreateInput describes team creation payload.
type TeamCreateInput struct {
	Name        string
	Description *string
}

// TeamUpdateInput is a partial team update.
type TeamUpdateInput struct {
	Name        *string
	Description Nullable[string]
}

// NewTeamService constructs the service.
func NewTeamService(deps TeamDependencies) *TeamService {
	return &TeamService{
		teams:       deps.TeamRepo,
		memberships: deps.MembershipRepo,
		tx:          deps.Transactor,
		authz:       deps.Authorizer,
		dispatcher:  deps.Dispatcher,
	}
}

// Create inserts the team and its owner membership atomically.
func (s *TeamService) Create(ctx context.Context, actorID string, input TeamCreateInput) (*domain.Team, error) {
	team := &domain.Team{
		Name:        strings.TrimSpace(input.Name),
		Description: emptyToNil(input.Description),
		CreatedBy:   actorID,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.TxRepositories) error {
		if err := repos.Teams.Create(ctx, team); err != nil {
			return err
		}
		return repos.Memberships.Create(ctx, &domain.Membership{
			UserID: actorID,
			TeamID: team.ID,
			Role:   domain.RoleOwner,
			Status: domain.MembershipStatusActive,
		})
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTeamCreated,
		TeamID:  team.ID,
		ActorID: actorID,
		Payload: events.TeamPayload{Name: team.Name},
	})
	return team, nil
}

// Get returns the team with counts for a member.
func (s *TeamService) Get(ctx context.Context, actorID, teamID string) (*domain.TeamDetail, error) {
	detail, err := s.teams.GetDetail(ctx, teamID)
	if err != nil {
		return nil, teamLookupErr(err)
	}
	if _, err := s.authz.RequireMember(ctx, actorID, teamID); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListForUser returns the active teams the actor belongs to, newest first.
func (s *TeamService) ListForUser(ctx context.Context, actorID string) ([]domain.UserTeam, error) {
	return s.teams.ListByUser(ctx, actorID)
}

// Update changes name and/or description; owner only.
func (s *TeamService) Update(ctx context.Context, actorID, teamID string, input TeamUpdateInput) (*domain.Team, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, teamLookupErr(err)
	}
	if _, err := s.authz.Require(ctx, actorID, teamID, auth.LevelOwner, "Only team owner can update team"); err != nil {
		return nil, err
	}
	if input.Name == nil && !input.Description.Set {
		return nil, apperrors.NewBadRequest("At least one field is required to update")
	}

	if input.Name != nil {
		team.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description.Set {
		team.Description = emptyToNil(input.Description.Value)
	}
	if err := s.teams.Update(ctx, team); err != nil {
		return nil, teamLookupErr(err)
	}
	return team, nil
}

// Delete soft-deletes the team; owner only. Tasks keep their active flag.
func (s *TeamService) Delete(ctx context.Context, actorID, teamID string) error {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return teamLookupErr(err)
	}
	if _, err := s.authz.Require(ctx, actorID, teamID, auth.LevelOwner, "Only team owner can delete team"); err != nil {
		return err
	}
	if err := s.teams.SoftDelete(ctx, teamID); err != nil {
		return teamLookupErr(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTeamDeleted,
		TeamID:  teamID,
		ActorID: actorID,
		Payload: events.TeamPayload{Name: team.Name},
	})
	return nil
}

// Members lists active members of the team for a member.
func (s *TeamService) Members(ctx context.Context, actorID, teamID string) ([]domain.Member, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, teamLookupErr(err)
	}
	if _, err := s.authz.RequireMember(ctx, actorID, teamID); err != nil {
		return nil, err
	}
	return s.memberships.ListMembers(ctx, teamID)
}

func teamLookupErr(err error) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(msgTeamNotFound)
	}
	return err
}

func emptyToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
