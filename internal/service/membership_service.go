package service

import (
	"context"

	"github.com/spec-kit/team-task-service/internal/auth"
	"github.com/spec-kit/team-task-service/internal/domain"
	"github.com/spec-kit/team-task-service/internal/events"
	"github.com/spec-kit/team-task-service/internal/repository"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

const (
	msgMembershipNotFound = "Membership not found"
	msgCannotAssignOwner  = "Cannot assign owner role"
	msgAlreadyMember      = "User is already a member of this team"
)

// MembershipService manages who belongs to a team and with which role.
type MembershipService struct {
	memberships repository.MembershipRepository
	teams       repository.TeamRepository
	users       repository.UserRepository
	authz       *auth.TeamAuthorizer
	dispatcher  events.Dispatcher
}

// MembershipDependencies bundles repositories for membership service.
type MembershipDependencies struct {
	MembershipRepo repository.MembershipRepository
	TeamRepo       repository.TeamRepository
	UserRepo       repository.UserRepository
	Authorizer     *auth.TeamAuthorizer
	Dispatcher     events.Dispatcher
}

// NewMembershipService constructs the service.
func NewMembershipService(deps MembershipDependencies) *MembershipService {
	return &MembershipService{
		memberships: deps.MembershipRepo,
		teams:       deps.TeamRepo,
		users:       deps.UserRepo,
		authz:       deps.Authorizer,
		dispatcher:  deps.Dispatcher,
	}
}

// AddMember invites the account registered under email. The inviter is
// authorized before the email is resolved so non-admins cannot enumerate accounts.
// A previous non-active membership is reactivated.
func (s *MembershipService) AddMember(ctx context.Context, inviterID, teamID, email string, role domain.Role) (*domain.Membership, error) {
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		return nil, teamLookupErr(err)
	}
	if _, err := s.authz.Require(ctx, inviterID, teamID, auth.LevelAdmin, "You do not have permission to add members"); err != nil {
		return nil, err
	}
	if role == "" {
		role = domain.RoleMember
	}
	if role == domain.RoleOwner {
		return nil, apperrors.NewForbidden(msgCannotAssignOwner)
	}
	if !role.Assignable() {
		return nil, apperrors.NewBadRequest("Role must be either admin or member")
	}

	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("User not found with this email")
		}
		return nil, err
	}

	membership, err := s.createOrReactivate(ctx, user.ID, teamID, role, email)
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventMemberAdded,
		TeamID:  teamID,
		ActorID: inviterID,
		Payload: events.MemberPayload{MembershipID: membership.ID, UserID: user.ID, Role: membership.Role},
	})
	return membership, nil
}

func (s *MembershipService) createOrReactivate(ctx context.Context, userID, teamID string, role domain.Role, email string) (*domain.Membership, error) {
	existing, err := s.memberships.GetByUserAndTeam(ctx, userID, teamID)
	switch {
	case err == nil:
		if existing.Status == domain.MembershipStatusActive {
			return nil, apperrors.NewConflict(msgAlreadyMember)
		}
		return s.memberships.Reactivate(ctx, existing.ID, role, &email)
	case !apperrors.IsNotFound(err):
		return nil, err
	}

	membership := &domain.Membership{
		UserID:       userID,
		TeamID:       teamID,
		Role:         role,
		Status:       domain.MembershipStatusActive,
		InvitedEmail: &email,
	}
	if err := s.memberships.Create(ctx, membership); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict(msgAlreadyMember)
		}
		return nil, err
	}
	return membership, nil
}

// UpdateRole changes a non-owner member's role; owner only.
func (s *MembershipService) UpdateRole(ctx context.Context, actorID, teamID, membershipID string, role domain.Role) (*domain.Membership, error) {
	if _, err := s.authz.RequireMember(ctx, actorID, teamID); err != nil {
		return nil, err
	}
	membership, err := s.teamMembership(ctx, teamID, membershipID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authz.Require(ctx, actorID, teamID, auth.LevelOwner, "Only team owner can change member roles"); err != nil {
		return nil, err
	}
	if membership.IsOwner() {
		return nil, apperrors.NewForbidden("Cannot change owner role")
	}
	if role == domain.RoleOwner {
		return nil, apperrors.NewForbidden(msgCannotAssignOwner)
	}
	if !role.Assignable() {
		return nil, apperrors.NewBadRequest("Role must be either admin or member")
	}

	updated, err := s.memberships.UpdateRole(ctx, membership.ID, role)
	if err != nil {
		return nil, membershipLookupErr(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventMemberRoleChanged,
		TeamID:  teamID,
		ActorID: actorID,
		Payload: events.MemberPayload{MembershipID: updated.ID, UserID: updated.UserID, Role: updated.Role, OldRole: membership.Role},
	})
	return updated, nil
}

// RemoveMember deletes a non-owner membership. Members may remove themselves;
// admins and the owner may remove anyone else.
func (s *MembershipService) RemoveMember(ctx context.Context, actorID, teamID, membershipID string) error {
	if _, err := s.authz.RequireMember(ctx, actorID, teamID); err != nil {
		return err
	}
	membership, err := s.teamMembership(ctx, teamID, membershipID)
	if err != nil {
		return err
	}
	if membership.IsOwner() {
		return apperrors.NewForbidden("Cannot remove team owner")
	}
	if membership.UserID != actorID {
		if _, err := s.authz.Require(ctx, actorID, teamID, auth.LevelAdmin, "You do not have permission to remove this member"); err != nil {
			return err
		}
	}

	if err := s.memberships.Delete(ctx, membership.ID); err != nil {
		return membershipLookupErr(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventMemberRemoved,
		TeamID:  teamID,
		ActorID: actorID,
		Payload: events.MemberPayload{MembershipID: membership.ID, UserID: membership.UserID, Role: membership.Role},
	})
	return nil
}

// Leave removes the actor's own membership. The owner cannot leave.
func (s *MembershipService) Leave(ctx context.Context, actorID, teamID string) error {
	membership, err := s.memberships.GetByUserAndTeam(ctx, actorID, teamID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewNotFound("You are not a member of this team")
		}
		return err
	}
	if membership.IsOwner() {
		return apperrors.NewForbidden("Team owner cannot leave. Transfer ownership or delete the team.")
	}
	if err := s.memberships.Delete(ctx, membership.ID); err != nil {
		return membershipLookupErr(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventMemberLeft,
		TeamID:  teamID,
		ActorID: actorID,
		Payload: events.MemberPayload{MembershipID: membership.ID, UserID: actorID, Role: membership.Role},
	})
	return nil
}

// teamMembership loads a membership and hides it when it belongs to another team.
func (s *MembershipService) teamMembership(ctx context.Context, teamID, membershipID string) (*domain.Membership, error) {
	membership, err := s.memberships.GetByID(ctx, membershipID)
	if err != nil {
		return nil, membershipLookupErr(err)
	}
	if membership.TeamID != teamID {
		return nil, apperrors.NewNotFound(msgMembershipNotFound)
	}
	return membership, nil
}

func membershipLookupErr(err error) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(msgMembershipNotFound)
	}
	return err
}
