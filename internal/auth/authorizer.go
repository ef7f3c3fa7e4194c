package auth

import (
	"context"

	"github.com/spec-kit/team-task-service/internal/domain"
	apperrors "github.com/spec-kit/team-task-service/pkg/util/errorutil"
)

const (
	msgNotMember = "You are not a member of this team"
	msgNotAdmin  = "Only team owners and admins can perform this action"
	msgNotOwner  = "Only team owner can perform this action"
)

// MembershipLookup resolves a user's active membership in an active team.
type MembershipLookup interface {
	GetActive(ctx context.Context, userID, teamID string) (*domain.Membership, error)
}

// TeamAuthorizer decides whether an actor may act on a team based on their role.
type TeamAuthorizer struct {
	memberships MembershipLookup
}

// NewTeamAuthorizer constructs the authorizer.
func NewTeamAuthorizer(memberships MembershipLookup) *TeamAuthorizer {
	return &TeamAuthorizer{memberships: memberships}
}

// Require returns the actor's membership when it satisfies level. Missing
// membership and insufficient role both fail with Forbidden; denied replaces
// the default role message when set.
func (a *TeamAuthorizer) Require(ctx context.Context, actorID, teamID string, level Level, denied string) (*domain.Membership, error) {
	membership, err := a.memberships.GetActive(ctx, actorID, teamID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		if denied != "" && level > LevelMember {
			return nil, apperrors.NewForbidden(denied)
		}
		if level == LevelOwner {
			return nil, apperrors.NewForbidden(msgNotOwner)
		}
		return nil, apperrors.NewForbidden(msgNotMember)
	}

	if !Allows(membership.Role, level) {
		if denied != "" {
			return nil, apperrors.NewForbidden(denied)
		}
		if level == LevelOwner {
			return nil, apperrors.NewForbidden(msgNotOwner)
		}
		return nil, apperrors.NewForbidden(msgNotAdmin)
	}
	return membership, nil
}

// RequireMember requires any active membership.
func (a *TeamAuthorizer) RequireMember(ctx context.Context, actorID, teamID string) (*domain.Membership, error) {
	return a.Require(ctx, actorID, teamID, LevelMember, "")
}

// RequireAdmin requires the owner or admin role.
func (a *TeamAuthorizer) RequireAdmin(ctx context.Context, actorID, teamID string) (*domain.Membership, error) {
	return a.Require(ctx, actorID, teamID, LevelAdmin, "")
}

// RequireOwner requires the owner role.
func (a *TeamAuthorizer) RequireOwner(ctx context.Context, actorID, teamID string) (*domain.Membership, error) {
	return a.Require(ctx, actorID, teamID, LevelOwner, "")
}
