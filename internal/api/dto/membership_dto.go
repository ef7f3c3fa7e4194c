package dto

import (
	"time"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// AddMemberRequest payload. Owner passes validation so the service can reject it as forbidden.
type AddMemberRequest struct {
	Email string      `json:"email" validate:"required,email"`
	Role  domain.Role `json:"role" validate:"omitempty,oneof=owner admin member"`
}

// UpdateRoleRequest payload.
type UpdateRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=owner admin member"`
}

// MembershipResponse is a membership row.
type MembershipResponse struct {
	ID           string                  `json:"id"`
	UserID       string                  `json:"user_id"`
	TeamID       string                  `json:"team_id"`
	Role         domain.Role             `json:"role"`
	Status       domain.MembershipStatus `json:"status"`
	InvitedEmail *string                 `json:"invited_email"`
	JoinedAt     time.Time               `json:"joined_at"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// MemberResponse is a membership with the member's profile.
type MemberResponse struct {
	MembershipResponse
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	AvatarURL *string `json:"avatar_url"`
}

// UserMembershipResponse is a membership with its team name.
type UserMembershipResponse struct {
	MembershipResponse
	TeamName        string  `json:"team_name"`
	TeamDescription *string `json:"team_description"`
}

// NewMembershipResponse maps a domain membership.
func NewMembershipResponse(m *domain.Membership) MembershipResponse {
	return MembershipResponse{
		ID:           m.ID,
		UserID:       m.UserID,
		TeamID:       m.TeamID,
		Role:         m.Role,
		Status:       m.Status,
		InvitedEmail: m.InvitedEmail,
		JoinedAt:     m.JoinedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// NewMemberResponses maps a team roster.
func NewMemberResponses(members []domain.Member) []MemberResponse {
	out := make([]MemberResponse, 0, len(members))
	for i := range members {
		m := &members[i]
		out = append(out, MemberResponse{
			MembershipResponse: NewMembershipResponse(&m.Membership),
			Email:              m.Email,
			FirstName:          m.FirstName,
			LastName:           m.LastName,
			AvatarURL:          m.AvatarURL,
		})
	}
	return out
}

// NewUserMembershipResponse maps one of the caller's memberships.
func NewUserMembershipResponse(m *domain.UserMembership) UserMembershipResponse {
	return UserMembershipResponse{
		MembershipResponse: NewMembershipResponse(&m.Membership),
		TeamName:           m.TeamName,
		TeamDescription:    m.TeamDescription,
	}
}
