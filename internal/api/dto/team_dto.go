package dto

import (
	"time"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// CreateTeamRequest payload.
type CreateTeamRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// UpdateTeamRequest is a partial update; description accepts null.
type UpdateTeamRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=100"`
	Description Optional[string] `json:"description"`
}

// TeamResponse is a bare team row.
type TeamResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedBy   string    `json:"created_by"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamDetailResponse adds creator info and counts.
type TeamDetailResponse struct {
	TeamResponse
	CreatorFirstName *string `json:"creator_first_name"`
	CreatorLastName  *string `json:"creator_last_name"`
	CreatorEmail     *string `json:"creator_email,omitempty"`
	MemberCount      int     `json:"member_count"`
	TaskCount        int     `json:"task_count"`
}

// UserTeamResponse is a team listed for one of its members.
type UserTeamResponse struct {
	TeamDetailResponse
	Role             domain.Role             `json:"role"`
	MembershipStatus domain.MembershipStatus `json:"membership_status"`
}

// NewTeamResponse maps a domain team.
func NewTeamResponse(t *domain.Team) TeamResponse {
	return TeamResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		IsActive:    t.IsActive,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// NewTeamDetailResponse maps a team with counts.
func NewTeamDetailResponse(t *domain.TeamDetail) TeamDetailResponse {
	return TeamDetailResponse{
		TeamResponse:     NewTeamResponse(&t.Team),
		CreatorFirstName: t.Creator.FirstName,
		CreatorLastName:  t.Creator.LastName,
		CreatorEmail:     t.Creator.Email,
		MemberCount:      t.MemberCount,
		TaskCount:        t.TaskCount,
	}
}

// NewUserTeamResponses maps the caller's team list.
func NewUserTeamResponses(teams []domain.UserTeam) []UserTeamResponse {
	out := make([]UserTeamResponse, 0, len(teams))
	for i := range teams {
		out = append(out, UserTeamResponse{
			TeamDetailResponse: NewTeamDetailResponse(&teams[i].TeamDetail),
			Role:               teams[i].Role,
			MembershipStatus:   teams[i].Status,
		})
	}
	return out
}
