package dto

import (
	"time"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=128,password"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account. The password hash never leaves the service.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	AvatarURL   *string    `json:"avatar_url"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProfileResponse is the current user with their team memberships.
type ProfileResponse struct {
	UserResponse
	Teams []UserMembershipResponse `json:"teams"`
}

// AuthStatusResponse reports whether the caller holds a valid session.
type AuthStatusResponse struct {
	IsAuthenticated bool          `json:"isAuthenticated"`
	User            *UserResponse `json:"user"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		AvatarURL:   u.AvatarURL,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// NewProfileResponse maps a user and their memberships.
func NewProfileResponse(u *domain.User, memberships []domain.UserMembership) ProfileResponse {
	teams := make([]UserMembershipResponse, 0, len(memberships))
	for i := range memberships {
		teams = append(teams, NewUserMembershipResponse(&memberships[i]))
	}
	return ProfileResponse{UserResponse: NewUserResponse(u), Teams: teams}
}
