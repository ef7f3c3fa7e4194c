package domain

import "time"

// Role is a member's privilege level within a team.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// Assignable reports whether r may be granted through invite or role change.
func (r Role) Assignable() bool {
	return r == RoleAdmin || r == RoleMember
}

// MembershipStatus is the lifecycle state of a membership.
// Only active is written; pending and inactive are reserved.
type MembershipStatus string

const (
	MembershipStatusPending  MembershipStatus = "pending"
	MembershipStatusActive   MembershipStatus = "active"
	MembershipStatusInactive MembershipStatus = "inactive"
)

// Membership grants a user a role within a team.
type Membership struct {
	ID           string
	UserID       string
	TeamID       string
	Role         Role
	Status       MembershipStatus
	InvitedEmail *string
	JoinedAt     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsOwner reports whether the membership carries the owner role.
func (m *Membership) IsOwner() bool {
	return m.Role == RoleOwner
}

// Member is an active membership joined with the member's profile.
type Member struct {
	Membership
	Email     string
	FirstName string
	LastName  string
	AvatarURL *string
}

// UserMembership is one of a user's active memberships joined with team info.
type UserMembership struct {
	Membership
	TeamName        string
	TeamDescription *string
}
