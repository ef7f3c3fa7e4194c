package domain

import "time"

// Team groups members and their tasks.
type Team struct {
	ID          string
	Name        string
	Description *string
	CreatedBy   string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PersonRef carries display fields of a joined user row.
type PersonRef struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// TeamDetail is a team enriched with creator info and counts.
type TeamDetail struct {
	Team
	Creator     PersonRef
	MemberCount int
	TaskCount   int
}

// UserTeam is a team as seen by one of its members.
type UserTeam struct {
	TeamDetail
	Role   Role
	Status MembershipStatus
}
