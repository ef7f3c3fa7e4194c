package auth

import "github.com/spec-kit/team-task-service/internal/domain"

// Level is the minimum role an action requires.
type Level int

const (
	LevelMember Level = iota + 1
	LevelAdmin
	LevelOwner
)

func (l Level) String() string {
	switch l {
	case LevelMember:
		return "member"
	case LevelAdmin:
		return "admin"
	case LevelOwner:
		return "owner"
	}
	return "unknown"
}

var roleLevels = map[domain.Role]Level{
	domain.RoleMember: LevelMember,
	domain.RoleAdmin:  LevelAdmin,
	domain.RoleOwner:  LevelOwner,
}

// Allows reports whether role satisfies the required level.
func Allows(role domain.Role, required Level) bool {
	level, ok := roleLevels[role]
	return ok && level >= required
}
