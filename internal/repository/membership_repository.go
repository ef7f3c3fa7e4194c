package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// MembershipRepository persists (user, team, role, status) tuples.
type MembershipRepository interface {
	Create(ctx context.Context, membership *domain.Membership) error
	GetByID(ctx context.Context, id string) (*domain.Membership, error)
	GetByUserAndTeam(ctx context.Context, userID, teamID string) (*domain.Membership, error)
	// GetActive returns the membership only when it is active and both the
	// team and the user are active.
	GetActive(ctx context.Context, userID, teamID string) (*domain.Membership, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Membership, error)
	Reactivate(ctx context.Context, id string, role domain.Role, invitedEmail *string) (*domain.Membership, error)
	Delete(ctx context.Context, id string) error
	ListMembers(ctx context.Context, teamID string) ([]domain.Member, error)
	ListByUser(ctx context.Context, userID string) ([]domain.UserMembership, error)
}

type membershipRepository struct {
	db DBTX
}

// NewMembershipRepository instantiates repository.
func NewMembershipRepository(db DBTX) MembershipRepository {
	return &membershipRepository{db: db}
}

const membershipColumns = `id, user_id, team_id, role, status, invited_email, joined_at, created_at, updated_at`

func (r *membershipRepository) Create(ctx context.Context, m *domain.Membership) error {
	const query = `
        INSERT INTO memberships (user_id, team_id, role, status, invited_email)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, joined_at, created_at, updated_at`
	if m.Status == "" {
		m.Status = domain.MembershipStatusActive
	}
	return r.db.QueryRow(ctx, query,
		m.UserID,
		m.TeamID,
		m.Role,
		m.Status,
		m.InvitedEmail,
	).Scan(&m.ID, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt)
}

func (r *membershipRepository) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	return r.fetchSingle(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE id=$1`, id)
}

func (r *membershipRepository) GetByUserAndTeam(ctx context.Context, userID, teamID string) (*domain.Membership, error) {
	return r.fetchSingle(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE user_id=$1 AND team_id=$2`, userID, teamID)
}

func (r *membershipRepository) GetActive(ctx context.Context, userID, teamID string) (*domain.Membership, error) {
	const query = `
        SELECT ms.id, ms.user_id, ms.team_id, ms.role, ms.status, ms.invited_email, ms.joined_at, ms.created_at, ms.updated_at
        FROM memberships ms
        JOIN teams t ON t.id = ms.team_id AND t.is_active
        JOIN users u ON u.id = ms.user_id AND u.is_active
        WHERE ms.user_id=$1 AND ms.team_id=$2 AND ms.status='active'`
	return r.fetchSingle(ctx, query, userID, teamID)
}

func (r *membershipRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.Membership, error) {
	query := `UPDATE memberships SET role=$1, updated_at=NOW() WHERE id=$2 RETURNING ` + membershipColumns
	return r.fetchSingle(ctx, query, role, id)
}

func (r *membershipRepository) Reactivate(ctx context.Context, id string, role domain.Role, invitedEmail *string) (*domain.Membership, error) {
	query := `
        UPDATE memberships SET status='active', role=$1, invited_email=$2, joined_at=NOW(), updated_at=NOW()
        WHERE id=$3
        RETURNING ` + membershipColumns
	return r.fetchSingle(ctx, query, role, invitedEmail, id)
}

func (r *membershipRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `DELETE FROM memberships WHERE id=$1`, id)
}

// ListMembers returns active members ordered owner, admin, member.
func (r *membershipRepository) ListMembers(ctx context.Context, teamID string) ([]domain.Member, error) {
	const query = `
        SELECT ms.id, ms.user_id, ms.team_id, ms.role, ms.status, ms.invited_email, ms.joined_at, ms.created_at, ms.updated_at,
               u.email, u.first_name, u.last_name, u.avatar_url
        FROM memberships ms
        JOIN users u ON u.id = ms.user_id
        WHERE ms.team_id=$1 AND ms.status='active' AND u.is_active
        ORDER BY CASE ms.role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END, ms.joined_at`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.TeamID, &m.Role, &m.Status, &m.InvitedEmail, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
			&m.Email, &m.FirstName, &m.LastName, &m.AvatarURL,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *membershipRepository) ListByUser(ctx context.Context, userID string) ([]domain.UserMembership, error) {
	const query = `
        SELECT ms.id, ms.user_id, ms.team_id, ms.role, ms.status, ms.invited_email, ms.joined_at, ms.created_at, ms.updated_at,
               t.name, t.description
        FROM memberships ms
        JOIN teams t ON t.id = ms.team_id
        WHERE ms.user_id=$1 AND ms.status='active' AND t.is_active
        ORDER BY ms.joined_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.UserMembership{}
	for rows.Next() {
		var m domain.UserMembership
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.TeamID, &m.Role, &m.Status, &m.InvitedEmail, &m.JoinedAt, &m.CreatedAt, &m.UpdatedAt,
			&m.TeamName, &m.TeamDescription,
		); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *membershipRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Membership, error) {
	return scanMembership(r.db.QueryRow(ctx, query, args...))
}

func scanMembership(row pgx.Row) (*domain.Membership, error) {
	var m domain.Membership
	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.TeamID,
		&m.Role,
		&m.Status,
		&m.InvitedEmail,
		&m.JoinedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}
