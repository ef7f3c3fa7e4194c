package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/team-task-service/internal/domain"
)

// TeamRepository persists teams. Reads only return active teams.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	GetDetail(ctx context.Context, id string) (*domain.TeamDetail, error)
	Update(ctx context.Context, team *domain.Team) error
	SoftDelete(ctx context.Context, id string) error
	ListByUser(ctx context.Context, userID string) ([]domain.UserTeam, error)
}

type teamRepository struct {
	db DBTX
}

// NewTeamRepository instantiates repository.
func NewTeamRepository(db DBTX) TeamRepository {
	return &teamRepository{db: db}
}

const teamCounts = `
        (SELECT COUNT(*) FROM memberships m WHERE m.team_id = t.id AND m.status = 'active') AS member_count,
        (SELECT COUNT(*) FROM tasks k WHERE k.team_id = t.id AND k.is_active) AS task_count`

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (name, description, created_by)
        VALUES ($1, $2, $3)
        RETURNING id, is_active, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		team.Name,
		team.Description,
		team.CreatedBy,
	).Scan(&team.ID, &team.IsActive, &team.CreatedAt, &team.UpdatedAt)
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, name, description, created_by, is_active, created_at, updated_at
        FROM teams WHERE id=$1 AND is_active`

	var team domain.Team
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.CreatedBy,
		&team.IsActive,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetDetail(ctx context.Context, id string) (*domain.TeamDetail, error) {
	query := `
        SELECT t.id, t.name, t.description, t.created_by, t.is_active, t.created_at, t.updated_at,
               u.first_name, u.last_name, u.email,` + teamCounts + `
        FROM teams t
        LEFT JOIN users u ON u.id = t.created_by
        WHERE t.id=$1 AND t.is_active`

	var detail domain.TeamDetail
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&detail.ID,
		&detail.Name,
		&detail.Description,
		&detail.CreatedBy,
		&detail.IsActive,
		&detail.CreatedAt,
		&detail.UpdatedAt,
		&detail.Creator.FirstName,
		&detail.Creator.LastName,
		&detail.Creator.Email,
		&detail.MemberCount,
		&detail.TaskCount,
	); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET name=$1, description=$2, updated_at=NOW()
        WHERE id=$3 AND is_active
        RETURNING updated_at`
	return r.db.QueryRow(ctx, query, team.Name, team.Description, team.ID).Scan(&team.UpdatedAt)
}

// SoftDelete flags the team inactive. Its tasks keep their own active flag.
func (r *teamRepository) SoftDelete(ctx context.Context, id string) error {
	return execOne(ctx, r.db, `UPDATE teams SET is_active=FALSE, updated_at=NOW() WHERE id=$1 AND is_active`, id)
}

func (r *teamRepository) ListByUser(ctx context.Context, userID string) ([]domain.UserTeam, error) {
	query := `
        SELECT t.id, t.name, t.description, t.created_by, t.is_active, t.created_at, t.updated_at,
               u.first_name, u.last_name, u.email,` + teamCounts + `,
               ms.role, ms.status
        FROM teams t
        JOIN memberships ms ON ms.team_id = t.id
        LEFT JOIN users u ON u.id = t.created_by
        WHERE ms.user_id=$1 AND ms.status='active' AND t.is_active
        ORDER BY t.created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUserTeams(rows)
}

func scanUserTeams(rows pgx.Rows) ([]domain.UserTeam, error) {
	result := []domain.UserTeam{}
	for rows.Next() {
		var team domain.UserTeam
		if err := rows.Scan(
			&team.ID,
			&team.Name,
			&team.Description,
			&team.CreatedBy,
			&team.IsActive,
			&team.CreatedAt,
			&team.UpdatedAt,
			&team.Creator.FirstName,
			&team.Creator.LastName,
			&team.Creator.Email,
			&team.MemberCount,
			&team.TaskCount,
			&team.Role,
			&team.Status,
		); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	return result, rows.Err()
}
