package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gearguard/gearguard-api/internal/models"
)

// TeamRepository handles persistence for maintenance teams and memberships.
type TeamRepository struct {
	db *sqlx.DB
}

// NewTeamRepository instantiates a team repository.
func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

// List returns teams matching the filter with a total count.
func (r *TeamRepository) List(ctx context.Context, filter models.TeamFilter) ([]models.MaintenanceTeam, int, error) {
	base := "FROM maintenance_teams WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, name, description, created_at %s ORDER BY name LIMIT %d OFFSET %d", base, size, offset)

	var teams []models.MaintenanceTeam
	if err := r.db.SelectContext(ctx, &teams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teams: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teams: %w", err)
	}

	return teams, total, nil
}

// FindByID loads a team by identifier.
func (r *TeamRepository) FindByID(ctx context.Context, id string) (*models.MaintenanceTeam, error) {
	const query = `SELECT id, name, description, created_at FROM maintenance_teams WHERE id = $1`
	var team models.MaintenanceTeam
	if err := r.db.GetContext(ctx, &team, query, id); err != nil {
		return nil, err
	}
	return &team, nil
}

// Create inserts a new team.
func (r *TeamRepository) Create(ctx context.Context, team *models.MaintenanceTeam) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO maintenance_teams (id, name, description, created_at) VALUES (:id, :name, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, team); err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

// Update modifies a team's name and description.
func (r *TeamRepository) Update(ctx context.Context, team *models.MaintenanceTeam) error {
	const query = `UPDATE maintenance_teams SET name = :name, description = :description WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, team)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check team update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a team; memberships cascade at the schema level.
func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_teams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

// ListMembers returns member rows joined with user details.
func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMemberDetail, error) {
	const query = `SELECT tm.id, tm.team_id, tm.user_id, u.name, u.email, u.role, u.is_technician
	FROM team_members tm JOIN users u ON u.id = tm.user_id
	WHERE tm.team_id = $1 ORDER BY u.name`
	var members []models.TeamMemberDetail
	if err := r.db.SelectContext(ctx, &members, query, teamID); err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// AddMember inserts a membership row; duplicate pairs violate the schema's
// unique constraint.
func (r *TeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	const query = `INSERT INTO team_members (id, team_id, user_id) VALUES (:id, :team_id, :user_id)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership by team and user.
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check member delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
