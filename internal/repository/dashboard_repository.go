package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gearguard/gearguard-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind dashboard KPIs.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// CountCriticalEquipment counts non-scrapped assets under the health threshold.
func (r *DashboardRepository) CountCriticalEquipment(ctx context.Context, threshold int) (int, error) {
	const query = `SELECT COUNT(*) FROM equipment WHERE health_percentage < $1 AND status <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, threshold, models.EquipmentScrapped); err != nil {
		return 0, fmt.Errorf("count critical equipment: %w", err)
	}
	return count, nil
}

// CountTechnicians returns active users flagged as technicians.
func (r *DashboardRepository) CountTechnicians(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE is_technician = TRUE AND is_active = TRUE`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count technicians: %w", err)
	}
	return count, nil
}

// CountBusyTechnicians returns distinct technicians with in-progress work.
func (r *DashboardRepository) CountBusyTechnicians(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(DISTINCT assigned_to) FROM maintenance_requests WHERE status = $1 AND assigned_to IS NOT NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.StageInProgress); err != nil {
		return 0, fmt.Errorf("count busy technicians: %w", err)
	}
	return count, nil
}

// CountRequestsByStage counts requests in a single stage.
func (r *DashboardRepository) CountRequestsByStage(ctx context.Context, stage models.RequestStage) (int, error) {
	const query = `SELECT COUNT(*) FROM maintenance_requests WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, stage); err != nil {
		return 0, fmt.Errorf("count requests by stage: %w", err)
	}
	return count, nil
}

// CountOverdueRequests counts open requests whose scheduled date has passed.
func (r *DashboardRepository) CountOverdueRequests(ctx context.Context, now time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM maintenance_requests
	WHERE scheduled_date < $1 AND status IN ($2, $3)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, now, models.StageNew, models.StageInProgress); err != nil {
		return 0, fmt.Errorf("count overdue requests: %w", err)
	}
	return count, nil
}

// CountRequestsByType counts requests of one type.
func (r *DashboardRepository) CountRequestsByType(ctx context.Context, requestType models.RequestType) (int, error) {
	const query = `SELECT COUNT(*) FROM maintenance_requests WHERE request_type = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, requestType); err != nil {
		return 0, fmt.Errorf("count requests by type: %w", err)
	}
	return count, nil
}

// CountEquipmentInHealthBand counts assets with health in [low, high).
func (r *DashboardRepository) CountEquipmentInHealthBand(ctx context.Context, low, high int) (int, error) {
	const query = `SELECT COUNT(*) FROM equipment WHERE health_percentage >= $1 AND health_percentage < $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, low, high); err != nil {
		return 0, fmt.Errorf("count equipment health band: %w", err)
	}
	return count, nil
}

// CountEquipment returns total non-scrapped assets.
func (r *DashboardRepository) CountEquipment(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM equipment WHERE status <> $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.EquipmentScrapped); err != nil {
		return 0, fmt.Errorf("count equipment: %w", err)
	}
	return count, nil
}

// CountTeams returns total maintenance teams.
func (r *DashboardRepository) CountTeams(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM maintenance_teams`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count teams: %w", err)
	}
	return count, nil
}

// RecentActivityRow is a recently updated request joined with display names.
type RecentActivityRow struct {
	ID            string              `db:"id"`
	Subject       string              `db:"subject"`
	Status        models.RequestStage `db:"status"`
	CreatorName   *string             `db:"creator_name"`
	EquipmentName *string             `db:"equipment_name"`
	UpdatedAt     time.Time           `db:"updated_at"`
}

// RecentActivity returns the latest updated requests with creator and
// equipment names resolved.
func (r *DashboardRepository) RecentActivity(ctx context.Context, limit int) ([]RecentActivityRow, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT mr.id, mr.subject, mr.status, u.name AS creator_name, e.name AS equipment_name, mr.updated_at
	FROM maintenance_requests mr
	LEFT JOIN users u ON u.id = mr.created_by
	LEFT JOIN equipment e ON e.id = mr.equipment_id
	ORDER BY mr.updated_at DESC LIMIT %d`, limit)
	var rows []RecentActivityRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}
	return rows, nil
}
