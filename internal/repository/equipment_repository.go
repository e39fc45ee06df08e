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

const equipmentColumns = `id, name, serial_number, category, department, assigned_employee_id,
       maintenance_team_id, default_technician_id, location, purchase_date, purchase_cost,
       warranty_expiry, warranty_info, health_percentage, status, notes, created_at, updated_at`

// EquipmentRepository handles persistence for the asset registry.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository instantiates an equipment repository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

// List returns equipment matching the filter with a total count.
func (r *EquipmentRepository) List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, int, error) {
	base := "FROM equipment WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.TeamID != "" {
		args = append(args, filter.TeamID)
		conditions = append(conditions, fmt.Sprintf("maintenance_team_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR serial_number ILIKE $%d)", len(args), len(args)))
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "category": true, "health_percentage": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", equipmentColumns, base, sortBy, order, size, offset)

	var equipment []models.Equipment
	if err := r.db.SelectContext(ctx, &equipment, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list equipment: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count equipment: %w", err)
	}

	return equipment, total, nil
}

// FindByID loads an asset by identifier.
func (r *EquipmentRepository) FindByID(ctx context.Context, id string) (*models.Equipment, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment WHERE id = $1`, equipmentColumns)
	var equipment models.Equipment
	if err := r.db.GetContext(ctx, &equipment, query, id); err != nil {
		return nil, err
	}
	return &equipment, nil
}

// Create inserts a new asset record.
func (r *EquipmentRepository) Create(ctx context.Context, equipment *models.Equipment) error {
	if equipment.ID == "" {
		equipment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if equipment.CreatedAt.IsZero() {
		equipment.CreatedAt = now
	}
	equipment.UpdatedAt = now
	if equipment.Status == "" {
		equipment.Status = models.EquipmentActive
	}

	const query = `INSERT INTO equipment
	(id, name, serial_number, category, department, assigned_employee_id, maintenance_team_id,
	 default_technician_id, location, purchase_date, purchase_cost, warranty_expiry, warranty_info,
	 health_percentage, status, notes, created_at, updated_at)
	VALUES (:id, :name, :serial_number, :category, :department, :assigned_employee_id, :maintenance_team_id,
	 :default_technician_id, :location, :purchase_date, :purchase_cost, :warranty_expiry, :warranty_info,
	 :health_percentage, :status, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, equipment); err != nil {
		return fmt.Errorf("create equipment: %w", err)
	}
	return nil
}

// Update modifies an existing asset.
func (r *EquipmentRepository) Update(ctx context.Context, equipment *models.Equipment) error {
	equipment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE equipment SET name = :name, serial_number = :serial_number, category = :category,
	department = :department, assigned_employee_id = :assigned_employee_id,
	maintenance_team_id = :maintenance_team_id, default_technician_id = :default_technician_id,
	location = :location, purchase_date = :purchase_date, purchase_cost = :purchase_cost,
	warranty_expiry = :warranty_expiry, warranty_info = :warranty_info,
	health_percentage = :health_percentage, status = :status, notes = :notes, updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, equipment)
	if err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check equipment update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an asset permanently.
func (r *EquipmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	return nil
}

// CountOpenRequests returns the number of unfinished requests for an asset.
func (r *EquipmentRepository) CountOpenRequests(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM maintenance_requests WHERE equipment_id = $1 AND status IN ('new', 'in_progress')`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count open requests: %w", err)
	}
	return count, nil
}

// ListScrapLogs returns the decommission records for an asset, newest first.
func (r *EquipmentRepository) ListScrapLogs(ctx context.Context, equipmentID string) ([]models.EquipmentScrapLog, error) {
	const query = `SELECT id, equipment_id, request_id, scrapped_by, reason, scrap_value, disposal_method, scrapped_at
	FROM equipment_scrap_logs WHERE equipment_id = $1 ORDER BY scrapped_at DESC`
	var logs []models.EquipmentScrapLog
	if err := r.db.SelectContext(ctx, &logs, query, equipmentID); err != nil {
		return nil, fmt.Errorf("list scrap logs: %w", err)
	}
	return logs, nil
}
