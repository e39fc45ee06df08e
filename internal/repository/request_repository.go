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

const requestColumns = `id, reference, subject, description, request_type, maintenance_for, status, priority,
       equipment_id, category, maintenance_team_id, assigned_to, created_by,
       request_date, scheduled_date, started_at, completed_at, duration_hours,
       notes, instructions, created_at, updated_at`

// RequestRepository persists maintenance requests, their history trail, and
// the scrap side effects applied by the workflow engine.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a request together with its initial history row in one
// transaction.
func (r *RequestRepository) Create(ctx context.Context, request *models.MaintenanceRequest, history *models.RequestHistory) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	if request.RequestDate == nil {
		day := now.Truncate(24 * time.Hour)
		request.RequestDate = &day
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertRequest = `INSERT INTO maintenance_requests
	(id, reference, subject, description, request_type, maintenance_for, status, priority,
	 equipment_id, category, maintenance_team_id, assigned_to, created_by,
	 request_date, scheduled_date, started_at, completed_at, duration_hours,
	 notes, instructions, created_at, updated_at)
	VALUES (:id, :reference, :subject, :description, :request_type, :maintenance_for, :status, :priority,
	 :equipment_id, :category, :maintenance_team_id, :assigned_to, :created_by,
	 :request_date, :scheduled_date, :started_at, :completed_at, :duration_hours,
	 :notes, :instructions, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertRequest, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if history != nil {
		history.RequestID = request.ID
		if err = insertHistoryTx(ctx, tx, history); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create request tx: %w", err)
	}
	return nil
}

// FindByID loads a request by identifier.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.MaintenanceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM maintenance_requests WHERE id = $1`, requestColumns)
	var request models.MaintenanceRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter, newest first, with a total count.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.MaintenanceRequest, int, error) {
	base := "FROM maintenance_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.RequestType != "" {
		args = append(args, filter.RequestType)
		conditions = append(conditions, fmt.Sprintf("request_type = $%d", len(args)))
	}
	if filter.EquipmentID != "" {
		args = append(args, filter.EquipmentID)
		conditions = append(conditions, fmt.Sprintf("equipment_id = $%d", len(args)))
	}
	if filter.TeamID != "" {
		args = append(args, filter.TeamID)
		conditions = append(conditions, fmt.Sprintf("maintenance_team_id = $%d", len(args)))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("subject ILIKE $%d", len(args)))
	}
	if len(filter.TeamIDs) > 0 {
		placeholders := make([]string, len(filter.TeamIDs))
		for i, teamID := range filter.TeamIDs {
			args = append(args, teamID)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("maintenance_team_id IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", requestColumns, base, size, offset)

	var requests []models.MaintenanceRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	return requests, total, nil
}

// ListByStage returns requests in a stage ordered for the Kanban board.
func (r *RequestRepository) ListByStage(ctx context.Context, stage models.RequestStage, teamIDs []string) ([]models.MaintenanceRequest, error) {
	args := []interface{}{stage}
	query := fmt.Sprintf("SELECT %s FROM maintenance_requests WHERE status = $1", requestColumns)
	if len(teamIDs) > 0 {
		placeholders := make([]string, len(teamIDs))
		for i, teamID := range teamIDs {
			args = append(args, teamID)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND maintenance_team_id IN (%s)", strings.Join(placeholders, ","))
	}
	query += " ORDER BY priority DESC, created_at DESC"

	var requests []models.MaintenanceRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list requests by stage: %w", err)
	}
	return requests, nil
}

// ListScheduled returns preventive requests scheduled inside [from, to).
func (r *RequestRepository) ListScheduled(ctx context.Context, from, to time.Time, teamIDs []string) ([]models.MaintenanceRequest, error) {
	args := []interface{}{models.TypePreventive, from, to}
	query := fmt.Sprintf(`SELECT %s FROM maintenance_requests
	WHERE request_type = $1 AND scheduled_date >= $2 AND scheduled_date < $3`, requestColumns)
	if len(teamIDs) > 0 {
		placeholders := make([]string, len(teamIDs))
		for i, teamID := range teamIDs {
			args = append(args, teamID)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND maintenance_team_id IN (%s)", strings.Join(placeholders, ","))
	}
	query += " ORDER BY scheduled_date"

	var requests []models.MaintenanceRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, fmt.Errorf("list scheduled requests: %w", err)
	}
	return requests, nil
}

// Update persists descriptive field changes. Stage is deliberately absent;
// only ApplyTransition may change it.
func (r *RequestRepository) Update(ctx context.Context, request *models.MaintenanceRequest) error {
	request.UpdatedAt = time.Now().UTC()
	const query = `UPDATE maintenance_requests SET
	subject = :subject, description = :description, priority = :priority,
	maintenance_team_id = :maintenance_team_id, assigned_to = :assigned_to,
	scheduled_date = :scheduled_date, notes = :notes, instructions = :instructions,
	updated_at = :updated_at
	WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, request)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check request update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request; history rows cascade at the schema level.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check request delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListHistory returns the stage transition trail, newest first.
func (r *RequestRepository) ListHistory(ctx context.Context, requestID string) ([]models.RequestHistory, error) {
	const query = `SELECT id, request_id, from_stage, to_stage, changed_by, comment, duration_at_change, changed_at
	FROM request_history WHERE request_id = $1 ORDER BY changed_at DESC`
	var history []models.RequestHistory
	if err := r.db.SelectContext(ctx, &history, query, requestID); err != nil {
		return nil, fmt.Errorf("list request history: %w", err)
	}
	return history, nil
}

// TransitionParams groups the writes applied atomically by ApplyTransition.
type TransitionParams struct {
	RequestID     string
	FromStage     models.RequestStage
	ToStage       models.RequestStage
	StartedAt     *time.Time
	CompletedAt   *time.Time
	DurationHours float64
	History       *models.RequestHistory

	// Scrap side effect, set only when ToStage is scrap and equipment is linked.
	ScrapEquipmentID string
	ScrapLog         *models.EquipmentScrapLog
}

// ApplyTransition performs the stage change, history append, and optional
// equipment scrap as one transaction. The stage update is guarded on the
// stage the caller validated against; sql.ErrNoRows is returned when the row
// was concurrently moved, leaving no partial state behind.
func (r *RequestRepository) ApplyTransition(ctx context.Context, params TransitionParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `UPDATE maintenance_requests
	SET status = $1,
	    started_at = COALESCE($2, started_at),
	    completed_at = COALESCE($3, completed_at),
	    duration_hours = $4,
	    updated_at = $5
	WHERE id = $6 AND status = $7`,
		params.ToStage, params.StartedAt, params.CompletedAt, params.DurationHours, now,
		params.RequestID, params.FromStage)
	if err != nil {
		return fmt.Errorf("update request stage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check stage update rows: %w", err)
	}
	if rows == 0 {
		err = sql.ErrNoRows
		return err
	}

	if params.History != nil {
		params.History.RequestID = params.RequestID
		if err = insertHistoryTx(ctx, tx, params.History); err != nil {
			return err
		}
	}

	if params.ScrapEquipmentID != "" {
		if _, err = tx.ExecContext(ctx,
			`UPDATE equipment SET status = $1, updated_at = $2 WHERE id = $3`,
			models.EquipmentScrapped, now, params.ScrapEquipmentID); err != nil {
			return fmt.Errorf("mark equipment scrapped: %w", err)
		}
		if params.ScrapLog != nil {
			log := params.ScrapLog
			if log.ID == "" {
				log.ID = uuid.NewString()
			}
			if log.ScrappedAt.IsZero() {
				log.ScrappedAt = now
			}
			if _, err = tx.NamedExecContext(ctx, `INSERT INTO equipment_scrap_logs
			(id, equipment_id, request_id, scrapped_by, reason, scrap_value, disposal_method, scrapped_at)
			VALUES (:id, :equipment_id, :request_id, :scrapped_by, :reason, :scrap_value, :disposal_method, :scrapped_at)`,
				log); err != nil {
				return fmt.Errorf("create scrap log: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transition tx: %w", err)
	}
	return nil
}

func insertHistoryTx(ctx context.Context, tx *sqlx.Tx, history *models.RequestHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	if history.ChangedAt.IsZero() {
		history.ChangedAt = time.Now().UTC()
	}
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO request_history
	(id, request_id, from_stage, to_stage, changed_by, comment, duration_at_change, changed_at)
	VALUES (:id, :request_id, :from_stage, :to_stage, :changed_by, :comment, :duration_at_change, :changed_at)`,
		history); err != nil {
		return fmt.Errorf("create history row: %w", err)
	}
	return nil
}
