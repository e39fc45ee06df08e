package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/internal/repository"
	"github.com/gearguard/gearguard-api/internal/workflow"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type requestStore interface {
	Create(ctx context.Context, request *models.MaintenanceRequest, history *models.RequestHistory) error
	FindByID(ctx context.Context, id string) (*models.MaintenanceRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.MaintenanceRequest, int, error)
	ListByStage(ctx context.Context, stage models.RequestStage, teamIDs []string) ([]models.MaintenanceRequest, error)
	ListScheduled(ctx context.Context, from, to time.Time, teamIDs []string) ([]models.MaintenanceRequest, error)
	Update(ctx context.Context, request *models.MaintenanceRequest) error
	Delete(ctx context.Context, id string) error
	ListHistory(ctx context.Context, requestID string) ([]models.RequestHistory, error)
	ApplyTransition(ctx context.Context, params repository.TransitionParams) error
}

type equipmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Equipment, error)
}

// RequestService is the workflow engine for maintenance requests. Every stage
// change in the system, whatever endpoint triggered it, passes through
// Transition so the authorization and legality gates cannot be bypassed.
type RequestService struct {
	repo      requestStore
	equipment equipmentReader
	logger    *zap.Logger
	validate  *validator.Validate
	metrics   *MetricsService
	now       func() time.Time
}

// RequestServiceOption configures the service.
type RequestServiceOption func(*RequestService)

// WithRequestMetrics attaches transition instrumentation.
func WithRequestMetrics(metrics *MetricsService) RequestServiceOption {
	return func(s *RequestService) {
		s.metrics = metrics
	}
}

// NewRequestService constructs the service.
func NewRequestService(repo requestStore, equipment equipmentReader, logger *zap.Logger, opts ...RequestServiceOption) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &RequestService{
		repo:      repo,
		equipment: equipment,
		logger:    logger,
		validate:  validator.New(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Create opens a new request in stage "new", filling category, team, and
// technician from the linked equipment when the caller left them blank, and
// records the initial history row.
func (s *RequestService) Create(ctx context.Context, req dto.CreateRequestRequest, actor *models.Actor) (*models.MaintenanceRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if req.RequestType == models.TypePreventive &&
		actor.Role != models.RoleManager && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "preventive requests require manager or admin role")
	}

	request := &models.MaintenanceRequest{
		Reference:      s.generateReference(),
		Subject:        strings.TrimSpace(req.Subject),
		Description:    optionalString(req.Description),
		RequestType:    req.RequestType,
		MaintenanceFor: req.MaintenanceFor,
		Status:         models.StageNew,
		Priority:       req.Priority,
		ScheduledDate:  req.ScheduledDate,
		Notes:          optionalString(req.Notes),
		Instructions:   optionalString(req.Instructions),
		CreatedBy:      actor.ID,
	}
	if request.MaintenanceFor == "" {
		request.MaintenanceFor = "equipment"
	}
	if request.Priority == 0 {
		request.Priority = 2
	}
	if req.MaintenanceTeamID != "" {
		request.MaintenanceTeamID = &req.MaintenanceTeamID
	}
	if req.AssignedTo != "" {
		request.AssignedTo = &req.AssignedTo
	}

	if req.EquipmentID != "" {
		equipment, err := s.equipment.FindByID(ctx, req.EquipmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "equipment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
		}
		if equipment.IsScrapped() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "cannot create a request for scrapped equipment")
		}
		request.EquipmentID = &equipment.ID
		if equipment.Category != "" {
			request.Category = &equipment.Category
		}
		if request.MaintenanceTeamID == nil && equipment.MaintenanceTeamID != nil {
			request.MaintenanceTeamID = equipment.MaintenanceTeamID
		}
		if request.AssignedTo == nil && equipment.DefaultTechnicianID != nil {
			request.AssignedTo = equipment.DefaultTechnicianID
		}
	}

	comment := "Request created"
	history := &models.RequestHistory{
		ToStage:   models.StageNew,
		ChangedBy: &actor.ID,
		Comment:   &comment,
	}
	if err := s.repo.Create(ctx, request, history); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	s.logger.Info("maintenance request created",
		zap.String("request_id", request.ID),
		zap.String("reference", request.Reference),
		zap.String("created_by", actor.ID))
	return request, nil
}

// Transition moves a request to the target stage. Checks run in a fixed
// order: target validity, existence, transition legality, then authorization.
// A same-stage target is an idempotent success that writes nothing.
func (s *RequestService) Transition(ctx context.Context, id string, req dto.StageUpdateRequest, actor *models.Actor) (*models.MaintenanceRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	target := req.Status
	if !workflow.Valid(target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStage,
			fmt.Sprintf("invalid stage %q, must be one of: new, in_progress, repaired, scrap", target))
	}

	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	if request.Status == target {
		return request, nil
	}
	if err := workflow.Validate(request.Status, target); err != nil {
		return nil, err
	}

	if !actor.Role.CanTransition() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "stage transitions require technician, manager, or admin role")
	}
	if actor.Role == models.RoleTechnician {
		if request.MaintenanceTeamID == nil || !actor.MemberOf(*request.MaintenanceTeamID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only requests assigned to your team can be moved")
		}
	}
	if target == models.StageScrap && actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "scrapping a request requires admin role")
	}

	now := s.now()
	params := repository.TransitionParams{
		RequestID:     request.ID,
		FromStage:     request.Status,
		ToStage:       target,
		DurationHours: request.DurationHours,
	}
	startedAt := request.StartedAt
	completedAt := request.CompletedAt
	if target == models.StageInProgress && startedAt == nil {
		params.StartedAt = &now
		startedAt = &now
	}
	if (target == models.StageRepaired || target == models.StageScrap) && completedAt == nil {
		params.CompletedAt = &now
		completedAt = &now
	}
	if startedAt != nil && completedAt != nil {
		params.DurationHours = completedAt.Sub(*startedAt).Hours()
	}

	fromStage := request.Status
	history := &models.RequestHistory{
		FromStage:        &fromStage,
		ToStage:          target,
		ChangedBy:        &actor.ID,
		Comment:          optionalString(req.Comment),
		DurationAtChange: request.DurationHours,
	}
	params.History = history

	if target == models.StageScrap && request.EquipmentID != nil {
		params.ScrapEquipmentID = *request.EquipmentID
		reason := fmt.Sprintf("Scrapped via maintenance request: %s", request.Subject)
		params.ScrapLog = &models.EquipmentScrapLog{
			EquipmentID: *request.EquipmentID,
			RequestID:   &request.ID,
			ScrappedBy:  &actor.ID,
			Reason:      reason,
		}
	}

	if err := s.repo.ApplyTransition(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "request was modified concurrently, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
	}

	request.Status = target
	request.StartedAt = startedAt
	request.CompletedAt = completedAt
	request.DurationHours = params.DurationHours
	request.UpdatedAt = now
	s.metrics.RecordStageChange(string(fromStage), string(target))
	s.logger.Info("request stage changed",
		zap.String("request_id", request.ID),
		zap.String("from", string(fromStage)),
		zap.String("to", string(target)),
		zap.String("actor", actor.ID))
	return request, nil
}

// List returns requests visible to the actor. Technicians see their teams'
// requests, plain users their own, managers and admins everything.
func (s *RequestService) List(ctx context.Context, query dto.RequestQuery, actor *models.Actor) ([]models.MaintenanceRequest, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	filter := models.RequestFilter{
		Status:      models.RequestStage(query.Status),
		RequestType: models.RequestType(query.RequestType),
		EquipmentID: query.EquipmentID,
		TeamID:      query.TeamID,
		AssignedTo:  query.AssignedTo,
		Search:      strings.TrimSpace(query.Search),
		Page:        query.Page,
		PageSize:    query.PageSize,
	}
	if filter.Status != "" && !workflow.Valid(filter.Status) {
		return nil, 0, appErrors.Clone(appErrors.ErrInvalidStage,
			fmt.Sprintf("invalid stage %q, must be one of: new, in_progress, repaired, scrap", filter.Status))
	}
	if limited := s.scopeFilter(actor, &filter); limited {
		return []models.MaintenanceRequest{}, 0, nil
	}
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, total, nil
}

// Get loads one request, enforcing the actor's visibility scope. A request
// outside the scope reads as forbidden, not missing.
func (s *RequestService) Get(ctx context.Context, id string, actor *models.Actor) (*models.MaintenanceRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if err := s.checkScope(request, actor); err != nil {
		return nil, err
	}
	return request, nil
}

// Update patches descriptive fields. Stage is untouchable here; the payload
// has no status field and the repository update never writes it.
func (s *RequestService) Update(ctx context.Context, id string, req dto.UpdateRequestRequest, actor *models.Actor) (*models.MaintenanceRequest, error) {
	request, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleUser && request.CreatedBy != actor.ID {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if req.Subject != nil {
		request.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Description != nil {
		request.Description = optionalString(*req.Description)
	}
	if req.Priority != nil {
		request.Priority = *req.Priority
	}
	if req.MaintenanceTeamID != nil {
		request.MaintenanceTeamID = optionalString(*req.MaintenanceTeamID)
	}
	if req.AssignedTo != nil {
		request.AssignedTo = optionalString(*req.AssignedTo)
	}
	if req.ScheduledDate != nil {
		request.ScheduledDate = req.ScheduledDate
	}
	if req.Notes != nil {
		request.Notes = optionalString(*req.Notes)
	}
	if req.Instructions != nil {
		request.Instructions = optionalString(*req.Instructions)
	}
	if err := s.repo.Update(ctx, request); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	return request, nil
}

// Delete removes a request. Managers and admins only.
func (s *RequestService) Delete(ctx context.Context, id string, actor *models.Actor) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleManager && actor.Role != models.RoleAdmin {
		return appErrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	return nil
}

// History returns the transition trail of a request within the actor's scope.
func (s *RequestService) History(ctx context.Context, id string, actor *models.Actor) ([]models.RequestHistory, error) {
	if _, err := s.Get(ctx, id, actor); err != nil {
		return nil, err
	}
	history, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list request history")
	}
	return history, nil
}

// Kanban groups the actor's visible requests into stage columns ordered by
// priority.
func (s *RequestService) Kanban(ctx context.Context, actor *models.Actor) (*dto.KanbanBoard, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	teamIDs, limited := s.teamScope(actor)
	board := &dto.KanbanBoard{Columns: make([]dto.KanbanColumn, 0, len(models.Stages))}
	now := s.now()
	for _, stage := range models.Stages {
		column := dto.KanbanColumn{
			Stage:      stage,
			StageLabel: models.StageLabels[stage],
			Cards:      []dto.KanbanCard{},
		}
		if !limited {
			requests, err := s.repo.ListByStage(ctx, stage, teamIDs)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build kanban board")
			}
			for i := range requests {
				r := &requests[i]
				if actor.Role == models.RoleUser && r.CreatedBy != actor.ID {
					continue
				}
				column.Cards = append(column.Cards, dto.KanbanCard{
					ID:            r.ID,
					Reference:     r.Reference,
					Subject:       r.Subject,
					Priority:      r.Priority,
					PriorityLabel: r.PriorityLabel(),
					IsOverdue:     r.IsOverdue(now),
					ScheduledDate: r.ScheduledDate,
					AssignedTo:    r.AssignedTo,
				})
			}
		}
		column.Count = len(column.Cards)
		board.TotalRequests += column.Count
		board.Columns = append(board.Columns, column)
	}
	return board, nil
}

// Calendar lists preventive requests scheduled within the given month.
func (s *RequestService) Calendar(ctx context.Context, month, year int, actor *models.Actor) (*dto.CalendarView, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}
	view := &dto.CalendarView{Items: []dto.CalendarItem{}, Month: month, Year: year}
	teamIDs, limited := s.teamScope(actor)
	if limited {
		return view, nil
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	requests, err := s.repo.ListScheduled(ctx, from, to, teamIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build calendar")
	}
	for i := range requests {
		r := &requests[i]
		if actor.Role == models.RoleUser && r.CreatedBy != actor.ID {
			continue
		}
		view.Items = append(view.Items, dto.CalendarItem{
			ID:            r.ID,
			Reference:     r.Reference,
			Subject:       r.Subject,
			ScheduledDate: r.ScheduledDate,
			Status:        r.Status,
		})
	}
	return view, nil
}

// scopeFilter applies role-based visibility to the filter. It reports true
// when the actor can see nothing at all (technician without teams).
func (s *RequestService) scopeFilter(actor *models.Actor, filter *models.RequestFilter) bool {
	switch actor.Role {
	case models.RoleAdmin, models.RoleManager:
		return false
	case models.RoleTechnician:
		if len(actor.TeamIDs) == 0 {
			return true
		}
		filter.TeamIDs = actor.TeamIDs
		return false
	default:
		filter.CreatedBy = actor.ID
		return false
	}
}

// teamScope resolves the team restriction for board and calendar views.
func (s *RequestService) teamScope(actor *models.Actor) (teamIDs []string, emptyScope bool) {
	if actor.Role == models.RoleTechnician {
		if len(actor.TeamIDs) == 0 {
			return nil, true
		}
		return actor.TeamIDs, false
	}
	return nil, false
}

// checkScope applies the single-resource visibility rule: a request outside
// the actor's scope is forbidden rather than hidden.
func (s *RequestService) checkScope(request *models.MaintenanceRequest, actor *models.Actor) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleManager:
		return nil
	case models.RoleTechnician:
		if request.MaintenanceTeamID != nil && actor.MemberOf(*request.MaintenanceTeamID) {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "request belongs to another team")
	default:
		if request.CreatedBy == actor.ID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "request belongs to another user")
	}
}

func (s *RequestService) generateReference() string {
	return fmt.Sprintf("MR/%d/%05d", s.now().Year(), uuid.New().ID()%100000)
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	v := strings.TrimSpace(value)
	return &v
}
