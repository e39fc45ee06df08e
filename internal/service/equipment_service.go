package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type equipmentStore interface {
	List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, int, error)
	FindByID(ctx context.Context, id string) (*models.Equipment, error)
	Create(ctx context.Context, equipment *models.Equipment) error
	Update(ctx context.Context, equipment *models.Equipment) error
	Delete(ctx context.Context, id string) error
	CountOpenRequests(ctx context.Context, id string) (int, error)
	ListScrapLogs(ctx context.Context, equipmentID string) ([]models.EquipmentScrapLog, error)
}

// EquipmentService manages the asset registry. Scrapping is not available
// here; equipment reaches "scrapped" only through the request workflow.
type EquipmentService struct {
	repo      equipmentStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEquipmentService constructs the service.
func NewEquipmentService(repo equipmentStore, validate *validator.Validate, logger *zap.Logger) *EquipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EquipmentService{repo: repo, validator: validate, logger: logger}
}

// List returns assets matching the query.
func (s *EquipmentService) List(ctx context.Context, query dto.EquipmentQuery) ([]models.Equipment, int, error) {
	filter := models.EquipmentFilter{
		Category:   query.Category,
		Department: query.Department,
		Status:     models.EquipmentStatus(query.Status),
		TeamID:     query.TeamID,
		Search:     strings.TrimSpace(query.Search),
		Page:       query.Page,
		PageSize:   query.PageSize,
		SortBy:     query.SortBy,
		SortOrder:  query.SortOrder,
	}
	equipment, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list equipment")
	}
	return equipment, total, nil
}

// Get loads one asset with its open-request count.
func (s *EquipmentService) Get(ctx context.Context, id string) (*dto.EquipmentResponse, error) {
	equipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}
	openCount, err := s.repo.CountOpenRequests(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open requests")
	}
	return &dto.EquipmentResponse{
		Equipment:        *equipment,
		IsCritical:       equipment.IsCritical(),
		IsScrapped:       equipment.IsScrapped(),
		OpenRequestCount: openCount,
	}, nil
}

// Create registers a new asset, defaulting health to 100 and status to active.
func (s *EquipmentService) Create(ctx context.Context, req dto.CreateEquipmentRequest) (*models.Equipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	equipment := &models.Equipment{
		Name:                strings.TrimSpace(req.Name),
		SerialNumber:        strings.TrimSpace(req.SerialNumber),
		Category:            strings.TrimSpace(req.Category),
		Department:          optionalString(req.Department),
		AssignedEmployeeID:  optionalString(req.AssignedEmployeeID),
		MaintenanceTeamID:   optionalString(req.MaintenanceTeamID),
		DefaultTechnicianID: optionalString(req.DefaultTechnicianID),
		Location:            optionalString(req.Location),
		PurchaseDate:        req.PurchaseDate,
		PurchaseCost:        req.PurchaseCost,
		WarrantyExpiry:      req.WarrantyExpiry,
		WarrantyInfo:        optionalString(req.WarrantyInfo),
		HealthPercentage:    100,
		Status:              models.EquipmentActive,
		Notes:               optionalString(req.Notes),
	}
	if req.HealthPercentage != nil {
		equipment.HealthPercentage = *req.HealthPercentage
	}
	if err := s.repo.Create(ctx, equipment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment")
	}
	s.logger.Info("equipment registered",
		zap.String("equipment_id", equipment.ID),
		zap.String("serial_number", equipment.SerialNumber))
	return equipment, nil
}

// Update patches asset fields. Scrapped assets are read-only; the scrapped
// status itself is rejected via the payload's allowed status set.
func (s *EquipmentService) Update(ctx context.Context, id string, req dto.UpdateEquipmentRequest) (*models.Equipment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	equipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}
	if equipment.IsScrapped() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "scrapped equipment cannot be modified")
	}
	if req.Name != nil {
		equipment.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		equipment.Category = strings.TrimSpace(*req.Category)
	}
	if req.Department != nil {
		equipment.Department = optionalString(*req.Department)
	}
	if req.AssignedEmployeeID != nil {
		equipment.AssignedEmployeeID = optionalString(*req.AssignedEmployeeID)
	}
	if req.MaintenanceTeamID != nil {
		equipment.MaintenanceTeamID = optionalString(*req.MaintenanceTeamID)
	}
	if req.DefaultTechnicianID != nil {
		equipment.DefaultTechnicianID = optionalString(*req.DefaultTechnicianID)
	}
	if req.Location != nil {
		equipment.Location = optionalString(*req.Location)
	}
	if req.PurchaseDate != nil {
		equipment.PurchaseDate = req.PurchaseDate
	}
	if req.PurchaseCost != nil {
		equipment.PurchaseCost = req.PurchaseCost
	}
	if req.WarrantyExpiry != nil {
		equipment.WarrantyExpiry = req.WarrantyExpiry
	}
	if req.WarrantyInfo != nil {
		equipment.WarrantyInfo = optionalString(*req.WarrantyInfo)
	}
	if req.HealthPercentage != nil {
		equipment.HealthPercentage = *req.HealthPercentage
	}
	if req.Status != nil {
		equipment.Status = *req.Status
	}
	if req.Notes != nil {
		equipment.Notes = optionalString(*req.Notes)
	}
	if err := s.repo.Update(ctx, equipment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update equipment")
	}
	return equipment, nil
}

// Delete removes an asset with no open requests.
func (s *EquipmentService) Delete(ctx context.Context, id string) error {
	openCount, err := s.repo.CountOpenRequests(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open requests")
	}
	if openCount > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "equipment has open maintenance requests")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete equipment")
	}
	return nil
}

// ScrapLogs lists the decommission trail for an asset.
func (s *EquipmentService) ScrapLogs(ctx context.Context, equipmentID string) ([]models.EquipmentScrapLog, error) {
	if _, err := s.repo.FindByID(ctx, equipmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}
	logs, err := s.repo.ListScrapLogs(ctx, equipmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scrap logs")
	}
	return logs, nil
}
