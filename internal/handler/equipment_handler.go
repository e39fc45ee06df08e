package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
	"github.com/gearguard/gearguard-api/pkg/response"
)

type equipmentService interface {
	List(ctx context.Context, query dto.EquipmentQuery) ([]models.Equipment, int, error)
	Get(ctx context.Context, id string) (*dto.EquipmentResponse, error)
	Create(ctx context.Context, req dto.CreateEquipmentRequest) (*models.Equipment, error)
	Update(ctx context.Context, id string, req dto.UpdateEquipmentRequest) (*models.Equipment, error)
	Delete(ctx context.Context, id string) error
	ScrapLogs(ctx context.Context, equipmentID string) ([]models.EquipmentScrapLog, error)
}

// EquipmentHandler exposes the asset registry endpoints.
type EquipmentHandler struct {
	service equipmentService
}

// NewEquipmentHandler constructs the handler.
func NewEquipmentHandler(service equipmentService) *EquipmentHandler {
	return &EquipmentHandler{service: service}
}

// List godoc
// @Summary List equipment
// @Tags Equipment
// @Produce json
// @Param category query string false "Category filter"
// @Param department query string false "Department filter"
// @Param status query string false "Status filter"
// @Param team_id query string false "Team filter"
// @Param search query string false "Name or serial search"
// @Success 200 {object} response.Envelope
// @Router /equipment [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	query := dto.EquipmentQuery{
		Category:   c.Query("category"),
		Department: c.Query("department"),
		Status:     c.Query("status"),
		TeamID:     c.Query("team_id"),
		Search:     c.Query("search"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	equipment, total, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, equipment, pagination)
}

// Get godoc
// @Summary Get equipment detail with open request count
// @Tags Equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) Get(c *gin.Context) {
	equipment, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, equipment, nil)
}

// Create godoc
// @Summary Register an asset
// @Tags Equipment
// @Accept json
// @Produce json
// @Param payload body dto.CreateEquipmentRequest true "Equipment payload"
// @Success 201 {object} response.Envelope
// @Router /equipment [post]
func (h *EquipmentHandler) Create(c *gin.Context) {
	var req dto.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid equipment payload"))
		return
	}
	equipment, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, equipment, nil)
}

// Update godoc
// @Summary Update an asset
// @Tags Equipment
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Param payload body dto.UpdateEquipmentRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id} [patch]
func (h *EquipmentHandler) Update(c *gin.Context) {
	var req dto.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid equipment payload"))
		return
	}
	equipment, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, equipment, nil)
}

// Delete godoc
// @Summary Delete an asset without open requests
// @Tags Equipment
// @Param id path string true "Equipment ID"
// @Success 204
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ScrapLogs godoc
// @Summary List an asset's decommission history
// @Tags Equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Success 200 {object} response.Envelope
// @Router /equipment/{id}/scrap-logs [get]
func (h *EquipmentHandler) ScrapLogs(c *gin.Context) {
	logs, err := h.service.ScrapLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
