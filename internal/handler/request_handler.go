package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
	"github.com/gearguard/gearguard-api/pkg/response"
)

type requestService interface {
	Create(ctx context.Context, req dto.CreateRequestRequest, actor *models.Actor) (*models.MaintenanceRequest, error)
	Transition(ctx context.Context, id string, req dto.StageUpdateRequest, actor *models.Actor) (*models.MaintenanceRequest, error)
	List(ctx context.Context, query dto.RequestQuery, actor *models.Actor) ([]models.MaintenanceRequest, int, error)
	Get(ctx context.Context, id string, actor *models.Actor) (*models.MaintenanceRequest, error)
	Update(ctx context.Context, id string, req dto.UpdateRequestRequest, actor *models.Actor) (*models.MaintenanceRequest, error)
	Delete(ctx context.Context, id string, actor *models.Actor) error
	History(ctx context.Context, id string, actor *models.Actor) ([]models.RequestHistory, error)
	Kanban(ctx context.Context, actor *models.Actor) (*dto.KanbanBoard, error)
	Calendar(ctx context.Context, month, year int, actor *models.Actor) (*dto.CalendarView, error)
}

// RequestHandler exposes the maintenance request endpoints.
type RequestHandler struct {
	service requestService
}

// NewRequestHandler constructs the handler.
func NewRequestHandler(service requestService) *RequestHandler {
	return &RequestHandler{service: service}
}

// Create godoc
// @Summary Open a maintenance request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	actor := actorFromContext(c)
	request, err := h.service.Create(c.Request.Context(), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, decorateRequest(request), nil)
}

// List godoc
// @Summary List maintenance requests
// @Tags Requests
// @Produce json
// @Param status query string false "Stage filter"
// @Param request_type query string false "corrective or preventive"
// @Param equipment_id query string false "Equipment filter"
// @Param team_id query string false "Team filter"
// @Param search query string false "Subject search"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	query := dto.RequestQuery{
		Status:      c.Query("status"),
		RequestType: c.Query("request_type"),
		EquipmentID: c.Query("equipment_id"),
		TeamID:      c.Query("team_id"),
		AssignedTo:  c.Query("assigned_to"),
		Search:      c.Query("search"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 20),
	}
	actor := actorFromContext(c)
	requests, total, err := h.service.List(c.Request.Context(), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	decorated := make([]dto.RequestResponse, 0, len(requests))
	for i := range requests {
		decorated = append(decorated, *decorateRequest(&requests[i]))
	}
	pagination := &models.Pagination{Page: query.Page, PageSize: query.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, decorated, pagination)
}

// Get godoc
// @Summary Get request detail
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	actor := actorFromContext(c)
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decorateRequest(request), nil)
}

// Update godoc
// @Summary Update request descriptive fields
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateRequestRequest true "Patch payload"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [patch]
func (h *RequestHandler) Update(c *gin.Context) {
	var req dto.UpdateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	actor := actorFromContext(c)
	request, err := h.service.Update(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decorateRequest(request), nil)
}

// Delete godoc
// @Summary Delete a request
// @Tags Requests
// @Param id path string true "Request ID"
// @Success 204
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	actor := actorFromContext(c)
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateStage godoc
// @Summary Move a request to a new stage
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.StageUpdateRequest true "Target stage"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/status [patch]
func (h *RequestHandler) UpdateStage(c *gin.Context) {
	var req dto.StageUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid stage payload"))
		return
	}
	actor := actorFromContext(c)
	request, err := h.service.Transition(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decorateRequest(request), nil)
}

// History godoc
// @Summary List the stage transition trail
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/history [get]
func (h *RequestHandler) History(c *gin.Context) {
	actor := actorFromContext(c)
	history, err := h.service.History(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Kanban godoc
// @Summary Kanban board grouped by stage
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /requests/kanban [get]
func (h *RequestHandler) Kanban(c *gin.Context) {
	actor := actorFromContext(c)
	board, err := h.service.Kanban(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}

// Calendar godoc
// @Summary Preventive requests scheduled in a month
// @Tags Requests
// @Produce json
// @Param month query int true "Month 1-12"
// @Param year query int true "Year"
// @Success 200 {object} response.Envelope
// @Router /requests/calendar [get]
func (h *RequestHandler) Calendar(c *gin.Context) {
	now := time.Now().UTC()
	month := queryInt(c, "month", int(now.Month()))
	year := queryInt(c, "year", now.Year())
	actor := actorFromContext(c)
	view, err := h.service.Calendar(c.Request.Context(), month, year, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

func decorateRequest(request *models.MaintenanceRequest) *dto.RequestResponse {
	return &dto.RequestResponse{
		MaintenanceRequest: *request,
		IsOverdue:          request.IsOverdue(time.Now().UTC()),
		PriorityLabel:      request.PriorityLabel(),
	}
}
