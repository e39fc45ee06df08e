package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/pkg/response"
)

type dashboardService interface {
	KPIs(ctx context.Context) (*dto.DashboardKPIs, error)
	Summary(ctx context.Context) (*dto.DashboardSummary, error)
	Activity(ctx context.Context, limit int) ([]dto.ActivityItem, error)
}

// DashboardHandler exposes the KPI endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// KPIs godoc
// @Summary Headline dashboard indicators
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/kpis [get]
func (h *DashboardHandler) KPIs(c *gin.Context) {
	kpis, err := h.service.KPIs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, kpis, nil)
}

// Summary godoc
// @Summary Full dashboard payload
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Activity godoc
// @Summary Recent request activity feed
// @Tags Dashboard
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /dashboard/activity [get]
func (h *DashboardHandler) Activity(c *gin.Context) {
	items, err := h.service.Activity(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
