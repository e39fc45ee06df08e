package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/internal/service"
	"github.com/gearguard/gearguard-api/pkg/response"
)

type exportService interface {
	RequestsReport(ctx context.Context, format service.ReportFormat, query dto.RequestQuery, actor *models.Actor) (*service.ExportResult, error)
	EquipmentReport(ctx context.Context, format service.ReportFormat, query dto.EquipmentQuery) (*service.ExportResult, error)
}

// ReportHandler streams rendered CSV and PDF reports.
type ReportHandler struct {
	service exportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(service exportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Requests godoc
// @Summary Download the request listing as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /reports/requests [get]
func (h *ReportHandler) Requests(c *gin.Context) {
	query := dto.RequestQuery{
		Status:      c.Query("status"),
		RequestType: c.Query("request_type"),
		EquipmentID: c.Query("equipment_id"),
		TeamID:      c.Query("team_id"),
	}
	actor := actorFromContext(c)
	result, err := h.service.RequestsReport(c.Request.Context(), reportFormat(c), query, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeReport(c, result)
}

// Equipment godoc
// @Summary Download the asset registry as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /reports/equipment [get]
func (h *ReportHandler) Equipment(c *gin.Context) {
	query := dto.EquipmentQuery{
		Category:   c.Query("category"),
		Department: c.Query("department"),
		Status:     c.Query("status"),
		TeamID:     c.Query("team_id"),
	}
	result, err := h.service.EquipmentReport(c.Request.Context(), reportFormat(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeReport(c, result)
}

func reportFormat(c *gin.Context) service.ReportFormat {
	format := c.DefaultQuery("format", string(service.ReportFormatCSV))
	return service.ReportFormat(format)
}

func writeReport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
