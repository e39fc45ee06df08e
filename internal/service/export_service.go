package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/pkg/export"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

// ReportFormat enumerates supported export encodings.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

type exportRequestLister interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.MaintenanceRequest, int, error)
}

type exportEquipmentLister interface {
	List(ctx context.Context, filter models.EquipmentFilter) ([]models.Equipment, int, error)
}

// ExportConfig tunes report behaviour.
type ExportConfig struct {
	MaxRows  int
	Timezone string
}

// ExportResult carries a rendered report ready for the HTTP response.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders request and equipment listings as downloadable
// CSV or PDF reports.
type ExportService struct {
	requests  exportRequestLister
	equipment exportEquipmentLister
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
	cfg       ExportConfig
	location  *time.Location
}

// NewExportService constructs an ExportService.
func NewExportService(requests exportRequestLister, equipment exportEquipmentLister, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 10000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	location := time.UTC
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			location = loc
		} else {
			logger.Warn("invalid report timezone, using UTC", zap.String("timezone", cfg.Timezone))
		}
	}
	return &ExportService{
		requests:  requests,
		equipment: equipment,
		csv:       csv,
		pdf:       pdf,
		logger:    logger,
		cfg:       cfg,
		location:  location,
	}
}

// RequestsReport renders the actor-visible requests as a report.
func (s *ExportService) RequestsReport(ctx context.Context, format ReportFormat, query dto.RequestQuery, actor *models.Actor) (*ExportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.RequestFilter{
		Status:      models.RequestStage(query.Status),
		RequestType: models.RequestType(query.RequestType),
		EquipmentID: query.EquipmentID,
		TeamID:      query.TeamID,
		Page:        1,
		PageSize:    s.cfg.MaxRows,
	}
	switch actor.Role {
	case models.RoleAdmin, models.RoleManager:
	case models.RoleTechnician:
		if len(actor.TeamIDs) == 0 {
			return s.render(format, "Maintenance Requests", requestDataset(nil, s.location))
		}
		filter.TeamIDs = actor.TeamIDs
	default:
		filter.CreatedBy = actor.ID
	}
	requests, _, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requests for report")
	}
	return s.render(format, "Maintenance Requests", requestDataset(requests, s.location))
}

// EquipmentReport renders the asset registry as a report. Managers and
// admins only; the handler gates the route.
func (s *ExportService) EquipmentReport(ctx context.Context, format ReportFormat, query dto.EquipmentQuery) (*ExportResult, error) {
	filter := models.EquipmentFilter{
		Category:   query.Category,
		Department: query.Department,
		Status:     models.EquipmentStatus(query.Status),
		TeamID:     query.TeamID,
		Page:       1,
		PageSize:   s.cfg.MaxRows,
	}
	equipment, _, err := s.equipment.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment for report")
	}
	return s.render(format, "Equipment Registry", equipmentDataset(equipment))
}

func (s *ExportService) render(format ReportFormat, title string, dataset export.Dataset) (*ExportResult, error) {
	stamp := time.Now().In(s.location).Format("20060102-150405")
	slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	switch format {
	case ReportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.csv", slug, stamp),
			ContentType: "text/csv",
			Payload:     payload,
		}, nil
	case ReportFormatPDF:
		payload, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.pdf", slug, stamp),
			ContentType: "application/pdf",
			Payload:     payload,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
}

func requestDataset(requests []models.MaintenanceRequest, location *time.Location) export.Dataset {
	headers := []string{"Reference", "Subject", "Type", "Status", "Priority", "Scheduled", "Duration (h)", "Created"}
	rows := make([]map[string]string, 0, len(requests))
	for i := range requests {
		r := &requests[i]
		scheduled := ""
		if r.ScheduledDate != nil {
			scheduled = r.ScheduledDate.In(location).Format("2006-01-02")
		}
		rows = append(rows, map[string]string{
			"Reference":    r.Reference,
			"Subject":      r.Subject,
			"Type":         string(r.RequestType),
			"Status":       string(r.Status),
			"Priority":     r.PriorityLabel(),
			"Scheduled":    scheduled,
			"Duration (h)": strconv.FormatFloat(r.DurationHours, 'f', 2, 64),
			"Created":      r.CreatedAt.In(location).Format("2006-01-02 15:04"),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func equipmentDataset(equipment []models.Equipment) export.Dataset {
	headers := []string{"Name", "Serial", "Category", "Status", "Health %", "Location"}
	rows := make([]map[string]string, 0, len(equipment))
	for i := range equipment {
		e := &equipment[i]
		location := ""
		if e.Location != nil {
			location = *e.Location
		}
		rows = append(rows, map[string]string{
			"Name":     e.Name,
			"Serial":   e.SerialNumber,
			"Category": e.Category,
			"Status":   string(e.Status),
			"Health %": strconv.Itoa(e.HealthPercentage),
			"Location": location,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
