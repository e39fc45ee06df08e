package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	"github.com/gearguard/gearguard-api/internal/repository"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type dashboardStore interface {
	CountCriticalEquipment(ctx context.Context, threshold int) (int, error)
	CountTechnicians(ctx context.Context) (int, error)
	CountBusyTechnicians(ctx context.Context) (int, error)
	CountRequestsByStage(ctx context.Context, stage models.RequestStage) (int, error)
	CountOverdueRequests(ctx context.Context, now time.Time) (int, error)
	CountRequestsByType(ctx context.Context, requestType models.RequestType) (int, error)
	CountEquipmentInHealthBand(ctx context.Context, low, high int) (int, error)
	CountEquipment(ctx context.Context) (int, error)
	CountTeams(ctx context.Context) (int, error)
	RecentActivity(ctx context.Context, limit int) ([]repository.RecentActivityRow, error)
}

const (
	cacheKeyKPIs     = "dashboard:kpis"
	cacheKeySummary  = "dashboard:summary"
	cacheKeyActivity = "dashboard:activity"
)

// DashboardService aggregates the KPI queries and caches the payloads.
type DashboardService struct {
	repo   dashboardStore
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(repo dashboardStore, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// KPIs returns the headline dashboard indicators.
func (s *DashboardService) KPIs(ctx context.Context) (*dto.DashboardKPIs, error) {
	var cached dto.DashboardKPIs
	if hit, _ := s.cache.Get(ctx, cacheKeyKPIs, &cached); hit {
		return &cached, nil
	}

	kpis, err := s.buildKPIs(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cacheKeyKPIs, kpis, s.ttl); err != nil {
		s.logger.Warn("failed to cache dashboard kpis", zap.Error(err))
	}
	return kpis, nil
}

// Summary returns the full dashboard payload with health distribution and
// request breakdowns.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, error) {
	var cached dto.DashboardSummary
	if hit, _ := s.cache.Get(ctx, cacheKeySummary, &cached); hit {
		return &cached, nil
	}

	kpis, err := s.buildKPIs(ctx)
	if err != nil {
		return nil, err
	}

	health, err := s.buildHealthSummary(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int, len(models.Stages))
	for _, stage := range models.Stages {
		count, err := s.repo.CountRequestsByStage(ctx, stage)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests by status")
		}
		byStatus[string(stage)] = count
	}

	byType := make(map[string]int, 2)
	for _, requestType := range []models.RequestType{models.TypeCorrective, models.TypePreventive} {
		count, err := s.repo.CountRequestsByType(ctx, requestType)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count requests by type")
		}
		byType[string(requestType)] = count
	}

	totalEquipment, err := s.repo.CountEquipment(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count equipment")
	}
	totalTeams, err := s.repo.CountTeams(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teams")
	}

	summary := &dto.DashboardSummary{
		KPIs:             *kpis,
		EquipmentHealth:  *health,
		RequestsByType:   byType,
		RequestsByStatus: byStatus,
		TotalEquipment:   totalEquipment,
		TotalTeams:       totalTeams,
	}
	if err := s.cache.Set(ctx, cacheKeySummary, summary, s.ttl); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
	return summary, nil
}

// Activity returns the recent request activity feed.
func (s *DashboardService) Activity(ctx context.Context, limit int) ([]dto.ActivityItem, error) {
	var cached []dto.ActivityItem
	if hit, _ := s.cache.Get(ctx, cacheKeyActivity, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.RecentActivity(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent activity")
	}
	items := make([]dto.ActivityItem, 0, len(rows))
	for _, row := range rows {
		item := dto.ActivityItem{
			ID:          row.ID,
			Type:        "maintenance_request",
			Title:       row.Subject,
			Description: fmt.Sprintf("Request moved to %s", models.StageLabels[row.Status]),
			Status:      string(row.Status),
			Timestamp:   row.UpdatedAt,
		}
		if row.CreatorName != nil {
			item.UserName = *row.CreatorName
		}
		if row.EquipmentName != nil {
			item.EquipmentName = *row.EquipmentName
		}
		items = append(items, item)
	}
	if err := s.cache.Set(ctx, cacheKeyActivity, items, s.ttl); err != nil {
		s.logger.Warn("failed to cache activity feed", zap.Error(err))
	}
	return items, nil
}

// InvalidateCache drops all cached dashboard payloads.
func (s *DashboardService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, "dashboard:*")
}

func (s *DashboardService) buildKPIs(ctx context.Context) (*dto.DashboardKPIs, error) {
	criticalCount, err := s.repo.CountCriticalEquipment(ctx, models.CriticalHealthThreshold)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count critical equipment")
	}

	totalTechnicians, err := s.repo.CountTechnicians(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count technicians")
	}
	busyTechnicians, err := s.repo.CountBusyTechnicians(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count busy technicians")
	}
	var utilization float64
	if totalTechnicians > 0 {
		utilization = float64(busyTechnicians) / float64(totalTechnicians) * 100
	}

	pending, err := s.repo.CountRequestsByStage(ctx, models.StageNew)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending requests")
	}
	inProgress, err := s.repo.CountRequestsByStage(ctx, models.StageInProgress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count in-progress requests")
	}
	overdue, err := s.repo.CountOverdueRequests(ctx, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count overdue requests")
	}

	return &dto.DashboardKPIs{
		CriticalEquipment: dto.CriticalEquipmentKPI{
			Count:       criticalCount,
			Threshold:   models.CriticalHealthThreshold,
			Label:       "Critical Equipment",
			Description: fmt.Sprintf("Equipment with health below %d%%", models.CriticalHealthThreshold),
		},
		TechnicianLoad: dto.TechnicianLoadKPI{
			UtilizationPercentage: utilization,
			ActiveTechnicians:     busyTechnicians,
			TotalTechnicians:      totalTechnicians,
			Label:                 "Technician Load",
			Description:           "Share of technicians with in-progress work",
		},
		OpenRequests: dto.OpenRequestsKPI{
			PendingCount:    pending,
			InProgressCount: inProgress,
			OverdueCount:    overdue,
			Label:           "Open Requests",
			Description:     "Requests awaiting or undergoing work",
		},
		LastUpdated: time.Now().UTC(),
	}, nil
}

func (s *DashboardService) buildHealthSummary(ctx context.Context) (*dto.EquipmentHealthSummary, error) {
	summary := &dto.EquipmentHealthSummary{}
	bands := []struct {
		low, high int
		dest      *int
	}{
		{0, 30, &summary.Critical},
		{30, 50, &summary.Poor},
		{50, 70, &summary.Fair},
		{70, 101, &summary.Good},
	}
	for _, band := range bands {
		count, err := s.repo.CountEquipmentInHealthBand(ctx, band.low, band.high)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bucket equipment health")
		}
		*band.dest = count
		summary.Total += count
	}
	return summary, nil
}
