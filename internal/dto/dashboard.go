package dto

import "time"

// CriticalEquipmentKPI counts assets with health below the critical threshold.
type CriticalEquipmentKPI struct {
	Count       int    `json:"count"`
	Threshold   int    `json:"threshold"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// TechnicianLoadKPI summarises technician utilisation.
type TechnicianLoadKPI struct {
	UtilizationPercentage float64 `json:"utilization_percentage"`
	ActiveTechnicians     int     `json:"active_technicians"`
	TotalTechnicians      int     `json:"total_technicians"`
	Label                 string  `json:"label"`
	Description           string  `json:"description"`
}

// OpenRequestsKPI summarises outstanding work.
type OpenRequestsKPI struct {
	PendingCount    int    `json:"pending_count"`
	InProgressCount int    `json:"in_progress_count"`
	OverdueCount    int    `json:"overdue_count"`
	Label           string `json:"label"`
	Description     string `json:"description"`
}

// DashboardKPIs is the headline KPI payload.
type DashboardKPIs struct {
	CriticalEquipment CriticalEquipmentKPI `json:"critical_equipment"`
	TechnicianLoad    TechnicianLoadKPI    `json:"technician_load"`
	OpenRequests      OpenRequestsKPI      `json:"open_requests"`
	LastUpdated       time.Time            `json:"last_updated"`
}

// EquipmentHealthSummary buckets assets by health band.
type EquipmentHealthSummary struct {
	Critical int `json:"critical"`
	Poor     int `json:"poor"`
	Fair     int `json:"fair"`
	Good     int `json:"good"`
	Total    int `json:"total"`
}

// DashboardSummary is the full dashboard payload.
type DashboardSummary struct {
	KPIs             DashboardKPIs          `json:"kpis"`
	EquipmentHealth  EquipmentHealthSummary `json:"equipment_health"`
	RequestsByType   map[string]int         `json:"requests_by_type"`
	RequestsByStatus map[string]int         `json:"requests_by_status"`
	TotalEquipment   int                    `json:"total_equipment"`
	TotalTeams       int                    `json:"total_teams"`
}

// SystemMetrics is an aggregated runtime snapshot for operational checks.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// ActivityItem is one entry in the recent activity feed.
type ActivityItem struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	UserName      string    `json:"user_name,omitempty"`
	EquipmentName string    `json:"equipment_name,omitempty"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}
