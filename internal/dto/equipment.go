package dto

import (
	"time"

	"github.com/gearguard/gearguard-api/internal/models"
)

// CreateEquipmentRequest registers a new asset.
type CreateEquipmentRequest struct {
	Name                string     `json:"name" validate:"required,max=255"`
	SerialNumber        string     `json:"serial_number" validate:"required,max=255"`
	Category            string     `json:"category" validate:"required,max=100"`
	Department          string     `json:"department"`
	AssignedEmployeeID  string     `json:"assigned_employee_id"`
	MaintenanceTeamID   string     `json:"maintenance_team_id"`
	DefaultTechnicianID string     `json:"default_technician_id"`
	Location            string     `json:"location"`
	PurchaseDate        *time.Time `json:"purchase_date"`
	PurchaseCost        *float64   `json:"purchase_cost"`
	WarrantyExpiry      *time.Time `json:"warranty_expiry"`
	WarrantyInfo        string     `json:"warranty_info"`
	HealthPercentage    *int       `json:"health_percentage" validate:"omitempty,min=0,max=100"`
	Notes               string     `json:"notes"`
}

// UpdateEquipmentRequest patches asset fields. Status moves to "scrapped" only
// through the request workflow; direct writes may set the other states.
type UpdateEquipmentRequest struct {
	Name                *string                 `json:"name" validate:"omitempty,max=255"`
	Category            *string                 `json:"category" validate:"omitempty,max=100"`
	Department          *string                 `json:"department"`
	AssignedEmployeeID  *string                 `json:"assigned_employee_id"`
	MaintenanceTeamID   *string                 `json:"maintenance_team_id"`
	DefaultTechnicianID *string                 `json:"default_technician_id"`
	Location            *string                 `json:"location"`
	PurchaseDate        *time.Time              `json:"purchase_date"`
	PurchaseCost        *float64                `json:"purchase_cost"`
	WarrantyExpiry      *time.Time              `json:"warranty_expiry"`
	WarrantyInfo        *string                 `json:"warranty_info"`
	HealthPercentage    *int                    `json:"health_percentage" validate:"omitempty,min=0,max=100"`
	Status              *models.EquipmentStatus `json:"status" validate:"omitempty,oneof=active maintenance retired"`
	Notes               *string                 `json:"notes"`
}

// EquipmentResponse decorates an asset with derived projections.
type EquipmentResponse struct {
	models.Equipment
	IsCritical       bool `json:"is_critical"`
	IsScrapped       bool `json:"is_scrapped"`
	OpenRequestCount int  `json:"open_request_count"`
}

// EquipmentQuery captures list filters from the API layer.
type EquipmentQuery struct {
	Category   string
	Department string
	Status     string
	TeamID     string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
