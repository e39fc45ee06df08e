package models

import "time"

// EquipmentStatus enumerates asset lifecycle states.
type EquipmentStatus string

const (
	EquipmentActive      EquipmentStatus = "active"
	EquipmentMaintenance EquipmentStatus = "maintenance"
	EquipmentScrapped    EquipmentStatus = "scrapped"
	EquipmentRetired     EquipmentStatus = "retired"
)

// CriticalHealthThreshold marks equipment as critical below this health level.
const CriticalHealthThreshold = 30

// Equipment is the central asset registry entry.
type Equipment struct {
	ID                  string          `db:"id" json:"id"`
	Name                string          `db:"name" json:"name"`
	SerialNumber        string          `db:"serial_number" json:"serial_number"`
	Category            string          `db:"category" json:"category"`
	Department          *string         `db:"department" json:"department,omitempty"`
	AssignedEmployeeID  *string         `db:"assigned_employee_id" json:"assigned_employee_id,omitempty"`
	MaintenanceTeamID   *string         `db:"maintenance_team_id" json:"maintenance_team_id,omitempty"`
	DefaultTechnicianID *string         `db:"default_technician_id" json:"default_technician_id,omitempty"`
	Location            *string         `db:"location" json:"location,omitempty"`
	PurchaseDate        *time.Time      `db:"purchase_date" json:"purchase_date,omitempty"`
	PurchaseCost        *float64        `db:"purchase_cost" json:"purchase_cost,omitempty"`
	WarrantyExpiry      *time.Time      `db:"warranty_expiry" json:"warranty_expiry,omitempty"`
	WarrantyInfo        *string         `db:"warranty_info" json:"warranty_info,omitempty"`
	HealthPercentage    int             `db:"health_percentage" json:"health_percentage"`
	Status              EquipmentStatus `db:"status" json:"status"`
	Notes               *string         `db:"notes" json:"notes,omitempty"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time       `db:"updated_at" json:"updated_at"`
}

// IsCritical reports whether health has dropped below the critical threshold.
// Derived projection; status remains the authoritative field.
func (e *Equipment) IsCritical() bool {
	return e.HealthPercentage < CriticalHealthThreshold
}

// IsScrapped is a derived read-only projection of status.
func (e *Equipment) IsScrapped() bool {
	return e.Status == EquipmentScrapped
}

// EquipmentFilter constrains equipment listings.
type EquipmentFilter struct {
	Category   string
	Department string
	Status     EquipmentStatus
	TeamID     string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}

// EquipmentScrapLog records an asset decommissioned through the request
// workflow. Immutable after creation.
type EquipmentScrapLog struct {
	ID             string    `db:"id" json:"id"`
	EquipmentID    string    `db:"equipment_id" json:"equipment_id"`
	RequestID      *string   `db:"request_id" json:"request_id,omitempty"`
	ScrappedBy     *string   `db:"scrapped_by" json:"scrapped_by,omitempty"`
	Reason         string    `db:"reason" json:"reason"`
	ScrapValue     *float64  `db:"scrap_value" json:"scrap_value,omitempty"`
	DisposalMethod *string   `db:"disposal_method" json:"disposal_method,omitempty"`
	ScrappedAt     time.Time `db:"scrapped_at" json:"scrapped_at"`
}
