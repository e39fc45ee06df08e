package dto

import (
	"time"

	"github.com/gearguard/gearguard-api/internal/models"
)

// CreateRequestRequest is the payload for opening a maintenance request.
type CreateRequestRequest struct {
	Subject           string             `json:"subject" validate:"required,max=500"`
	Description       string             `json:"description"`
	RequestType       models.RequestType `json:"request_type" validate:"required,oneof=corrective preventive"`
	MaintenanceFor    string             `json:"maintenance_for" validate:"omitempty,oneof=equipment facility other"`
	Priority          int                `json:"priority" validate:"omitempty,min=1,max=5"`
	EquipmentID       string             `json:"equipment_id"`
	MaintenanceTeamID string             `json:"maintenance_team_id"`
	AssignedTo        string             `json:"assigned_to"`
	ScheduledDate     *time.Time         `json:"scheduled_date"`
	Notes             string             `json:"notes"`
	Instructions      string             `json:"instructions"`
}

// UpdateRequestRequest patches descriptive fields of a request. Stage changes
// are rejected here; they go through the transition endpoint.
type UpdateRequestRequest struct {
	Subject           *string    `json:"subject" validate:"omitempty,max=500"`
	Description       *string    `json:"description"`
	Priority          *int       `json:"priority" validate:"omitempty,min=1,max=5"`
	MaintenanceTeamID *string    `json:"maintenance_team_id"`
	AssignedTo        *string    `json:"assigned_to"`
	ScheduledDate     *time.Time `json:"scheduled_date"`
	Notes             *string    `json:"notes"`
	Instructions      *string    `json:"instructions"`
}

// StageUpdateRequest moves a request to a new stage (Kanban drag-drop).
type StageUpdateRequest struct {
	Status  models.RequestStage `json:"status" validate:"required"`
	Comment string              `json:"comment"`
}

// RequestResponse decorates a request with derived display fields.
type RequestResponse struct {
	models.MaintenanceRequest
	IsOverdue     bool   `json:"is_overdue"`
	PriorityLabel string `json:"priority_label"`
	EquipmentName string `json:"equipment_name,omitempty"`
	TeamName      string `json:"team_name,omitempty"`
}

// RequestQuery captures list filters from the API layer.
type RequestQuery struct {
	Status      string
	RequestType string
	EquipmentID string
	TeamID      string
	AssignedTo  string
	Search      string
	Page        int
	PageSize    int
}

// KanbanCard is a compact request representation for board columns.
type KanbanCard struct {
	ID            string     `json:"id"`
	Reference     string     `json:"reference"`
	Subject       string     `json:"subject"`
	Priority      int        `json:"priority"`
	PriorityLabel string     `json:"priority_label"`
	IsOverdue     bool       `json:"is_overdue"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty"`
	EquipmentName string     `json:"equipment_name,omitempty"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
}

// KanbanColumn groups cards under a stage.
type KanbanColumn struct {
	Stage      models.RequestStage `json:"stage"`
	StageLabel string              `json:"stage_label"`
	Count      int                 `json:"count"`
	Cards      []KanbanCard        `json:"cards"`
}

// KanbanBoard is the full board payload.
type KanbanBoard struct {
	Columns       []KanbanColumn `json:"columns"`
	TotalRequests int            `json:"total_requests"`
}

// CalendarItem is a scheduled preventive request in the month view.
type CalendarItem struct {
	ID            string              `json:"id"`
	Reference     string              `json:"reference"`
	Subject       string              `json:"subject"`
	ScheduledDate *time.Time          `json:"scheduled_date"`
	EquipmentName string              `json:"equipment_name,omitempty"`
	Status        models.RequestStage `json:"status"`
}

// CalendarView lists preventive requests scheduled within a month.
type CalendarView struct {
	Items []CalendarItem `json:"items"`
	Month int            `json:"month"`
	Year  int            `json:"year"`
}
