package models

import "time"

// RequestStage is the Kanban-style lifecycle position of a request.
type RequestStage string

const (
	StageNew        RequestStage = "new"
	StageInProgress RequestStage = "in_progress"
	StageRepaired   RequestStage = "repaired"
	StageScrap      RequestStage = "scrap"
)

// Stages lists all valid stages in board order.
var Stages = []RequestStage{StageNew, StageInProgress, StageRepaired, StageScrap}

// StageLabels maps stages to display names for Kanban columns.
var StageLabels = map[RequestStage]string{
	StageNew:        "New",
	StageInProgress: "In Progress",
	StageRepaired:   "Repaired",
	StageScrap:      "Scrap",
}

// RequestType classifies how the work was triggered.
type RequestType string

const (
	TypeCorrective RequestType = "corrective"
	TypePreventive RequestType = "preventive"
)

// Priority labels for the 1-5 star rating.
var priorityLabels = map[int]string{
	1: "Low",
	2: "Normal",
	3: "High",
	4: "Urgent",
	5: "Critical",
}

// PriorityLabel returns the human-readable label for a 1-5 priority value.
func PriorityLabel(priority int) string {
	if label, ok := priorityLabels[priority]; ok {
		return label
	}
	return "Normal"
}

// MaintenanceRequest is the core transactional entity for repair jobs. Its
// stage is mutated exclusively through the workflow engine.
type MaintenanceRequest struct {
	ID                string       `db:"id" json:"id"`
	Reference         string       `db:"reference" json:"reference"`
	Subject           string       `db:"subject" json:"subject"`
	Description       *string      `db:"description" json:"description,omitempty"`
	RequestType       RequestType  `db:"request_type" json:"request_type"`
	MaintenanceFor    string       `db:"maintenance_for" json:"maintenance_for"`
	Status            RequestStage `db:"status" json:"status"`
	Priority          int          `db:"priority" json:"priority"`
	EquipmentID       *string      `db:"equipment_id" json:"equipment_id,omitempty"`
	Category          *string      `db:"category" json:"category,omitempty"`
	MaintenanceTeamID *string      `db:"maintenance_team_id" json:"maintenance_team_id,omitempty"`
	AssignedTo        *string      `db:"assigned_to" json:"assigned_to,omitempty"`
	CreatedBy         string       `db:"created_by" json:"created_by"`
	RequestDate       *time.Time   `db:"request_date" json:"request_date,omitempty"`
	ScheduledDate     *time.Time   `db:"scheduled_date" json:"scheduled_date,omitempty"`
	StartedAt         *time.Time   `db:"started_at" json:"started_at,omitempty"`
	CompletedAt       *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	DurationHours     float64      `db:"duration_hours" json:"duration_hours"`
	Notes             *string      `db:"notes" json:"notes,omitempty"`
	Instructions      *string      `db:"instructions" json:"instructions,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// IsOverdue reports whether the scheduled date has passed without the request
// reaching a completed stage.
func (r *MaintenanceRequest) IsOverdue(now time.Time) bool {
	if r.ScheduledDate == nil {
		return false
	}
	if r.Status == StageRepaired || r.Status == StageScrap {
		return false
	}
	return r.ScheduledDate.Before(now)
}

// PriorityLabel returns the display label for the request priority.
func (r *MaintenanceRequest) PriorityLabel() string {
	return PriorityLabel(r.Priority)
}

// RequestHistory is the append-only audit trail for stage transitions. Rows
// are written only by the workflow engine and never updated.
type RequestHistory struct {
	ID               string        `db:"id" json:"id"`
	RequestID        string        `db:"request_id" json:"request_id"`
	FromStage        *RequestStage `db:"from_stage" json:"from_stage,omitempty"`
	ToStage          RequestStage  `db:"to_stage" json:"to_stage"`
	ChangedBy        *string       `db:"changed_by" json:"changed_by,omitempty"`
	Comment          *string       `db:"comment" json:"comment,omitempty"`
	DurationAtChange float64       `db:"duration_at_change" json:"duration_at_change"`
	ChangedAt        time.Time     `db:"changed_at" json:"changed_at"`
}

// RequestFilter constrains request listings. TeamIDs and CreatedBy carry the
// actor's visibility scope; the service fills them from the actor role.
type RequestFilter struct {
	Status      RequestStage
	RequestType RequestType
	EquipmentID string
	TeamID      string
	AssignedTo  string
	Search      string

	// Scope restrictions resolved from the acting user.
	TeamIDs   []string
	CreatedBy string

	Page     int
	PageSize int
}
