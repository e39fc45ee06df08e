package models

import "time"

// MaintenanceTeam groups technicians responsible for a set of equipment.
type MaintenanceTeam struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TeamMember joins users to maintenance teams.
type TeamMember struct {
	ID     string `db:"id" json:"id"`
	TeamID string `db:"team_id" json:"team_id"`
	UserID string `db:"user_id" json:"user_id"`
}

// TeamMemberDetail is a member row joined with user attributes for listings.
type TeamMemberDetail struct {
	ID           string   `db:"id" json:"id"`
	TeamID       string   `db:"team_id" json:"team_id"`
	UserID       string   `db:"user_id" json:"user_id"`
	Name         string   `db:"name" json:"name"`
	Email        string   `db:"email" json:"email"`
	Role         UserRole `db:"role" json:"role"`
	IsTechnician bool     `db:"is_technician" json:"is_technician"`
}

// TeamFilter constrains team listings.
type TeamFilter struct {
	Search   string
	Page     int
	PageSize int
}
