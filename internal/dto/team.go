package dto

// CreateTeamRequest creates a maintenance team.
type CreateTeamRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

// UpdateTeamRequest patches team fields.
type UpdateTeamRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description"`
}

// AddTeamMemberRequest joins a user to a team.
type AddTeamMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// TeamQuery captures list filters from the API layer.
type TeamQuery struct {
	Search   string
	Page     int
	PageSize int
}
