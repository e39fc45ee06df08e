package dto

import "github.com/gearguard/gearguard-api/internal/models"

// CreateUserRequest is the admin payload for provisioning an account.
type CreateUserRequest struct {
	Name         string          `json:"name" validate:"required"`
	Email        string          `json:"email" validate:"required,email"`
	Password     string          `json:"password" validate:"required,min=6"`
	Role         models.UserRole `json:"role" validate:"required,oneof=user technician manager admin"`
	IsTechnician bool            `json:"is_technician"`
	Phone        string          `json:"phone"`
	Department   string          `json:"department"`
	JobTitle     string          `json:"job_title"`
}

// UpdateUserRequest patches mutable account fields.
type UpdateUserRequest struct {
	Name         *string          `json:"name"`
	Role         *models.UserRole `json:"role" validate:"omitempty,oneof=user technician manager admin"`
	IsTechnician *bool            `json:"is_technician"`
	Active       *bool            `json:"is_active"`
	Phone        *string          `json:"phone"`
	Department   *string          `json:"department"`
	JobTitle     *string          `json:"job_title"`
	AvatarURL    *string          `json:"avatar_url"`
}

// UserQuery captures list filters from the API layer.
type UserQuery struct {
	Role         string
	IsTechnician *bool
	Active       *bool
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
