package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type teamStore interface {
	List(ctx context.Context, filter models.TeamFilter) ([]models.MaintenanceTeam, int, error)
	FindByID(ctx context.Context, id string) (*models.MaintenanceTeam, error)
	Create(ctx context.Context, team *models.MaintenanceTeam) error
	Update(ctx context.Context, team *models.MaintenanceTeam) error
	Delete(ctx context.Context, id string) error
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMemberDetail, error)
	AddMember(ctx context.Context, member *models.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID string) error
}

type teamUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// TeamService manages maintenance teams and their membership, the source of
// the workflow engine's team scoping.
type TeamService struct {
	repo      teamStore
	users     teamUserReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeamService constructs the service.
func NewTeamService(repo teamStore, users teamUserReader, validate *validator.Validate, logger *zap.Logger) *TeamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TeamService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns teams matching the query.
func (s *TeamService) List(ctx context.Context, query dto.TeamQuery) ([]models.MaintenanceTeam, int, error) {
	filter := models.TeamFilter{
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.PageSize,
	}
	teams, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teams")
	}
	return teams, total, nil
}

// Get loads a single team.
func (s *TeamService) Get(ctx context.Context, id string) (*models.MaintenanceTeam, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team")
	}
	return team, nil
}

// Create registers a new team.
func (s *TeamService) Create(ctx context.Context, req dto.CreateTeamRequest) (*models.MaintenanceTeam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	team := &models.MaintenanceTeam{
		Name:        strings.TrimSpace(req.Name),
		Description: optionalString(req.Description),
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create team")
	}
	return team, nil
}

// Update patches team fields.
func (s *TeamService) Update(ctx context.Context, id string, req dto.UpdateTeamRequest) (*models.MaintenanceTeam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	team, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		team.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		team.Description = optionalString(*req.Description)
	}
	if err := s.repo.Update(ctx, team); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update team")
	}
	return team, nil
}

// Delete removes a team.
func (s *TeamService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete team")
	}
	return nil
}

// Members lists the team roster.
func (s *TeamService) Members(ctx context.Context, teamID string) ([]models.TeamMemberDetail, error) {
	if _, err := s.Get(ctx, teamID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list team members")
	}
	return members, nil
}

// AddMember joins a user to a team.
func (s *TeamService) AddMember(ctx context.Context, teamID string, req dto.AddTeamMemberRequest) (*models.TeamMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if _, err := s.Get(ctx, teamID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	member := &models.TeamMember{TeamID: teamID, UserID: req.UserID}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add team member")
	}
	s.logger.Info("team member added", zap.String("team_id", teamID), zap.String("user_id", req.UserID))
	return member, nil
}

// RemoveMember removes a user from a team.
func (s *TeamService) RemoveMember(ctx context.Context, teamID, userID string) error {
	if err := s.repo.RemoveMember(ctx, teamID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove team member")
	}
	return nil
}
