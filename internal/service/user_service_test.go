package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gearguard/gearguard-api/internal/dto"
	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type userRepoStub struct {
	users         map[string]*models.User
	revokedTokens []string
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*models.User)}
}

func (u *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := u.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (u *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range u.users {
		if user.Email == email {
			copy := *user
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (u *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	result := make([]models.User, 0, len(u.users))
	for _, user := range u.users {
		result = append(result, *user)
	}
	return result, len(result), nil
}

func (u *userRepoStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Email
	}
	u.users[user.ID] = user
	return nil
}

func (u *userRepoStub) Update(ctx context.Context, user *models.User) error {
	if _, ok := u.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *user
	u.users[user.ID] = &copy
	return nil
}

func (u *userRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := u.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(u.users, id)
	return nil
}

func (u *userRepoStub) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if user, ok := u.users[id]; ok {
		user.PasswordHash = passwordHash
		return nil
	}
	return sql.ErrNoRows
}

func (u *userRepoStub) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	u.revokedTokens = append(u.revokedTokens, userID)
	return nil
}

func TestUserServiceCreateTechnicianFlag(t *testing.T) {
	repo := newUserRepoStub()
	svc := NewUserService(repo, nil, nil)

	user, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Name:     "Tess",
		Email:    "tess@example.com",
		Password: "secret123",
		Role:     models.RoleTechnician,
	})
	require.NoError(t, err)
	require.True(t, user.IsTechnician, "technician role forces the flag")
	require.True(t, user.Active)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["user-1"] = &models.User{ID: "user-1", Email: "tess@example.com"}
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), dto.CreateUserRequest{
		Name:     "Tess",
		Email:    "Tess@Example.com",
		Password: "secret123",
		Role:     models.RoleUser,
	})
	require.Equal(t, appErrors.ErrConflict.Code, appErrorCode(t, err))
}

func TestUserServiceUpdateDeactivationRevokesTokens(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["user-1"] = &models.User{ID: "user-1", Name: "Tess", Role: models.RoleUser, Active: true}
	svc := NewUserService(repo, nil, nil)

	active := false
	updated, err := svc.Update(context.Background(), "user-1", dto.UpdateUserRequest{Active: &active})
	require.NoError(t, err)
	require.False(t, updated.Active)
	require.Equal(t, []string{"user-1"}, repo.revokedTokens)
}

func TestUserServiceUpdateRoleToTechnician(t *testing.T) {
	repo := newUserRepoStub()
	repo.users["user-1"] = &models.User{ID: "user-1", Role: models.RoleUser, Active: true}
	svc := NewUserService(repo, nil, nil)

	role := models.RoleTechnician
	updated, err := svc.Update(context.Background(), "user-1", dto.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	require.Equal(t, models.RoleTechnician, updated.Role)
	require.True(t, updated.IsTechnician)
}

func TestUserServiceGetNotFound(t *testing.T) {
	svc := NewUserService(newUserRepoStub(), nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Equal(t, appErrors.ErrNotFound.Code, appErrorCode(t, err))
}
