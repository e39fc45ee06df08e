package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gearguard/gearguard-api/internal/models"
	appErrors "github.com/gearguard/gearguard-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	userByID         *models.User
	teamIDs          []string
	refreshTokens    map[string]*models.RefreshToken
	created          []*models.User
	lastLoginUpdated bool
	revokedAllFor    string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.userByEmail == nil || m.userByEmail.Email != email {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID != nil {
		return m.userByID, nil
	}
	if m.userByEmail != nil && m.userByEmail.ID == id {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "user-new"
	m.created = append(m.created, user)
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) TeamIDsForUser(ctx context.Context, userID string) ([]string, error) {
	return m.teamIDs, nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAllFor = userID
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "gearguard-test",
	}
}

func activeUser(t *testing.T, role models.UserRole) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Name:         "Dana",
		Email:        "dana@example.com",
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, models.RoleTechnician)}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, "user-1", resp.User.ID)
	require.True(t, repo.lastLoginUpdated)
	require.Len(t, repo.refreshTokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, models.RoleTechnician, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, models.RoleUser)}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "wrong",
	})
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrorCode(t, err))
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ghost@example.com",
		Password: "secret123",
	})
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrorCode(t, err))
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, models.RoleUser)
	user.Active = false
	svc := NewAuthService(&mockAuthRepo{userByEmail: user}, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrorCode(t, err))
}

func TestAuthServiceLoginSingleSession(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, models.RoleUser)}
	cfg := testAuthConfig()
	cfg.SingleSession = true
	svc := NewAuthService(repo, nil, nil, cfg)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.Equal(t, "user-1", repo.revokedAllFor)
}

func TestAuthServiceRegister(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	user, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "New User",
		Email:    "New@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)
	require.Equal(t, models.RoleUser, user.Role)
	require.True(t, user.Active)
	require.NotEqual(t, "secret123", user.PasswordHash)
	require.Len(t, repo.created, 1)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, models.RoleUser)}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name:     "Dana Again",
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.Equal(t, appErrors.ErrConflict.Code, appErrorCode(t, err))
}

func TestAuthServiceRefreshTokenRotation(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, models.RoleUser)}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	// The used token cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrorCode(t, err))
}

func TestAuthServiceRefreshTokenExpired(t *testing.T) {
	repo := &mockAuthRepo{
		userByEmail: activeUser(t, models.RoleUser),
		refreshTokens: map[string]*models.RefreshToken{
			"stale": {
				ID:        "rt-1",
				UserID:    "user-1",
				Token:     "stale",
				ExpiresAt: time.Now().UTC().Add(-time.Hour),
			},
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrorCode(t, err))
}

func TestAuthServiceLogout(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, models.RoleUser)}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "user-1"))
	require.True(t, repo.refreshTokens[login.RefreshToken].Revoked)

	err = svc.Logout(context.Background(), login.RefreshToken, "someone-else")
	require.Equal(t, appErrors.ErrForbidden.Code, appErrorCode(t, err))
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, testAuthConfig())
	other := NewAuthService(&mockAuthRepo{userByEmail: activeUser(t, models.RoleUser)}, nil, nil, AuthConfig{
		AccessTokenSecret: "other-secret",
		AccessTokenExpiry: time.Minute,
	})

	login, err := other.Login(context.Background(), models.LoginRequest{
		Email:    "dana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrorCode(t, err))
}

func TestAuthServiceResolveActor(t *testing.T) {
	repo := &mockAuthRepo{teamIDs: []string{"team-1", "team-2"}}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	actor, err := svc.ResolveActor(context.Background(), &models.JWTClaims{
		UserID: "tech-1",
		Role:   models.RoleTechnician,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"team-1", "team-2"}, actor.TeamIDs)

	// Non-technicians skip the membership lookup entirely.
	actor, err = svc.ResolveActor(context.Background(), &models.JWTClaims{
		UserID: "mgr-1",
		Role:   models.RoleManager,
	})
	require.NoError(t, err)
	require.Empty(t, actor.TeamIDs)

	_, err = svc.ResolveActor(context.Background(), nil)
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrorCode(t, err))
}
