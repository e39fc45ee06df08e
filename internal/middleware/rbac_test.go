package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gearguard/gearguard-api/internal/models"
)

func rbacTestContext(t *testing.T, claims *models.JWTClaims, paramID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/users/"+paramID, nil)
	if paramID != "" {
		c.Params = gin.Params{{Key: "id", Value: paramID}}
	}
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}
	return c, w
}

func TestRBACAllowsRole(t *testing.T) {
	c, w := rbacTestContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, "u2")

	RBAC(string(models.RoleAdmin))(c)
	require.False(t, c.IsAborted())
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACForbidsRole(t *testing.T) {
	c, w := rbacTestContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleUser}, "u2")

	RBAC(string(models.RoleAdmin))(c)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACSelfAccess(t *testing.T) {
	c, w := rbacTestContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleUser}, "u1")

	RBAC(string(models.RoleAdmin), SelfAccess)(c)
	require.False(t, c.IsAborted())
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACSelfMismatch(t *testing.T) {
	c, w := rbacTestContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleUser}, "u2")

	RBAC(string(models.RoleAdmin), SelfAccess)(c)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACMissingClaims(t *testing.T) {
	c, w := rbacTestContext(t, nil, "u1")

	RBAC(string(models.RoleAdmin))(c)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoles(t *testing.T) {
	c, w := rbacTestContext(t, &models.JWTClaims{UserID: "m1", Role: models.RoleManager}, "")

	RequireRoles(models.RoleAdmin, models.RoleManager)(c)
	require.False(t, c.IsAborted())
	require.Equal(t, http.StatusOK, w.Code)
}
