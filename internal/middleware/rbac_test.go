package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/veloca-labs/mds-api/internal/models"
)

func buildRBACRouter(claims *models.JWTClaims, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	})
	router.GET("/resource", RequireRoles(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func rbacGet(router *gin.Engine) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/resource", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRBACMissingClaims(t *testing.T) {
	router := buildRBACRouter(nil, models.RoleAdmin)
	require.Equal(t, http.StatusUnauthorized, rbacGet(router).Code)
}

func TestRBACRoleMismatch(t *testing.T) {
	claims := &models.JWTClaims{UserID: "c1", Role: models.RoleCustomer}
	router := buildRBACRouter(claims, models.RoleTechnician)
	require.Equal(t, http.StatusForbidden, rbacGet(router).Code)
}

func TestRBACAllowsRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "t1", Role: models.RoleTechnician}
	router := buildRBACRouter(claims, models.RoleTechnician)
	require.Equal(t, http.StatusOK, rbacGet(router).Code)
}

func TestRBACSuperAdminCoversAdmin(t *testing.T) {
	claims := &models.JWTClaims{UserID: "sa", Role: models.RoleSuperAdmin}
	router := buildRBACRouter(claims, models.RoleAdmin)
	require.Equal(t, http.StatusOK, rbacGet(router).Code)
}

func TestRBACAuthenticatedButWrongRoleRedirected(t *testing.T) {
	// An authenticated session whose role is not CUSTOMER must not reach
	// customer-only resources.
	claims := &models.JWTClaims{UserID: "d1", Role: models.RoleDealer}
	router := buildRBACRouter(claims, models.RoleCustomer)
	require.Equal(t, http.StatusForbidden, rbacGet(router).Code)
}
