package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drivecourse-api/internal/models"
	appErrors "github.com/noah-isme/drivecourse-api/pkg/errors"
)

type validatorFunc func(token string) (*models.JWTClaims, error)

func (f validatorFunc) ValidateToken(token string) (*models.JWTClaims, error) { return f(token) }

func staticValidator(tokens map[string]*models.JWTClaims) TokenValidator {
	return validatorFunc(func(token string) (*models.JWTClaims, error) {
		claims, ok := tokens[token]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
		}
		return claims, nil
	})
}

func newProtectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	validator := staticValidator(map[string]*models.JWTClaims{
		"admin": {UserID: "u1", TenantID: "t1", Role: models.RoleAdmin},
		"staff": {UserID: "u2", TenantID: "t1", Role: models.RoleStaff},
	})
	router.GET("/jobs", JWT(validator), RBAC(roles...), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, string(claims.TenantID))
	})
	return router
}

func serve(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTAndRBAC(t *testing.T) {
	router := newProtectedRouter(models.RoleSuperAdmin, models.RoleAdmin)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic admin", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"role not allowed", "Bearer staff", http.StatusForbidden},
		{"allowed", "Bearer admin", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(router, tc.header)
			require.Equal(t, tc.status, rec.Code)
		})
	}

	rec := serve(router, "bearer admin")
	assert.Equal(t, "t1", rec.Body.String())
}

func TestRBACWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/jobs", RBAC(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/jobs", OptionalJWT(staticValidator(map[string]*models.JWTClaims{
		"admin": {UserID: "u1", TenantID: "t1", Role: models.RoleAdmin},
	})), func(c *gin.Context) {
		_, ok := c.Get(ContextUserKey)
		if ok {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(router, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(router, "Bearer nope").Code)
	assert.Equal(t, http.StatusOK, serve(router, "Bearer admin").Code)
}
