package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	chain := append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/students/:id", chain...)
	return r
}

func do(r http.Handler, path, token string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestJWTAndRBAC(t *testing.T) {
	tokens := stubValidator{
		"admin":   {UserID: "u-1", Role: models.RoleAdmin},
		"student": {UserID: "1001", Role: models.RoleStudent},
	}
	r := newRouter(JWT(tokens), RBAC(string(models.RoleAdmin), Self))

	assert.Equal(t, http.StatusUnauthorized, do(r, "/students/1001", ""))
	assert.Equal(t, http.StatusUnauthorized, do(r, "/students/1001", "forged"))
	assert.Equal(t, http.StatusOK, do(r, "/students/1002", "admin"))
	assert.Equal(t, http.StatusOK, do(r, "/students/1001", "student"))
	assert.Equal(t, http.StatusForbidden, do(r, "/students/1002", "student"))
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	tokens := stubValidator{"admin": {UserID: "u-1", Role: models.RoleAdmin}}
	var seen *models.JWTClaims
	r := newRouter(OptionalJWT(tokens), func(c *gin.Context) {
		seen, _ = Claims(c)
	})

	assert.Equal(t, http.StatusOK, do(r, "/students/1", "garbage"))
	assert.Nil(t, seen)
	assert.Equal(t, http.StatusOK, do(r, "/students/1", "admin"))
	require.NotNil(t, seen)
	assert.Equal(t, "u-1", seen.UserID)
}

func TestRBACWithoutClaims(t *testing.T) {
	r := newRouter(RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, do(r, "/students/1", ""))
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newRouter(Metrics(metrics))
	r.NoRoute(Metrics(metrics), func(c *gin.Context) { c.Status(http.StatusNotFound) })

	do(r, "/students/1001", "")
	do(r, "/students/1002", "")
	do(r, "/nowhere", "")

	assert.EqualValues(t, 3, metrics.Snapshot().RequestsTotal)
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `route="/students/:id",status="200"} 2`)
	assert.Contains(t, w.Body.String(), `route="unmatched"`)
}

func TestResponseMeta(t *testing.T) {
	var meta map[string]interface{}
	r := newRouter(WithResponseMeta(), func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
	})
	do(r, "/students/1", "")
	require.NotNil(t, meta)
	assert.Equal(t, true, meta[cacheHitKey])
	_, stamped := meta["processing_time_ms"]
	assert.True(t, stamped)
	assert.Nil(t, ExtractMeta(nil))
}
