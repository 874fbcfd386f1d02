package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:           "test",
		APIPrefix:     "/api/v1",
		StorageDriver: config.StorageMemory,
		SeedOnStart:   true,
		JWT:           config.JWTConfig{Secret: "integration", Expiration: time.Hour, Issuer: "test"},
		Auth:          config.AuthConfig{Enforce: true},
		Exports: config.ExportsConfig{
			Enabled:           true,
			StorageDir:        t.TempDir(),
			SignedURLSecret:   "signing",
			SignedURLTTL:      time.Hour,
			WorkerConcurrency: 1,
			WorkerRetries:     1,
		},
	}
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c client) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	env := map[string]json.RawMessage{}
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (c client) login(username, password, role string) client {
	c.t.Helper()
	w, env := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": username, "password": password, "role": role})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	var res models.LoginResult
	require.NoError(c.t, json.Unmarshal(env["data"], &res))
	require.NotEmpty(c.t, res.AccessToken)
	return client{t: c.t, h: c.h, token: res.AccessToken}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a, err := New(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	a.Start(context.Background())
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestEnforcedAuthGuardsRoutes(t *testing.T) {
	a := newTestApp(t)
	anon := client{t: t, h: a.Engine}

	w, _ := anon.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = anon.do(http.MethodGet, "/api/v1/students", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin := anon.login("admin", "admin123", "admin")
	w, env := admin.do(http.MethodGet, "/api/v1/students?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page models.Pagination
	require.NoError(t, json.Unmarshal(env["pagination"], &page))
	assert.Equal(t, 7, page.TotalCount)

	student := anon.login("1002", "pass1002", "student")
	w, _ = student.do(http.MethodGet, "/api/v1/students/1002", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = student.do(http.MethodGet, "/api/v1/students/1001", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = student.do(http.MethodGet, "/api/v1/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = student.do(http.MethodGet, "/api/v1/admin/hub", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = student.do(http.MethodGet, "/api/v1/courses", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = student.do(http.MethodPost, "/api/v1/courses", map[string]string{"name": "Astronomy"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = student.do(http.MethodGet, "/api/v1/portal/profile?id=1001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env["data"]), `"id":"1002"`)

	w, _ = student.do(http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRosterExportRoundTrip(t *testing.T) {
	a := newTestApp(t)
	admin := client{t: t, h: a.Engine}.login("admin@portal.edu", "admin123", "admin")

	w, env := admin.do(http.MethodPost, "/api/v1/exports", map[string]string{"type": "roster", "format": "csv"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var queued struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(env["data"], &queued))
	require.NotEmpty(t, queued.JobID)

	var job models.ExportJob
	require.Eventually(t, func() bool {
		_, env := admin.do(http.MethodGet, "/api/v1/exports/"+queued.JobID, nil)
		if err := json.Unmarshal(env["data"], &job); err != nil {
			return false
		}
		return job.Status == models.ExportFinished
	}, 5*time.Second, 20*time.Millisecond)
	require.NotNil(t, job.ResultURL)
	require.True(t, strings.HasPrefix(*job.ResultURL, "/api/v1/export/"))

	anon := client{t: t, h: a.Engine}
	w, _ = anon.do(http.MethodGet, *job.ResultURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "Abebe Kebede")

	w, _ = anon.do(http.MethodGet, *job.ResultURL+"x", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = admin.do(http.MethodPost, "/api/v1/exports", map[string]string{"type": "transcript", "format": "pdf"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = admin.do(http.MethodPost, "/api/v1/exports", map[string]string{"type": "transcript", "format": "pdf", "student_id": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(env["error"]), "transcript exports require student_id")
}

func TestMetricsExposeRouteTemplates(t *testing.T) {
	a := newTestApp(t)
	anon := client{t: t, h: a.Engine}
	anon.do(http.MethodGet, "/health", nil)

	w, _ := anon.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `student_portal_http_requests_total{method="GET",route="/health",status="200"}`)
}
