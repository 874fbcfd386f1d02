package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/student-portal-api/internal/middleware"
	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/repository/memory"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/pkg/fixtures"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta       map[string]interface{} `json:"meta"`
	Pagination *models.Pagination     `json:"pagination"`
}

type fixture struct {
	store    *memory.Store
	auth     *service.AuthService
	students *StudentHandler
	users    *UserHandler
	courses  *CourseHandler
	portal   *PortalHandler
	requests *RequestHandler
	metrics  *service.MetricsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	seed, err := fixtures.LoadSeed()
	require.NoError(t, err)
	_, err = service.NewSeeder(store.Users(), store.Courses(), store.Students(), bcrypt.MinCost, nil).Run(context.Background(), seed)
	require.NoError(t, err)

	content, err := fixtures.LoadPortal()
	require.NoError(t, err)

	metrics := service.NewMetricsService()
	auth := service.NewAuthService(store.Users(), store.Students(), nil, nil, service.AuthConfig{AccessTokenSecret: "test"})
	return &fixture{
		store:    store,
		auth:     auth,
		students: NewStudentHandler(service.NewStudentService(store.Students(), store.Courses(), nil, nil, nil)),
		users:    NewUserHandler(service.NewUserService(store.Users(), nil, nil)),
		courses:  NewCourseHandler(service.NewCourseService(store.Courses(), nil, nil, nil)),
		portal:   NewPortalHandler(service.NewPortalService(content, store.Students(), nil, nil, nil)),
		requests: NewRequestHandler(service.NewRequestService(store.Requests(), content, nil, nil)),
		metrics:  metrics,
	}
}

func serve(r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func withClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, claims)
		c.Next()
	}
}

func TestStudentHandlerLifecycle(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.POST("/students", f.students.Create)
	r.GET("/students/:id", f.students.Get)
	r.PUT("/students/:id", f.students.Update)
	r.DELETE("/students/:id", f.students.Delete)

	w, env := serve(r, http.MethodPost, "/students", map[string]interface{}{"name": "Liya Tesfaye", "department": "Physics", "credits": 12})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		TemporaryPassword string `json:"temporary_password"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "1008", created.ID)
	assert.Equal(t, "Pending", created.Status)
	assert.Len(t, created.TemporaryPassword, 8)

	w, env = serve(r, http.MethodGet, "/students/1008", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.Student
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, "Liya Tesfaye", fetched.Name)
	assert.Equal(t, "Physics", fetched.Department)
	assert.Equal(t, 12, fetched.Credits)

	w, _ = serve(r, http.MethodPut, "/students/1008", map[string]interface{}{"name": "Liya Tesfaye", "department": "Physics", "credits": 12, "status": "On Hold"})
	require.Equal(t, http.StatusOK, w.Code)
	_, env = serve(r, http.MethodGet, "/students/1008", nil)
	require.NoError(t, json.Unmarshal(env.Data, &fetched))
	assert.Equal(t, models.StudentOnHold, fetched.Status)

	w, env = serve(r, http.MethodDelete, "/students/1008", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"message":"Student deleted"`)

	w, env = serve(r, http.MethodGet, "/students/1008", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "student not found", env.Error.Message)
}

func TestStudentHandlerRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.POST("/students", f.students.Create)
	r.PUT("/students/:id", f.students.Update)

	w, env := serve(r, http.MethodPost, "/students", map[string]interface{}{"department": "Physics"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = serve(r, http.MethodPut, "/students/1001", map[string]interface{}{"id": "1002", "name": "x", "department": "y"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "student id mismatch", env.Error.Message)

	missing := "no-such-course"
	w, env = serve(r, http.MethodPost, "/students", map[string]interface{}{"name": "x", "department": "y", "course_id": missing})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "course does not exist", env.Error.Message)
}

func TestHandlersRejectWhitespaceOnlyFields(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.POST("/students", f.students.Create)
	r.PUT("/students/:id", f.students.Update)
	r.GET("/students/:id", f.students.Get)
	r.POST("/courses", f.courses.Create)
	r.GET("/courses", f.courses.List)
	r.POST("/users", f.users.Create)

	w, env := serve(r, http.MethodPost, "/students", map[string]interface{}{"name": "   ", "department": "  "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	w, _ = serve(r, http.MethodGet, "/students/1008", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = serve(r, http.MethodPut, "/students/1001", map[string]interface{}{"name": "Abebe Kebede", "department": "\t "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	_, env = serve(r, http.MethodGet, "/students/1001", nil)
	var kept models.Student
	require.NoError(t, json.Unmarshal(env.Data, &kept))
	assert.NotEmpty(t, kept.Department)

	w, env = serve(r, http.MethodPost, "/courses", map[string]string{"name": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	_, env = serve(r, http.MethodGet, "/courses", nil)
	assert.NotContains(t, string(env.Data), `"name":""`)

	w, env = serve(r, http.MethodPost, "/users", map[string]string{"name": "  ", "email": "blank@portal.edu", "password": "secret1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	w, env = serve(r, http.MethodPost, "/students", map[string]interface{}{"name": "  Liya Tesfaye ", "department": " Physics"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Student
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "Liya Tesfaye", created.Name)
	assert.Equal(t, "Physics", created.Department)
}

func TestStudentHandlerListReportsServedPageSize(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/students", f.students.List)

	w, env := serve(r, http.MethodGet, "/students?limit=500", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, models.DefaultPageSize, env.Pagination.PageSize)
	assert.Equal(t, 7, env.Pagination.TotalCount)

	w, env = serve(r, http.MethodGet, "/students?limit=3&page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, env.Pagination.PageSize)
	assert.Equal(t, 2, env.Pagination.Page)
	var page []models.Student
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page, 3)
}

func TestStudentHandlerStatsCarriesCacheMeta(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	r.GET("/students/stats", f.students.Stats)

	w, env := serve(r, http.MethodGet, "/students/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, env.Meta["cache_hit"])
	var stats models.StudentStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 62, stats.TotalCredits)
}

func TestAuthHandlerLogin(t *testing.T) {
	f := newFixture(t)
	h := NewAuthHandler(f.auth, f.metrics)
	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", h.Me)

	w, env := serve(r, http.MethodPost, "/auth/login", map[string]string{"username": "admin@portal.edu", "password": "admin123", "role": "admin"})
	require.Equal(t, http.StatusOK, w.Code)
	var res models.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "admin", res.Role)
	assert.NotEmpty(t, res.AccessToken)

	w, env = serve(r, http.MethodPost, "/auth/login", map[string]string{"username": "1003", "password": "pass1003"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "student", res.Role)
	assert.Equal(t, "1003", res.RedirectID)

	w, env = serve(r, http.MethodPost, "/auth/login", map[string]string{"username": "1003", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid username or password for student role", env.Error.Message)

	w, _ = serve(r, http.MethodPost, "/auth/login", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = serve(r, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandlerCRUD(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/users", f.users.List)
	r.POST("/users", f.users.Create)
	r.DELETE("/users/:id", f.users.Delete)

	w, env := serve(r, http.MethodPost, "/users", map[string]string{"name": "Registrar", "email": "ADMIN@portal.edu", "password": "secret1"})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	w, env = serve(r, http.MethodPost, "/users", map[string]string{"name": "Registrar", "email": "registrar@portal.edu", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, string(env.Data), "password")
	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, models.RoleStudent, user.Role)

	w, _ = serve(r, http.MethodGet, "/users?role=admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@portal.edu")
	assert.NotContains(t, w.Body.String(), "registrar@portal.edu")

	w, env = serve(r, http.MethodDelete, "/users/"+user.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"message":"User deleted"`)
}

func TestCourseHandlerDeleteDetachesStudents(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/courses", f.courses.List)
	r.DELETE("/courses/:id", f.courses.Delete)

	course, err := f.store.Courses().FindByName(context.Background(), "Computer Science")
	require.NoError(t, err)

	w, env := serve(r, http.MethodDelete, "/courses/"+course.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"message":"Course deleted"`)

	st, err := f.store.Students().FindByID(context.Background(), "1001")
	require.NoError(t, err)
	assert.Nil(t, st.CourseID)

	w, env = serve(r, http.MethodDelete, "/courses/"+course.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "course not found", env.Error.Message)
}

func TestPortalHandlerEndpoints(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.GET("/portal/profile", f.portal.Profile)
	r.GET("/portal/academic-history", f.portal.AcademicHistory)
	r.POST("/portal/registration/schedule", f.portal.BuildSchedule)
	r.POST("/portal/payments", f.portal.SubmitPayment)

	w, env := serve(r, http.MethodGet, "/portal/profile?id=1002", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Tigist Alemayehu")

	w, _ = serve(r, http.MethodGet, "/portal/profile?id=9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, env = serve(r, http.MethodGet, "/portal/academic-history", nil)
	assert.Contains(t, string(env.Data), `"3.68"`)

	w, env = serve(r, http.MethodPost, "/portal/registration/schedule", map[string][]string{"codes": {"HIST 350", "CS 320", "LANG 201"}})
	require.Equal(t, http.StatusOK, w.Code)
	var schedule models.ScheduleResult
	require.NoError(t, json.Unmarshal(env.Data, &schedule))
	require.Len(t, schedule.Accepted, 1)
	assert.Equal(t, 3, schedule.TotalCredits)
	assert.Len(t, schedule.Rejected, 2)

	w, _ = serve(r, http.MethodPost, "/portal/payments", map[string]interface{}{"amount": 1e9, "method": "credit_card"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandlerScopesToSignedInStudent(t *testing.T) {
	f := newFixture(t)
	r := gin.New()
	r.Use(withClaims(&models.JWTClaims{UserID: "1004", Role: models.RoleStudent}))
	r.POST("/portal/requests/add-drop", f.requests.SubmitAddDrop)
	r.GET("/portal/requests", f.requests.List)

	w, env := serve(r, http.MethodPost, "/portal/requests/add-drop", map[string]string{
		"student_id": "1001", "action": "add", "course_code": "HUMN 350", "reason": "elective",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var stored models.PortalRequest
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	require.NotNil(t, stored.StudentID)
	assert.Equal(t, "1004", *stored.StudentID)

	w, env = serve(r, http.MethodPost, "/portal/requests/add-drop", map[string]string{
		"action": "add", "course_code": "FIN 201", "reason": "required",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "course is full - exception required", env.Error.Message)

	w, env = serve(r, http.MethodGet, "/portal/requests?student_id=1001", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.PortalRequest
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, stored.Reference, listed[0].Reference)
}

func TestMetricsHandlerReadiness(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"postgres": func(context.Context) error { return nil },
	})
	degraded := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	r := gin.New()
	r.GET("/ready", healthy.Ready)
	r.GET("/degraded", degraded.Ready)
	r.GET("/metrics", degraded.Prometheus)

	w, _ := serve(r, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"postgres":"ok"`)

	w, _ = serve(r, http.MethodGet, "/degraded", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "refused")

	w, _ = serve(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
